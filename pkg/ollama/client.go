package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/product-booth/pkg/client"
)

// DefaultURL is the default local Ollama server
const DefaultURL = "http://localhost:11434"

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string, httpClient *http.Client) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid URL: %q", ollamaURL)
	}

	// Create base URL from the provided URL (removing path like /api/chat)
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{client: api.NewClient(baseURL, httpClient)}, nil
}

// Complete runs a non-streaming chat with the image attached to the user message
func (c *Client) Complete(ctx context.Context, req client.Request) (string, error) {
	streamFalse := false

	options := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	chatReq := &api.ChatRequest{
		Model: req.Model,
		Messages: []api.Message{
			{
				Role:    "system",
				Content: req.System,
			},
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []api.ImageData{api.ImageData(req.Image)},
			},
		},
		Stream:  &streamFalse,
		Options: options,
	}

	var responseContent strings.Builder
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		responseContent.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", classify(err)
	}

	if responseContent.Len() == 0 {
		return "", fmt.Errorf("%w: empty response from ollama", client.ErrMalformedResponse)
	}

	log.Debug().Str("model", req.Model).Int("length", responseContent.Len()).Msg("ollama chat completed")
	return responseContent.String(), nil
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return client.Classify(statusErr.StatusCode, statusErr.ErrorMessage)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", client.ErrTransport, err)
	}

	return &client.APIError{Kind: client.ErrAPI, Message: err.Error()}
}
