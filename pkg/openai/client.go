package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/product-booth/pkg/client"
)

// DefaultBaseURL is the public OpenAI API
const DefaultBaseURL = "https://api.openai.com"

const completionsPath = "/v1/chat/completions"

// Client talks to an OpenAI-compatible chat completions endpoint
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// OpenAI-compatible message format
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // Can be string or []ContentPart
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// OpenAI-compatible chat completion request
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

// OpenAI-compatible chat completion response
type ChatCompletionResponse struct {
	ID      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Usage   Usage     `json:"usage,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError is the error envelope returned by the API
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Code    any    `json:"code,omitempty"`
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the transport. The default is http.DefaultClient,
// whose timeout behaviour governs requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for baseURL authenticated with apiKey
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BuildRequest converts a vision request into the wire payload
func BuildRequest(req client.Request) ChatCompletionRequest {
	detail := req.Detail
	if detail == "" {
		detail = "high"
	}

	content := []ContentPart{
		{
			Type: "text",
			Text: req.Prompt,
		},
		{
			Type: "image_url",
			ImageURL: &ImageURL{
				URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image),
				Detail: detail,
			},
		},
	}

	return ChatCompletionRequest{
		Model: req.Model,
		Messages: []Message{
			{
				Role:    "system",
				Content: req.System,
			},
			{
				Role:    "user",
				Content: content,
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// Complete sends the request and returns the completion text
func (c *Client) Complete(ctx context.Context, req client.Request) (string, error) {
	payload := BuildRequest(req)

	respBody, status, err := c.sendRequest(ctx, completionsPath, payload)
	if err != nil {
		return "", err
	}

	var resp ChatCompletionResponse
	decodeErr := json.Unmarshal(respBody, &resp)

	if status < 200 || status > 299 {
		msg := strings.TrimSpace(string(respBody))
		if decodeErr == nil && resp.Error != nil && resp.Error.Message != "" {
			msg = resp.Error.Message
		}
		return "", client.Classify(status, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: decode response: %v", client.ErrMalformedResponse, decodeErr)
	}
	if resp.Error != nil {
		return "", &client.APIError{Kind: client.ErrAPI, Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", client.ErrMalformedResponse)
	}

	log.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("chat completion received")

	// Extract text from the response (handle both string and array formats)
	switch content := resp.Choices[0].Message.Content.(type) {
	case string:
		return content, nil
	case []interface{}:
		for _, item := range content {
			if partMap, ok := item.(map[string]interface{}); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					return text, nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: no text content in response", client.ErrMalformedResponse)
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, int, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %v", client.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read response: %v", client.ErrTransport, err)
	}

	return body, resp.StatusCode, nil
}
