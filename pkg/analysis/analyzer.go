package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/product-booth/pkg/client"
	"github.com/menta2k/product-booth/pkg/types"
)

// Request defaults favouring short, deterministic answers
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.3
	DefaultDetail      = "high"
)

// Analyzer turns a captured JPEG into listing metadata
type Analyzer struct {
	client   client.VisionClient
	preparer *Preparer
	config   Config
}

// Config holds the request parameters
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Detail      string
	System      string
	Prompt      string
}

// DefaultConfig returns the standard listing-extraction request parameters
func DefaultConfig() Config {
	return Config{
		Model:       DefaultModel,
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		Detail:      DefaultDetail,
		System:      SystemPrompt,
		Prompt:      UserPrompt,
	}
}

// New creates an Analyzer with default configuration
func New(vc client.VisionClient) *Analyzer {
	return NewWithConfig(vc, NewPreparer(), DefaultConfig())
}

// NewWithConfig creates an Analyzer with custom configuration
func NewWithConfig(vc client.VisionClient, preparer *Preparer, config Config) *Analyzer {
	if preparer == nil {
		preparer = NewPreparer()
	}
	if config.System == "" {
		config.System = SystemPrompt
	}
	if config.Prompt == "" {
		config.Prompt = UserPrompt
	}
	return &Analyzer{client: vc, preparer: preparer, config: config}
}

// Analyze prepares the image, sends it, and parses the response. Returned
// errors always match one of the client taxonomy sentinels unless the
// context was cancelled.
func (a *Analyzer) Analyze(ctx context.Context, jpeg []byte) (*types.AnalysisResult, error) {
	prepared := <-a.preparer.PrepareAsync(ctx, jpeg)
	if prepared.Err != nil {
		if errors.Is(prepared.Err, context.Canceled) {
			return nil, prepared.Err
		}
		return nil, &client.APIError{Kind: client.ErrAPI, Message: prepared.Err.Error()}
	}

	log.Debug().
		Int("original_bytes", len(jpeg)).
		Int("payload_bytes", len(prepared.Data)).
		Str("model", a.config.Model).
		Msg("sending image for analysis")

	text, err := a.client.Complete(ctx, client.Request{
		Model:       a.config.Model,
		System:      a.config.System,
		Prompt:      a.config.Prompt,
		Image:       prepared.Data,
		Detail:      a.config.Detail,
		MaxTokens:   a.config.MaxTokens,
		Temperature: a.config.Temperature,
	})
	if err != nil {
		if client.Kind(err) == nil && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %v", client.ErrTransport, err)
		}
		return nil, err
	}

	return ParseResponse(text)
}
