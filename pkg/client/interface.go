package client

import (
	"context"
)

// Request is a single vision chat request: one system instruction, one
// user prompt and one JPEG image.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Image       []byte
	Detail      string
	MaxTokens   int
	Temperature float64
}

// VisionClient sends a Request and returns the raw completion text
type VisionClient interface {
	Complete(ctx context.Context, req Request) (string, error)
}
