package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Failure kinds surfaced by vision backends. Each kind maps to a distinct
// user-facing message and none is retried automatically.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrRateLimited       = errors.New("rate limited")
	ErrMalformedResponse = errors.New("malformed AI response")
	ErrTransport         = errors.New("transport error")
	ErrAPI               = errors.New("API error")
)

// APIError carries a server-supplied status and message
type APIError struct {
	Kind    error
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%v (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

// Unwrap exposes the kind so errors.Is matches the sentinels
func (e *APIError) Unwrap() error {
	return e.Kind
}

// Classify builds an APIError for a non-success HTTP status
func Classify(status int, message string) *APIError {
	kind := ErrAPI
	switch status {
	case http.StatusUnauthorized:
		kind = ErrInvalidCredential
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{Kind: kind, Status: status, Message: message}
}

// Kind returns the taxonomy sentinel matching err, or nil when err does
// not belong to the analysis taxonomy.
func Kind(err error) error {
	for _, k := range []error{ErrInvalidCredential, ErrRateLimited, ErrMalformedResponse, ErrTransport, ErrAPI} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
