package analysis

import (
	"errors"

	"github.com/menta2k/product-booth/pkg/client"
)

// Message renders a failure as the inline text shown next to a photo
func Message(err error) string {
	if err == nil {
		return ""
	}

	switch client.Kind(err) {
	case client.ErrInvalidCredential:
		return "Invalid API key. Check the key in your preferences."
	case client.ErrRateLimited:
		return "Rate limit reached. Wait a moment, then re-analyze."
	case client.ErrMalformedResponse:
		return "The AI response could not be read. Try re-analyzing."
	case client.ErrTransport:
		return "Network error while contacting the analysis service."
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return "Error: " + apiErr.Message
	}
	return "Error: " + err.Error()
}
