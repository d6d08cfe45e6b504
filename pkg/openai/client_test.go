package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/product-booth/pkg/client"
)

func testRequest() client.Request {
	return client.Request{
		Model:       "gpt-4o-mini",
		System:      "system text",
		Prompt:      "user text",
		Image:       []byte{0xff, 0xd8, 0xff},
		MaxTokens:   500,
		Temperature: 0.3,
	}
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "sk-test", WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	assert.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	payload := BuildRequest(testRequest())

	assert.Equal(t, "gpt-4o-mini", payload.Model)
	assert.Equal(t, 500, payload.MaxTokens)
	assert.Equal(t, 0.3, payload.Temperature)
	require.Len(t, payload.Messages, 2)
	assert.Equal(t, "system", payload.Messages[0].Role)
	assert.Equal(t, "system text", payload.Messages[0].Content)

	parts, ok := payload.Messages[1].Content.([]ContentPart)
	require.True(t, ok)
	require.Len(t, parts, 2)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, "image_url", parts[1].Type)
	assert.Equal(t, "data:image/jpeg;base64,/9j/", parts[1].ImageURL.URL)
	assert.Equal(t, "high", parts[1].ImageURL.Detail)
}

func TestCompleteSendsWirePayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, completionsPath, r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.EqualValues(t, 500, body["max_tokens"])
		assert.EqualValues(t, 0.3, body["temperature"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"title\":\"X\",\"details\":{}}"}}]}`))
	})

	text, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, `{"title":"X","details":{}}`, text)
}

func TestCompleteClassifiesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   error
	}{
		{"unauthorized", http.StatusUnauthorized, client.ErrInvalidCredential},
		{"rate limited", http.StatusTooManyRequests, client.ErrRateLimited},
		{"server error", http.StatusInternalServerError, client.ErrAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"test"}}`))
			})

			_, err := c.Complete(context.Background(), testRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var apiErr *client.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestCompleteErrorEnvelopeOnSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	})

	_, err := c.Complete(context.Background(), testRequest())
	assert.ErrorIs(t, err, client.ErrAPI)
	assert.True(t, strings.Contains(err.Error(), "model overloaded"))
}

func TestCompleteNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Complete(context.Background(), testRequest())
	assert.ErrorIs(t, err, client.ErrMalformedResponse)
}

func TestCompleteArrayContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"hello"}]}}]}`))
	})

	text, err := c.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestCompleteTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(url, "sk-test")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testRequest())
	assert.ErrorIs(t, err, client.ErrTransport)
}
