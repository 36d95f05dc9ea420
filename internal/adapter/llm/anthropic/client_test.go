package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetze/ghaudit/internal/adapter/llm/anthropic"
	"github.com/assetze/ghaudit/internal/adapter/transport"
)

func newTestClient(t *testing.T, handler http.Handler) *anthropic.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient("test-api-key", "claude-3-5-haiku-20241022")
	client.SetBaseURL(server.URL)
	client.SetRetryConfig(transport.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	})
	return client
}

func TestComplete_Success(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var req anthropic.MessagesRequest
		err := json.NewDecoder(r.Body).Decode(&req)
		require.NoError(t, err)

		assert.Equal(t, "claude-3-5-haiku-20241022", req.Model)
		assert.Equal(t, "You are a security assistant.", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Greater(t, req.MaxTokens, 0)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			ID:    "msg_123",
			Type:  "message",
			Role:  "assistant",
			Model: "claude-3-5-haiku-20241022",
			Content: []anthropic.ContentBlock{
				{Type: "text", Text: "The token "},
				{Type: "text", Text: "is invalid."},
			},
			StopReason: "end_turn",
		})
	}))

	text, err := client.Complete(context.Background(), "You are a security assistant.", "Explain this result.")
	require.NoError(t, err)
	assert.Equal(t, "The token is invalid.", text)
}

func TestComplete_RateLimitIsRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(anthropic.ErrorResponse{
				Type:  "error",
				Error: anthropic.ErrorDetail{Type: "rate_limit_error", Message: "Rate limited"},
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropic.MessagesResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: "ok"}},
		})
	}))

	text, err := client.Complete(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestComplete_AuthenticationError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(anthropic.ErrorResponse{
			Type:  "error",
			Error: anthropic.ErrorDetail{Type: "authentication_error", Message: "invalid x-api-key"},
		})
	}))

	_, err := client.Complete(context.Background(), "system", "user")
	require.Error(t, err)

	var apiErr *transport.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, transport.ErrTypeAuthentication, apiErr.Type)
	assert.Equal(t, "invalid x-api-key", apiErr.Message)
}

func TestComplete_EmptyContent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(anthropic.MessagesResponse{})
	}))

	_, err := client.Complete(context.Background(), "system", "user")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text content")
}
