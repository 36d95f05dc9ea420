package transport_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assetze/ghaudit/internal/adapter/transport"
)

func TestError_Error(t *testing.T) {
	err := &transport.Error{
		Type:       transport.ErrTypeAuthentication,
		Message:    "bad credentials",
		StatusCode: 401,
		Service:    "github",
	}

	expected := "github: authentication error: bad credentials (status: 401)"
	assert.Equal(t, expected, err.Error())
}

func TestError_Is(t *testing.T) {
	err1 := &transport.Error{Type: transport.ErrTypeRateLimit, Message: "rate limited"}
	err2 := &transport.Error{Type: transport.ErrTypeRateLimit, Message: "different message"}
	err3 := &transport.Error{Type: transport.ErrTypeAuthentication, Message: "auth failed"}

	// Same type should match
	assert.True(t, errors.Is(err1, err2))

	// Different type should not match
	assert.False(t, errors.Is(err1, err3))
}

func TestError_Constructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *transport.Error
		errType   transport.ErrorType
		status    int
		retryable bool
	}{
		{"authentication", transport.NewAuthenticationError("github", "m"), transport.ErrTypeAuthentication, 401, false},
		{"rate limit", transport.NewRateLimitError("github", "m"), transport.ErrTypeRateLimit, 429, true},
		{"service unavailable", transport.NewServiceUnavailableError("openai", "m"), transport.ErrTypeServiceUnavailable, 503, true},
		{"invalid request", transport.NewInvalidRequestError("openai", "m"), transport.ErrTypeInvalidRequest, 400, false},
		{"timeout", transport.NewTimeoutError("github", "m"), transport.ErrTypeTimeout, 0, true},
		{"not found", transport.NewNotFoundError("github", "m"), transport.ErrTypeNotFound, 404, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.errType, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.retryable, tt.err.IsRetryable())
		})
	}
}
