package static_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetze/ghaudit/internal/adapter/llm/static"
)

func TestComplete_EchoesUserMessage(t *testing.T) {
	provider := static.NewProvider("static-v1")

	text, err := provider.Complete(context.Background(), "system prompt", "verify this token")
	require.NoError(t, err)
	assert.Equal(t, "[static/static-v1] verify this token", text)
}

func TestComplete_Deterministic(t *testing.T) {
	provider := static.NewProvider("static-v1")

	first, err := provider.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	second, err := provider.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComplete_HonorsCancelledContext(t *testing.T) {
	provider := static.NewProvider("static-v1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.Complete(ctx, "s", "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
