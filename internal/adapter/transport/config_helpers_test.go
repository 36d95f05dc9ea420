package transport_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/assetze/ghaudit/internal/adapter/transport"
	"github.com/assetze/ghaudit/internal/config"
)

func TestParseTimeout(t *testing.T) {
	override := "5s"
	negative := "-5s"
	garbage := "not-a-duration"

	tests := []struct {
		name     string
		override *string
		global   string
		expected time.Duration
	}{
		{"provider override wins", &override, "10s", 5 * time.Second},
		{"global used when no override", nil, "10s", 10 * time.Second},
		{"default when nothing set", nil, "", 30 * time.Second},
		{"negative override rejected", &negative, "10s", 10 * time.Second},
		{"garbage override rejected", &garbage, "10s", 10 * time.Second},
		{"garbage global rejected", nil, "garbage", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transport.ParseTimeout(tt.override, tt.global, 30*time.Second)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildRetryConfig(t *testing.T) {
	retries := 7
	backoff := "1s"

	provider := config.ProviderConfig{
		MaxRetries:     &retries,
		InitialBackoff: &backoff,
	}
	httpCfg := config.HTTPConfig{
		MaxRetries:        3,
		InitialBackoff:    "2s",
		MaxBackoff:        "16s",
		BackoffMultiplier: 2.0,
	}

	rc := transport.BuildRetryConfig(provider, httpCfg)

	assert.Equal(t, 7, rc.MaxRetries)
	assert.Equal(t, time.Second, rc.InitialBackoff)
	assert.Equal(t, 16*time.Second, rc.MaxBackoff)
	assert.Equal(t, 2.0, rc.Multiplier)
}

func TestBuildRetryConfig_ZeroMultiplierFallsBack(t *testing.T) {
	rc := transport.BuildRetryConfig(config.ProviderConfig{}, config.HTTPConfig{})
	assert.Equal(t, 2.0, rc.Multiplier)
}
