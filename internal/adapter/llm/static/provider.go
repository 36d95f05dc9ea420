package static

import (
	"context"
	"fmt"
)

const providerName = "static"

// Provider implements the workflow Completer port without network access.
type Provider struct {
	model string
}

// NewProvider constructs a static Provider.
func NewProvider(model string) *Provider {
	return &Provider{
		model: model,
	}
}

// Complete returns a static, pre-determined completion that echoes the user
// message so callers can assert the prompt reached the provider.
func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("[%s/%s] %s", providerName, p.model, user), nil
}
