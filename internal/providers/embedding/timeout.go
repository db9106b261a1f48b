package embedding

import (
	"context"
	"time"

	"github.com/saxil/mareen/internal/core"
)

type timeoutProvider struct {
	core.EmbeddingProvider
	timeout time.Duration
}

// WithTimeout bounds every Embed call of p by d. A non-positive d returns p
// unchanged.
func WithTimeout(p core.EmbeddingProvider, d time.Duration) core.EmbeddingProvider {
	if p == nil || d <= 0 {
		return p
	}
	return &timeoutProvider{EmbeddingProvider: p, timeout: d}
}

func (p *timeoutProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.EmbeddingProvider.Embed(ctx, text)
}
