package embedding

import (
	"context"
	"fmt"

	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

const probeText = "ping"

// NewProvider builds the configured provider. It returns nil, nil when
// embeddings are disabled.
func NewProvider(cfg *config.EmbeddingConfig) (core.EmbeddingProvider, error) {
	var p core.EmbeddingProvider

	switch cfg.Provider {
	case config.EmbeddingProviderNone, "":
		return nil, nil
	case config.EmbeddingProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("embedding provider %q requires an API key", cfg.Provider)
		}
		p = NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.EmbeddingProviderOllama:
		p = NewOllama(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	return WithTimeout(p, cfg.Timeout), nil
}

// Probe checks once that p answers. On failure it logs and returns nil so the
// rest of the run uses lexical similarity only.
func Probe(ctx context.Context, p core.EmbeddingProvider) core.EmbeddingProvider {
	if p == nil {
		return nil
	}

	logger := log.FromCtx(ctx)

	vec, err := p.Embed(ctx, probeText)
	if err != nil {
		logger.Warn().Err(err).Str("provider", p.Name()).Msg("embedding provider unavailable, falling back to lexical similarity")
		return nil
	}

	logger.Info().Str("provider", p.Name()).Int("dimensions", len(vec)).Msg("embedding provider ready")
	return p
}

// Setup combines NewProvider and Probe. Misconfiguration is logged like an
// unreachable provider.
func Setup(ctx context.Context, cfg *config.EmbeddingConfig) core.EmbeddingProvider {
	p, err := NewProvider(cfg)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("embedding provider misconfigured, falling back to lexical similarity")
		return nil
	}
	return Probe(ctx, p)
}
