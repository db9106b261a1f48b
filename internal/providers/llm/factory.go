package llm

import (
	"context"
	"fmt"

	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

const (
	openAIBaseURL     = "https://api.openai.com"
	openRouterBaseURL = "https://openrouter.ai/api"
)

// Provider is a chat backend that can also list its models.
type Provider interface {
	core.AIProvider
	Models(ctx context.Context) ([]core.Model, error)
	Model() string
}

// NewProvider creates the chat backend selected by cfg.Provider.
func NewProvider(ctx context.Context, cfg *config.LLMConfig) (Provider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	bearer := func(baseURL string, extra map[string]string) *OpenAICompatible {
		return NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:      baseURL,
			APIKey:       cfg.APIKey,
			Model:        cfg.Model,
			Timeout:      cfg.Timeout,
			AuthHeader:   "Authorization",
			AuthPrefix:   "Bearer ",
			ExtraHeaders: extra,
		})
	}

	switch cfg.Provider {
	case config.LLMProviderOllama:
		return NewOllama(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case config.LLMProviderOpenAI:
		return bearer(openAIBaseURL, nil), nil
	case config.LLMProviderOpenRouter:
		return bearer(openRouterBaseURL, map[string]string{"X-Title": core.AppName}), nil
	case config.LLMProviderCustom:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider %q requires a base URL", cfg.Provider)
		}
		return bearer(cfg.BaseURL, nil), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
