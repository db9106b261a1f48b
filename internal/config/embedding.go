package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/saxil/mareen/pkg/log"
)

const (
	EmbeddingProviderNone   = "none"
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderOllama = "ollama"
)

type EmbeddingConfig struct {
	Provider string        `env:"MAREEN_EMBEDDING_PROVIDER" envDefault:"none"`
	Model    string        `env:"MAREEN_EMBEDDING_MODEL"`
	APIKey   string        `env:"MAREEN_EMBEDDING_API_KEY"`
	BaseURL  string        `env:"MAREEN_EMBEDDING_BASE_URL"`
	Timeout  time.Duration `env:"MAREEN_EMBEDDING_TIMEOUT" envDefault:"10s"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}
