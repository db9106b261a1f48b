package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/saxil/mareen/pkg/log"
)

const (
	LLMProviderOllama     = "ollama"
	LLMProviderOpenAI     = "openai"
	LLMProviderOpenRouter = "openrouter"
	LLMProviderCustom     = "custom"
)

// LLMConfig points at an OpenAI-compatible chat endpoint. The default is a
// local Ollama instance.
type LLMConfig struct {
	Provider string        `env:"MAREEN_LLM_PROVIDER" envDefault:"ollama"`
	BaseURL  string        `env:"MAREEN_LLM_BASE_URL" envDefault:"http://localhost:11434"`
	APIKey   string        `env:"MAREEN_LLM_API_KEY"`
	Model    string        `env:"MAREEN_LLM_MODEL" envDefault:"llama3.2"`
	Timeout  time.Duration `env:"MAREEN_LLM_TIMEOUT" envDefault:"120s"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}
