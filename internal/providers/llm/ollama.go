package llm

import (
	"context"
	"time"

	"github.com/saxil/mareen/internal/core"
)

// Ollama chats through Ollama's OpenAI-compatible endpoint and lists models
// with its native tag API, which also covers models that were never loaded.
type Ollama struct {
	*OpenAICompatible
}

func NewOllama(baseURL, apiKey, model string, timeout time.Duration) *Ollama {
	return &Ollama{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      model,
			Timeout:    timeout,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}

// Models lists locally pulled models.
func (o *Ollama) Models(ctx context.Context) ([]core.Model, error) {
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := o.getJSON(ctx, "/api/tags", o.headers(), &tags); err != nil {
		return nil, core.ProviderError("Models", err)
	}

	models := make([]core.Model, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, core.Model{ID: m.Name, Name: m.Name})
	}
	return models, nil
}
