package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/saxil/mareen/pkg/log"
)

// RetrievalConfig holds the empirical tuning constants of the scorer.
type RetrievalConfig struct {
	TopK          int     `env:"MAREEN_RETRIEVAL_TOP_K" envDefault:"5"`
	ContextTopK   int     `env:"MAREEN_CONTEXT_TOP_K" envDefault:"3"`
	MinSimilarity float64 `env:"MAREEN_MIN_SIMILARITY" envDefault:"0.3"`

	// Only the MaxSessions newest sessions started inside this window are
	// scanned; 0 lifts the session cap.
	WindowDays  int `env:"MAREEN_RETRIEVAL_WINDOW_DAYS" envDefault:"30"`
	MaxSessions int `env:"MAREEN_RETRIEVAL_MAX_SESSIONS" envDefault:"50"`

	DecayHours       float64 `env:"MAREEN_DECAY_HOURS" envDefault:"24"`
	SimilarityWeight float64 `env:"MAREEN_SIMILARITY_WEIGHT" envDefault:"0.7"`
	RecencyWeight    float64 `env:"MAREEN_RECENCY_WEIGHT" envDefault:"0.3"`

	SnippetChars          int     `env:"MAREEN_SNIPPET_CHARS" envDefault:"150"`
	SimilarQueryThreshold float64 `env:"MAREEN_SIMILAR_QUERY_THRESHOLD" envDefault:"0.4"`
}

// DefaultRetrievalConfig mirrors the envDefault tags.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:                  5,
		ContextTopK:           3,
		MinSimilarity:         0.3,
		WindowDays:            30,
		MaxSessions:           50,
		DecayHours:            24,
		SimilarityWeight:      0.7,
		RecencyWeight:         0.3,
		SnippetChars:          150,
		SimilarQueryThreshold: 0.4,
	}
}

func NewRetrievalConfig(ctx context.Context) *RetrievalConfig {
	c := &RetrievalConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Retrieval config")
	}
	return c
}
