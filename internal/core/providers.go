package core

import "context"

// AIProvider is the opaque generation backend.
type AIProvider interface {
	Chat(ctx context.Context, history []ChatMessage) (ChatMessage, error)
}

// EmbeddingProvider turns text into a fixed-length vector.
type EmbeddingProvider interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Model is an entry of a backend's model listing.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
