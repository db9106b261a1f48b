package core

import (
	"context"
	"time"
)

// SessionRepository persists sessions and their messages.
type SessionRepository interface {
	CreateSession(ctx context.Context, s Session) error
	CloseSession(ctx context.Context, sessionID string, endTime time.Time) (int, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	ListSessions(ctx context.Context, limit int) ([]Session, error)

	AddMessage(ctx context.Context, msg Message) (int64, error)
	GetMessages(ctx context.Context, sessionID string, limit int) ([]Message, error)
	MessagesSince(ctx context.Context, cutoff time.Time, maxSessions int) ([]Message, error)
	Search(ctx context.Context, substring string, limit int) ([]SearchResult, error)
	Stats(ctx context.Context) (Stats, error)

	ImportSession(ctx context.Context, s Session, msgs []Message) error
}

// EmbeddingRepository is the durable side of the embedding cache. Vectors are
// scoped by provider name so that vectors of different providers never mix.
type EmbeddingRepository interface {
	LoadEmbeddings(ctx context.Context, provider string) (map[string][]float32, error)
	SaveEmbedding(ctx context.Context, provider, text string, vector []float32) error
	ClearEmbeddings(ctx context.Context) error
}
