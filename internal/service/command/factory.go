package command

import (
	"context"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/service/embedcache"
	"github.com/saxil/mareen/internal/service/guard"
	"github.com/saxil/mareen/internal/service/retrieval"
)

type MemoryStore interface {
	Statistics(ctx context.Context) (core.Stats, error)
	ListSessions(ctx context.Context, limit int) ([]core.Session, error)
	Search(ctx context.Context, substring string, limit int) ([]core.SearchResult, error)
	RecentContext(ctx context.Context, n int) ([]core.Message, error)
}

type Retriever interface {
	DefaultOptions() retrieval.Options
	Retrieve(ctx context.Context, query string, opts retrieval.Options) ([]core.ScoredMemory, error)
	SimilarPastQueries(ctx context.Context, query string, topK int, exclude ...int64) ([]core.ScoredMemory, error)
	Stats(ctx context.Context) (retrieval.Stats, error)
}

type Resetter interface {
	Reset(ctx context.Context) error
}

type IdentityGuard interface {
	VerifyIntegrity(ctx context.Context) bool
	Stats(ctx context.Context) guard.Stats
}

type EmbeddingCache interface {
	Stats() embedcache.Stats
	Clear(ctx context.Context) error
}

type ModelLister interface {
	Models(ctx context.Context) ([]core.Model, error)
	Model() string
}

// Deps are the services the chat commands operate on.
type Deps struct {
	Memory    MemoryStore
	Retriever Retriever
	Session   Resetter
	Guard     IdentityGuard
	Cache     EmbeddingCache
	Models    ModelLister
}

func NewCommands(d Deps) []core.Command {
	return []core.Command{
		NewStatsCommand(d.Memory, d.Retriever, d.Cache),
		NewSessionsCommand(d.Memory),
		NewHistoryCommand(d.Memory),
		NewSearchCommand(d.Memory),
		NewRecallCommand(d.Retriever),
		NewSimilarCommand(d.Retriever),
		NewNewSessionCommand(d.Session),
		NewVerifyCommand(d.Guard),
		NewCacheCommand(d.Cache),
		NewModelsCommand(d.Models),
	}
}
