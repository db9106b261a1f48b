package main

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/providers/embedding"
	"github.com/saxil/mareen/internal/providers/llm"
	"github.com/saxil/mareen/internal/service/agent"
	"github.com/saxil/mareen/internal/service/command"
	"github.com/saxil/mareen/internal/service/embedcache"
	"github.com/saxil/mareen/internal/service/guard"
	"github.com/saxil/mareen/internal/service/memory"
	"github.com/saxil/mareen/internal/service/retrieval"
	"github.com/saxil/mareen/internal/storage/sqlite"
	"github.com/saxil/mareen/pkg/log"
)

// App holds the memory core shared by every subcommand.
type App struct {
	cfg          *config.AppConfig
	retrievalCfg *config.RetrievalConfig

	db     *sql.DB
	store  *memory.Store
	cache  *embedcache.Cache
	scorer *retrieval.Scorer
}

// NewApp opens storage. The embedding provider is only contacted when
// withEmbeddings is set; otherwise the cache works on the persisted vectors
// alone and retrieval falls back to lexical similarity.
func NewApp(ctx context.Context, withEmbeddings bool) *App {
	logger := log.FromCtx(ctx)

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	retrievalCfg := config.NewRetrievalConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	store := memory.NewStore(sqlite.NewSessionsRepo(db), appCfg.GetDatabasePath())

	// 3. Embeddings
	var provider core.EmbeddingProvider
	if withEmbeddings {
		provider = embedding.Setup(ctx, config.NewEmbeddingConfig(ctx))
	}
	cache := embedcache.New(ctx, provider, sqlite.NewEmbeddingsRepo(db))

	// 4. Retrieval
	scorer := retrieval.NewScorer(store, cache, *retrievalCfg)

	return &App{
		cfg:          appCfg,
		retrievalCfg: retrievalCfg,
		db:           db,
		store:        store,
		cache:        cache,
		scorer:       scorer,
	}
}

// NewGuard loads the identity file and the optional pattern overrides.
func (a *App) NewGuard(ctx context.Context) *guard.Guard {
	logger := log.FromCtx(ctx)

	guardCfg, err := guard.LoadConfig(a.cfg.GetGuardPath())
	if err != nil {
		logger.Fatal().Err(err).Str("path", a.cfg.GetGuardPath()).Msg("failed to load guard config")
	}

	g, err := guard.New(ctx, a.cfg.GetIdentityPath(), guardCfg)
	if err != nil {
		if errors.Is(err, core.ErrIdentityMissing) {
			logger.Fatal().Err(err).Msg("identity file not found, run 'mareen init' first")
		}
		logger.Fatal().Err(err).Msg("failed to load identity")
	}
	return g
}

func (a *App) NewLLM(ctx context.Context) llm.Provider {
	p, err := llm.NewProvider(ctx, config.NewLLMConfig(ctx))
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to initialize LLM provider")
	}
	return p
}

func (a *App) NewAgent(g *guard.Guard, ai core.AIProvider) *agent.Agent {
	return agent.NewAgent(g, a.store, a.scorer, ai, agent.Config{
		ContextTopK: a.retrievalCfg.ContextTopK,
		TokenBudget: a.cfg.HistoryTokenBudget,
	})
}

func (a *App) NewCommands(ag *agent.Agent, g *guard.Guard, models llm.Provider) *command.Router {
	return command.New(command.NewCommands(command.Deps{
		Memory:    a.store,
		Retriever: a.scorer,
		Session:   ag,
		Guard:     g,
		Cache:     a.cache,
		Models:    models,
	}))
}

func (a *App) NewWarmer() *embedcache.Warmer {
	window := time.Duration(a.retrievalCfg.WindowDays) * 24 * time.Hour
	return embedcache.NewWarmer(a.cache, a.store, window)
}

// Close ends an open session and closes the database.
func (a *App) Close(ctx context.Context) {
	if a.store.CurrentSession() != "" {
		if err := a.store.EndSession(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("failed to end session")
		}
	}
	if err := a.db.Close(); err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to close database")
	}
}
