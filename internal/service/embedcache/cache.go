package embedcache

import (
	"context"
	"sync"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

// Cache memoises provider vectors by exact text and writes them through to
// durable storage. A nil provider makes the cache report every text as
// absent.
type Cache struct {
	provider core.EmbeddingProvider
	repo     core.EmbeddingRepository

	mu         sync.RWMutex
	vectors    map[string][]float32
	persistent bool
}

type Stats struct {
	Provider   string `json:"provider"`
	Available  bool   `json:"available"`
	Entries    int    `json:"entries"`
	Persistent bool   `json:"persistent"`
}

func New(ctx context.Context, provider core.EmbeddingProvider, repo core.EmbeddingRepository) *Cache {
	c := &Cache{
		provider:   provider,
		repo:       repo,
		vectors:    make(map[string][]float32),
		persistent: repo != nil,
	}

	if provider == nil || repo == nil {
		return c
	}

	loaded, err := repo.LoadEmbeddings(ctx, provider.Name())
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load embedding cache, continuing in memory only")
		c.persistent = false
		return c
	}

	c.vectors = loaded
	log.FromCtx(ctx).Debug().Str("provider", provider.Name()).Int("entries", len(loaded)).Msg("embedding cache loaded")
	return c
}

// Available reports whether a provider was detected at startup.
func (c *Cache) Available() bool {
	return c.provider != nil
}

// Embed returns the vector for text. It returns nil, nil when no provider is
// configured.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.provider == nil {
		return nil, nil
	}

	c.mu.RLock()
	vec, ok := c.vectors[text]
	c.mu.RUnlock()
	if ok {
		return clone(vec), nil
	}

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, core.ProviderError("Embed", err)
	}

	c.mu.Lock()
	c.vectors[text] = vec
	persist := c.persistent
	c.mu.Unlock()

	if persist {
		if err := c.repo.SaveEmbedding(ctx, c.provider.Name(), text, vec); err != nil {
			c.degrade(ctx, err)
		}
	}

	return clone(vec), nil
}

// Cached reports whether text already has a vector in memory.
func (c *Cache) Cached(text string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.vectors[text]
	return ok
}

// Clear drops every vector from memory and from durable storage.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.vectors = make(map[string][]float32)
	c.mu.Unlock()

	if c.repo != nil {
		if err := c.repo.ClearEmbeddings(ctx); err != nil {
			return core.StorageError("ClearEmbeddings", err)
		}
	}

	log.FromCtx(ctx).Info().Msg("embedding cache cleared")
	return nil
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Stats{
		Available:  c.provider != nil,
		Entries:    len(c.vectors),
		Persistent: c.persistent,
	}
	if c.provider != nil {
		s.Provider = c.provider.Name()
	}
	return s
}

func (c *Cache) degrade(ctx context.Context, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.persistent {
		return
	}
	c.persistent = false
	log.FromCtx(ctx).Warn().Err(err).Msg("failed to persist embedding, continuing in memory only")
}

func clone(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
