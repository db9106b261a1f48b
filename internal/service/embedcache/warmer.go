package embedcache

import (
	"context"
	"time"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

const (
	WarmerBatchSize    = 30
	WarmerPollInterval = 30 * time.Second
)

// CandidateSource lists the messages retrieval will score.
type CandidateSource interface {
	MessagesSince(ctx context.Context, cutoff time.Time, maxSessions int) ([]core.Message, error)
}

// Warmer embeds recent messages in the background so that retrieval finds
// their vectors already cached.
type Warmer struct {
	cache     *Cache
	source    CandidateSource
	window    time.Duration
	interval  time.Duration
	batchSize int
}

func NewWarmer(cache *Cache, source CandidateSource, window time.Duration) *Warmer {
	return &Warmer{
		cache:     cache,
		source:    source,
		window:    window,
		interval:  WarmerPollInterval,
		batchSize: WarmerBatchSize,
	}
}

func (w *Warmer) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx).With().Str("component", "embedding_warmer").Logger()

	if !w.cache.Available() {
		logger.Debug().Msg("no embedding provider, warmer idle")
		<-ctx.Done()
		return nil
	}

	logger.Info().Msg("starting embedding warmer")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.processBatch(ctx); err != nil {
			logger.Error().Err(err).Msg("embedding batch failed")
		}

		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down embedding warmer")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Warmer) Shutdown(ctx context.Context) error {
	return nil
}

// processBatch embeds up to batchSize uncached texts and returns how many it
// embedded.
func (w *Warmer) processBatch(ctx context.Context) (int, error) {
	logger := log.FromCtx(ctx)

	msgs, err := w.source.MessagesSince(ctx, time.Now().Add(-w.window), 0)
	if err != nil {
		return 0, err
	}

	done := 0
	for i := len(msgs) - 1; i >= 0 && done < w.batchSize; i-- {
		msg := msgs[i]
		if msg.Text == "" || w.cache.Cached(msg.Text) {
			continue
		}
		if ctx.Err() != nil {
			return done, nil
		}

		if _, err := w.cache.Embed(ctx, msg.Text); err != nil {
			logger.Warn().
				Err(err).
				Int64("msg_id", msg.ID).
				Msg("failed to embed message")
			continue
		}
		done++
	}

	if done > 0 {
		logger.Debug().Int("count", done).Msg("warmed embeddings")
	}
	return done, nil
}
