package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/saxil/mareen/pkg/log"
)

type EmbeddingsRepo struct {
	db *sql.DB
}

func NewEmbeddingsRepo(db *sql.DB) *EmbeddingsRepo {
	return &EmbeddingsRepo{db: db}
}

// LoadEmbeddings returns every vector persisted for provider, keyed by text.
func (r *EmbeddingsRepo) LoadEmbeddings(ctx context.Context, provider string) (map[string][]float32, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT text, vector FROM embeddings WHERE provider = ?`, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var (
			text string
			blob []byte
		)
		if err := rows.Scan(&text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}

		vec, err := deserializeVector(blob)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Str("provider", provider).Msg("skipping corrupt embedding row")
			continue
		}
		vectors[text] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Str("provider", provider).Int("count", len(vectors)).Msg("loaded embeddings")
	return vectors, nil
}

func (r *EmbeddingsRepo) SaveEmbedding(ctx context.Context, provider, text string, vector []float32) error {
	blob, err := serializeVector(vector)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (provider, text, vector, created_at) VALUES (?, ?, ?, ?)`,
		provider, text, blob, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return nil
}

func (r *EmbeddingsRepo) ClearEmbeddings(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	return nil
}
