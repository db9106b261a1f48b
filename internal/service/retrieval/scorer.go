package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/saxil/mareen/internal/config"
	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

const (
	contextHeader = "[Relevant past interactions for context:]"
	contextFooter = "[End of context. Respond to current query below:]"
	ellipsis      = "..."
)

// CandidateSource lists the messages of sessions started after cutoff.
type CandidateSource interface {
	MessagesSince(ctx context.Context, cutoff time.Time, maxSessions int) ([]core.Message, error)
}

// Embedder yields nil vectors when no provider is available.
type Embedder interface {
	Available() bool
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Options struct {
	TopK           int
	MinSimilarity  float64
	ApplyTimeDecay bool

	// Exclude drops these message ids from the candidates.
	Exclude []int64
}

type Stats struct {
	EmbeddingsAvailable bool `json:"embeddings_available"`
	Candidates          int  `json:"candidates"`
	WindowDays          int  `json:"window_days"`
}

type Scorer struct {
	source   CandidateSource
	embedder Embedder
	cfg      config.RetrievalConfig
	now      func() time.Time
}

func NewScorer(source CandidateSource, embedder Embedder, cfg config.RetrievalConfig) *Scorer {
	return &Scorer{
		source:   source,
		embedder: embedder,
		cfg:      cfg,
		now:      time.Now,
	}
}

// DefaultOptions returns the configured top-k and threshold with time decay.
func (s *Scorer) DefaultOptions() Options {
	return Options{
		TopK:           s.cfg.TopK,
		MinSimilarity:  s.cfg.MinSimilarity,
		ApplyTimeDecay: true,
	}
}

// Retrieve scores past messages against query and returns at most
// opts.TopK of them, best first.
func (s *Scorer) Retrieve(ctx context.Context, query string, opts Options) ([]core.ScoredMemory, error) {
	candidates, err := s.candidates(ctx, opts.Exclude)
	if err != nil {
		return nil, core.RetrievalError("Retrieve", err)
	}
	if len(candidates) == 0 || opts.TopK <= 0 {
		return nil, nil
	}

	queryVec := s.embed(ctx, query)
	now := s.now()

	scored := make([]core.ScoredMemory, 0, len(candidates))
	for _, msg := range candidates {
		sim := s.similarity(ctx, query, queryVec, msg.Text)

		m := core.ScoredMemory{
			Message:    msg,
			Similarity: sim,
			FinalScore: sim,
		}
		if opts.ApplyTimeDecay {
			m.Recency = Recency(now, msg.Timestamp, s.cfg.DecayHours)
			m.FinalScore = s.cfg.SimilarityWeight*sim + s.cfg.RecencyWeight*m.Recency
		}

		if m.FinalScore < opts.MinSimilarity {
			continue
		}
		scored = append(scored, m)
	}

	sortScored(scored, func(m core.ScoredMemory) float64 { return m.FinalScore })

	if len(scored) > opts.TopK {
		scored = scored[:opts.TopK]
	}

	log.FromCtx(ctx).Debug().
		Int("candidates", len(candidates)).
		Int("hits", len(scored)).
		Msg("memories retrieved")

	return scored, nil
}

// BuildContextPrompt renders the best memories for query as a bounded block
// ready to prepend to the live turn. It returns "" when nothing qualifies or
// the store cannot be read.
func (s *Scorer) BuildContextPrompt(ctx context.Context, query string, topK int, exclude ...int64) string {
	opts := s.DefaultOptions()
	opts.TopK = topK
	opts.Exclude = exclude

	memories, err := s.Retrieve(ctx, query, opts)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to retrieve context")
		return ""
	}
	if len(memories) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(contextHeader)
	sb.WriteString("\n")
	for i, m := range memories {
		fmt.Fprintf(&sb, "%d. [%s] %s: %s\n",
			i+1,
			m.Message.Timestamp.Format(time.DateOnly),
			m.Message.Speaker,
			clip(m.Message.Text, s.cfg.SnippetChars),
		)
	}
	sb.WriteString(contextFooter)

	return sb.String()
}

// SimilarPastQueries returns earlier user messages whose similarity to query
// exceeds the configured threshold, without time decay.
func (s *Scorer) SimilarPastQueries(ctx context.Context, query string, topK int, exclude ...int64) ([]core.ScoredMemory, error) {
	candidates, err := s.candidates(ctx, exclude)
	if err != nil {
		return nil, core.RetrievalError("SimilarPastQueries", err)
	}

	queryVec := s.embed(ctx, query)

	var scored []core.ScoredMemory
	for _, msg := range candidates {
		if msg.Speaker != core.SpeakerUser {
			continue
		}
		sim := s.similarity(ctx, query, queryVec, msg.Text)
		if sim <= s.cfg.SimilarQueryThreshold {
			continue
		}
		scored = append(scored, core.ScoredMemory{Message: msg, Similarity: sim, FinalScore: sim})
	}

	sortScored(scored, func(m core.ScoredMemory) float64 { return m.Similarity })

	if topK > 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

func (s *Scorer) Stats(ctx context.Context) (Stats, error) {
	candidates, err := s.candidates(ctx, nil)
	if err != nil {
		return Stats{}, core.RetrievalError("Stats", err)
	}

	return Stats{
		EmbeddingsAvailable: s.embedder != nil && s.embedder.Available(),
		Candidates:          len(candidates),
		WindowDays:          s.cfg.WindowDays,
	}, nil
}

func (s *Scorer) candidates(ctx context.Context, exclude []int64) ([]core.Message, error) {
	cutoff := s.now().Add(-time.Duration(s.cfg.WindowDays) * 24 * time.Hour)

	msgs, err := s.source.MessagesSince(ctx, cutoff, s.cfg.MaxSessions)
	if err != nil {
		return nil, err
	}
	if len(exclude) == 0 {
		return msgs, nil
	}

	skip := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	kept := msgs[:0]
	for _, m := range msgs {
		if _, ok := skip[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// embed returns nil when embeddings are unavailable or the provider fails.
func (s *Scorer) embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil || !s.embedder.Available() {
		return nil
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("embedding failed, using lexical similarity")
		return nil
	}
	return vec
}

func (s *Scorer) similarity(ctx context.Context, query string, queryVec []float32, text string) float64 {
	if queryVec != nil {
		if vec := s.embed(ctx, text); len(vec) == len(queryVec) {
			return CosineSimilarity(queryVec, vec)
		}
	}
	return JaccardSimilarity(query, text)
}

// sortScored orders by score, then newer timestamp, then higher id.
func sortScored(scored []core.ScoredMemory, score func(core.ScoredMemory) float64) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if sa, sb := score(a), score(b); sa != sb {
			return sa > sb
		}
		if !a.Message.Timestamp.Equal(b.Message.Timestamp) {
			return a.Message.Timestamp.After(b.Message.Timestamp)
		}
		return a.Message.ID > b.Message.ID
	})
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + ellipsis
}
