package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/saxil/mareen/internal/service/ui"
)

const (
	defaultListLimit    = 10
	defaultSearchLimit  = 20
	defaultSimilarLimit = 5
)

type StatsCommand struct {
	memory    MemoryStore
	retriever Retriever
	cache     EmbeddingCache
}

func NewStatsCommand(memory MemoryStore, retriever Retriever, cache EmbeddingCache) *StatsCommand {
	return &StatsCommand{memory: memory, retriever: retriever, cache: cache}
}

func (c *StatsCommand) Name() string {
	return "stats"
}

func (c *StatsCommand) Description() string {
	return "Show memory, retrieval and cache statistics"
}

func (c *StatsCommand) Execute(ctx context.Context, args []string) (string, error) {
	st, err := c.memory.Statistics(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read statistics: %w", err)
	}

	sections := []string{ui.RenderStats(st)}

	if c.retriever != nil {
		rs, err := c.retriever.Stats(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to read retrieval stats: %w", err)
		}
		sections = append(sections, ui.RenderRetrievalStats(rs))
	}
	if c.cache != nil {
		sections = append(sections, ui.RenderCacheStats(c.cache.Stats()))
	}
	return strings.Join(sections, "\n"), nil
}

type SessionsCommand struct {
	memory MemoryStore
}

func NewSessionsCommand(memory MemoryStore) *SessionsCommand {
	return &SessionsCommand{memory: memory}
}

func (c *SessionsCommand) Name() string {
	return "sessions"
}

func (c *SessionsCommand) Description() string {
	return "List recent sessions: /sessions [n]"
}

func (c *SessionsCommand) Execute(ctx context.Context, args []string) (string, error) {
	limit, err := limitArg(args, defaultListLimit)
	if err != nil {
		return "", err
	}

	sessions, err := c.memory.ListSessions(ctx, limit)
	if err != nil {
		return "", fmt.Errorf("failed to list sessions: %w", err)
	}
	return ui.RenderSessions(sessions), nil
}

type HistoryCommand struct {
	memory MemoryStore
}

func NewHistoryCommand(memory MemoryStore) *HistoryCommand {
	return &HistoryCommand{memory: memory}
}

func (c *HistoryCommand) Name() string {
	return "history"
}

func (c *HistoryCommand) Description() string {
	return "Show the last messages of this session: /history [n]"
}

func (c *HistoryCommand) Execute(ctx context.Context, args []string) (string, error) {
	n, err := limitArg(args, defaultListLimit)
	if err != nil {
		return "", err
	}

	msgs, err := c.memory.RecentContext(ctx, n)
	if err != nil {
		return "", fmt.Errorf("failed to read history: %w", err)
	}
	if len(msgs) == 0 {
		return ui.DescStyle.Render("No messages in this session yet.") + "\n", nil
	}

	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(ui.RenderMessage(m))
	}
	return b.String(), nil
}

type SearchCommand struct {
	memory MemoryStore
}

func NewSearchCommand(memory MemoryStore) *SearchCommand {
	return &SearchCommand{memory: memory}
}

func (c *SearchCommand) Name() string {
	return "search"
}

func (c *SearchCommand) Description() string {
	return "Find past messages containing text: /search <text>"
}

func (c *SearchCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return usage("/search <text>"), nil
	}

	query := strings.Join(args, " ")
	results, err := c.memory.Search(ctx, query, defaultSearchLimit)
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}
	return ui.RenderSearch(query, results), nil
}

type RecallCommand struct {
	retriever Retriever
}

func NewRecallCommand(retriever Retriever) *RecallCommand {
	return &RecallCommand{retriever: retriever}
}

func (c *RecallCommand) Name() string {
	return "recall"
}

func (c *RecallCommand) Description() string {
	return "Show what memory would surface for a query: /recall <text>"
}

func (c *RecallCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return usage("/recall <text>"), nil
	}

	mems, err := c.retriever.Retrieve(ctx, strings.Join(args, " "), c.retriever.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	return ui.RenderMemories(mems), nil
}

type SimilarCommand struct {
	retriever Retriever
}

func NewSimilarCommand(retriever Retriever) *SimilarCommand {
	return &SimilarCommand{retriever: retriever}
}

func (c *SimilarCommand) Name() string {
	return "similar"
}

func (c *SimilarCommand) Description() string {
	return "Find earlier questions like this one: /similar <text>"
}

func (c *SimilarCommand) Execute(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		return usage("/similar <text>"), nil
	}

	mems, err := c.retriever.SimilarPastQueries(ctx, strings.Join(args, " "), defaultSimilarLimit)
	if err != nil {
		return "", fmt.Errorf("retrieval failed: %w", err)
	}
	return ui.RenderMemories(mems), nil
}

func limitArg(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("expected a positive number, got %q", args[0])
	}
	return n, nil
}

func usage(line string) string {
	return ui.LabelStyle.Render("Usage") + "  " + ui.UsageStyle.Render(line) + "\n"
}
