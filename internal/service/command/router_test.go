package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/service/embedcache"
	"github.com/saxil/mareen/internal/service/guard"
	"github.com/saxil/mareen/internal/service/retrieval"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeMemory struct {
	limit int
	query string
}

func (f *fakeMemory) Statistics(context.Context) (core.Stats, error) {
	return core.Stats{TotalSessions: 1, TotalMessages: 2}, nil
}

func (f *fakeMemory) ListSessions(_ context.Context, limit int) ([]core.Session, error) {
	f.limit = limit
	return []core.Session{{ID: "s1", StartTime: now}}, nil
}

func (f *fakeMemory) Search(_ context.Context, q string, _ int) ([]core.SearchResult, error) {
	f.query = q
	return nil, nil
}

func (f *fakeMemory) RecentContext(context.Context, int) ([]core.Message, error) {
	return []core.Message{{Timestamp: now, Speaker: core.SpeakerUser, Text: "earlier"}}, nil
}

type fakeRetriever struct {
	query string
}

func (f *fakeRetriever) DefaultOptions() retrieval.Options {
	return retrieval.Options{TopK: 5}
}

func (f *fakeRetriever) Retrieve(_ context.Context, q string, _ retrieval.Options) ([]core.ScoredMemory, error) {
	f.query = q
	return []core.ScoredMemory{{Message: core.Message{Timestamp: now, Speaker: core.SpeakerUser, Text: "I like Go"}, FinalScore: 0.9}}, nil
}

func (f *fakeRetriever) SimilarPastQueries(context.Context, string, int, ...int64) ([]core.ScoredMemory, error) {
	return nil, errors.New("database is locked")
}

func (f *fakeRetriever) Stats(context.Context) (retrieval.Stats, error) {
	return retrieval.Stats{Candidates: 4, WindowDays: 30}, nil
}

type fakeSession struct{ resets int }

func (f *fakeSession) Reset(context.Context) error {
	f.resets++
	return nil
}

type fakeGuard struct{ intact bool }

func (f fakeGuard) VerifyIntegrity(context.Context) bool {
	return f.intact
}
func (f fakeGuard) Stats(context.Context) guard.Stats {
	return guard.Stats{IdentityFile: "soul.md", IntegrityVerified: f.intact}
}

type fakeCache struct{ cleared bool }

func (f *fakeCache) Stats() embedcache.Stats {
	return embedcache.Stats{Provider: "fake", Entries: 3}
}
func (f *fakeCache) Clear(context.Context) error {
	f.cleared = true
	return nil
}

type fakeModels struct{}

func (fakeModels) Models(context.Context) ([]core.Model, error) {
	return []core.Model{{ID: "llama3.2"}, {ID: "qwen2.5"}}, nil
}
func (fakeModels) Model() string {
	return "llama3.2"
}

type fixture struct {
	router    *Router
	memory    *fakeMemory
	retriever *fakeRetriever
	session   *fakeSession
	cache     *fakeCache
}

func newFixture(intact bool) fixture {
	f := fixture{
		memory:    &fakeMemory{},
		retriever: &fakeRetriever{},
		session:   &fakeSession{},
		cache:     &fakeCache{},
	}
	f.router = New(NewCommands(Deps{
		Memory:    f.memory,
		Retriever: f.retriever,
		Session:   f.session,
		Guard:     fakeGuard{intact: intact},
		Cache:     f.cache,
		Models:    fakeModels{},
	}))
	return f
}

func TestRouter_PlainTextNotConsumed(t *testing.T) {
	f := newFixture(true)
	out, ok := f.router.Execute(context.Background(), "hello there")
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestRouter_UnknownCommand(t *testing.T) {
	f := newFixture(true)
	out, ok := f.router.Execute(context.Background(), "/nope")
	assert.True(t, ok)
	assert.Contains(t, out, "Unknown command: /nope")
}

func TestRouter_Help(t *testing.T) {
	f := newFixture(true)
	out, ok := f.router.Execute(context.Background(), "/help")
	require.True(t, ok)
	for _, cmd := range f.router.ListCommands() {
		assert.Contains(t, out, "/"+cmd.Name())
	}
	assert.Contains(t, out, "exit")
}

func TestRouter_ListCommandsSorted(t *testing.T) {
	cmds := newFixture(true).router.ListCommands()
	require.Len(t, cmds, 10)
	for i := 1; i < len(cmds); i++ {
		assert.Less(t, cmds[i-1].Name(), cmds[i].Name())
	}
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	out, _ := f.router.Execute(ctx, "/stats")
	assert.Contains(t, out, "Messages  ›  2")
	assert.Contains(t, out, "Candidates  ›  4")
	assert.Contains(t, out, "Entries  ›  3")

	out, _ = f.router.Execute(ctx, "/sessions 3")
	assert.Equal(t, 3, f.memory.limit)
	assert.Contains(t, out, "s1")

	out, _ = f.router.Execute(ctx, "/sessions zero")
	assert.Contains(t, out, "expected a positive number")

	out, _ = f.router.Execute(ctx, "/history")
	assert.Contains(t, out, "USER: earlier")

	f.router.Execute(ctx, "/search learning  go")
	assert.Equal(t, "learning go", f.memory.query)

	out, _ = f.router.Execute(ctx, "/search")
	assert.Contains(t, out, "Usage")

	out, _ = f.router.Execute(ctx, "/recall go")
	assert.Equal(t, "go", f.retriever.query)
	assert.Contains(t, out, "I like Go")

	out, _ = f.router.Execute(ctx, "/similar go")
	assert.Contains(t, out, "database is locked")

	out, _ = f.router.Execute(ctx, "/new")
	assert.Equal(t, 1, f.session.resets)
	assert.Contains(t, out, "Session closed")

	out, _ = f.router.Execute(ctx, "/cache")
	assert.Contains(t, out, "Provider  ›  fake")
	assert.False(t, f.cache.cleared)
	f.router.Execute(ctx, "/cache clear")
	assert.True(t, f.cache.cleared)

	out, _ = f.router.Execute(ctx, "/models")
	assert.Contains(t, out, "Current  ›  llama3.2")
	assert.Contains(t, out, "qwen2.5")

	out, _ = f.router.Execute(ctx, "/verify")
	assert.Contains(t, out, "Identity unchanged")
}

func TestVerifyCommand_Changed(t *testing.T) {
	out, _ := newFixture(false).router.Execute(context.Background(), "/verify")
	assert.Contains(t, out, "changed on disk")
}
