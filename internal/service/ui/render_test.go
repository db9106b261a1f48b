package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/service/embedcache"
	"github.com/saxil/mareen/internal/service/guard"
)

var started = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestRenderStats(t *testing.T) {
	out := RenderStats(core.Stats{
		TotalSessions:        2,
		TotalMessages:        3,
		BySpeaker:            map[core.Speaker]int{core.SpeakerUser: 2, core.SpeakerAgent: 1},
		AverageSessionLength: 1.5,
		DatabasePath:         "/tmp/mareen.db",
	})

	assert.Contains(t, out, "Sessions  ›  2")
	assert.Contains(t, out, "Messages  ›  3")
	assert.Contains(t, out, "1.50")
	assert.Contains(t, out, "/tmp/mareen.db")
	assert.Less(t, strings.Index(out, "AGENT"), strings.Index(out, "USER"))
}

func TestRenderSessions(t *testing.T) {
	assert.Contains(t, RenderSessions(nil), "No sessions")

	ended := started.Add(time.Minute)
	out := RenderSessions([]core.Session{
		{ID: "open-one", StartTime: started},
		{ID: "closed-one", StartTime: started, EndTime: &ended, MessageCount: 4},
	})
	assert.Contains(t, out, "open-one")
	assert.Contains(t, out, "open")
	assert.Contains(t, out, "4 messages")
}

func TestRenderMessages(t *testing.T) {
	rt := 1250 * time.Millisecond
	out := RenderMessages(core.Session{ID: "s1", StartTime: started}, []core.Message{
		{Timestamp: started, Speaker: core.SpeakerUser, Text: "hello"},
		{Timestamp: started, Speaker: core.SpeakerAgent, Text: "hi there", ResponseTime: &rt},
	})

	assert.Contains(t, out, "Session s1")
	assert.Contains(t, out, "still open")
	assert.Contains(t, out, "USER: hello")
	assert.Contains(t, out, "AGENT: hi there (1.25s)")
}

func TestRenderSearch(t *testing.T) {
	assert.Contains(t, RenderSearch("go", nil), `No messages matching "go"`)

	out := RenderSearch("go", []core.SearchResult{{
		Message: core.Message{SessionID: "s1", Timestamp: started, Speaker: core.SpeakerUser, Text: "I like Go"},
	}})
	assert.Contains(t, out, `1 matches for "go"`)
	assert.Contains(t, out, "USER: I like Go")
}

func TestRenderMemories(t *testing.T) {
	assert.Contains(t, RenderMemories(nil), "Nothing relevant")

	out := RenderMemories([]core.ScoredMemory{{
		Message:    core.Message{Timestamp: started, Speaker: core.SpeakerUser, Text: strings.Repeat("a", 200)},
		Similarity: 0.5, Recency: 1, FinalScore: 0.65,
	}})
	assert.Contains(t, out, "1. [")
	assert.Contains(t, out, strings.Repeat("a", snippetRunes)+"...")
	assert.Contains(t, out, "score 0.650")
}

func TestRenderCacheStats(t *testing.T) {
	out := RenderCacheStats(embedcache.Stats{})
	assert.Contains(t, out, "Provider  ›  none")
	assert.Contains(t, out, "Available  ›  no")

	out = RenderCacheStats(embedcache.Stats{Provider: "ollama:nomic-embed-text", Available: true, Entries: 7, Persistent: true})
	assert.Contains(t, out, "ollama:nomic-embed-text")
	assert.Contains(t, out, "Entries  ›  7")
}

func TestRenderGuardStats(t *testing.T) {
	out := RenderGuardStats(guard.Stats{IdentityFile: "soul.md", Loaded: true, Patterns: 34, IntegrityVerified: false})
	assert.Contains(t, out, "soul.md")
	assert.Contains(t, out, "Patterns  ›  34")
	assert.Contains(t, out, "changed on disk")
}

func TestSnippetCollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", snippet("a\n  b\tc"))
}
