package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mareen.db")
	db, err := sqlite.NewDB(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlite.NewSessionsRepo(db), path)
}

type failingRepo struct {
	core.SessionRepository
}

var errDisk = errors.New("disk I/O error")

func (failingRepo) CreateSession(context.Context, core.Session) error { return errDisk }
func (failingRepo) Stats(context.Context) (core.Stats, error)         { return core.Stats{}, errDisk }

func TestStore_MessageCountOnEnd(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.StartSession(ctx, map[string]any{"source": "test"})
	require.NoError(t, err)
	assert.Equal(t, id, store.CurrentSession())

	for i := 0; i < 5; i++ {
		_, err := store.LogMessage(ctx, core.SpeakerUser, "message", WithIntent(core.IntentChat))
		require.NoError(t, err)
	}

	require.NoError(t, store.EndSession(ctx))
	assert.Empty(t, store.CurrentSession())

	sess, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, sess.MessageCount)
	require.NotNil(t, sess.EndTime)
	assert.False(t, sess.EndTime.Before(sess.StartTime))
}

func TestStore_EndSessionWithoutActive(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.EndSession(context.Background()))
}

func TestStore_LogMessageAutoStarts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	msg, err := store.LogMessage(ctx, core.SpeakerUser, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.SessionID)
	assert.Equal(t, msg.SessionID, store.CurrentSession())
	assert.NotZero(t, msg.ID)
}

func TestStore_LogMessageInvalidSpeaker(t *testing.T) {
	store := newTestStore(t)
	_, err := store.LogMessage(context.Background(), core.Speaker("SYSTEM"), "hello")
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestStore_TimestampsFollowIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	_, err := store.StartSession(ctx, nil)
	require.NoError(t, err)

	var prev core.Message
	for i := 0; i < 10; i++ {
		msg, err := store.LogMessage(ctx, core.SpeakerUser, "tick")
		require.NoError(t, err)
		if i > 0 {
			assert.Greater(t, msg.ID, prev.ID)
			assert.True(t, msg.Timestamp.After(prev.Timestamp))
		}
		prev = msg
	}

	history, err := store.History(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, history, 10)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}
}

func TestStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.StartSession(ctx, nil)
	require.NoError(t, err)

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := store.LogMessage(ctx, core.SpeakerUser, fmt.Sprintf("writer %d message %d", w, i))
				assert.NoError(t, err)
				_, err = store.History(ctx, "", 0)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	history, err := store.History(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, history, writers*perWriter)
	for i := 1; i < len(history); i++ {
		assert.Greater(t, history[i].ID, history[i-1].ID)
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}

	require.NoError(t, store.EndSession(ctx))
	sess, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, sess.MessageCount)
}

func TestStore_HistoryAndRecentContext(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, text := range []string{"one", "two", "three", "four"} {
		_, err := store.LogMessage(ctx, core.SpeakerUser, text)
		require.NoError(t, err)
	}

	first, err := store.History(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "one", first[0].Text)

	recent, err := store.RecentContext(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Text)
	assert.Equal(t, "four", recent[1].Text)
}

func TestStore_ListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.StartSession(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, store.EndSession(ctx))

	second, err := store.StartSession(ctx, nil)
	require.NoError(t, err)

	sessions, err := store.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, second, sessions[0].ID)
	assert.Equal(t, first, sessions[1].ID)
	assert.True(t, sessions[0].Open())
}

func TestStore_SearchCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.StartSession(ctx, map[string]any{"topic": "languages"})
	require.NoError(t, err)
	_, err = store.LogMessage(ctx, core.SpeakerUser, "I love Python programming")
	require.NoError(t, err)
	_, err = store.LogMessage(ctx, core.SpeakerAgent, "Go is nice too")
	require.NoError(t, err)

	results, err := store.Search(ctx, "python", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "I love Python programming", results[0].Text)
	assert.Equal(t, "languages", results[0].SessionMetadata["topic"])
}

func TestStore_Statistics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.LogMessage(ctx, core.SpeakerUser, "q")
	require.NoError(t, err)
	_, err = store.LogMessage(ctx, core.SpeakerAgent, "a")
	require.NoError(t, err)
	require.NoError(t, store.EndSession(ctx))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 1, stats.BySpeaker[core.SpeakerAgent])
	assert.Equal(t, 2.0, stats.AverageSessionLength)
	assert.True(t, strings.HasSuffix(stats.DatabasePath, "mareen.db"))
}

func TestStore_StorageErrors(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingRepo{}, "")

	_, err := store.StartSession(ctx, nil)
	assert.True(t, errors.Is(err, core.ErrStorage))
	assert.True(t, errors.Is(err, errDisk))
	assert.Empty(t, store.CurrentSession())

	_, err = store.LogMessage(ctx, core.SpeakerUser, "hello")
	assert.True(t, errors.Is(err, core.ErrStorage))

	_, err = store.Statistics(ctx)
	assert.True(t, errors.Is(err, core.ErrStorage))
}

func TestStore_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)

	id, err := src.StartSession(ctx, map[string]any{"user": "ana"})
	require.NoError(t, err)
	_, err = src.LogMessage(ctx, core.SpeakerUser, "What is the weather?", WithIntent(core.IntentChat))
	require.NoError(t, err)
	_, err = src.LogMessage(ctx, core.SpeakerAgent, "Sunny.", WithIntent(core.IntentChat), WithResponseTime(1500*time.Millisecond))
	require.NoError(t, err)
	_, err = src.LogMessage(ctx, core.SpeakerUser, "no intent here")
	require.NoError(t, err)

	// durations whose float seconds are not exact
	odd := []time.Duration{1234567891, 987654321, 2*time.Second + 3, 41000007}
	for _, d := range odd {
		_, err = src.LogMessage(ctx, core.SpeakerAgent, "timed", WithResponseTime(d))
		require.NoError(t, err)
	}
	require.NoError(t, src.EndSession(ctx))

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, id, &buf))
	assert.Contains(t, buf.String(), `"response_time": 1.5`)
	assert.Contains(t, buf.String(), `"session_id": "`+id+`"`)
	assert.Contains(t, buf.String(), `"intent": null`)

	dst := newTestStore(t)
	imported, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, id, imported)

	orig, err := src.History(ctx, id, 0)
	require.NoError(t, err)
	got, err := dst.History(ctx, id, 0)
	require.NoError(t, err)
	require.Len(t, got, len(orig))
	for i := range orig {
		assert.Equal(t, orig[i].Text, got[i].Text)
		assert.Equal(t, orig[i].Speaker, got[i].Speaker)
		assert.Equal(t, orig[i].Intent, got[i].Intent)
		assert.True(t, orig[i].Timestamp.Equal(got[i].Timestamp))
		assert.Equal(t, orig[i].ResponseTime, got[i].ResponseTime)
	}
	require.NotNil(t, got[1].ResponseTime)
	assert.Equal(t, 1500*time.Millisecond, *got[1].ResponseTime)
	assert.Empty(t, got[2].Intent)
	for i, d := range odd {
		require.NotNil(t, got[3+i].ResponseTime)
		assert.Equal(t, d, *got[3+i].ResponseTime)
	}

	sess, err := dst.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, len(orig), sess.MessageCount)
	assert.Equal(t, "ana", sess.Metadata["user"])

	_, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	assert.True(t, errors.Is(err, core.ErrSessionExists))
}

func TestStore_ExportUnknownSession(t *testing.T) {
	store := newTestStore(t)
	err := store.Export(context.Background(), "missing", &bytes.Buffer{})
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestStore_ImportMalformed(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Import(context.Background(), strings.NewReader("{not json"))
	assert.True(t, errors.Is(err, core.ErrInvalidInput))

	_, err = store.Import(context.Background(), strings.NewReader(`{"messages": []}`))
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}
