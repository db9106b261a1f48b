package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

// Store is the session store. It owns the current-session pointer and
// serialises message writes so that id order always matches timestamp order.
type Store struct {
	repo   core.SessionRepository
	dbPath string

	mu      sync.Mutex
	current string
	last    time.Time
	now     func() time.Time
}

func NewStore(repo core.SessionRepository, dbPath string) *Store {
	return &Store{
		repo:   repo,
		dbPath: dbPath,
		now:    time.Now,
	}
}

type messageOptions struct {
	intent       string
	responseTime *time.Duration
}

type MessageOption func(*messageOptions)

func WithIntent(intent string) MessageOption {
	return func(o *messageOptions) {
		o.intent = intent
	}
}

func WithResponseTime(d time.Duration) MessageOption {
	return func(o *messageOptions) {
		o.responseTime = &d
	}
}

// StartSession opens a new session and makes it current. A session that is
// still current is left open.
func (s *Store) StartSession(ctx context.Context, metadata map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.startLocked(ctx, metadata)
}

func (s *Store) startLocked(ctx context.Context, metadata map[string]any) (string, error) {
	sess := core.Session{
		ID:        uuid.NewString(),
		StartTime: s.tick(),
		Metadata:  metadata,
	}

	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return "", core.StorageError("StartSession", err)
	}

	s.current = sess.ID
	log.FromCtx(ctx).Info().Str("session_id", sess.ID).Msg("session started")
	return sess.ID, nil
}

// EndSession closes the current session. Without one it only warns.
func (s *Store) EndSession(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		log.FromCtx(ctx).Warn().Msg("no active session to end")
		return nil
	}

	count, err := s.repo.CloseSession(ctx, s.current, s.tick())
	if err != nil {
		return core.StorageError("EndSession", err)
	}

	log.FromCtx(ctx).Info().Str("session_id", s.current).Int("messages", count).Msg("session ended")
	s.current = ""
	return nil
}

// LogMessage appends a message to the current session, starting one if
// needed.
func (s *Store) LogMessage(ctx context.Context, speaker core.Speaker, text string, opts ...MessageOption) (core.Message, error) {
	if !speaker.Valid() {
		return core.Message{}, fmt.Errorf("%w: unknown speaker %q", core.ErrInvalidInput, speaker)
	}

	o := messageOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		log.FromCtx(ctx).Warn().Msg("no active session, starting a new one")
		if _, err := s.startLocked(ctx, nil); err != nil {
			return core.Message{}, err
		}
	}

	msg := core.Message{
		SessionID:    s.current,
		Timestamp:    s.tick(),
		Speaker:      speaker,
		Text:         text,
		Intent:       o.intent,
		ResponseTime: o.responseTime,
	}

	id, err := s.repo.AddMessage(ctx, msg)
	if err != nil {
		return core.Message{}, core.StorageError("LogMessage", err)
	}
	msg.ID = id

	log.FromCtx(ctx).Debug().
		Str("session_id", msg.SessionID).
		Int64("msg_id", id).
		Str("speaker", string(speaker)).
		Msg("message logged")

	return msg, nil
}

func (s *Store) CurrentSession() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// History returns the messages of sessionID, or of the current session when
// sessionID is empty, in chronological order.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	if sessionID == "" {
		sessionID = s.CurrentSession()
	}
	if sessionID == "" {
		return nil, nil
	}

	msgs, err := s.repo.GetMessages(ctx, sessionID, limit)
	if err != nil {
		return nil, core.StorageError("History", err)
	}
	return msgs, nil
}

// RecentContext returns the last n messages of the current session.
func (s *Store) RecentContext(ctx context.Context, n int) ([]core.Message, error) {
	msgs, err := s.History(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (core.Session, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return core.Session{}, core.StorageError("GetSession", err)
	}
	return sess, nil
}

func (s *Store) ListSessions(ctx context.Context, limit int) ([]core.Session, error) {
	sessions, err := s.repo.ListSessions(ctx, limit)
	if err != nil {
		return nil, core.StorageError("ListSessions", err)
	}
	return sessions, nil
}

func (s *Store) Search(ctx context.Context, substring string, limit int) ([]core.SearchResult, error) {
	results, err := s.repo.Search(ctx, substring, limit)
	if err != nil {
		return nil, core.StorageError("Search", err)
	}
	return results, nil
}

func (s *Store) Statistics(ctx context.Context) (core.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return core.Stats{}, core.StorageError("Statistics", err)
	}
	stats.DatabasePath = s.dbPath
	return stats, nil
}

// MessagesSince exposes the retrieval candidate scan.
func (s *Store) MessagesSince(ctx context.Context, cutoff time.Time, maxSessions int) ([]core.Message, error) {
	msgs, err := s.repo.MessagesSince(ctx, cutoff, maxSessions)
	if err != nil {
		return nil, core.StorageError("MessagesSince", err)
	}
	return msgs, nil
}

// tick returns a timestamp strictly after the previous one. Callers hold mu.
func (s *Store) tick() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}
