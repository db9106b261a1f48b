package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

// SessionExport is the portable JSON form of a session.
type SessionExport struct {
	SessionID    string            `json:"session_id"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time"`
	MessageCount int               `json:"message_count"`
	Metadata     map[string]any    `json:"metadata"`
	Messages     []ExportedMessage `json:"messages"`
}

type ExportedMessage struct {
	Timestamp    time.Time    `json:"timestamp"`
	Speaker      core.Speaker `json:"speaker"`
	Text         string       `json:"text"`
	Intent       *string      `json:"intent"`
	ResponseTime *float64     `json:"response_time"`
}

// Export writes one session with all its messages as indented JSON.
func (s *Store) Export(ctx context.Context, sessionID string, w io.Writer) error {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return core.StorageError("Export", err)
	}

	msgs, err := s.repo.GetMessages(ctx, sessionID, 0)
	if err != nil {
		return core.StorageError("Export", err)
	}

	doc := SessionExport{
		SessionID:    sess.ID,
		StartTime:    sess.StartTime,
		EndTime:      sess.EndTime,
		MessageCount: sess.MessageCount,
		Metadata:     sess.Metadata,
		Messages:     make([]ExportedMessage, 0, len(msgs)),
	}

	for _, m := range msgs {
		em := ExportedMessage{
			Timestamp: m.Timestamp,
			Speaker:   m.Speaker,
			Text:      m.Text,
		}
		if m.Intent != "" {
			intent := m.Intent
			em.Intent = &intent
		}
		if m.ResponseTime != nil {
			secs := m.ResponseTime.Seconds()
			em.ResponseTime = &secs
		}
		doc.Messages = append(doc.Messages, em)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode session export: %w", err)
	}

	log.FromCtx(ctx).Info().Str("session_id", sessionID).Int("messages", len(msgs)).Msg("session exported")
	return nil
}

// Import recreates a session written by Export and returns its id.
func (s *Store) Import(ctx context.Context, r io.Reader) (string, error) {
	var doc SessionExport
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return "", fmt.Errorf("%w: malformed session export: %v", core.ErrInvalidInput, err)
	}

	if doc.SessionID == "" {
		return "", fmt.Errorf("%w: session export without session_id", core.ErrInvalidInput)
	}

	msgs := make([]core.Message, 0, len(doc.Messages))
	for i, em := range doc.Messages {
		if !em.Speaker.Valid() {
			return "", fmt.Errorf("%w: message %d has unknown speaker %q", core.ErrInvalidInput, i, em.Speaker)
		}
		m := core.Message{
			SessionID: doc.SessionID,
			Timestamp: em.Timestamp,
			Speaker:   em.Speaker,
			Text:      em.Text,
		}
		if em.Intent != nil {
			m.Intent = *em.Intent
		}
		if em.ResponseTime != nil {
			// seconds as float64 lose the last nanosecond without rounding
			d := time.Duration(math.Round(*em.ResponseTime * float64(time.Second)))
			m.ResponseTime = &d
		}
		msgs = append(msgs, m)
	}

	sess := core.Session{
		ID:           doc.SessionID,
		StartTime:    doc.StartTime,
		EndTime:      doc.EndTime,
		MessageCount: doc.MessageCount,
		Metadata:     doc.Metadata,
	}
	if sess.EndTime != nil && sess.MessageCount == 0 {
		sess.MessageCount = len(msgs)
	}

	if err := s.repo.ImportSession(ctx, sess, msgs); err != nil {
		return "", core.StorageError("Import", err)
	}

	log.FromCtx(ctx).Info().Str("session_id", sess.ID).Int("messages", len(msgs)).Msg("session imported")
	return sess.ID, nil
}
