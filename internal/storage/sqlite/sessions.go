package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/saxil/mareen/internal/core"
	"github.com/saxil/mareen/pkg/log"
)

const defaultSearchLimit = 50

type SessionsRepo struct {
	db *sql.DB
}

func NewSessionsRepo(db *sql.DB) *SessionsRepo {
	return &SessionsRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SessionsRepo) CreateSession(ctx context.Context, s core.Session) error {
	meta, err := marshalMetadata(s.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, start_time, end_time, message_count, metadata) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.StartTime.UnixNano(), nullTime(s.EndTime), s.MessageCount, meta,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// CloseSession stamps the end time and recomputes message_count from the
// messages table. It returns the final count.
func (r *SessionsRepo) CloseSession(ctx context.Context, sessionID string, endTime time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE sessions
		SET end_time = ?,
		    message_count = (SELECT COUNT(*) FROM messages WHERE session_id = ?)
		WHERE session_id = ?`,
		endTime.UnixNano(), sessionID, sessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to close session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, fmt.Errorf("session %q: %w", sessionID, core.ErrNotFound)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT message_count FROM sessions WHERE session_id = ?`, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read message count: %w", err)
	}

	return count, tx.Commit()
}

func (r *SessionsRepo) GetSession(ctx context.Context, sessionID string) (core.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT session_id, start_time, end_time, message_count, metadata FROM sessions WHERE session_id = ?`,
		sessionID,
	)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Session{}, fmt.Errorf("session %q: %w", sessionID, core.ErrNotFound)
	}
	if err != nil {
		return core.Session{}, err
	}
	return s, nil
}

func (r *SessionsRepo) ListSessions(ctx context.Context, limit int) ([]core.Session, error) {
	query := `SELECT session_id, start_time, end_time, message_count, metadata FROM sessions ORDER BY start_time DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []core.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionsRepo) AddMessage(ctx context.Context, msg core.Message) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, created_at, speaker, content, intent, response_time_ns) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.SessionID, msg.Timestamp.UnixNano(), string(msg.Speaker), msg.Text, nullString(msg.Intent), nullDuration(msg.ResponseTime),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return res.LastInsertId()
}

// GetMessages returns the earliest limit messages of a session in
// chronological order. A non-positive limit returns all of them.
func (r *SessionsRepo) GetMessages(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	query := `
		SELECT id, session_id, created_at, speaker, content, intent, response_time_ns
		FROM messages
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	messages, err := r.queryMessages(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Str("session_id", sessionID).Int("count", len(messages)).Msg("loaded history messages")
	return messages, nil
}

// MessagesSince returns every message of the sessions started at or after
// cutoff, oldest first. maxSessions > 0 restricts the scan to that many of
// the most recent sessions.
func (r *SessionsRepo) MessagesSince(ctx context.Context, cutoff time.Time, maxSessions int) ([]core.Message, error) {
	query := `
		SELECT m.id, m.session_id, m.created_at, m.speaker, m.content, m.intent, m.response_time_ns
		FROM messages m
		JOIN sessions s ON s.session_id = m.session_id
		WHERE s.start_time >= ?`
	args := []any{cutoff.UnixNano()}

	if maxSessions > 0 {
		query += `
		  AND s.session_id IN (
			SELECT session_id FROM sessions WHERE start_time >= ? ORDER BY start_time DESC LIMIT ?
		  )`
		args = append(args, cutoff.UnixNano(), maxSessions)
	}
	query += ` ORDER BY m.created_at ASC, m.id ASC`

	return r.queryMessages(ctx, query, args...)
}

// Search matches substring case-insensitively against message text,
// newest first. Both sides are folded in Go, so non-ASCII letters match
// regardless of case.
func (r *SessionsRepo) Search(ctx context.Context, substring string, limit int) ([]core.SearchResult, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.session_id, m.created_at, m.speaker, m.content, m.intent, m.response_time_ns,
		       s.start_time, s.metadata
		FROM messages m
		JOIN sessions s ON s.session_id = m.session_id
		WHERE fold(m.content) LIKE ? ESCAPE '\'
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`,
		"%"+escapeLike(strings.ToLower(substring))+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var results []core.SearchResult
	for rows.Next() {
		var (
			res          core.SearchResult
			sessionStart int64
			meta         sql.NullString
		)
		msg, err := scanMessage(rows, &sessionStart, &meta)
		if err != nil {
			return nil, err
		}
		res.Message = msg
		res.SessionStart = time.Unix(0, sessionStart)
		if res.SessionMetadata, err = unmarshalMetadata(meta); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *SessionsRepo) Stats(ctx context.Context) (core.Stats, error) {
	stats := core.Stats{BySpeaker: make(map[core.Speaker]int)}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&stats.TotalSessions); err != nil {
		return stats, fmt.Errorf("failed to count sessions: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.TotalMessages); err != nil {
		return stats, fmt.Errorf("failed to count messages: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT speaker, COUNT(*) FROM messages GROUP BY speaker`)
	if err != nil {
		return stats, fmt.Errorf("failed to count speakers: %w", err)
	}
	for rows.Next() {
		var (
			speaker string
			count   int
		)
		if err := rows.Scan(&speaker, &count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.BySpeaker[core.Speaker(speaker)] = count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return stats, err
	}
	rows.Close()

	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, `SELECT AVG(message_count) FROM sessions WHERE message_count > 0`).Scan(&avg); err != nil {
		return stats, fmt.Errorf("failed to average session length: %w", err)
	}
	if avg.Valid {
		stats.AverageSessionLength = math.Round(avg.Float64*100) / 100
	}

	return stats, nil
}

// ImportSession recreates an exported session. Message IDs are reassigned
// in the given order; timestamps are kept.
func (r *SessionsRepo) ImportSession(ctx context.Context, s core.Session, msgs []core.Message) error {
	meta, err := marshalMetadata(s.Metadata)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE session_id = ?`, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if exists > 0 {
		return fmt.Errorf("session %q: %w", s.ID, core.ErrSessionExists)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, start_time, end_time, message_count, metadata) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.StartTime.UnixNano(), nullTime(s.EndTime), s.MessageCount, meta,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO messages (session_id, created_at, speaker, content, intent, response_time_ns) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range msgs {
		if _, err := stmt.ExecContext(ctx, s.ID, m.Timestamp.UnixNano(), string(m.Speaker), m.Text, nullString(m.Intent), nullDuration(m.ResponseTime)); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SessionsRepo) queryMessages(ctx context.Context, query string, args ...any) ([]core.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func scanMessage(s rowScanner, extra ...any) (core.Message, error) {
	var (
		msg          core.Message
		createdAt    int64
		speaker      string
		intent       sql.NullString
		responseTime sql.NullInt64
	)

	dest := append([]any{&msg.ID, &msg.SessionID, &createdAt, &speaker, &msg.Text, &intent, &responseTime}, extra...)
	if err := s.Scan(dest...); err != nil {
		return msg, fmt.Errorf("failed to scan message: %w", err)
	}

	msg.Timestamp = time.Unix(0, createdAt)
	msg.Speaker = core.Speaker(speaker)
	msg.Intent = intent.String
	if responseTime.Valid {
		d := time.Duration(responseTime.Int64)
		msg.ResponseTime = &d
	}
	return msg, nil
}

func scanSession(s rowScanner) (core.Session, error) {
	var (
		sess      core.Session
		startTime int64
		endTime   sql.NullInt64
		meta      sql.NullString
	)
	if err := s.Scan(&sess.ID, &startTime, &endTime, &sess.MessageCount, &meta); err != nil {
		return sess, err
	}

	sess.StartTime = time.Unix(0, startTime)
	if endTime.Valid {
		t := time.Unix(0, endTime.Int64)
		sess.EndTime = &t
	}

	var err error
	sess.Metadata, err = unmarshalMetadata(meta)
	return sess, err
}

func marshalMetadata(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func unmarshalMetadata(s sql.NullString) (map[string]any, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return m, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDuration(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
