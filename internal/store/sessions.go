package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// DecodeSession records one topic decode.
type DecodeSession struct {
	SessionID     string `json:"session_id"`
	Topic         string `json:"topic"`
	TypeName      string `json:"type_name"`
	Kind          string `json:"kind"`
	Messages      int    `json:"messages"`
	Records       int    `json:"records"`
	TrailingBytes int    `json:"trailing_bytes"`
	Skipped       int    `json:"skipped"`
	DurationNanos int64  `json:"duration_ns"`
	Error         string `json:"error,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

// RecordDecodeSession persists a session. Empty SessionID and zero
// CreatedAt are filled in.
func (s *Store) RecordDecodeSession(ctx context.Context, sess DecodeSession) error {
	if sess.SessionID == "" {
		sess.SessionID = uuid.New().String()
	}
	if sess.CreatedAt == 0 {
		sess.CreatedAt = nowNanos()
	}
	var errText interface{}
	if sess.Error != "" {
		errText = sess.Error
	}

	return retryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO decode_sessions (
				session_id, topic, type_name, kind, messages, records,
				trailing_bytes, skipped, duration_ns, error, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.SessionID, sess.Topic, sess.TypeName, sess.Kind, sess.Messages, sess.Records,
			sess.TrailingBytes, sess.Skipped, sess.DurationNanos, errText, sess.CreatedAt,
		)
		return err
	})
}

// ListDecodeSessions returns the sessions for topic, newest first. An empty
// topic lists every session.
func (s *Store) ListDecodeSessions(ctx context.Context, topic string) ([]DecodeSession, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, topic, type_name, kind, messages, records,
		       trailing_bytes, skipped, duration_ns, error, created_at
		FROM decode_sessions
		WHERE ? = '' OR topic = ?
		ORDER BY created_at DESC, rowid DESC`, topic, topic)
	if err != nil {
		return nil, fmt.Errorf("query decode sessions: %w", err)
	}
	defer rows.Close()

	var out []DecodeSession
	for rows.Next() {
		var d DecodeSession
		var errText sql.NullString
		if err := rows.Scan(
			&d.SessionID, &d.Topic, &d.TypeName, &d.Kind, &d.Messages, &d.Records,
			&d.TrailingBytes, &d.Skipped, &d.DurationNanos, &errText, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan decode session: %w", err)
		}
		d.Error = errText.String
		out = append(out, d)
	}
	return out, rows.Err()
}
