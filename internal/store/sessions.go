package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kamleshbaheti/Smart-Interview/internal/domain"
)

// InsertSession creates a session if it does not exist yet. Creation is
// idempotent: inserting an id that already exists leaves the stored
// record unchanged and returns created=false.
func (s *Store) InsertSession(ctx context.Context, sess *domain.Session) (created bool, err error) {
	if sess.SessionID == "" {
		return false, fmt.Errorf("%w: session id is required", ErrInvalidEvent)
	}
	createdAt := sess.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const query = `
	INSERT INTO sessions (session_id, name, created_at, video_path)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(session_id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		sess.SessionID,
		sess.Name,
		createdAt.UTC().Format(TimeFormat),
		nullString(sess.VideoPath),
	)
	if err != nil {
		return false, fmt.Errorf("insert session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected > 0 {
		sess.CreatedAt = createdAt
		return true, nil
	}
	return false, nil
}

// GetSession returns the session with the given id, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	const query = `
	SELECT session_id, name, created_at, video_path
	FROM sessions WHERE session_id = ?
	`

	var (
		sess      domain.Session
		createdAt string
		videoPath sql.NullString
		name      sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).
		Scan(&sess.SessionID, &name, &createdAt, &videoPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sess.Name = name.String
	sess.VideoPath = videoPath.String
	sess.CreatedAt, err = time.Parse(TimeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	return &sess, nil
}

// SetVideoPath attaches the recording path to an existing session.
// Returns ErrNotFound when the session does not exist; the defensive
// auto-create policy does not apply here.
func (s *Store) SetVideoPath(ctx context.Context, sessionID, path string) error {
	const query = `UPDATE sessions SET video_path = ? WHERE session_id = ?`

	result, err := s.db.ExecContext(ctx, query, path, sessionID)
	if err != nil {
		return fmt.Errorf("set video path: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
