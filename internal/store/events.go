package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kamleshbaheti/Smart-Interview/internal/domain"
)

// AppendEvent durably appends an event to the session log and assigns
// its surrogate id. When Timestamp is zero, ingestion time is used.
// On successful return the record is visible to subsequent reads; the
// caller may broadcast it.
func (s *Store) AppendEvent(ctx context.Context, e *domain.Event) error {
	if err := validateEvent(e); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	const query = `
	INSERT INTO events (session_id, ts, role, name, type, detail)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		e.SessionID,
		e.Timestamp.UTC().Format(TimeFormat),
		e.Role,
		e.Name,
		e.Type,
		detailColumn(e.Detail),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// ListBySession returns all events of a session, newest first
// (timestamp desc, id desc). Full scan of the session is acceptable at
// this scale; there is no pagination.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]domain.Event, error) {
	const query = `
	SELECT id, session_id, ts, role, name, type, detail
	FROM events
	WHERE session_id = ?
	ORDER BY ts DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var (
			e      domain.Event
			ts     string
			role   sql.NullString
			name   sql.NullString
			detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &ts, &role, &name, &e.Type, &detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Timestamp, err = time.Parse(TimeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("parse ts %q: %w", ts, err)
		}
		e.Role = role.String
		e.Name = name.String
		if detail.Valid && detail.String != "" {
			e.Detail = json.RawMessage(detail.String)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return events, nil
}

// CountBySession returns the number of events persisted for a session.
func (s *Store) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM events WHERE session_id = ?`

	var count int64
	if err := s.db.QueryRowContext(ctx, query, sessionID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func detailColumn(detail json.RawMessage) sql.NullString {
	if len(detail) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(detail), Valid: true}
}

func validateEvent(e *domain.Event) error {
	if e.SessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrInvalidEvent)
	}
	if e.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidEvent)
	}
	return nil
}
