// Package store provides SQLite persistence for sessions and their
// event log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "modernc.org/sqlite"
)

// TimeFormat is the fixed-width RFC3339 format used for timestamps.
// Fixed width keeps lexicographic ordering equal to chronological
// ordering, which the event queries rely on.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

// Store wraps a SQLite database connection shared by all sessions.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode and busy_timeout and runs
// the schema migration. The path should be an absolute path to the
// database file.
func Open(path string) (*Store, error) {
	// URL-escape the path to handle special characters (?, #, spaces, etc.)
	escapedPath := url.PathEscape(path)

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", escapedPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// WAL allows concurrent readers while writes stay serialized.
	db.SetMaxOpenConns(4)

	store := &Store{db: db}

	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS sessions (
		id         INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		name       TEXT,
		created_at TEXT NOT NULL,
		video_path TEXT,
		UNIQUE(session_id)
	);

	CREATE TABLE IF NOT EXISTS events (
		id         INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		ts         TEXT NOT NULL,
		role       TEXT,
		name       TEXT,
		type       TEXT NOT NULL,
		detail     TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_session_ts ON events(session_id, ts);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// journalMode returns the current journal mode (for testing).
func (s *Store) journalMode() (string, error) {
	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return "", err
	}
	return mode, nil
}
