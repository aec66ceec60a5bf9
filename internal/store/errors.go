package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrNotFound is returned when a referenced session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidEvent is returned when an event fails validation.
	ErrInvalidEvent = errors.New("invalid event")
)
