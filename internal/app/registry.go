// Package app wires the proctoring core: session registry, event
// ingestion pipeline, signaling relay and frame analysis gateway.
package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/domain"
	"github.com/kamleshbaheti/Smart-Interview/internal/store"
)

// Registry tracks known sessions on top of the store. Creation is
// idempotent; sessions are never deleted by this core.
type Registry struct {
	store *store.Store
}

func NewRegistry(st *store.Store) *Registry {
	return &Registry{store: st}
}

// Start creates a session, generating a collision-resistant id when
// the caller supplies none. Re-starting an existing id is a no-op that
// returns the id unchanged.
func (r *Registry) Start(ctx context.Context, sessionID, name string) (string, error) {
	if sessionID == "" {
		sessionID = "sess-" + uuid.NewString()
	}
	created, err := r.store.InsertSession(ctx, &domain.Session{SessionID: sessionID, Name: name})
	if err != nil {
		return "", err
	}
	if created {
		log.Info().Str("module", "app.registry").Str("session", sessionID).Msg("session created")
	}
	return sessionID, nil
}

// GetOrCreate ensures a session row exists. Used by the ingestion
// pipeline so that events referencing an unseen session never dangle.
func (r *Registry) GetOrCreate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", ErrBadRequest)
	}
	created, err := r.store.InsertSession(ctx, &domain.Session{SessionID: sessionID})
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("module", "app.registry").Str("session", sessionID).Msg("session auto-created")
	}
	return nil
}

// Get looks up a session. Returns store.ErrNotFound when unknown.
func (r *Registry) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	return r.store.GetSession(ctx, sessionID)
}

// AttachVideoPath records where the session recording was stored.
// Fails with store.ErrNotFound for unknown sessions; auto-creation
// does not apply here.
func (r *Registry) AttachVideoPath(ctx context.Context, sessionID, path string) error {
	return r.store.SetVideoPath(ctx, sessionID, path)
}
