package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/domain"
	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
)

// SessionDirectory is the registry surface the pipeline needs.
type SessionDirectory interface {
	GetOrCreate(ctx context.Context, sessionID string) error
}

// EventLog is the durable append surface the pipeline needs.
type EventLog interface {
	AppendEvent(ctx context.Context, e *domain.Event) error
}

// Broadcaster publishes to a session's room. Delivery to an empty room
// is a no-op, never an error.
type Broadcaster interface {
	Broadcast(sessionID, channel string, payload any) int
}

// SubmitRequest carries one event submission. Timestamp is the raw
// caller-supplied instant, empty when ingestion time should apply.
type SubmitRequest struct {
	SessionID string          `json:"sessionId"`
	Role      string          `json:"role"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Detail    json.RawMessage `json:"detail"`
	Timestamp string          `json:"timestamp"`
}

// Pipeline unifies event submission from manual logging, live room
// events and analysis findings. It enforces durability before
// visibility: an event reaches the room only after the store accepted
// it.
type Pipeline struct {
	sessions SessionDirectory
	events   EventLog
	rooms    Broadcaster
}

func NewPipeline(sessions SessionDirectory, events EventLog, rooms Broadcaster) *Pipeline {
	return &Pipeline{sessions: sessions, events: events, rooms: rooms}
}

// Submit persists the event and then broadcasts the persisted form,
// with its store-assigned id and timestamp, on the event channel.
// A persistence failure aborts before any room member can observe the
// event. No subscribers at broadcast time is not an error.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (*domain.Event, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrBadRequest)
	}
	if req.Type == "" {
		return nil, fmt.Errorf("%w: type is required", ErrBadRequest)
	}

	if err := p.sessions.GetOrCreate(ctx, req.SessionID); err != nil {
		return nil, err
	}

	ts, err := resolveTimestamp(req.Timestamp)
	if err != nil {
		return nil, err
	}

	ev := &domain.Event{
		SessionID: req.SessionID,
		Timestamp: ts,
		Role:      req.Role,
		Name:      req.Name,
		Type:      req.Type,
		Detail:    req.Detail,
	}
	if err := p.events.AppendEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("persist event: %w", err)
	}

	delivered := p.rooms.Broadcast(req.SessionID, hub.ChannelEvent, ev)
	log.Debug().Str("module", "app.ingest").Str("session", req.SessionID).
		Str("type", req.Type).Int64("id", ev.ID).Int("delivered", delivered).
		Msg("event ingested")
	return ev, nil
}

// resolveTimestamp parses a caller-supplied ISO-8601 instant. A
// trailing "Z" designates UTC, offset zero. Absent input yields
// ingestion time; unparsable input is a caller error.
func resolveTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse timestamp %q: %v", ErrBadRequest, raw, err)
	}
	return ts.UTC(), nil
}
