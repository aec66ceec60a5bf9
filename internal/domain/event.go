package domain

import (
	"encoding/json"
	"time"
)

// Roles attached to submitted events.
const (
	RoleCandidate = "candidate"
	RoleProctor   = "proctor"
	RoleDetector  = "detector"
	RoleSystem    = "system"
)

// Well-known event types. Type is free-form; these are the ones the
// detector and the clients produce today.
const (
	TypeNoFace        = "no_face_detected"
	TypeMultipleFaces = "multiple_faces_detected"
	TypeObject        = "object_detected"
	TypeChat          = "chat"
	TypeSystem        = "system"
)

// Event is a durably persisted, immutable record of something that
// happened in a session. ID and Timestamp are assigned at persistence
// and are the authoritative order for audit reads.
type Event struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"sessionId"`
	Timestamp time.Time       `json:"timestamp"`
	Role      string          `json:"role"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Detail    json.RawMessage `json:"detail,omitempty"`
}
