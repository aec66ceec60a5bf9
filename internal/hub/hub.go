// Package hub holds the in-memory room state: which connections are
// joined under which session, and the unicast/broadcast primitives the
// rest of the core publishes through. Membership is ephemeral and
// rebuilt by join calls; nothing here is persisted.
package hub

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Channels the hub publishes on.
const (
	ChannelEvent    = "event"
	ChannelSnapshot = "snapshot"
	ChannelChat     = "chat"
	ChannelOffer    = "webrtc-offer"
	ChannelAnswer   = "webrtc-answer"
	ChannelIce      = "webrtc-ice"
	ChannelYourID   = "your-connection-id"
)

// Sender delivers one marshaled envelope to a connection. TrySend must
// not block; a connection that cannot keep up returns an error and the
// message is dropped for it.
type Sender interface {
	TrySend(data []byte) error
}

// Member is the public view of a room membership entry.
type Member struct {
	ConnID    string `json:"connectionId"`
	SessionID string `json:"sessionId"`
	Role      string `json:"role"`
	Name      string `json:"name"`
}

// Envelope is the wire frame for everything the hub sends.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type member struct {
	Member
	sender Sender
}

// Hub maps sessionId -> set of joined connections. One instance owns
// all rooms of the process; all access goes through its mutex.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*member
	conns map[string]*member
}

func New() *Hub {
	return &Hub{
		rooms: make(map[string]map[string]*member),
		conns: make(map[string]*member),
	}
}

// Join registers a connection in the session's room. Re-joining with
// the same connection id replaces the prior (role, name) without
// duplicating the entry, and a connection joining a different session
// is moved out of its old room first, so a connection is never
// registered twice. Join notifies the room with a system notice and
// unicasts the connection its own id, so the client can recognize
// echoes of its later broadcasts.
func (h *Hub) Join(sender Sender, connID, sessionID, role, name string) {
	m := &member{
		Member: Member{ConnID: connID, SessionID: sessionID, Role: role, Name: name},
		sender: sender,
	}

	h.mu.Lock()
	if prev, ok := h.conns[connID]; ok && prev.SessionID != sessionID {
		h.removeLocked(prev)
	}
	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[string]*member)
		h.rooms[sessionID] = room
	}
	room[connID] = m
	h.conns[connID] = m
	h.mu.Unlock()

	log.Info().Str("module", "hub").Str("conn", connID).
		Str("session", sessionID).Str("role", role).Msg("joined room")

	h.Broadcast(sessionID, ChannelEvent, map[string]any{
		"type":      "system",
		"detail":    fmt.Sprintf("%s (%s) joined", name, role),
		"role":      role,
		"name":      name,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	h.Unicast(connID, ChannelYourID, map[string]any{"connectionId": connID})
}

// Leave removes a connection's membership. Silent: no notice is
// broadcast on disconnect.
func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	m, ok := h.conns[connID]
	if ok {
		h.removeLocked(m)
	}
	h.mu.Unlock()

	if ok {
		log.Info().Str("module", "hub").Str("conn", connID).
			Str("session", m.SessionID).Msg("left room")
	}
}

func (h *Hub) removeLocked(m *member) {
	if room, ok := h.rooms[m.SessionID]; ok {
		delete(room, m.ConnID)
		if len(room) == 0 {
			delete(h.rooms, m.SessionID)
		}
	}
	delete(h.conns, m.ConnID)
}

// Broadcast delivers the payload to every connection currently joined
// to the session's room, the sender included when it is a member
// (self-filtering is the client's responsibility). An empty room is a
// silent no-op. Returns the number of deliveries attempted.
func (h *Hub) Broadcast(sessionID, channel string, payload any) int {
	data, err := json.Marshal(Envelope{Type: channel, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Str("channel", channel).Msg("broadcast marshal")
		return 0
	}

	h.mu.RLock()
	room := h.rooms[sessionID]
	members := make([]*member, 0, len(room))
	for _, m := range room {
		members = append(members, m)
	}
	h.mu.RUnlock()

	for _, m := range members {
		if err := m.sender.TrySend(data); err != nil {
			log.Warn().Err(err).Str("module", "hub").Str("conn", m.ConnID).
				Str("channel", channel).Msg("dropped broadcast")
		}
	}
	return len(members)
}

// Unicast delivers the payload to exactly one connection. Returns
// false when the connection is not registered.
func (h *Hub) Unicast(connID, channel string, payload any) bool {
	data, err := json.Marshal(Envelope{Type: channel, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Str("channel", channel).Msg("unicast marshal")
		return false
	}

	h.mu.RLock()
	m, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	if err := m.sender.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "hub").Str("conn", connID).
			Str("channel", channel).Msg("dropped unicast")
	}
	return true
}

// SessionOf returns the session a connection is joined to.
func (h *Hub) SessionOf(connID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.conns[connID]
	if !ok {
		return "", false
	}
	return m.SessionID, true
}

// Members returns a snapshot of the session's room.
func (h *Hub) Members(sessionID string) []Member {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[sessionID]
	out := make([]Member, 0, len(room))
	for _, m := range room {
		out = append(out, m.Member)
	}
	return out
}

// MemberCount returns the number of connections in the session's room.
func (h *Hub) MemberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}
