package app

import (
	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
)

// Relay forwards peer-connection negotiation payloads to the sender's
// room without interpreting them. No negotiation state is kept server
// side; call state lives entirely in the peer endpoints, and any
// number of offer/answer rounds may pass through. The sender receives
// its own message too and filters by the attached "from" id.
type Relay struct {
	rooms Broadcaster
}

func NewRelay(rooms Broadcaster) *Relay {
	return &Relay{rooms: rooms}
}

func (r *Relay) Offer(sessionID string, payload map[string]any, from string) {
	r.forward(sessionID, hub.ChannelOffer, payload, from)
}

func (r *Relay) Answer(sessionID string, payload map[string]any, from string) {
	r.forward(sessionID, hub.ChannelAnswer, payload, from)
}

func (r *Relay) Ice(sessionID string, payload map[string]any, from string) {
	r.forward(sessionID, hub.ChannelIce, payload, from)
}

func (r *Relay) forward(sessionID, channel string, payload map[string]any, from string) {
	if payload == nil {
		payload = make(map[string]any, 1)
	}
	payload["from"] = from
	r.rooms.Broadcast(sessionID, channel, payload)
}
