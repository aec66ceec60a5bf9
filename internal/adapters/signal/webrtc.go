package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
)

// handleSignaling forwards a peer-connection negotiation payload to
// the room on the matching channel. The payload is never interpreted;
// the relay only tags it with the sender's connection id so clients
// can ignore their own messages.
func (ctl *Controller) handleSignaling(channel string, c *wsConn, data []byte) {
	var p map[string]any
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("channel", channel).Msg("bad signaling payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	sessionID, _ := p["sessionId"].(string)
	if sessionID == "" {
		ctl.sendError(c, "sessionId is required")
		return
	}

	payload := make(map[string]any, 2)
	switch channel {
	case hub.ChannelOffer, hub.ChannelAnswer:
		payload["sdp"] = p["sdp"]
	case hub.ChannelIce:
		payload["candidate"] = p["candidate"]
	}

	switch channel {
	case hub.ChannelOffer:
		ctl.Relay.Offer(sessionID, payload, c.id)
	case hub.ChannelAnswer:
		ctl.Relay.Answer(sessionID, payload, c.id)
	case hub.ChannelIce:
		ctl.Relay.Ice(sessionID, payload, c.id)
	}
}
