package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleJoin registers the connection in the session's room. The hub
// takes care of the system notice to the room and the private
// connection-id reply to the joiner.
func (ctl *Controller) handleJoin(c *wsConn, data []byte) {
	type joinPayload struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		Role      string `json:"role"`
		Name      string `json:"name"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	if p.SessionID == "" {
		ctl.sendError(c, "sessionId is required")
		return
	}

	ctl.Hub.Join(c, c.id, p.SessionID, p.Role, p.Name)
}

// handleLeave drops the room membership but keeps the connection
// open. Cleanup only: the room gets no leave notice.
func (ctl *Controller) handleLeave(c *wsConn) {
	ctl.Hub.Leave(c.id)
	ctl.sendJSON(c, "left", map[string]any{"connectionId": c.id})
}
