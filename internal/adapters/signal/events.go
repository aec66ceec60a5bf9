package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/app"
	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
)

// handleEvent feeds a live room event through the ingestion pipeline:
// it is persisted first and the room sees the persisted form, with its
// store-assigned id and timestamp. The submission rides under "data"
// so its event category does not clash with the envelope type.
func (ctl *Controller) handleEvent(ctx context.Context, c *wsConn, data []byte) {
	var env struct {
		Data app.SubmitRequest `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad event payload")
		ctl.sendError(c, "bad_payload")
		return
	}
	req := env.Data

	if _, err := ctl.Pipeline.Submit(ctx, req); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("session", req.SessionID).Msg("event submit")
		ctl.sendError(c, "submit_failed")
	}
}

// handleSnapshot forwards a periodic screen capture to the room
// verbatim. Snapshots are never persisted.
func (ctl *Controller) handleSnapshot(c *wsConn, data []byte) {
	sessionID, payload, ok := roomPayload(data)
	if !ok {
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Hub.Broadcast(sessionID, hub.ChannelSnapshot, payload)
}

// handleChat broadcasts a chat message to everyone in the session,
// the sender included, so the client renders its own message through
// the same path as everyone else's.
func (ctl *Controller) handleChat(c *wsConn, data []byte) {
	sessionID, payload, ok := roomPayload(data)
	if !ok {
		ctl.sendError(c, "bad_payload")
		return
	}
	ctl.Hub.Broadcast(sessionID, hub.ChannelChat, payload)
}

// roomPayload extracts the target session and the payload to forward.
func roomPayload(data []byte) (string, map[string]any, bool) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", nil, false
	}
	sessionID, _ := payload["sessionId"].(string)
	if sessionID == "" {
		return "", nil, false
	}
	delete(payload, "type")
	return sessionID, payload, true
}
