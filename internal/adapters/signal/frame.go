package signal

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleFrame runs the analysis gateway on one captured frame. A bad
// or unanalyzable frame is dropped without a reply: a failed frame
// must never close the candidate's connection.
func (ctl *Controller) handleFrame(ctx context.Context, c *wsConn, data []byte) {
	type framePayload struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		Name      string `json:"name"`
		Frame     string `json:"frame"`
	}
	var p framePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad frame payload")
		return
	}
	if p.SessionID == "" || p.Frame == "" {
		return
	}

	events, err := ctl.Gateway.AnalyzeAndIngest(ctx, p.SessionID, p.Name, p.Frame)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("session", p.SessionID).Msg("frame ingest")
		return
	}
	if len(events) > 0 {
		log.Debug().Str("module", "signal").Str("session", p.SessionID).
			Int("findings", len(events)).Msg("frame analyzed")
	}
}
