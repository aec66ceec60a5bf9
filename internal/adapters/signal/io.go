package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("conn", c.id).Msg("readPump closing")
				return
			}
			ctl.handleMessage(ctx, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(ctx context.Context, c *wsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(c, data)
	case "leave":
		ctl.handleLeave(c)
	case "ping":
		ctl.handlePing(c)
	case "event":
		ctl.handleEvent(ctx, c, data)
	case "snapshot":
		ctl.handleSnapshot(c, data)
	case "chat":
		ctl.handleChat(c, data)
	case hub.ChannelOffer, hub.ChannelAnswer, hub.ChannelIce:
		ctl.handleSignaling(env.Type, c, data)
	case "frame":
		ctl.handleFrame(ctx, c, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
	}
}

func (ctl *Controller) sendJSON(c *wsConn, channel string, payload any) {
	b, err := json.Marshal(hub.Envelope{Type: channel, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
