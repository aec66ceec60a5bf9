package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/app"
	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the websocket side of a session room: it upgrades
// connections, pumps frames and dispatches the channel operations onto
// the hub, pipeline, relay and gateway.
type Controller struct {
	Hub       *hub.Hub
	Pipeline  *app.Pipeline
	Relay     *app.Relay
	Gateway   *app.Gateway
	ReadLimit int64
}

func NewController(h *hub.Hub, p *app.Pipeline, r *app.Relay, g *app.Gateway, readLimit int64) *Controller {
	return &Controller{Hub: h, Pipeline: p, Relay: r, Gateway: g, ReadLimit: readLimit}
}

type wsConn struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

// TrySend implements hub.Sender. It never blocks: a full send buffer
// drops the frame and reports backpressure.
func (c *wsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection until it
// drops. Each connection gets a fresh id; room membership is cleaned
// up on exit, with no leave notice.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	connID := uuid.NewString()
	conn := &wsConn{
		id:   connID,
		conn: ws,
		send: make(chan []byte, 32),
	}
	log.Info().Str("module", "signal").Str("conn", connID).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		defer func() {
			ctl.Hub.Leave(connID)
			conn.Close()
		}()
		ctl.readPump(ctx, conn)
	}()
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, "error", map[string]any{"error": msg})
}
