package signal

func (ctl *Controller) handlePing(c *wsConn) {
	ctl.sendJSON(c, "pong", map[string]any{"connectionId": c.id})
}
