// Package http exposes the request/response surface of the proctoring
// core over gin.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/app"
	"github.com/kamleshbaheti/Smart-Interview/internal/store"
)

// Handlers bundles the REST endpoints with their collaborators.
type Handlers struct {
	Registry  *app.Registry
	Pipeline  *app.Pipeline
	Gateway   *app.Gateway
	Store     *store.Store
	UploadDir string
}

// StartSession creates (or idempotently re-acknowledges) a session.
func (h *Handlers) StartSession(c *gin.Context) {
	var req struct {
		SessionID    string `json:"sessionId"`
		SessionIDAlt string `json:"session_id"`
		Name         string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = req.SessionIDAlt
	}

	sessionID, err := h.Registry.Start(c.Request.Context(), sessionID, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID})
}

// LogEvent persists one event and broadcasts it to the session room.
func (h *Handlers) LogEvent(c *gin.Context) {
	var req app.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}

	if _, err := h.Pipeline.Submit(c.Request.Context(), req); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadVideo stores the session recording and attaches its path.
// The blob itself is an external concern; this core only keeps the
// pointer on the session record.
func (h *Handlers) UploadVideo(c *gin.Context) {
	sessionID := c.PostForm("sessionId")
	if sessionID == "" {
		sessionID = c.PostForm("session_id")
	}
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file"})
		return
	}

	filename := fmt.Sprintf("%s_%d.webm", sessionID, time.Now().Unix())
	path := filepath.Join(h.UploadDir, filename)
	if err := c.SaveUploadedFile(file, path); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("session", sessionID).Msg("save upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	if err := h.Registry.AttachVideoPath(c.Request.Context(), sessionID, path); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "path": path})
}

// Report returns the persisted event sequence of a session, newest
// first. Report rendering consumes this feed; it is not done here.
func (h *Handlers) Report(c *gin.Context) {
	sessionID := c.Param("sessionId")

	events, err := h.Store.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": sessionID,
		"total":     len(events),
		"events":    events,
	})
}

// AnalyzeFrame runs the detector on one frame and returns the events
// it produced. Detector failures yield an empty list, never an error.
func (h *Handlers) AnalyzeFrame(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
		Name      string `json:"name"`
		Image     string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad_payload"})
		return
	}
	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no image"})
		return
	}

	events, err := h.Gateway.AnalyzeAndIngest(c.Request.Context(), req.SessionID, req.Name, req.Image)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// fail maps core error kinds onto HTTP statuses.
func (h *Handlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrBadRequest), errors.Is(err, store.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
