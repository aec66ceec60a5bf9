package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kamleshbaheti/Smart-Interview/internal/detect"
	"github.com/kamleshbaheti/Smart-Interview/internal/domain"
)

// Submitter is the pipeline surface the gateway needs.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*domain.Event, error)
}

// Gateway adapts detector findings into pipeline submissions. Detector
// failures stay inside the gateway: a frame that cannot be decoded or
// analyzed yields an empty result and persists nothing, and must never
// abort the caller or close its connection.
type Gateway struct {
	pipeline Submitter
	detector detect.Detector
	timeout  time.Duration
}

const defaultDetectTimeout = 10 * time.Second

func NewGateway(pipeline Submitter, detector detect.Detector, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultDetectTimeout
	}
	return &Gateway{pipeline: pipeline, detector: detector, timeout: timeout}
}

// AnalyzeAndIngest runs the detector on one frame and ingests each
// finding as an independent detector event. Findings of one frame are
// individually persisted before broadcast, but their broadcasts carry
// no ordering guarantee relative to each other. A missing frame is a
// caller error; everything past that is recovered to an empty result,
// except storage failures, which abort the remaining findings.
func (g *Gateway) AnalyzeAndIngest(ctx context.Context, sessionID, name, frame string) ([]domain.Event, error) {
	if frame == "" {
		return nil, fmt.Errorf("%w: frame is required", ErrBadRequest)
	}

	img, err := detect.DecodeFrame(frame)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.gateway").Str("session", sessionID).
			Msg("undecodable frame dropped")
		return []domain.Event{}, nil
	}

	// The detector is the one collaborator that may stall; cut it off.
	detectCtx, cancel := context.WithTimeout(ctx, g.timeout)
	findings, err := g.detector.Analyze(detectCtx, img)
	cancel()
	if err != nil {
		log.Warn().Err(err).Str("module", "app.gateway").Str("session", sessionID).
			Msg("detector failed, frame dropped")
		return []domain.Event{}, nil
	}

	events := make([]domain.Event, 0, len(findings))
	for _, f := range findings {
		detail, err := json.Marshal(f.Detail)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.gateway").Str("type", f.Type).
				Msg("unencodable finding detail skipped")
			continue
		}
		ev, err := g.pipeline.Submit(ctx, SubmitRequest{
			SessionID: sessionID,
			Role:      domain.RoleDetector,
			Name:      name,
			Type:      f.Type,
			Detail:    detail,
		})
		if err != nil {
			return events, err
		}
		events = append(events, *ev)
	}
	return events, nil
}
