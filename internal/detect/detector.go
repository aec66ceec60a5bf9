// Package detect defines the contract with the visual-analysis
// collaborator and the frame decoding that feeds it. The analysis
// itself runs outside this process; this package only normalizes its
// input and output.
package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/jpeg"
	_ "image/png"
)

// Finding is one result for one frame. Detail is an opaque payload
// (e.g. {"object": "cell phone", "confidence": 0.91}).
type Finding struct {
	Type   string         `json:"type"`
	Detail map[string]any `json:"detail"`
}

// Detector analyzes one decoded image and returns zero or more
// findings. Implementations must honor ctx cancellation; a stalled
// detector is cut off by the caller's timeout.
type Detector interface {
	Analyze(ctx context.Context, img []byte) ([]Finding, error)
}

// Disabled returns a Detector that finds nothing. Used when no
// analysis service is configured.
func Disabled() Detector { return disabled{} }

type disabled struct{}

func (disabled) Analyze(context.Context, []byte) ([]Finding, error) { return nil, nil }

// DecodeFrame converts a base64 frame, with or without a data-URL
// prefix, into raw image bytes, verifying that they carry a decodable
// image header.
func DecodeFrame(frame string) ([]byte, error) {
	if frame == "" {
		return nil, fmt.Errorf("empty frame")
	}
	if i := strings.Index(frame, ","); i >= 0 && strings.HasPrefix(frame, "data:") {
		frame = frame[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(frame)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return raw, nil
}
