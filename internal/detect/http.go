package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPDetector calls an analysis service over HTTP. The service
// receives {"image": "<base64>"} and answers with findings, either as
// a bare array or wrapped in {"events": [...]}; both shapes normalize
// to []Finding here so nothing past this boundary sees the
// difference.
type HTTPDetector struct {
	url    string
	client *http.Client
}

func NewHTTPDetector(url string) *HTTPDetector {
	// No client timeout: the per-call deadline comes from ctx.
	return &HTTPDetector{url: url, client: &http.Client{}}
}

func (d *HTTPDetector) Analyze(ctx context.Context, img []byte) ([]Finding, error) {
	body, err := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(img),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call detector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return normalize(raw)
}

// normalize accepts both response shapes the service is known to
// produce and yields one contract: a sequence of findings.
func normalize(raw []byte) ([]Finding, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var findings []Finding
		if err := json.Unmarshal(raw, &findings); err != nil {
			return nil, fmt.Errorf("decode findings: %w", err)
		}
		return findings, nil
	}

	var wrapped struct {
		Events []Finding `json:"events"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}
	return wrapped.Events, nil
}
