// Package domain contains entities without logic, just meta-data.
package domain

import "time"

// Session is one proctoring encounter. It hosts exactly one room,
// keyed by SessionID.
type Session struct {
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	VideoPath string    `json:"videoPath,omitempty"`
}
