// Package responses defines API response types used by the texbuilder HTTP handlers.
package responses

import (
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
)

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status      string     `json:"status"`
	Timestamp   time.Time  `json:"timestamp"`
	Version     string     `json:"version"`
	Uptime      float64    `json:"uptime"`
	DaemonState string     `json:"daemon_state,omitempty"`
	Building    bool       `json:"building"`
	NextRun     *time.Time `json:"next_run,omitempty"`
}

// CompileResponse is the body of POST /api/compile.
type CompileResponse struct {
	Format      string                   `json:"format"`
	Text        string                   `json:"text"`
	Directory   string                   `json:"directory,omitempty"`
	BackCover   string                   `json:"back_cover,omitempty"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics"`
	Counts      map[string]int           `json:"counts,omitempty"`
}

// NormalizeRequest carries a single text field to normalize.
type NormalizeRequest struct {
	Text string `json:"text"`
}

// NormalizeResponse is the body of POST /api/normalize.
type NormalizeResponse struct {
	Text    string `json:"text"`
	Changed bool   `json:"changed"`
}

// TriggerResponse represents the response for build trigger operations.
type TriggerResponse struct {
	Status  string `json:"status"`
	Trigger string `json:"trigger"`
	Force   bool   `json:"force"`
}

// BuildsResponse lists recent builds, newest first.
type BuildsResponse struct {
	Builds   []eventstore.BuildSummary `json:"builds"`
	Active   *eventstore.BuildSummary  `json:"active,omitempty"`
	LastSync time.Time                 `json:"last_sync,omitzero"`
}
