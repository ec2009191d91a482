package eventstore

import (
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeBuildStarted     = "BuildStarted"
	TypeDocumentCompiled = "DocumentCompiled"
	TypeBuildCompleted   = "BuildCompleted"
	TypeBuildFailed      = "BuildFailed"
	TypeBuildSkipped     = "BuildSkipped"
)

// Build statuses as recorded in history.
const (
	StatusRunning   = "running"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
	StatusCancelled = "cancelled"
)

// BuildStartedPayload describes what a build was asked to do.
type BuildStartedPayload struct {
	DocumentID string   `json:"document_id"`
	Workbook   string   `json:"workbook"`
	Formats    []string `json:"formats"`
	Trigger    string   `json:"trigger"` // cli, schedule, watch, api
}

// DocumentCompiledPayload records one compiled dialect.
type DocumentCompiledPayload struct {
	Format      string `json:"format"`
	Path        string `json:"path"`
	Bytes       int    `json:"bytes"`
	Diagnostics int    `json:"diagnostics"`
	DurationMS  int64  `json:"duration_ms"`
}

// BuildCompletedPayload closes a successful build.
type BuildCompletedPayload struct {
	Status      string            `json:"status"`
	Artifacts   map[string]string `json:"artifacts,omitempty"`
	Diagnostics map[string]int    `json:"diagnostics,omitempty"`
	Commit      string            `json:"commit,omitempty"`
}

// BuildFailedPayload closes a failed or cancelled build.
type BuildFailedPayload struct {
	Stage    string `json:"stage"`
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
	Canceled bool   `json:"canceled,omitempty"`
}

// BuildSkippedPayload closes a build that found nothing to do.
type BuildSkippedPayload struct {
	Reason      string `json:"reason"`
	RecordsHash string `json:"records_hash,omitempty"`
}

func newEvent(buildID, eventType string, payload any) (*BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, payloadError(err, eventType, buildID)
	}
	return &BaseEvent{
		EventBuildID:   buildID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID string, p BuildStartedPayload) (*BaseEvent, error) {
	return newEvent(buildID, TypeBuildStarted, p)
}

// NewDocumentCompiled creates a DocumentCompiled event.
func NewDocumentCompiled(buildID string, p DocumentCompiledPayload) (*BaseEvent, error) {
	return newEvent(buildID, TypeDocumentCompiled, p)
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID string, p BuildCompletedPayload) (*BaseEvent, error) {
	if p.Status == "" {
		p.Status = StatusSuccess
	}
	return newEvent(buildID, TypeBuildCompleted, p)
}

// NewBuildFailed creates a BuildFailed event.
func NewBuildFailed(buildID string, p BuildFailedPayload) (*BaseEvent, error) {
	return newEvent(buildID, TypeBuildFailed, p)
}

// NewBuildSkipped creates a BuildSkipped event.
func NewBuildSkipped(buildID string, p BuildSkippedPayload) (*BaseEvent, error) {
	return newEvent(buildID, TypeBuildSkipped, p)
}
