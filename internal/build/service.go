package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/diagnostics"
	"git.home.luguber.info/inful/texbuilder/internal/manifest"
)

// Service is the canonical interface for executing document builds.
type Service interface {
	// Run executes load → compile → write → manifest → archive → publish.
	Run(ctx context.Context, req Request) (*Result, error)
}

// Trigger names what started a build.
type Trigger string

const (
	TriggerCLI      Trigger = "cli"
	TriggerSchedule Trigger = "schedule"
	TriggerWatch    Trigger = "watch"
	TriggerAPI      Trigger = "api"
)

// Request contains all inputs of one build.
type Request struct {
	Config *config.Config
	// DocumentID overrides Config.Input.DocumentID when set.
	DocumentID string
	Trigger    Trigger
	// Force ignores output.skip_unchanged.
	Force bool
}

// Output is one compiled dialect written to disk.
type Output struct {
	Format      string `json:"format"`
	Path        string `json:"path"`
	Bytes       int    `json:"bytes"`
	Diagnostics int    `json:"diagnostics"`
}

// Result contains the outcome of a build.
type Result struct {
	BuildID     string                   `json:"build_id"`
	Status      Status                   `json:"status"`
	DocumentID  string                   `json:"document_id,omitempty"`
	OutputDir   string                   `json:"output_dir,omitempty"`
	Outputs     []Output                 `json:"outputs,omitempty"`
	Files       []string                 `json:"files,omitempty"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics,omitempty"`
	Manifest    *manifest.BuildManifest  `json:"-"`
	Archive     string                   `json:"archive,omitempty"`
	Commit      string                   `json:"commit,omitempty"`
	StartTime   time.Time                `json:"start_time"`
	EndTime     time.Time                `json:"end_time"`
	Duration    time.Duration            `json:"duration"`
	Skipped     bool                     `json:"skipped,omitempty"`
	SkipReason  string                   `json:"skip_reason,omitempty"`
}

// Status represents the outcome of a build.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped || s == StatusCancelled
}

// IsSuccess returns true if the build completed or had nothing to do.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusSkipped
}
