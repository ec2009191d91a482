package metrics

import "time"

// ResultLabel is the result label of texbuilder_stage_results_total.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultWarning ResultLabel = "warning" // compiled with warning diagnostics
	ResultFatal   ResultLabel = "fatal"
	ResultSkipped ResultLabel = "skipped" // inputs unchanged
)

// Recorder defines observability hooks for builds, compilations and the
// HTTP API.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|failed|skipped|cancelled
	AddDiagnostics(kind string, n int)
	ObserveOutputBytes(format string, n int)
	ObserveHTTPRequest(route string, status int, d time.Duration)
}

// NoopRecorder is the Recorder used when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncStageResult(string, ResultLabel)            {}
func (NoopRecorder) IncBuildOutcome(string)                        {}
func (NoopRecorder) AddDiagnostics(string, int)                    {}
func (NoopRecorder) ObserveOutputBytes(string, int)                {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration) {}
