// Package metrics records build and API metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no caller needs nil checks:
//
//	svc := build.NewService(cfg).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// The serve command installs a PrometheusRecorder and exposes its registry
// on /metrics through HTTPHandler.
package metrics
