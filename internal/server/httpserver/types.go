package httpserver

import (
	"git.home.luguber.info/inful/texbuilder/internal/metrics"
	"git.home.luguber.info/inful/texbuilder/internal/server/handlers"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Runtime is the minimal interface required by the build and health handlers.
// *daemon.Daemon satisfies it.
type Runtime interface {
	handlers.BuildRunner
	handlers.StatusProvider
}

// Options configures additional server wiring that is runtime-specific.
type Options struct {
	// Optional: build history; /api/builds answers 404 without it.
	History handlers.HistoryReader

	// Optional: request metrics and the /metrics endpoint.
	Recorder metrics.Recorder
	Registry *prom.Registry
}
