package handlers

import (
	"net/http"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/daemon"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/server/responses"
	"git.home.luguber.info/inful/texbuilder/internal/version"
)

// StatusProvider reports the daemon state.
type StatusProvider interface {
	Status() daemon.Status
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	daemon       StatusProvider
	startTime    time.Time
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(d StatusProvider, adapter *errors.HTTPErrorAdapter) *MonitoringHandlers {
	return &MonitoringHandlers{daemon: d, startTime: time.Now(), errorAdapter: adapter}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.errorAdapter, http.MethodGet) {
		return
	}

	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.startTime).Seconds(),
	}
	if h.daemon != nil {
		st := h.daemon.Status()
		health.DaemonState = string(st.State)
		health.Building = st.Building
		health.NextRun = st.NextRun
		if st.State == daemon.StateStopping {
			health.Status = "stopping"
		}
	}

	writeOrFail(w, r, h.errorAdapter, http.StatusOK, health, "health response")
}
