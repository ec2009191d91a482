package handlers

import (
	"net/http"
	"strconv"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/server/responses"
)

// BuildRunner starts builds in the background.
type BuildRunner interface {
	TryBuild(trigger build.Trigger, force bool) error
}

// HistoryReader is the read side of the build history.
type HistoryReader interface {
	GetHistory() []eventstore.BuildSummary
	GetBuild(buildID string) (*eventstore.BuildSummary, bool)
	GetActiveBuild() *eventstore.BuildSummary
	LastSyncTime() time.Time
}

// BuildHandlers trigger builds and expose the build history.
type BuildHandlers struct {
	runner       BuildRunner
	history      HistoryReader
	errorAdapter *errors.HTTPErrorAdapter
}

// NewBuildHandlers creates build handlers. history may be nil when the
// history store is disabled.
func NewBuildHandlers(runner BuildRunner, history HistoryReader, adapter *errors.HTTPErrorAdapter) *BuildHandlers {
	return &BuildHandlers{runner: runner, history: history, errorAdapter: adapter}
}

// HandleTriggerBuild starts a build and answers 202 without waiting for it.
func (h *BuildHandlers) HandleTriggerBuild(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.errorAdapter, http.MethodPost) {
		return
	}
	if h.runner == nil {
		err := errors.DaemonError("daemon not available").
			WithContext("service", "build").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if err := h.runner.TryBuild(build.TriggerAPI, force); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeOrFail(w, r, h.errorAdapter, http.StatusAccepted, responses.TriggerResponse{
		Status:  "accepted",
		Trigger: string(build.TriggerAPI),
		Force:   force,
	}, "build trigger response")
}

// HandleListBuilds returns finished builds, newest first. ?limit= caps the list.
func (h *BuildHandlers) HandleListBuilds(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.errorAdapter, http.MethodGet) {
		return
	}
	if !h.historyEnabled(w, r) {
		return
	}

	builds := h.history.GetHistory()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.errorAdapter.WriteErrorResponse(w, r, errors.ValidationError("limit must be a non-negative integer").
				WithContext("limit", raw).
				Build())
			return
		}
		if limit < len(builds) {
			builds = builds[:limit]
		}
	}

	writeOrFail(w, r, h.errorAdapter, http.StatusOK, responses.BuildsResponse{
		Builds:   builds,
		Active:   h.history.GetActiveBuild(),
		LastSync: h.history.LastSyncTime(),
	}, "build history")
}

// HandleGetBuild returns one build by ID.
func (h *BuildHandlers) HandleGetBuild(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, h.errorAdapter, http.MethodGet) {
		return
	}
	if !h.historyEnabled(w, r) {
		return
	}

	id := r.PathValue("id")
	summary, ok := h.history.GetBuild(id)
	if !ok {
		h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("build not found").
			WithContext("build_id", id).
			Build())
		return
	}
	writeOrFail(w, r, h.errorAdapter, http.StatusOK, summary, "build summary")
}

func (h *BuildHandlers) historyEnabled(w http.ResponseWriter, r *http.Request) bool {
	if h.history != nil {
		return true
	}
	h.errorAdapter.WriteErrorResponse(w, r, errors.NotFoundError("build history is disabled").
		WithContext("setting", "history.enabled").
		Build())
	return false
}
