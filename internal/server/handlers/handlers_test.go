package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/daemon"
	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/lint"
	"git.home.luguber.info/inful/texbuilder/internal/records"
	"git.home.luguber.info/inful/texbuilder/internal/server/responses"
)

func testAdapter() *errors.HTTPErrorAdapter {
	return errors.NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleSet(body string) records.Set {
	return records.Set{
		Document: records.Document{ID: "PRG-01", Title: "Programa Sectorial de Energía"},
		Sections: []records.Section{
			{DocumentID: "PRG-01", Order: "1", Level: "Sección", Title: "Introducción", Body: body},
		},
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, target, bytes.NewReader(b)))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errors.HTTPErrorResponse {
	t.Helper()
	var body errors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleCompile(t *testing.T) {
	h := NewAPIHandlers(config.Default(), testAdapter())

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"default format is latex", "/api/compile", `\end{document}`},
		{"markdown", "/api/compile?format=markdown", "Introducción"},
		{"format alias", "/api/compile?format=md", "Introducción"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.HandleCompile, tt.target, sampleSet("Texto de [[figura:F1]]."))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp responses.CompileResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Text, tt.want)
			assert.Equal(t, 1, resp.Counts["UnresolvedReference"])
		})
	}
}

func TestHandleCompile_Errors(t *testing.T) {
	h := NewAPIHandlers(config.Default(), testAdapter())

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCompile(rec, httptest.NewRequest(http.MethodGet, "/api/compile", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := postJSON(t, h.HandleCompile, "/api/compile?format=docx", sampleSet("x"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation", decodeError(t, rec).Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCompile(rec, httptest.NewRequest(http.MethodPost, "/api/compile", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("document without title", func(t *testing.T) {
		set := sampleSet("x")
		set.Document.Title = ""
		rec := postJSON(t, h.HandleCompile, "/api/compile", set)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "input", body.Code)
		assert.Equal(t, "title", body.Details["field"])
	})
}

func TestHandleCompile_BodyLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxBodyBytes = 64
	h := NewAPIHandlers(cfg, testAdapter())

	rec := postJSON(t, h.HandleCompile, "/api/compile", sampleSet(strings.Repeat("a", 512)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body too large", decodeError(t, rec).Error)
}

func TestHandleLint(t *testing.T) {
	h := NewAPIHandlers(config.Default(), testAdapter())

	rec := postJSON(t, h.HandleLint, "/api/lint", sampleSet("Texto [[ejemplo sin cierre"))
	require.Equal(t, http.StatusOK, rec.Code)

	var out lint.JSONOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "PRG-01", out.Source)
	assert.Positive(t, out.ErrorCount)
}

func TestHandleNormalize(t *testing.T) {
	h := NewAPIHandlers(config.Default(), testAdapter())

	rec := postJSON(t, h.HandleNormalize, "/api/normalize", responses.NormalizeRequest{Text: "uno  \r\n\n\n\ndos"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out responses.NormalizeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "uno\n\ndos", out.Text)
	assert.True(t, out.Changed)
}

type stubRunner struct {
	err    error
	forced []bool
}

func (s *stubRunner) TryBuild(_ build.Trigger, force bool) error {
	s.forced = append(s.forced, force)
	return s.err
}

func TestHandleTriggerBuild(t *testing.T) {
	runner := &stubRunner{}
	h := NewBuildHandlers(runner, nil, testAdapter())

	rec := httptest.NewRecorder()
	h.HandleTriggerBuild(rec, httptest.NewRequest(http.MethodPost, "/api/builds?force=true", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []bool{true}, runner.forced)

	runner.err = daemon.ErrBuildRunning
	rec = httptest.NewRecorder()
	h.HandleTriggerBuild(rec, httptest.NewRequest(http.MethodPost, "/api/builds", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	NewBuildHandlers(nil, nil, testAdapter()).HandleTriggerBuild(rec, httptest.NewRequest(http.MethodPost, "/api/builds", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleBuildHistory(t *testing.T) {
	ctx := t.Context()
	hist, err := eventstore.OpenHistory(ctx, ":memory:", 10)
	require.NoError(t, err)
	t.Cleanup(func() { _ = hist.Close() })

	for _, id := range []string{"b1", "b2"} {
		started, err := eventstore.NewBuildStarted(id, eventstore.BuildStartedPayload{DocumentID: "PRG-01", Trigger: "api"})
		require.NoError(t, err)
		require.NoError(t, hist.Record(ctx, started))
		done, err := eventstore.NewBuildCompleted(id, eventstore.BuildCompletedPayload{Status: eventstore.StatusSuccess})
		require.NoError(t, err)
		require.NoError(t, hist.Record(ctx, done))
		time.Sleep(2 * time.Millisecond)
	}

	h := NewBuildHandlers(nil, hist.Projection(), testAdapter())

	rec := httptest.NewRecorder()
	h.HandleListBuilds(rec, httptest.NewRequest(http.MethodGet, "/api/builds?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list responses.BuildsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Builds, 1)
	assert.Equal(t, "b2", list.Builds[0].BuildID)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/builds/{id}", h.HandleGetBuild)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/builds/b1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var one eventstore.BuildSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, eventstore.StatusSuccess, one.Status)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/builds/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.HandleListBuilds(rec, httptest.NewRequest(http.MethodGet, "/api/builds?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBuildHistory_Disabled(t *testing.T) {
	h := NewBuildHandlers(nil, nil, testAdapter())
	rec := httptest.NewRecorder()
	h.HandleListBuilds(rec, httptest.NewRequest(http.MethodGet, "/api/builds", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type stubStatus struct{ st daemon.Status }

func (s stubStatus) Status() daemon.Status { return s.st }

func TestHandleHealthCheck(t *testing.T) {
	h := NewMonitoringHandlers(stubStatus{daemon.Status{State: daemon.StateRunning, Building: true}}, testAdapter())

	rec := httptest.NewRecorder()
	h.HandleHealthCheck(rec, httptest.NewRequest(http.MethodGet, "/healthz?pretty=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))

	var health responses.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "running", health.DaemonState)
	assert.True(t, health.Building)
}
