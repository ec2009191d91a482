package httpserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/daemon"
	"git.home.luguber.info/inful/texbuilder/internal/metrics"
)

type fakeRuntime struct {
	triggers []build.Trigger
}

func (f *fakeRuntime) TryBuild(trigger build.Trigger, _ bool) error {
	f.triggers = append(f.triggers, trigger)
	return nil
}

func (f *fakeRuntime) Status() daemon.Status {
	return daemon.Status{State: daemon.StateRunning}
}

func TestHandler_Routes(t *testing.T) {
	rt := &fakeRuntime{}
	rec := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	s := New(config.Default(), rt, Options{Recorder: rec, Registry: rec.Registry()})
	h := s.Handler()

	tests := []struct {
		method string
		target string
		body   string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodPost, "/api/builds", "", http.StatusAccepted},
		{http.MethodGet, "/api/builds", "", http.StatusNotFound},
		{http.MethodPost, "/api/normalize", `{"text":"a  "}`, http.StatusOK},
		{http.MethodGet, "/api/compile", "", http.StatusBadRequest},
		{http.MethodDelete, "/api/builds", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, []build.Trigger{build.TriggerAPI}, rt.triggers)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `texbuilder_http_request_duration_seconds_count{code="202",route="POST /api/builds"} 1`)
}

func TestHandler_NoMetricsWithoutRegistry(t *testing.T) {
	h := New(nil, nil, Options{}).Handler()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartStop(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = "2s"
	s := New(cfg, &fakeRuntime{}, Options{})

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	require.Error(t, s.Start(ctx))
	addr := s.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"daemon_state":"running"`)

	require.NoError(t, s.Stop(ctx))
	assert.Empty(t, s.Addr())
	require.NoError(t, s.Stop(ctx))
}
