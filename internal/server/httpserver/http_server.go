// Package httpserver wires the texbuilder HTTP API: routes, middleware and
// the listener lifecycle.
package httpserver

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
	"git.home.luguber.info/inful/texbuilder/internal/metrics"
	"git.home.luguber.info/inful/texbuilder/internal/server/handlers"
	smw "git.home.luguber.info/inful/texbuilder/internal/server/middleware"
)

// Server manages the API listener.
type Server struct {
	cfg          *config.Config
	opts         Options
	errorAdapter *errors.HTTPErrorAdapter

	apiHandlers        *handlers.APIHandlers
	buildHandlers      *handlers.BuildHandlers
	monitoringHandlers *handlers.MonitoringHandlers

	mchain func(http.Handler) http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// New constructs a server. runtime may be nil, in which case build
// triggers answer 503 and health reports no daemon state.
func New(cfg *config.Config, runtime Runtime, opts Options) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:          cfg,
		opts:         opts,
		errorAdapter: errors.NewHTTPErrorAdapter(slog.Default()),
	}

	var (
		runner handlers.BuildRunner
		status handlers.StatusProvider
	)
	if runtime != nil {
		runner, status = runtime, runtime
	}
	s.apiHandlers = handlers.NewAPIHandlers(cfg, s.errorAdapter)
	s.buildHandlers = handlers.NewBuildHandlers(runner, opts.History, s.errorAdapter)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(status, s.errorAdapter)

	recorder := opts.Recorder
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	s.mchain = smw.Chain(slog.Default(), s.errorAdapter, recorder)
	return s
}

// Handler returns the routed, middleware-wrapped API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/compile", s.apiHandlers.HandleCompile)
	mux.HandleFunc("/api/lint", s.apiHandlers.HandleLint)
	mux.HandleFunc("/api/normalize", s.apiHandlers.HandleNormalize)
	mux.HandleFunc("GET /api/builds", s.buildHandlers.HandleListBuilds)
	mux.HandleFunc("POST /api/builds", s.buildHandlers.HandleTriggerBuild)
	mux.HandleFunc("GET /api/builds/{id}", s.buildHandlers.HandleGetBuild)
	mux.HandleFunc("/healthz", s.monitoringHandlers.HandleHealthCheck)
	if s.opts.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	return s.mchain(mux)
}

// Start binds the configured address and serves in the background. Binding
// happens before Start returns so an address in use fails fast.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return errors.DaemonError("HTTP server already started").Build()
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, "failed to bind HTTP listener").
			WithContext("addr", s.cfg.Server.Addr).
			Build()
	}

	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.listener = ln
	s.done = make(chan struct{})

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", logfields.Error(err))
		}
	}(s.srv, s.done)

	slog.Info("HTTP server started", slog.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.srv, s.listener = nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	timeout, err := time.ParseDuration(s.cfg.Server.ShutdownTimeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryDaemon, "HTTP server shutdown").Build()
	}
	<-done
	slog.Info("HTTP server stopped")
	return nil
}
