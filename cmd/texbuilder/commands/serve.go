package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/texbuilder/internal/daemon"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
	"git.home.luguber.info/inful/texbuilder/internal/metrics"
	"git.home.luguber.info/inful/texbuilder/internal/server/httpserver"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr string `short:"a" help:"Listen address (overrides server.addr)"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	d := daemon.New(cfg, rt.service(recorder))
	if err := d.Start(ctx); err != nil {
		return err
	}

	opts := httpserver.Options{Recorder: recorder, Registry: recorder.Registry()}
	if rt.history != nil {
		opts.History = rt.history.Projection()
	}
	srv := httpserver.New(cfg, d, opts)
	if err := srv.Start(ctx); err != nil {
		_ = d.Stop()
		return err
	}

	slog.Info("texbuilder serving, waiting for shutdown signal", slog.String("addr", srv.Addr()))
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping")

	if err := srv.Stop(context.Background()); err != nil {
		slog.Warn("HTTP server did not stop cleanly", logfields.Error(err))
	}
	return d.Stop()
}
