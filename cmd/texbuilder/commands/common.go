// Package commands implements the texbuilder CLI commands.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/eventstore"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
	"git.home.luguber.info/inful/texbuilder/internal/metrics"
	"git.home.luguber.info/inful/texbuilder/internal/notify"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"texbuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Compile the configured document and write its outputs"`
	Lint    LintCmd    `cmd:"" help:"Check workbook records for markup and structure problems"`
	Serve   ServeCmd   `cmd:"" help:"Run the HTTP API with scheduled and watched rebuilds"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	History HistoryCmd `cmd:"" help:"Show recent builds from the history store"`
	Show    VersionCmd `cmd:"" name:"version" help:"Print the texbuilder version"`
}

// AfterApply runs after flag parsing and installs the default logger.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(os.Stderr, config.LoggingConfig{}, c.Verbose)
	slog.SetDefault(g.Logger)
	return nil
}

// newLogger builds the slog logger for lc; verbose forces debug level.
func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	return slog.New(lc.Handler(w, verbose))
}

// loadConfig reads the configuration file and reinstalls the logger from
// its logging section.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = newLogger(os.Stderr, cfg.Logging, root.Verbose)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// runtime holds the optional collaborators of the build service.
type runtime struct {
	history  *eventstore.History
	notifier *notify.Publisher
}

// openRuntime opens the history store and the NATS publisher when they
// are configured. A NATS connection failure is logged and builds go on
// without notifications.
func openRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{}
	if cfg.History.Enabled {
		h, err := eventstore.OpenHistory(ctx, cfg.History.Path, 0)
		if err != nil {
			return nil, err
		}
		rt.history = h
	}
	if cfg.Events.URL != "" {
		p, err := notify.Connect(ctx, notify.Options{
			URL:     cfg.Events.URL,
			Stream:  cfg.Events.Stream,
			Subject: cfg.Events.Subject,
		})
		if err != nil {
			slog.Warn("Build notifications disabled", logfields.URL(cfg.Events.URL), logfields.Error(err))
		} else {
			rt.notifier = p
		}
	}
	return rt, nil
}

// service assembles the build service around the runtime collaborators.
func (rt *runtime) service(recorder metrics.Recorder) *build.DefaultService {
	svc := build.NewService().WithRecorder(recorder)
	if rt.history != nil {
		svc.WithHistory(rt.history)
	}
	if rt.notifier != nil {
		svc.WithNotifier(rt.notifier)
	}
	return svc
}

func (rt *runtime) Close() {
	if rt.notifier != nil {
		if err := rt.notifier.Close(); err != nil {
			slog.Warn("Failed to close NATS connection", logfields.Error(err))
		}
	}
	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			slog.Warn("Failed to close build history", logfields.Error(err))
		}
	}
}
