package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/daemon"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
)

// stdout receives user-facing command output.
var stdout io.Writer = os.Stdout

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Document string   `short:"d" help:"Document ID to compile (overrides input.document_id)"`
	Output   string   `short:"o" help:"Output directory (overrides output.directory)"`
	Format   []string `short:"f" help:"Output formats, comma separated (latex, markdown, html)" sep:","`
	Force    bool     `help:"Rebuild even when the inputs are unchanged"`
	Watch    bool     `short:"w" help:"Keep running and rebuild when the workbook changes"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := b.apply(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()
	svc := rt.service(nil)

	if !b.Watch {
		res, err := svc.Run(ctx, build.Request{Config: cfg, DocumentID: b.Document, Trigger: build.TriggerCLI, Force: b.Force})
		printResult(stdout, res)
		return err
	}
	return runWatch(ctx, cfg, svc, b.Force)
}

// apply folds command-line overrides into cfg.
func (b *BuildCmd) apply(cfg *config.Config) error {
	if b.Document != "" {
		cfg.Input.DocumentID = b.Document
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if len(b.Format) > 0 {
		formats := make([]config.Format, 0, len(b.Format))
		for _, raw := range b.Format {
			f, err := config.ParseFormat(raw)
			if err != nil {
				return errors.WrapError(err, errors.CategoryValidation, "unsupported output format").
					WithContext("format", raw).
					WithContext("valid", config.ValidFormats()).
					Build()
			}
			formats = append(formats, f)
		}
		cfg.Output.Formats = formats
	}
	return nil
}

// runWatch builds once, then rebuilds on workbook changes until ctx ends.
// Periodic schedules are left to serve.
func runWatch(ctx context.Context, cfg *config.Config, svc build.Service, force bool) error {
	cfg.Schedule.Watch = true
	cfg.Schedule.Interval = ""
	cfg.Schedule.Cron = ""

	d := daemon.New(cfg, svc)
	res, err := d.Build(ctx, build.TriggerCLI, force)
	printResult(stdout, res)
	if err != nil && errors.HasCategory(err, errors.CategoryConfig) {
		return err
	}

	if err := d.Start(ctx); err != nil {
		return err
	}
	slog.Info("Watching workbook for changes", logfields.Path(cfg.Input.Workbook))
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher")
	return d.Stop()
}

func printResult(w io.Writer, res *build.Result) {
	if res == nil {
		return
	}
	switch res.Status {
	case build.StatusSkipped:
		_, _ = fmt.Fprintf(w, "Build skipped: %s\n", res.SkipReason)
		return
	case build.StatusFailed, build.StatusCancelled:
		_, _ = fmt.Fprintf(w, "Build %s (%s)\n", res.Status, res.BuildID)
		return
	}
	_, _ = fmt.Fprintf(w, "Build %s in %s (%s)\n", res.Status, res.Duration.Round(time.Millisecond), res.BuildID)
	for _, o := range res.Outputs {
		_, _ = fmt.Fprintf(w, "  %-8s %s (%d bytes, %d diagnostics)\n", o.Format, o.Path, o.Bytes, o.Diagnostics)
	}
	if res.Archive != "" {
		_, _ = fmt.Fprintf(w, "  archive  %s\n", res.Archive)
	}
	if res.Commit != "" {
		_, _ = fmt.Fprintf(w, "  commit   %s\n", res.Commit)
	}
}
