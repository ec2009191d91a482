// Package daemon runs builds on a schedule and when the workbook changes.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/texbuilder/internal/build"
	"git.home.luguber.info/inful/texbuilder/internal/config"
	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
)

// State represents the current state of the daemon.
type State string

const (
	StateStopped  State = "stopped"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// ErrBuildRunning is returned by TryBuild while another build runs.
var ErrBuildRunning = errors.NewError(errors.CategoryAlreadyExists, "a build is already running").Build()

// Status is a snapshot for health and API endpoints.
type Status struct {
	State     State         `json:"state"`
	StartedAt time.Time     `json:"started_at,omitzero"`
	Building  bool          `json:"building"`
	LastBuild *build.Result `json:"last_build,omitempty"`
	NextRun   *time.Time    `json:"next_run,omitempty"`
}

// Daemon serializes builds coming from the scheduler, the workbook watcher
// and the HTTP API.
type Daemon struct {
	cfg *config.Config
	svc build.Service

	buildMu   sync.Mutex
	building  atomic.Bool
	lastBuild atomic.Pointer[build.Result]

	mu        sync.Mutex
	state     State
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *Scheduler
	watcher   *WorkbookWatcher
	wg        sync.WaitGroup
}

// New creates a stopped daemon.
func New(cfg *config.Config, svc build.Service) *Daemon {
	return &Daemon{cfg: cfg, svc: svc, state: StateStopped}
}

// Build runs one build, waiting for any build in progress to finish first.
func (d *Daemon) Build(ctx context.Context, trigger build.Trigger, force bool) (*build.Result, error) {
	d.buildMu.Lock()
	defer d.buildMu.Unlock()
	return d.runLocked(ctx, trigger, force)
}

// TryBuild starts a build in the background unless one is already running.
// The outcome is visible through Status and the build history.
func (d *Daemon) TryBuild(trigger build.Trigger, force bool) error {
	if !d.buildMu.TryLock() {
		return ErrBuildRunning
	}
	ctx := d.baseContext()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.buildMu.Unlock()
		_, _ = d.runLocked(ctx, trigger, force)
	}()
	return nil
}

func (d *Daemon) runLocked(ctx context.Context, trigger build.Trigger, force bool) (*build.Result, error) {
	d.building.Store(true)
	defer d.building.Store(false)

	res, err := d.svc.Run(ctx, build.Request{Config: d.cfg, Trigger: trigger, Force: force})
	if res != nil {
		d.lastBuild.Store(res)
	}
	if err != nil {
		slog.Warn("Triggered build failed", slog.String("trigger", string(trigger)), logfields.Error(err))
	}
	return res, err
}

func (d *Daemon) baseContext() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

// Start installs the schedule and the workbook watcher from configuration.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateRunning {
		return errors.DaemonError("daemon already running").Build()
	}
	d.ctx, d.cancel = context.WithCancel(ctx)

	sc := d.cfg.Schedule
	if sc.Cron != "" || sc.Interval != "" {
		s, err := NewScheduler()
		if err != nil {
			d.cancel()
			return err
		}
		bctx := d.ctx
		task := func(context.Context) { _, _ = d.Build(bctx, build.TriggerSchedule, false) }
		if sc.Cron != "" {
			_, err = s.ScheduleCron("cron-build", sc.Cron, task)
		} else {
			var interval time.Duration
			if interval, err = time.ParseDuration(sc.Interval); err == nil {
				_, err = s.ScheduleInterval("interval-build", interval, task)
			}
		}
		if err != nil {
			d.cancel()
			return errors.WrapError(err, errors.CategoryDaemon, "failed to schedule builds").Build()
		}
		s.Start()
		d.scheduler = s
	}

	if sc.Watch {
		if err := d.startWatcherLocked(); err != nil {
			d.stopLocked()
			return err
		}
	}

	d.state = StateRunning
	d.startedAt = time.Now()
	slog.Info("Daemon started",
		slog.String("interval", sc.Interval),
		slog.String("cron", sc.Cron),
		slog.Bool("watch", sc.Watch))
	return nil
}

func (d *Daemon) startWatcherLocked() error {
	quiet, err := time.ParseDuration(d.cfg.Schedule.Debounce)
	if err != nil || quiet <= 0 {
		quiet = 2 * time.Second
	}
	debouncer, err := NewBuildDebouncer(BuildDebouncerConfig{QuietWindow: quiet}, func(ctx context.Context, now BuildNow) {
		slog.Info("Rebuilding after workbook change",
			logfields.Path(now.LastPath),
			slog.Int("changes", now.RequestCount),
			slog.String("cause", now.DebounceCause))
		_, _ = d.Build(ctx, build.TriggerWatch, false)
	})
	if err != nil {
		return err
	}
	w, err := NewWorkbookWatcher(d.cfg.Input.Workbook, func(path string) {
		debouncer.Request(BuildRequest{Reason: "workbook changed", Path: path})
	})
	if err != nil {
		return err
	}
	d.watcher = w

	ctx := d.ctx
	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		_ = debouncer.Run(ctx)
	}()
	go func() {
		defer d.wg.Done()
		w.Run(ctx)
	}()
	return nil
}

// Stop cancels background work and waits for it to finish.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	d.state = StateStopping
	err := d.stopLocked()
	d.mu.Unlock()

	d.wg.Wait()

	d.mu.Lock()
	d.state = StateStopped
	d.mu.Unlock()
	slog.Info("Daemon stopped")
	return err
}

func (d *Daemon) stopLocked() error {
	var err error
	if d.cancel != nil {
		d.cancel()
	}
	if d.scheduler != nil {
		err = d.scheduler.Stop()
		d.scheduler = nil
	}
	if d.watcher != nil {
		_ = d.watcher.Close()
		d.watcher = nil
	}
	return err
}

// Status returns a snapshot of the daemon state.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Status{
		State:     d.state,
		StartedAt: d.startedAt,
		Building:  d.building.Load(),
		LastBuild: d.lastBuild.Load(),
	}
	if d.scheduler != nil {
		if next, ok := d.scheduler.NextRun(); ok {
			st.NextRun = &next
		}
	}
	return st
}
