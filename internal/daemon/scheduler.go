package daemon

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/texbuilder/internal/logfields"
)

// Scheduler wraps a gocron scheduler for periodic rebuilds.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryDaemon, "failed to create scheduler").Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleInterval runs task every interval. A run still in progress when
// the next one is due is not overlapped.
func (s *Scheduler) ScheduleInterval(name string, interval time.Duration, task func(context.Context)) (string, error) {
	return s.add(name, gocron.DurationJob(interval), task)
}

// ScheduleCron runs task on a cron expression; six fields include seconds.
func (s *Scheduler) ScheduleCron(name, expr string, task func(context.Context)) (string, error) {
	withSeconds := len(strings.Fields(expr)) == 6
	return s.add(name, gocron.CronJob(expr, withSeconds), task)
}

func (s *Scheduler) add(name string, def gocron.JobDefinition, task func(context.Context)) (string, error) {
	job, err := s.scheduler.NewJob(
		def,
		gocron.NewTask(func(ctx context.Context) {
			slog.Info("Executing scheduled build", logfields.ScheduleName(name))
			task(ctx)
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryDaemon, "failed to create scheduled job").
			WithContext("schedule", name).
			Build()
	}
	return job.ID().String(), nil
}

// NextRun returns the next run of the first job, if any.
func (s *Scheduler) NextRun() (time.Time, bool) {
	jobs := s.scheduler.Jobs()
	if len(jobs) == 0 {
		return time.Time{}, false
	}
	next, err := jobs[0].NextRun()
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}
