package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// ValidateConfig validates a configuration after defaults are applied.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator coordinates validation across configuration domains.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateOutput,
		cv.validateCompiler,
		cv.validateServer,
		cv.validateSchedule,
		cv.validatePublish,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field, message string) error {
	return errors.ValidationError(message).Field(field).Build()
}

func (cv *configurationValidator) validateOutput() error {
	for _, f := range cv.config.Output.Formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "unknown output format").
				Field("output.formats").WithContext("format", string(f)).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateCompiler() error {
	w, err := strconv.ParseFloat(cv.config.Compiler.FigureWidth, 64)
	if err != nil || w <= 0 || w > 1 {
		return invalid("compiler.figure_width", "figure width must be a fraction between 0 and 1")
	}
	return nil
}

func (cv *configurationValidator) validateServer() error {
	if _, err := time.ParseDuration(cv.config.Server.ShutdownTimeout); err != nil {
		return invalid("server.shutdown_timeout", "invalid duration")
	}
	return nil
}

func (cv *configurationValidator) validateSchedule() error {
	s := cv.config.Schedule
	if s.Interval != "" {
		d, err := time.ParseDuration(s.Interval)
		if err != nil || d < time.Minute {
			return invalid("schedule.interval", "interval must be a duration of at least 1m")
		}
	}
	if s.Cron != "" {
		if err := validateCron(s.Cron); err != nil {
			return errors.WrapError(err, errors.CategoryValidation, "invalid cron expression").
				Field("schedule.cron").Build()
		}
	}
	if _, err := time.ParseDuration(s.Debounce); err != nil {
		return invalid("schedule.debounce", "invalid duration")
	}
	return nil
}

// validateCron parses expr with gocron so errors surface at load time rather
// than when the scheduler starts.
func validateCron(expr string) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	defer func() { _ = s.Shutdown() }()
	_, err = s.NewJob(gocron.CronJob(strings.TrimSpace(expr), len(strings.Fields(expr)) == 6), gocron.NewTask(func() {}))
	return err
}

func (cv *configurationValidator) validatePublish() error {
	p := cv.config.Publish
	if !p.Enabled {
		return nil
	}
	if p.Repository == "" {
		return invalid("publish.repository", "publish requires a repository path")
	}
	if p.Push && p.URL == "" {
		return invalid("publish.url", "push requires a remote url")
	}
	return nil
}
