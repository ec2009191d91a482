package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// defaultAppliers run in order; later domains may read earlier results.
var defaultAppliers = []DefaultApplier{
	&OutputDefaultApplier{},
	&CompilerDefaultApplier{},
	&ServerDefaultApplier{},
	&ScheduleDefaultApplier{},
	&HistoryDefaultApplier{},
	&EventsDefaultApplier{},
	&PublishDefaultApplier{},
	&LoggingDefaultApplier{},
}

func applyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

// OutputDefaultApplier handles output defaults and format normalization.
type OutputDefaultApplier struct{}

func (o *OutputDefaultApplier) Domain() string { return "output" }

func (o *OutputDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = "./salida"
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []Format{FormatLaTeX}
	}
	seen := make(map[Format]bool, len(cfg.Output.Formats))
	formats := cfg.Output.Formats[:0]
	for _, f := range cfg.Output.Formats {
		// Unknown names are kept so validation can report them.
		if parsed, err := ParseFormat(string(f)); err == nil {
			f = parsed
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	cfg.Output.Formats = formats
}

// CompilerDefaultApplier handles compiler tuning defaults.
type CompilerDefaultApplier struct{}

func (c *CompilerDefaultApplier) Domain() string { return "compiler" }

func (c *CompilerDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Compiler.FigureWidth == "" {
		cfg.Compiler.FigureWidth = "0.8"
	}
	if cfg.Compiler.CompactRows <= 0 {
		cfg.Compiler.CompactRows = 15
	}
	if cfg.Compiler.RowsPerPart <= 0 {
		cfg.Compiler.RowsPerPart = 35
	}
	if cfg.Compiler.MaxColumns <= 0 {
		cfg.Compiler.MaxColumns = 15
	}
}

// ServerDefaultApplier handles HTTP server defaults.
type ServerDefaultApplier struct{}

func (s *ServerDefaultApplier) Domain() string { return "server" }

func (s *ServerDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8090"
	}
	if cfg.Server.ShutdownTimeout == "" {
		cfg.Server.ShutdownTimeout = "10s"
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 8 << 20
	}
}

// ScheduleDefaultApplier handles rebuild scheduling defaults.
type ScheduleDefaultApplier struct{}

func (s *ScheduleDefaultApplier) Domain() string { return "schedule" }

func (s *ScheduleDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Schedule.Debounce == "" {
		cfg.Schedule.Debounce = "2s"
	}
}

// HistoryDefaultApplier handles build history defaults.
type HistoryDefaultApplier struct{}

func (h *HistoryDefaultApplier) Domain() string { return "history" }

func (h *HistoryDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.History.Path == "" {
		cfg.History.Path = "./texbuilder-history.db"
	}
}

// EventsDefaultApplier handles NATS defaults.
type EventsDefaultApplier struct{}

func (e *EventsDefaultApplier) Domain() string { return "events" }

func (e *EventsDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Events.Stream == "" {
		cfg.Events.Stream = "TEXBUILDER"
	}
	if cfg.Events.Subject == "" {
		cfg.Events.Subject = "texbuilder.builds"
	}
}

// PublishDefaultApplier handles git publishing defaults.
type PublishDefaultApplier struct{}

func (p *PublishDefaultApplier) Domain() string { return "publish" }

func (p *PublishDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Publish.AuthorName == "" {
		cfg.Publish.AuthorName = "texbuilder"
	}
	if cfg.Publish.AuthorEmail == "" {
		cfg.Publish.AuthorEmail = "texbuilder@localhost"
	}
}

// LoggingDefaultApplier normalizes logging settings.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
