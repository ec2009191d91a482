// Package config loads the texbuilder YAML configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/texbuilder/internal/foundation/errors"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1"

// Config is the complete texbuilder configuration.
type Config struct {
	Version  string         `yaml:"version"`
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Compiler CompilerConfig `yaml:"compiler"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
	History  HistoryConfig  `yaml:"history"`
	Events   EventsConfig   `yaml:"events"`
	Publish  PublishConfig  `yaml:"publish"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InputConfig selects the workbook and the document inside it.
type InputConfig struct {
	Workbook   string `yaml:"workbook"`              // YAML/JSON file or directory of CSV sheets
	DocumentID string `yaml:"document_id,omitempty"` // Empty selects the first document
}

// OutputConfig controls what a build writes.
type OutputConfig struct {
	Directory     string   `yaml:"directory"`
	Formats       []Format `yaml:"formats"`
	Bibliography  *bool    `yaml:"bibliography,omitempty"` // Write referencias.bib (default true)
	Manifest      *bool    `yaml:"manifest,omitempty"`     // Write manifest.json (default true)
	Archive       bool     `yaml:"archive"`                // Bundle outputs as .tar.xz
	SkipUnchanged bool     `yaml:"skip_unchanged"`         // Skip when the input fingerprint is unchanged
}

// WriteBibliography reports whether referencias.bib is written.
func (o OutputConfig) WriteBibliography() bool { return boolOr(o.Bibliography, true) }

// WriteManifest reports whether manifest.json is written.
func (o OutputConfig) WriteManifest() bool { return boolOr(o.Manifest, true) }

// CompilerConfig tunes the document compiler.
type CompilerConfig struct {
	FigureWidth    string `yaml:"figure_width"`     // Fraction of \textwidth
	AutoPlace      bool   `yaml:"auto_place"`       // Append unreferenced owned floats after their section
	CompactRows    int    `yaml:"compact_rows"`     // Largest row count for compact tables
	RowsPerPart    int    `yaml:"rows_per_part"`    // Long table split size
	MaxColumns     int    `yaml:"max_columns"`      // Column count above which tables split by columns
	FailOnWarnings bool   `yaml:"fail_on_warnings"` // Warning diagnostics fail the build
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
}

// ScheduleConfig drives rebuilds in serve mode.
type ScheduleConfig struct {
	Interval string `yaml:"interval,omitempty"` // Go duration, e.g. "30m"
	Cron     string `yaml:"cron,omitempty"`     // Cron expression; wins over Interval
	Watch    bool   `yaml:"watch"`              // Rebuild when the workbook changes
	Debounce string `yaml:"debounce"`           // Quiet period before a watched rebuild
}

// HistoryConfig configures the SQLite build history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EventsConfig configures NATS build notifications. Empty URL disables them.
type EventsConfig struct {
	URL     string `yaml:"url,omitempty"`
	Stream  string `yaml:"stream"`
	Subject string `yaml:"subject"`
}

// PublishConfig commits outputs into a git repository, e.g. an Overleaf project.
type PublishConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Repository  string `yaml:"repository"`          // Local working copy, cloned from URL when missing
	URL         string `yaml:"url,omitempty"`       // Remote to clone from and push to
	Branch      string `yaml:"branch,omitempty"`    // Empty keeps the checked out branch
	Directory   string `yaml:"directory,omitempty"` // Subdirectory inside the repository
	Push        bool   `yaml:"push"`
	Username    string `yaml:"username,omitempty"`
	Token       string `yaml:"token,omitempty"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// Load reads configPath, expands ${VAR} references, applies defaults and
// validates the result. Variables from .env and .env.local are loaded first
// without overriding the process environment.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithContext("path", configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "read configuration").WithContext("path", configPath).Build()
	}
	return Parse(data)
}

// Parse decodes configuration YAML, then normalizes, defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "parse configuration").Build()
	}
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, errors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).WithContext("expected", CurrentVersion).Build()
	}

	applyDefaults(&cfg)
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Version: CurrentVersion,
		Input: InputConfig{
			Workbook:   "./libro.yaml",
			DocumentID: "",
		},
		Output: OutputConfig{
			Directory: "./salida",
			Formats:   []Format{FormatLaTeX},
			Archive:   false,
		},
		Compiler: CompilerConfig{
			FigureWidth: "0.8",
			CompactRows: 15,
			RowsPerPart: 35,
			MaxColumns:  15,
		},
		Server: ServerConfig{
			Addr:            ":8090",
			ShutdownTimeout: "10s",
			MaxBodyBytes:    8 << 20,
		},
		Schedule: ScheduleConfig{
			Interval: "1h",
			Watch:    true,
			Debounce: "2s",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "./texbuilder-history.db",
		},
		Events: EventsConfig{
			URL:     "${NATS_URL}",
			Stream:  "TEXBUILDER",
			Subject: "texbuilder.builds",
		},
		Publish: PublishConfig{
			Enabled:     false,
			Repository:  "./overleaf",
			URL:         "https://git.overleaf.com/your-project-id",
			Push:        true,
			Username:    "git",
			Token:       "${OVERLEAF_TOKEN}",
			AuthorName:  "texbuilder",
			AuthorEmail: "texbuilder@localhost",
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal example configuration").Build()
	}
	header := "# texbuilder configuration\n# ${VAR} references are expanded from the environment and .env files.\n\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration").WithContext("path", configPath).Build()
	}
	return nil
}
