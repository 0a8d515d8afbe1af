// Package config provides centralized configuration management for the importer.
// It loads configuration from environment variables with sensible defaults,
// merges optional per-table source overrides from a YAML file, and validates
// all settings on startup to fail fast on misconfiguration.
package config

import "time"

// EnvPrefix is the prefix for fully qualified environment variable names,
// e.g. TESSA_DATA_DATA_DIR. Every setting also accepts its short name (DATA_DIR).
const EnvPrefix = "tessa"

// Config holds all importer configuration.
type Config struct {
	Data    DataConfig
	Run     RunConfig
	Logging LoggingConfig
	History HistoryConfig

	// Sources holds per-table overrides read from Data.SourcesFile.
	Sources map[string]SourceOverride `ignored:"true"`
}

// DataConfig holds input and output locations.
type DataConfig struct {
	// InputDir is the directory source paths are resolved against (default: data)
	InputDir string `envconfig:"DATA_DIR" default:"data"`

	// OutputDir is where Parquet files are written (default: data/duck)
	OutputDir string `envconfig:"OUTPUT_DIR" default:"data/duck"`

	// SourcesFile is an optional YAML file of per-table source overrides
	SourcesFile string `envconfig:"SOURCES_FILE"`
}

// RunConfig holds orchestration settings.
type RunConfig struct {
	// Parallel runs the import routines concurrently (default: false)
	Parallel bool `envconfig:"RUN_PARALLEL" default:"false"`

	// MaxWorkers bounds concurrent routines when Parallel is set (default: 4)
	MaxWorkers int `envconfig:"RUN_MAX_WORKERS" default:"4"`

	// Timeout bounds a whole run (default: 30m)
	Timeout time.Duration `envconfig:"RUN_TIMEOUT" default:"30m"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds run history settings.
type HistoryConfig struct {
	// DatabaseURL enables run history in Postgres when set
	DatabaseURL string `envconfig:"DATABASE_URL"`
}

// Enabled reports whether run history should be recorded.
func (h HistoryConfig) Enabled() bool { return h.DatabaseURL != "" }

// SourceOverride replaces parts of a table's built-in source definition.
type SourceOverride struct {
	Path     string `yaml:"path"`
	Sheet    *int   `yaml:"sheet"`
	Encoding string `yaml:"encoding"`
}
