package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values, merges the sources file when one is
// configured, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if cfg.Data.SourcesFile != "" {
		sources, err := LoadSources(cfg.Data.SourcesFile)
		if err != nil {
			return nil, fmt.Errorf("config load: %w", err)
		}
		cfg.Sources = sources
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

type sourcesFile struct {
	Sources map[string]SourceOverride `yaml:"sources"`
}

// LoadSources reads per-table source overrides from a YAML file:
//
//	sources:
//	  schools_finance:
//	    path: finance-2023-2024/schools.xlsx
//	    sheet: 3
func LoadSources(path string) (map[string]SourceOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}
	return f.Sources, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Data.InputDir) == "" {
		errs = append(errs, "DATA_DIR must not be empty")
	}
	if strings.TrimSpace(c.Data.OutputDir) == "" {
		errs = append(errs, "OUTPUT_DIR must not be empty")
	}

	if c.Run.MaxWorkers <= 0 {
		errs = append(errs, fmt.Sprintf("RUN_MAX_WORKERS (%d) must be positive", c.Run.MaxWorkers))
	}
	if c.Run.Timeout <= 0 {
		errs = append(errs, "RUN_TIMEOUT must be positive")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	keys := make([]string, 0, len(c.Sources))
	for k := range c.Sources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := c.Sources[k]; s.Sheet != nil && *s.Sheet < 0 {
			errs = append(errs, fmt.Sprintf("sources.%s.sheet (%d) must be non-negative", k, *s.Sheet))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The database URL is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Data: {InputDir: %q, OutputDir: %q, SourcesFile: %q}, ",
		c.Data.InputDir, c.Data.OutputDir, c.Data.SourcesFile))
	b.WriteString(fmt.Sprintf("Run: {Parallel: %v, MaxWorkers: %d, Timeout: %s}, ",
		c.Run.Parallel, c.Run.MaxWorkers, c.Run.Timeout))
	if c.History.Enabled() {
		b.WriteString("History: {DatabaseURL: [MASKED]}, ")
	} else {
		b.WriteString("History: {disabled}, ")
	}
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
