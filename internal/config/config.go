// Package config provides configuration types, defaults and persistence
// for rulebook.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/rulebook/internal/log"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverYAML   = "yaml"
)

// Default locations, relative to the working directory.
const (
	DefaultConfigDir  = ".rulebook"
	DefaultSQLitePath = ".rulebook/rules.db"
	DefaultYAMLPath   = ".rulebook/rules.yaml"
)

// Config holds all configuration options for rulebook.
type Config struct {
	Store   StoreConfig       `mapstructure:"store"`
	Groups  map[string]string `mapstructure:"groups"` // asset group key -> display name
	UI      UIConfig          `mapstructure:"ui"`
	Tracing TracingConfig     `mapstructure:"tracing"`
	Flags   map[string]bool   `mapstructure:"flags"`
}

// StoreConfig selects where rules are persisted.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" (default) or "yaml"
	Path   string `mapstructure:"path"`   // empty uses the driver's default path
}

// UIConfig holds output options.
type UIConfig struct {
	MaxColumnWidth int    `mapstructure:"max_column_width"` // longer cells are truncated
	DefaultSort    string `mapstructure:"default_sort"`     // "name", "groups", "provider" or "none"
	NoColor        bool   `mapstructure:"no_color"`
}

// TracingConfig holds OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/rulebook/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ResolvedPath returns Path, or the driver's default when Path is empty.
func (s StoreConfig) ResolvedPath() string {
	if s.Path != "" {
		return s.Path
	}
	if s.Driver == DriverYAML {
		return DefaultYAMLPath
	}
	return DefaultSQLitePath
}

// DefaultTracesFilePath returns ~/.config/rulebook/traces/traces.jsonl, or
// an empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rulebook", "traces", "traces.jsonl")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Store: StoreConfig{
			Driver: DriverSQLite,
		},
		Groups: map[string]string{},
		UI: UIConfig{
			MaxColumnWidth: 48,
			DefaultSort:    "name",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Flags: map[string]bool{},
	}
}

// Validate checks every section.
func Validate(cfg Config) error {
	if err := ValidateStore(cfg.Store); err != nil {
		return err
	}
	if err := ValidateGroups(cfg.Groups); err != nil {
		return err
	}
	if err := ValidateUI(cfg.UI); err != nil {
		return err
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateStore checks the store section. Empty values use defaults.
func ValidateStore(s StoreConfig) error {
	switch s.Driver {
	case "", DriverSQLite, DriverYAML:
		return nil
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverYAML, s.Driver)
	}
}

// ValidateGroups rejects blank group keys.
func ValidateGroups(groups map[string]string) error {
	for key := range groups {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("groups: key must not be blank")
		}
	}
	return nil
}

// ValidateUI checks the ui section.
func ValidateUI(ui UIConfig) error {
	if ui.MaxColumnWidth < 0 {
		return fmt.Errorf("ui.max_column_width must not be negative, got %d", ui.MaxColumnWidth)
	}
	switch ui.DefaultSort {
	case "", "none", "name", "groups", "provider":
	default:
		return fmt.Errorf("ui.default_sort must be one of none, name, groups, provider, got %q", ui.DefaultSort)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Path requirements only matter when tracing is on.
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Rulebook Configuration

# Where version rules are stored
store:
  driver: sqlite   # sqlite (default) or yaml
  # path: .rulebook/rules.db   # default depends on the driver

# Asset group display names, keyed by the group key used in rules.
# Edit with: rulebook groups set KEY NAME
groups: {}

# Output settings
ui:
  max_column_width: 48   # Cells longer than this are truncated (0 = no limit)
  default_sort: name     # none, name, groups or provider
  no_color: false        # Disable colored table output

# Feature flags
# flags:
#   eager-descriptions: true   # Search refreshes stale descriptions before matching
#   confirm-remove: true       # 'rulebook remove' requires --yes

# OpenTelemetry tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/rulebook/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
