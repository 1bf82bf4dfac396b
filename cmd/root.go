package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/rulebook/internal/config"
	"github.com/zjrosen/rulebook/internal/log"
	"github.com/zjrosen/rulebook/internal/presentation"
)

// DebugEnv enables debug logging when set to any non-empty value.
const DebugEnv = "RULEBOOK_DEBUG"

var (
	version      = "dev"
	cfgFile      string
	cfg          config.Config
	logCleanup   func()
	debugLogging bool
)

var rootCmd = &cobra.Command{
	Use:   "rulebook",
	Short: "Manage version rules for asset groups",
	Long: `rulebook maintains an ordered collection of named version rules.

Each rule owns a version provider that derives a version string for an
asset, and a set of asset group references. Rules are stored in SQLite
(default) or a YAML file, as configured in .rulebook/config.yaml.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .rulebook/config.yaml, then ~/.config/rulebook/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write debug logs (also enabled by "+DebugEnv+")")
	rootCmd.PersistentFlags().String("log-file", "rulebook.log",
		"debug log file path")
	rootCmd.PersistentFlags().Bool("no-color", false,
		"disable colored output")
}

func initConfig() {
	viper.Reset()
	cfg = config.Config{}

	defaults := config.Defaults()
	viper.SetDefault("store.driver", defaults.Store.Driver)
	viper.SetDefault("store.path", defaults.Store.Path)
	viper.SetDefault("ui.max_column_width", defaults.UI.MaxColumnWidth)
	viper.SetDefault("ui.default_sort", defaults.UI.DefaultSort)
	viper.SetDefault("ui.no_color", defaults.UI.NoColor)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		// An explicit path that does not exist yet gets the default template.
		if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) {
			if writeErr := config.WriteDefaultConfig(cfgFile); writeErr != nil {
				log.ErrorErr(log.CatConfig, "Failed to write default config", writeErr, "path", cfgFile)
			}
		}
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .rulebook/config.yaml (current directory)
		// 2. ~/.config/rulebook/config.yaml (user config)
		localPath := filepath.Join(config.DefaultConfigDir, "config.yaml")
		if _, err := os.Stat(localPath); err == nil {
			viper.SetConfigFile(localPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "rulebook"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file found anywhere - create default at .rulebook/config.yaml
			defaultPath := filepath.Join(config.DefaultConfigDir, "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		} else {
			log.ErrorErr(log.CatConfig, "Failed to read config", err, "path", viper.ConfigFileUsed())
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setup runs before every subcommand: logging, colors, config validation.
func setup(cmd *cobra.Command, _ []string) error {
	debug, _ := cmd.Flags().GetBool("debug")
	if debug || os.Getenv(DebugEnv) != "" {
		logFile, _ := cmd.Flags().GetString("log-file")
		cleanup, err := log.Init(logFile)
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		logCleanup = cleanup
		debugLogging = true
		log.Info(log.CatConfig, "Loaded config", "path", viper.ConfigFileUsed())
	}

	noColor, _ := cmd.Flags().GetBool("no-color")
	presentation.SetNoColor(noColor || cfg.UI.NoColor)
	if !noColor && !cfg.UI.NoColor {
		// Query the background once up front so adaptive colors resolve
		// before any output is written.
		_ = lipgloss.HasDarkBackground()
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// configPath returns the file settings are written back to.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return filepath.Join(config.DefaultConfigDir, "config.yaml")
}

// Execute runs the root command
func Execute() error {
	defer func() {
		if logCleanup != nil {
			logCleanup()
		}
	}()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
