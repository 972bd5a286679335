package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjx-immersion/timeplan-craft-kit-sub002/internal/plan"
)

// Config represents the complete timeplan configuration
type Config struct {
	Dates  DatesConfig  `mapstructure:"dates"`
	Output OutputConfig `mapstructure:"output"`
	Log    LogConfig    `mapstructure:"log"`
}

// DatesConfig controls how plan documents are parsed
type DatesConfig struct {
	// Layouts are Go time layouts tried in order for startDate/endDate
	Layouts []string `mapstructure:"layouts"`
}

// OutputConfig controls command output
type OutputConfig struct {
	// JSON prints machine-readable output instead of tables
	JSON bool `mapstructure:"json"`
	// Color enables ANSI colors (ignored when stdout is not a terminal)
	Color bool `mapstructure:"color"`
}

// LogConfig controls diagnostic logging on stderr
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Dates: DatesConfig{
			Layouts: append([]string(nil), plan.DefaultLayouts...),
		},
		Output: OutputConfig{
			JSON:  false,
			Color: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// SetDefaults registers the built-in values with v.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("dates.layouts", defaults.Dates.Layouts)
	v.SetDefault("output.json", defaults.Output.JSON)
	v.SetDefault("output.color", defaults.Output.Color)
	v.SetDefault("log.level", defaults.Log.Level)
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "timeplan")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "timeplan")
}

// Load reads configuration into v and decodes it. An explicit path must
// exist; otherwise timeplan.yaml is looked up in the working directory and
// ConfigDir, and a missing file is not an error. TIMEPLAN_* environment
// variables override file values (TIMEPLAN_OUTPUT_JSON=true).
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix("timeplan")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("timeplan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := ConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Dates.Layouts) == 0 {
		cfg.Dates.Layouts = Default().Dates.Layouts
	}
	return &cfg, nil
}

// SlogLevel maps Log.Level to a slog level; unknown values mean warn.
func (c *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
