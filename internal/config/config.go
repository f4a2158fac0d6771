// Package config loads focuscycle settings from defaults, an optional YAML
// file and FOCUSCYCLE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dori/focuscycle/internal/db"
	"github.com/dori/focuscycle/internal/session"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "FOCUSCYCLE"

// Config holds application configuration
type Config struct {
	FocusMinutes       int           `mapstructure:"focus_minutes" yaml:"focus_minutes"`
	ShortBreakMinutes  int           `mapstructure:"short_break_minutes" yaml:"short_break_minutes"`
	LongBreakMinutes   int           `mapstructure:"long_break_minutes" yaml:"long_break_minutes"`
	ExtendMinutes      int           `mapstructure:"extend_minutes" yaml:"extend_minutes"`
	LongBreakAfter     int           `mapstructure:"long_break_after" yaml:"long_break_after"`
	AutoAdvance        bool          `mapstructure:"auto_advance" yaml:"auto_advance"`
	Notify             bool          `mapstructure:"notify" yaml:"notify"`
	ExtendResetsBreaks bool          `mapstructure:"extend_resets_breaks" yaml:"extend_resets_breaks"`
	TickInterval       time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	DataDir            string        `mapstructure:"data_dir" yaml:"data_dir"`
	Debug              bool          `mapstructure:"debug" yaml:"debug"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		FocusMinutes:      int(session.DefaultFocus / time.Minute),
		ShortBreakMinutes: int(session.DefaultShortBreak / time.Minute),
		LongBreakMinutes:  int(session.DefaultLongBreak / time.Minute),
		ExtendMinutes:     int(session.DefaultExtend / time.Minute),
		LongBreakAfter:    session.DefaultLongBreakAfter,
		Notify:            true,
		TickInterval:      time.Second,
		DataDir:           db.DefaultDataDir(),
	}
}

// DefaultPath returns the config file used when none is given
func DefaultPath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".focuscycle", "config.yaml")
	}
	return filepath.Join(dir, "focuscycle", "config.yaml")
}

// Load reads configuration from path (DefaultPath when empty) and the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("focus_minutes", def.FocusMinutes)
	v.SetDefault("short_break_minutes", def.ShortBreakMinutes)
	v.SetDefault("long_break_minutes", def.LongBreakMinutes)
	v.SetDefault("extend_minutes", def.ExtendMinutes)
	v.SetDefault("long_break_after", def.LongBreakAfter)
	v.SetDefault("auto_advance", def.AutoAdvance)
	v.SetDefault("notify", def.Notify)
	v.SetDefault("extend_resets_breaks", def.ExtendResetsBreaks)
	v.SetDefault("tick_interval", def.TickInterval)
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("debug", def.Debug)

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.normalize()
	return c, nil
}

// Save writes cfg to path as YAML, creating the directory if needed
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SessionConfig converts the minute based settings for the state machine
func (c Config) SessionConfig() session.Config {
	return session.Config{
		Focus:              time.Duration(c.FocusMinutes) * time.Minute,
		ShortBreak:         time.Duration(c.ShortBreakMinutes) * time.Minute,
		LongBreak:          time.Duration(c.LongBreakMinutes) * time.Minute,
		Extend:             time.Duration(c.ExtendMinutes) * time.Minute,
		LongBreakAfter:     c.LongBreakAfter,
		AutoAdvance:        c.AutoAdvance,
		ExtendResetsBreaks: c.ExtendResetsBreaks,
	}
}

// normalize puts nonsensical values back to their defaults
func (c *Config) normalize() {
	def := Default()
	if c.FocusMinutes <= 0 {
		c.FocusMinutes = def.FocusMinutes
	}
	if c.ShortBreakMinutes <= 0 {
		c.ShortBreakMinutes = def.ShortBreakMinutes
	}
	if c.LongBreakMinutes <= 0 {
		c.LongBreakMinutes = def.LongBreakMinutes
	}
	if c.ExtendMinutes <= 0 {
		c.ExtendMinutes = def.ExtendMinutes
	}
	if c.LongBreakAfter <= 0 {
		c.LongBreakAfter = def.LongBreakAfter
	}
	if c.TickInterval < 10*time.Millisecond || c.TickInterval > time.Minute {
		c.TickInterval = def.TickInterval
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
}
