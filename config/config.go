// Package config reads lamprig settings from the environment and command-line flags
// and builds the process logger.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the lamprig commands. Flags override the environment.
type Config struct {
	AssetDir  string        `env:"LAMPRIG_ASSET_DIR"  envDefault:"./assets"`
	Manifest  string        `env:"LAMPRIG_MANIFEST"`
	Width     int           `env:"LAMPRIG_WIDTH"      envDefault:"1280"`
	Height    int           `env:"LAMPRIG_HEIGHT"     envDefault:"720"`
	LogLevel  string        `env:"LAMPRIG_LOG_LEVEL"  envDefault:"info"`
	LogFormat string        `env:"LAMPRIG_LOG_FORMAT" envDefault:"text"`
	DebugUI   bool          `env:"LAMPRIG_DEBUG_UI"`
	Timeout   time.Duration `env:"LAMPRIG_TIMEOUT"    envDefault:"30s"`
}

// ParseEnv loads a Config from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseConfig loads the environment and then applies flags parsed from args.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.AssetDir, "assets", cfg.AssetDir, "directory holding the .glb models and textures")
	fs.StringVar(&cfg.Manifest, "manifest", cfg.Manifest, "rig manifest (.yaml or .toml); empty uses the built-in desk lamp")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "window height")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.BoolVar(&cfg.DebugUI, "debug-ui", cfg.DebugUI, "show the scene tree, inspector, load and performance panels")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "headless runs give up after this long")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Width, c.Height)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// NewLogger builds a slog logger writing to w in the configured format and level.
func (c Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch c.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return slog.New(handler), nil
}
