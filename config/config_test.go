package config_test

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/lamprig/config"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := config.ParseConfig(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "./assets", cfg.AssetDir)
	assert.Empty(t, cfg.Manifest)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.DebugUI)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestParseConfigEnvThenFlags(t *testing.T) {
	t.Setenv("LAMPRIG_ASSET_DIR", "/srv/models")
	t.Setenv("LAMPRIG_WIDTH", "800")
	t.Setenv("LAMPRIG_DEBUG_UI", "true")
	t.Setenv("LAMPRIG_LOG_FORMAT", "json")

	cfg, err := config.ParseConfig(newFlagSet(), []string{"-width", "1024", "-manifest", "lamp.toml"})
	require.NoError(t, err)

	assert.Equal(t, "/srv/models", cfg.AssetDir)
	assert.Equal(t, 1024, cfg.Width, "flags win over the environment")
	assert.Equal(t, "lamp.toml", cfg.Manifest)
	assert.True(t, cfg.DebugUI)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
		want string
	}{
		{"bad env int", map[string]string{"LAMPRIG_HEIGHT": "tall"}, nil, "parse env:"},
		{"bad flag", nil, []string{"-nope"}, "nope"},
		{"zero size", nil, []string{"-width", "0"}, "invalid window size"},
		{"bad level", map[string]string{"LAMPRIG_LOG_LEVEL": "chatty"}, nil, "unknown log level"},
		{"bad format", nil, []string{"-log-format", "xml"}, "unknown log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.ParseConfig(newFlagSet(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := config.ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Config{LogLevel: "warn", LogFormat: "json"}
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("part failed", "part", "table")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "part failed", record["msg"])
	assert.Equal(t, "table", record["part"])

	buf.Reset()
	cfg = config.Config{LogLevel: "debug", LogFormat: "text"}
	logger, err = cfg.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("pumped", "count", 2)
	assert.Contains(t, buf.String(), "msg=pumped count=2")

	_, err = config.Config{LogLevel: "info", LogFormat: "yaml"}.NewLogger(&buf)
	assert.Error(t, err)
}
