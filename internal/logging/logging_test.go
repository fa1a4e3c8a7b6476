package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/loop/internal/config"
)

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: "text", want: "msg=hello"},
		{format: "json", want: `"msg":"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer

			logger := New(&config.Config{LogLevel: "info", LogFormat: tt.format}, &buf)
			logger.Info("hello")

			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestSetupWithWriter_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer

	logger := SetupWithWriter(&config.Config{LogLevel: "info", LogFormat: "text"}, &buf)
	require.NotNil(t, logger)
	assert.Equal(t, logger.Handler(), slog.Default().Handler())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		shown  []string
		hidden []string
	}{
		{
			name:  "debug shows debug",
			cfg:   config.Config{LogLevel: "debug"},
			shown: []string{"debug-msg", "info-msg"},
		},
		{
			name:   "info hides debug",
			cfg:    config.Config{LogLevel: "info"},
			shown:  []string{"info-msg"},
			hidden: []string{"debug-msg"},
		},
		{
			name:   "quiet keeps errors only",
			cfg:    config.Config{LogLevel: "debug", Quiet: true},
			shown:  []string{"error-msg"},
			hidden: []string{"debug-msg", "info-msg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := New(&tt.cfg, &buf)
			logger.Debug("debug-msg")
			logger.Info("info-msg")
			logger.Error("error-msg")

			for _, s := range tt.shown {
				assert.Contains(t, buf.String(), s)
			}

			for _, s := range tt.hidden {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&config.Config{LogLevel: "info", LogFormat: "json"}, &buf)
	logger.Info("login", slog.String("username", "alice"), slog.String("password", "hunter22"), slog.String("CSRFToken", "abc"))

	out := buf.String()
	assert.Contains(t, out, `"username":"alice"`)
	assert.NotContains(t, out, "hunter22")
	assert.NotContains(t, out, `"abc"`)
	assert.Contains(t, out, `"password":"[redacted]"`)
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestContext(t *testing.T) {
	logger := Discard()
	assert.Equal(t, logger, FromContext(NewContext(context.Background(), logger)))
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}
