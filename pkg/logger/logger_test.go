package logger

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger stored in context", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expected)
		assert.Equal(t, expected, FromContext(ctx))
	})
	t.Run("Should fall back to default logger", func(t *testing.T) {
		cases := map[string]context.Context{
			"empty":      t.Context(),
			"wrong type": context.WithValue(t.Context(), LoggerCtxKey, "not a logger"),
			"nil logger": context.WithValue(t.Context(), LoggerCtxKey, (Logger)(nil)),
		}
		for name, ctx := range cases {
			l := FromContext(ctx)
			require.NotNil(t, l, name)
			l.Info("fallback logger", "case", name)
		}
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should map levels to charm levels", func(t *testing.T) {
		cases := []struct {
			level    LogLevel
			expected int
		}{
			{DebugLevel, -4},
			{InfoLevel, 0},
			{WarnLevel, 4},
			{ErrorLevel, 8},
			{DisabledLevel, 1000},
			{LogLevel("verbose"), 0},
		}
		for _, tc := range cases {
			assert.Equal(t, tc.expected, int(tc.level.ToCharmlogLevel()), "level %s", tc.level)
		}
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write text output", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})
		l.Info("document extracted", "format", "pdf")
		assert.Contains(t, buf.String(), "document extracted")
		assert.Contains(t, buf.String(), "pdf")
	})
	t.Run("Should write JSON output", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true, TimeFormat: "15:04:05"})
		l.Info("chunks produced", "count", 3)
		assert.Contains(t, buf.String(), `"msg":"chunks produced"`)
	})
	t.Run("Should carry fields added through With", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewLogger(&Config{Level: InfoLevel, Output: &buf, TimeFormat: "15:04:05"})
		base.With("document_id", "doc-1").Warn("fallback applied")
		assert.Contains(t, buf.String(), "document_id")
		assert.Contains(t, buf.String(), "doc-1")
	})
	t.Run("Should filter below configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: WarnLevel, Output: &buf, TimeFormat: "15:04:05"})
		l.Debug("debug message")
		l.Info("info message")
		l.Warn("warn message")
		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})
	t.Run("Should emit nothing when disabled", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: DisabledLevel, Output: &buf, TimeFormat: "15:04:05"})
		l.Error("error message")
		assert.Empty(t, buf.String())
	})
}

func TestConfigDefaults(t *testing.T) {
	t.Run("Should discard output in test config", func(t *testing.T) {
		cfg := TestConfig()
		assert.Equal(t, DisabledLevel, cfg.Level)
		assert.Equal(t, io.Discard, cfg.Output)
	})
	t.Run("Should detect test binary", func(t *testing.T) {
		assert.True(t, IsTestEnvironment())
	})
}

func TestSetupLogger(t *testing.T) {
	t.Run("Should install a default logger for any level", func(t *testing.T) {
		t.Cleanup(InitForTests)
		for _, level := range []string{"debug", "bogus", ""} {
			l := SetupLogger(level, true, false)
			require.NotNil(t, l)
			assert.Equal(t, l, GetDefault())
		}
	})
}
