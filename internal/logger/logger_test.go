package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		isDev bool
		want  slog.Level
	}{
		{"", true, slog.LevelDebug},
		{"", false, slog.LevelInfo},
		{"WARN", true, slog.LevelWarn},
		{"warning", false, slog.LevelWarn},
		{" error ", false, slog.LevelError},
		{"info", true, slog.LevelInfo},
		{"verbose", false, slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.level, tt.isDev))
		})
	}
}

func TestInitSetsDefault(t *testing.T) {
	l := Init(true, "error", "")
	assert.Same(t, l, Log)
	assert.False(t, l.Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, l.Enabled(t.Context(), slog.LevelError))
}
