package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanoutRespectsSinkLevels(t *testing.T) {
	t.Parallel()

	var verbose, quiet bytes.Buffer
	h := newFanoutHandler(
		slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		nil,
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	log := slog.New(h).With("module", "engine")

	log.Debug("plan compiled")
	log.Warn("xrun")

	assert.Contains(t, verbose.String(), "plan compiled")
	assert.Contains(t, verbose.String(), "xrun")
	assert.NotContains(t, quiet.String(), "plan compiled")
	assert.Contains(t, quiet.String(), "xrun")
	assert.Contains(t, quiet.String(), "module=engine")
}

func TestFanoutEnabledWhenAnySinkIs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newFanoutHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))
	assert.False(t, h.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, h.Enabled(t.Context(), slog.LevelError))
	assert.False(t, newFanoutHandler().Enabled(t.Context(), slog.LevelError))
}
