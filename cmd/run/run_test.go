package run

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/conf"
	"github.com/u-stem/koto/internal/device"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/midi"
)

func TestOpenTake(t *testing.T) {
	t.Parallel()

	settings := conf.Defaults()
	settings.Recording.Path = filepath.Join(t.TempDir(), "takes")
	settings.Recording.BitDepth = 24

	w, err := openTake(settings, device.Format{SampleRate: 48000, Channels: 2, InputChannels: 1}, time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, settings.Recording.Path, filepath.Dir(w.Path()))
	assert.Regexp(t, `^take-[0-9a-f]{8}_\d{8}_\d{6}\.wav$`, filepath.Base(w.Path()))
	assert.FileExists(t, w.Path())
}

func TestOpenTakeWithoutInput(t *testing.T) {
	t.Parallel()

	settings := conf.Defaults()
	settings.Recording.Path = t.TempDir()

	_, err := openTake(settings, device.Format{SampleRate: 48000, Channels: 2}, 0)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestEngineReporterBeforeEngine(t *testing.T) {
	t.Parallel()

	var r engineReporter
	assert.False(t, r.ReportDeviceError("device lost"))
}

func TestLogTakeReportsTimelineSpan(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.NewSlogLogger(buf, logger.LogLevelInfo, time.UTC)

	logTake(log, []midi.Stamped{
		{Position: 266, Event: midi.Event{SampleOffset: 10}},
		{Position: 48384, Event: midi.Event{}},
	})
	out := buf.String()
	assert.Contains(t, out, "midi_events=2")
	assert.Contains(t, out, "first_position=266")
	assert.Contains(t, out, "last_position=48384")

	buf.Reset()
	logTake(log, nil)
	assert.Contains(t, buf.String(), "midi_events=0")
	assert.NotContains(t, buf.String(), "first_position")
}
