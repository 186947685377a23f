package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/errors"
)

func TestRecorderCaptureAndDrain(t *testing.T) {
	t.Parallel()

	r := NewRecorder(64, 2, 4, nil)
	samples := []float32{0.5, -0.5, 0.25, -0.25, 1, -1, 0, 0.125, 0.75, -0.75}

	require.True(t, r.Capture(samples), "capture spans several scratch chunks")
	got := r.Drain(nil)
	assert.Equal(t, samples, got)
	assert.Equal(t, uint64(5), r.Stats().CapturedFrames)
	assert.Empty(t, r.Drain(nil), "drain empties the buffer")
}

func TestRecorderDropsPartialFrame(t *testing.T) {
	t.Parallel()

	r := NewRecorder(16, 2, 4, nil)
	require.True(t, r.Capture([]float32{0.1, 0.2, 0.3}))
	assert.Equal(t, []float32{0.1, 0.2}, r.Drain(nil))
}

func TestRecorderSkipsOnContention(t *testing.T) {
	t.Parallel()

	r := NewRecorder(16, 1, 4, nil)
	r.mu.Lock()
	ok := r.Capture([]float32{0.5})
	r.mu.Unlock()

	assert.False(t, ok)
	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.ContentionSkipped)
	assert.Zero(t, stats.CapturedFrames)
	assert.Empty(t, r.Drain(nil))
}

func TestRecorderSkipsOnOverflow(t *testing.T) {
	t.Parallel()

	r := NewRecorder(4, 1, 4, nil)
	require.True(t, r.Capture([]float32{1, 2, 3}))
	assert.False(t, r.Capture([]float32{4, 5}), "whole period is skipped")
	assert.Equal(t, uint64(1), r.Stats().OverflowSkipped)
	assert.Equal(t, []float32{1, 2, 3}, r.Drain(nil))
}

func TestProcessCapturesWhileRecording(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) { c.InputChannels = 1 })
	input := []float32{0.1, 0.2, 0.3, 0.4}

	e.Process(make([]float32, 2*4), input)
	assert.Empty(t, e.Recorder().Drain(nil), "nothing captured before StartRecording")

	require.True(t, e.StartRecording())
	e.Process(make([]float32, 2*4), input)
	assert.Equal(t, input, e.Recorder().Drain(nil), "capture does not need the transport running")
}

type sliceWriter struct {
	mu      sync.Mutex
	samples []float32
	err     error
}

func (w *sliceWriter) Write(s []float32) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.samples = append(w.samples, s...)
	return nil
}

func (w *sliceWriter) Samples() []float32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]float32(nil), w.samples...)
}

func TestRunRecordingWriterDrainsOnCancel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) { c.InputChannels = 1 })
	require.True(t, e.StartRecording())
	e.Process(make([]float32, 2*4), []float32{0.1, 0.2, 0.3, 0.4})

	w := &sliceWriter{}
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- e.RunRecordingWriter(ctx, w, time.Hour) }()

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, w.Samples())
}

func TestRunRecordingWriterReportsWriteErrors(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, func(c *Config) { c.InputChannels = 1 })
	require.True(t, e.StartRecording())
	e.Process(make([]float32, 2*4), []float32{0.1, 0.2, 0.3, 0.4})

	w := &sliceWriter{err: errors.NewStd("disk full")}
	err := e.RunRecordingWriter(t.Context(), w, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}

func TestRunRecordingWriterWithoutInput(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	assert.Nil(t, e.Recorder())
	require.Error(t, e.RunRecordingWriter(t.Context(), &sliceWriter{}, 0))
}
