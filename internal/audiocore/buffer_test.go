package audiocore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/timebase"
)

func TestNewAudioBufferIsSilent(t *testing.T) {
	t.Parallel()

	buf := NewAudioBuffer(2, 128)
	assert.Equal(t, 2, buf.Channels())
	assert.Equal(t, 128, buf.Frames())
	assert.Equal(t, 256, buf.Len())
	for _, s := range buf.Samples() {
		require.Zero(t, s)
	}

	empty := NewAudioBuffer(-1, 10)
	assert.Zero(t, empty.Len())
}

func TestAudioBufferFromSamples(t *testing.T) {
	t.Parallel()

	buf, err := AudioBufferFromSamples([]float32{1, 2, 3, 4, 5, 6}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, buf.Frames())
	v, ok := buf.Get(1, 1)
	assert.True(t, ok)
	assert.InDelta(t, 4, v, 0)

	_, err = AudioBufferFromSamples([]float32{1, 2, 3}, 2)
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = AudioBufferFromSamples([]float32{1, 2}, 0)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestAudioBufferBounds(t *testing.T) {
	t.Parallel()

	buf := NewAudioBuffer(2, 4)
	assert.True(t, buf.Set(3, 1, 0.5))
	assert.False(t, buf.Set(4, 0, 1))
	assert.False(t, buf.Set(0, 2, 1))
	assert.False(t, buf.Set(-1, 0, 1))

	_, ok := buf.Get(0, 5)
	assert.False(t, ok)
	v, ok := buf.Get(3, 1)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 0)
}

func TestAudioBufferOps(t *testing.T) {
	t.Parallel()

	a, err := AudioBufferFromSamples([]float32{0.5, -0.25, 0.125, 0.5}, 2)
	require.NoError(t, err)
	b, err := AudioBufferFromSamples([]float32{0.25, 0.25, 0.25, 0.25}, 2)
	require.NoError(t, err)

	a.Mix(b)
	assert.Equal(t, []float32{0.75, 0, 0.375, 0.75}, a.Samples())

	a.ApplyGain(2)
	assert.InDelta(t, 1.5, a.Peak(), 1e-6)

	a.CopyFrom(b)
	assert.Equal(t, b.Samples(), a.Samples())

	a.Clear()
	assert.Zero(t, a.Peak())
}

func TestAudioBufferTruncatesOnShapeMismatch(t *testing.T) {
	t.Parallel()

	dst := NewAudioBuffer(1, 2)
	src, err := AudioBufferFromSamples([]float32{1, 2, 3, 4}, 1)
	require.NoError(t, err)

	dst.CopyFrom(src)
	assert.Equal(t, []float32{1, 2}, dst.Samples())

	dst.Mix(src)
	assert.Equal(t, []float32{2, 4}, dst.Samples())

	long := NewAudioBuffer(1, 6)
	long.Mix(src)
	assert.Equal(t, []float32{1, 2, 3, 4, 0, 0}, long.Samples())
}

func TestAudioBufferPeakUsesMagnitude(t *testing.T) {
	t.Parallel()

	buf, err := AudioBufferFromSamples([]float32{0.2, -0.9, 0.5}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, buf.Peak(), 1e-6)
}

func TestAudioBufferFrame(t *testing.T) {
	t.Parallel()

	stereo, err := AudioBufferFromSamples([]float32{0.1, 0.2, 0.3, 0.4}, 2)
	require.NoError(t, err)
	assert.Equal(t, StereoFrame{Left: 0.3, Right: 0.4}, stereo.Frame(1))
	assert.Equal(t, StereoFrame{}, stereo.Frame(9))

	mono, err := AudioBufferFromSamples([]float32{0.7}, 1)
	require.NoError(t, err)
	assert.Equal(t, MonoFrame(0.7), mono.Frame(0))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	f := DefaultFormat()
	require.NoError(t, f.Validate())
	assert.Equal(t, timebase.Rate48000, f.SampleRate)
	assert.Equal(t, Stereo, f.Channels)
	assert.Equal(t, 5333333*time.Nanosecond, f.PeriodDuration())

	tests := []struct {
		name   string
		format Format
	}{
		{"no channels", Format{SampleRate: timebase.Rate48000, BufferSize: BufferSize256}},
		{"tiny period", Format{SampleRate: timebase.Rate48000, Channels: Mono, BufferSize: 8}},
		{"bad rate", Format{SampleRate: 10, Channels: Mono, BufferSize: BufferSize256}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, tt.format.Validate())
		})
	}

	assert.Equal(t, StereoFrame{Left: 0.5, Right: 1}, StereoFrame{Left: 1, Right: 2}.Scale(0.5))
}
