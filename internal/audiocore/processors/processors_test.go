package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/audiocore"
)

func monoBuffers(t *testing.T, values ...[]float32) []*audiocore.AudioBuffer {
	t.Helper()
	bufs := make([]*audiocore.AudioBuffer, len(values))
	for i, v := range values {
		b, err := audiocore.AudioBufferFromSamples(v, 1)
		require.NoError(t, err)
		bufs[i] = b
	}
	return bufs
}

func silent(channels, n int) []*audiocore.AudioBuffer {
	bufs := make([]*audiocore.AudioBuffer, channels)
	for i := range bufs {
		bufs[i] = audiocore.NewAudioBuffer(1, n)
	}
	return bufs
}

func TestNewGainValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		gain     float32
		wantErr  bool
	}{
		{"valid", 2, 1.5, false},
		{"too low", 2, -1, true},
		{"too high", 2, 11, true},
		{"no channels", 0, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, err := NewGain("test-gain", tt.channels, tt.gain)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, g)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test-gain", g.ID())
			assert.InDelta(t, tt.gain, g.GetGain(), 1e-6)
		})
	}
}

func TestGainProcess(t *testing.T) {
	t.Parallel()

	g, err := NewGain("g", 2, 2)
	require.NoError(t, err)
	in := monoBuffers(t, []float32{0.25, -0.25, 0.75, 9}, []float32{0.125, 0, -0.75, 9})
	out := silent(2, 4)

	g.Process(in, out, &audiocore.ProcessContext{Frames: 3})
	assert.Equal(t, []float32{0.5, -0.5, 1, 0}, out[0].Samples(), "clipped and limited to ctx.Frames")
	assert.Equal(t, []float32{0.25, 0, -1, 0}, out[1].Samples())

	require.Error(t, g.SetGain(20))
	require.NoError(t, g.SetGain(0.5))
	assert.InDelta(t, 0.5, g.GetGain(), 0)
}

func TestGainParameters(t *testing.T) {
	t.Parallel()

	g, err := NewGain("g", 1, 1)
	require.NoError(t, err)

	var handler audiocore.ParameterHandler = g
	assert.Equal(t, 1, handler.ParameterCount())
	info, v, ok := handler.Parameter(0)
	require.True(t, ok)
	assert.Equal(t, "gain", info.Name)
	assert.InDelta(t, 1, v, 0)

	assert.True(t, handler.SetParameter(0, 50))
	assert.InDelta(t, MaxGain, g.GetGain(), 0)
	assert.False(t, handler.SetParameter(1, 0))
	_, _, ok = handler.Parameter(3)
	assert.False(t, ok)
}

func TestPassthrough(t *testing.T) {
	t.Parallel()

	p := NewPassthrough(2)
	assert.Equal(t, 2, p.InputChannels())
	assert.Equal(t, 2, p.OutputChannels())

	in := monoBuffers(t, []float32{1, 2}, []float32{3, 4})
	out := silent(2, 2)
	p.Process(in, out, &audiocore.ProcessContext{Frames: 2})
	assert.Equal(t, []float32{1, 2}, out[0].Samples())
	assert.Equal(t, []float32{3, 4}, out[1].Samples())
}

func TestMasterIsSink(t *testing.T) {
	t.Parallel()

	m := NewMaster(2)
	assert.True(t, audiocore.IsSink(m))

	in := monoBuffers(t, []float32{0.25, -0.5}, []float32{0.125, 0.9})
	m.Process(in, nil, &audiocore.ProcessContext{Frames: 1})
	assert.InDelta(t, 0.25, m.Peak(), 1e-6)

	m.Reset()
	assert.Zero(t, m.Peak())
}

func TestInputReadsCapture(t *testing.T) {
	t.Parallel()

	n := NewInput(2)
	assert.Zero(t, n.InputChannels())

	out := silent(2, 3)
	n.Process(nil, out, &audiocore.ProcessContext{Frames: 3})
	assert.Zero(t, out[0].Peak(), "no capture means silence")

	capture, err := audiocore.AudioBufferFromSamples([]float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}, 2)
	require.NoError(t, err)
	n.Process(nil, out, &audiocore.ProcessContext{Frames: 3, Input: capture, InputFrames: 2})
	assert.Equal(t, []float32{0.1, 0.3, 0}, out[0].Samples())
	assert.Equal(t, []float32{0.2, 0.4, 0}, out[1].Samples())

	mono, err := audiocore.AudioBufferFromSamples([]float32{0.7, 0.8}, 1)
	require.NoError(t, err)
	out = silent(2, 2)
	n.Process(nil, out, &audiocore.ProcessContext{Frames: 2, Input: mono, InputFrames: 2})
	assert.Equal(t, out[0].Samples(), out[1].Samples())
}

func TestStripGains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		volume, pan float32
		left, right float32
	}{
		{"centre", 1, 0, 1, 1},
		{"hard left", 1, -1, 1, 0},
		{"half right", 1, 0.5, 0.5, 1},
		{"boosted", 2, 0, 2, 2},
		{"volume clamped", 5, 0, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewStrip("ch", nil)
			s.SetVolume(tt.volume)
			s.SetPan(tt.pan)
			l, r := s.Gains()
			assert.InDelta(t, tt.left, l, 1e-6)
			assert.InDelta(t, tt.right, r, 1e-6)
		})
	}
}

func TestStripMuteAndSolo(t *testing.T) {
	t.Parallel()

	group := &SoloGroup{}
	a := NewStrip("a", group)
	b := NewStrip("b", group)

	assert.True(t, a.Audible())
	a.SetMute(true)
	assert.False(t, a.Audible())
	a.SetMute(false)

	b.SetSolo(true)
	b.SetSolo(true)
	assert.True(t, group.Active())
	assert.False(t, a.Audible(), "other strips are silenced while one is soloed")
	assert.True(t, b.Audible())

	b.SetSolo(false)
	assert.False(t, group.Active())
	assert.True(t, a.Audible())
}

func TestStripProcess(t *testing.T) {
	t.Parallel()

	s := NewStrip("ch", nil)
	s.SetPan(1)
	in := monoBuffers(t, []float32{0.5, 0.5}, []float32{0.25, 0.25})
	out := silent(2, 2)
	s.Process(in, out, &audiocore.ProcessContext{Frames: 2})
	assert.Equal(t, []float32{0, 0}, out[0].Samples())
	assert.Equal(t, []float32{0.25, 0.25}, out[1].Samples())
}

func TestStripParameters(t *testing.T) {
	t.Parallel()

	s := NewStrip("ch", nil)
	assert.Equal(t, 4, s.ParameterCount())
	assert.True(t, s.SetParameter(StripMute, 1))
	assert.True(t, s.Muted())
	assert.True(t, s.SetParameter(StripPan, -0.5))

	info, v, ok := s.Parameter(StripPan)
	require.True(t, ok)
	assert.Equal(t, "pan", info.Name)
	assert.InDelta(t, -0.5, v, 0)

	_, v, _ = s.Parameter(StripMute)
	assert.InDelta(t, 1, v, 0)
	assert.False(t, s.SetParameter(9, 1))
}
