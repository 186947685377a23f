package processors

import "github.com/u-stem/koto/internal/audiocore"

// Master is the graph sink feeding the hardware bus. It has no outputs; the
// engine mixes its inputs into the device buffer. It keeps the peak of the
// last block it saw for display.
type Master struct {
	audiocore.NodeBase
	channels int
	peak     atomicFloat32
}

// NewMaster returns a sink with channels inputs.
func NewMaster(channels int) *Master {
	return &Master{channels: max(channels, 1)}
}

func (m *Master) Name() string        { return "Master" }
func (m *Master) InputChannels() int  { return m.channels }
func (m *Master) OutputChannels() int { return 0 }

func (m *Master) Process(inputs, _ []*audiocore.AudioBuffer, ctx *audiocore.ProcessContext) {
	var peak float32
	for _, in := range inputs {
		s := in.Samples()
		peak = max(peak, audiocore.PeakOf(s[:frames(ctx.Frames, s)]))
	}
	m.peak.Store(peak)
}

// Reset clears the stored peak.
func (m *Master) Reset() { m.peak.Store(0) }

// Peak returns the largest magnitude seen in the most recent block.
func (m *Master) Peak() float32 { return m.peak.Load() }
