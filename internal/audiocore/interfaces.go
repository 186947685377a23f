package audiocore

import (
	"github.com/u-stem/koto/internal/midi"
	"github.com/u-stem/koto/internal/timebase"
)

// Node is a processing unit in the audio graph.
//
// Ports are channels: Process receives one mono buffer per input channel and
// one per output channel, each holding ctx.Frames valid samples. Input
// buffers already contain the mixed signal of every connection feeding that
// port. Output buffers are silent on entry.
//
// Process runs on the audio thread and must not allocate, block or log.
// SetSampleRate and Reset are called with the node detached from the audio
// thread, or from the audio thread itself in response to transport commands.
type Node interface {
	InputChannels() int
	OutputChannels() int
	Process(inputs, outputs []*AudioBuffer, ctx *ProcessContext)
	SetSampleRate(rate timebase.SampleRate)
	Reset()
	Latency() int
}

// NodeBase supplies default SetSampleRate, Reset and Latency implementations.
type NodeBase struct{}

// SetSampleRate does nothing.
func (NodeBase) SetSampleRate(timebase.SampleRate) {}

// Reset does nothing.
func (NodeBase) Reset() {}

// Latency reports zero samples.
func (NodeBase) Latency() int { return 0 }

// IsSink reports whether n terminates the graph. The engine mixes the inputs
// of every sink into the hardware bus.
func IsSink(n Node) bool {
	return n.OutputChannels() == 0
}

// ProcessContext describes the block being rendered.
type ProcessContext struct {
	SampleRate    timebase.SampleRate
	Tempo         timebase.Tempo
	TimeSignature timebase.TimeSignature
	// Playhead is the transport position of the first frame in the block
	Playhead timebase.SamplePosition
	Frames   int
	// MidiEvents are sorted by SampleOffset, which is relative to the block
	MidiEvents []midi.Event
	Playing    bool
	Recording  bool
	// Input is the interleaved hardware capture for this block, or nil
	Input *AudioBuffer
	// InputFrames is the number of valid frames in Input
	InputFrames int
}

// ParameterHandler is implemented by nodes exposing automatable parameters.
// SetParameter may be called from any goroutine.
type ParameterHandler interface {
	ParameterCount() int
	Parameter(index int) (ParameterInfo, float32, bool)
	SetParameter(index int, value float32) bool
}

// ParameterInfo describes one parameter.
type ParameterInfo struct {
	Name    string
	Min     float32
	Max     float32
	Default float32
}

// Clamp limits v to the parameter range.
func (p ParameterInfo) Clamp(v float32) float32 {
	return min(max(v, p.Min), p.Max)
}
