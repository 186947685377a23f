package processors

import "github.com/u-stem/koto/internal/audiocore"

// Passthrough copies each input channel to the matching output channel.
type Passthrough struct {
	audiocore.NodeBase
	channels int
}

// NewPassthrough returns a passthrough with channels inputs and outputs.
func NewPassthrough(channels int) *Passthrough {
	return &Passthrough{channels: max(channels, 1)}
}

func (p *Passthrough) Name() string        { return "Passthrough" }
func (p *Passthrough) InputChannels() int  { return p.channels }
func (p *Passthrough) OutputChannels() int { return p.channels }

func (p *Passthrough) Process(inputs, outputs []*audiocore.AudioBuffer, ctx *audiocore.ProcessContext) {
	for ch := range min(len(inputs), len(outputs)) {
		in := inputs[ch].Samples()
		out := outputs[ch].Samples()
		n := frames(ctx.Frames, in, out)
		copy(out[:n], in[:n])
	}
}
