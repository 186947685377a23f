package processors

import "github.com/u-stem/koto/internal/audiocore"

// Input exposes the hardware capture as graph outputs. Output channel c reads
// capture channel c modulo the capture width, so a mono interface feeds both
// sides of a stereo input node. Without capture it outputs silence.
type Input struct {
	audiocore.NodeBase
	channels int
}

// NewInput returns a source with channels outputs.
func NewInput(channels int) *Input {
	return &Input{channels: max(channels, 1)}
}

func (n *Input) Name() string        { return "Input" }
func (n *Input) InputChannels() int  { return 0 }
func (n *Input) OutputChannels() int { return n.channels }

func (n *Input) Process(_, outputs []*audiocore.AudioBuffer, ctx *audiocore.ProcessContext) {
	src := ctx.Input
	if src == nil || src.Channels() == 0 {
		return
	}
	width := src.Channels()
	interleaved := src.Samples()
	count := min(ctx.Frames, ctx.InputFrames, src.Frames())
	for ch, buf := range outputs {
		out := buf.Samples()
		n := frames(count, out)
		srcCh := ch % width
		for i := range n {
			out[i] = interleaved[i*width+srcCh]
		}
	}
}
