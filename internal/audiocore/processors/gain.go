package processors

import (
	"github.com/u-stem/koto/internal/audiocore"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
)

// Gain limits.
const (
	MinGain = 0.0
	MaxGain = 10.0
)

var gainParameter = audiocore.ParameterInfo{Name: "gain", Min: MinGain, Max: MaxGain, Default: 1}

// Gain scales every channel by a shared factor and clips to [-1, 1].
type Gain struct {
	audiocore.NodeBase
	id       string
	channels int
	gain     atomicFloat32
	log      logger.Logger
}

// NewGain returns a gain node with channels inputs and outputs.
func NewGain(id string, channels int, initialGain float32) (*Gain, error) {
	if channels < 1 {
		return nil, errors.Newf("gain needs at least one channel, got %d", channels).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("processor_id", id).
			Build()
	}
	if initialGain < MinGain || initialGain > MaxGain {
		return nil, errors.Newf("gain must be between %.1f and %.1f", MinGain, MaxGain).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("gain", initialGain).
			Context("processor_id", id).
			Build()
	}

	g := &Gain{
		id:       id,
		channels: channels,
		log:      processorLogger().With(logger.String("processor_id", id)),
	}
	g.gain.Store(initialGain)
	g.log.Debug("gain processor created",
		logger.Int("channels", channels),
		logger.Float32("initial_gain", initialGain))
	return g, nil
}

// ID returns the processor identifier.
func (g *Gain) ID() string { return g.id }

// Name returns the node type name.
func (g *Gain) Name() string { return "Gain" }

func (g *Gain) InputChannels() int  { return g.channels }
func (g *Gain) OutputChannels() int { return g.channels }

// Process writes gain*input to each output channel.
func (g *Gain) Process(inputs, outputs []*audiocore.AudioBuffer, ctx *audiocore.ProcessContext) {
	gain := g.gain.Load()
	for ch := range min(len(inputs), len(outputs)) {
		in := inputs[ch].Samples()
		out := outputs[ch].Samples()
		n := frames(ctx.Frames, in, out)
		for i := range n {
			out[i] = min(max(in[i]*gain, -1), 1)
		}
	}
}

// SetGain updates the factor. Safe from any goroutine.
func (g *Gain) SetGain(gain float32) error {
	if gain < MinGain || gain > MaxGain {
		return errors.Newf("gain must be between %.1f and %.1f", MinGain, MaxGain).
			Component(audiocore.ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("gain", gain).
			Context("processor_id", g.id).
			Build()
	}
	g.gain.Store(gain)
	g.log.Debug("gain updated", logger.Float32("new_gain", gain))
	return nil
}

// GetGain returns the current factor.
func (g *Gain) GetGain() float32 { return g.gain.Load() }

func (g *Gain) ParameterCount() int { return 1 }

func (g *Gain) Parameter(index int) (audiocore.ParameterInfo, float32, bool) {
	if index != 0 {
		return audiocore.ParameterInfo{}, 0, false
	}
	return gainParameter, g.gain.Load(), true
}

func (g *Gain) SetParameter(index int, value float32) bool {
	if index != 0 {
		return false
	}
	g.gain.Store(gainParameter.Clamp(value))
	return true
}
