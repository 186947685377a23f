package processors

import (
	"sync/atomic"

	"github.com/u-stem/koto/internal/audiocore"
)

// Strip parameter indices.
const (
	StripVolume = iota
	StripPan
	StripMute
	StripSolo
	stripParameterCount
)

var stripParameters = [stripParameterCount]audiocore.ParameterInfo{
	StripVolume: {Name: "volume", Min: 0, Max: 2, Default: 1},
	StripPan:    {Name: "pan", Min: -1, Max: 1, Default: 0},
	StripMute:   {Name: "mute", Min: 0, Max: 1, Default: 0},
	StripSolo:   {Name: "solo", Min: 0, Max: 1, Default: 0},
}

// SoloGroup counts soloed strips. While any strip in the group is soloed,
// strips that are not soloed are silent.
type SoloGroup struct {
	soloed atomic.Int32
}

// Active reports whether any strip in the group is soloed.
func (g *SoloGroup) Active() bool { return g.soloed.Load() > 0 }

// Strip is a stereo mixer channel with volume, balance pan, mute and solo.
type Strip struct {
	audiocore.NodeBase
	name   string
	group  *SoloGroup
	volume atomicFloat32
	pan    atomicFloat32
	mute   atomic.Bool
	solo   atomic.Bool
}

// NewStrip returns a strip at unity volume, centred. A nil group gives the
// strip a private one.
func NewStrip(name string, group *SoloGroup) *Strip {
	if group == nil {
		group = &SoloGroup{}
	}
	s := &Strip{name: name, group: group}
	s.volume.Store(stripParameters[StripVolume].Default)
	return s
}

func (s *Strip) Name() string        { return s.name }
func (s *Strip) InputChannels() int  { return 2 }
func (s *Strip) OutputChannels() int { return 2 }

// SetVolume sets the linear volume, clamped to 0..2.
func (s *Strip) SetVolume(v float32) { s.volume.Store(stripParameters[StripVolume].Clamp(v)) }

// Volume returns the linear volume.
func (s *Strip) Volume() float32 { return s.volume.Load() }

// SetPan sets the balance, clamped to -1 (left) .. 1 (right).
func (s *Strip) SetPan(p float32) { s.pan.Store(stripParameters[StripPan].Clamp(p)) }

// Pan returns the balance.
func (s *Strip) Pan() float32 { return s.pan.Load() }

// SetMute mutes or unmutes the strip.
func (s *Strip) SetMute(m bool) { s.mute.Store(m) }

// Muted reports the mute state.
func (s *Strip) Muted() bool { return s.mute.Load() }

// SetSolo changes the solo state and updates the group count.
func (s *Strip) SetSolo(on bool) {
	if s.solo.Swap(on) == on {
		return
	}
	if on {
		s.group.soloed.Add(1)
	} else {
		s.group.soloed.Add(-1)
	}
}

// Soloed reports the solo state.
func (s *Strip) Soloed() bool { return s.solo.Load() }

// Audible reports whether the strip currently passes signal.
func (s *Strip) Audible() bool {
	if s.mute.Load() {
		return false
	}
	return !s.group.Active() || s.solo.Load()
}

// Gains returns the left and right factors for the current volume and pan.
func (s *Strip) Gains() (left, right float32) {
	if !s.Audible() {
		return 0, 0
	}
	vol := s.volume.Load()
	pan := s.pan.Load()
	return vol * min(1, 1-pan), vol * min(1, 1+pan)
}

func (s *Strip) Process(inputs, outputs []*audiocore.AudioBuffer, ctx *audiocore.ProcessContext) {
	if len(inputs) < 2 || len(outputs) < 2 {
		return
	}
	left, right := s.Gains()
	scaleInto(outputs[0].Samples(), inputs[0].Samples(), left, ctx.Frames)
	scaleInto(outputs[1].Samples(), inputs[1].Samples(), right, ctx.Frames)
}

func scaleInto(dst, src []float32, gain float32, n int) {
	n = frames(n, dst, src)
	for i := range n {
		dst[i] = src[i] * gain
	}
}

func (s *Strip) ParameterCount() int { return stripParameterCount }

func (s *Strip) Parameter(index int) (audiocore.ParameterInfo, float32, bool) {
	if index < 0 || index >= stripParameterCount {
		return audiocore.ParameterInfo{}, 0, false
	}
	var v float32
	switch index {
	case StripVolume:
		v = s.Volume()
	case StripPan:
		v = s.Pan()
	case StripMute:
		v = boolValue(s.Muted())
	case StripSolo:
		v = boolValue(s.Soloed())
	}
	return stripParameters[index], v, true
}

func (s *Strip) SetParameter(index int, value float32) bool {
	switch index {
	case StripVolume:
		s.SetVolume(value)
	case StripPan:
		s.SetPan(value)
	case StripMute:
		s.SetMute(value >= 0.5)
	case StripSolo:
		s.SetSolo(value >= 0.5)
	default:
		return false
	}
	return true
}

func boolValue(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
