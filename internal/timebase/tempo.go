package timebase

import (
	"math"
	"strconv"
)

// Tempo bounds in beats per minute.
const (
	MinTempo     = 20.0
	MaxTempo     = 999.0
	DefaultTempo = 120.0
)

// Tempo is a tempo in beats per minute, always within [MinTempo, MaxTempo].
type Tempo struct {
	bpm float64
}

// NewTempo returns a tempo clamped to [MinTempo, MaxTempo]. NaN maps to DefaultTempo.
func NewTempo(bpm float64) Tempo {
	switch {
	case math.IsNaN(bpm):
		bpm = DefaultTempo
	case bpm < MinTempo:
		bpm = MinTempo
	case bpm > MaxTempo:
		bpm = MaxTempo
	}
	return Tempo{bpm: bpm}
}

// DefaultTempoValue returns 120 BPM.
func DefaultTempoValue() Tempo {
	return Tempo{bpm: DefaultTempo}
}

// BPM returns beats per minute. The zero Tempo reports DefaultTempo.
func (t Tempo) BPM() float64 {
	if t.bpm == 0 {
		return DefaultTempo
	}
	return t.bpm
}

// SamplesPerBeat returns the length of one beat in samples.
func (t Tempo) SamplesPerBeat(rate SampleRate) float64 {
	return float64(rate) * 60.0 / t.BPM()
}

// SamplesPerTick returns the length of one tick in samples.
func (t Tempo) SamplesPerTick(rate SampleRate) float64 {
	return t.SamplesPerBeat(rate) / TicksPerQuarterNote
}

func (t Tempo) String() string {
	return strconv.FormatFloat(t.BPM(), 'f', -1, 64) + " BPM"
}
