package engine

import (
	"math"

	"github.com/u-stem/koto/internal/timebase"
)

const (
	clickAccentHz = 880.0
	clickBeatHz   = 440.0
	clickGain     = 0.3
	// clickWidth is the fraction of a beat the click sounds for
	clickWidth = 0.01
)

// clickFrequency reports the click pitch sounding at position p, if any.
// Downbeats use the accent pitch.
func clickFrequency(p, spb float64, numerator int) (freq, phase float64, ok bool) {
	beat := p / spb
	phase = beat - math.Floor(beat)
	if phase >= clickWidth {
		return 0, phase, false
	}
	freq = clickBeatHz
	if numerator > 0 && int64(beat)%int64(numerator) == 0 {
		freq = clickAccentHz
	}
	return freq, phase, true
}

// clickSample returns the metronome signal at transport position pos.
func clickSample(pos timebase.SamplePosition, spb float64, numerator int, rate timebase.SampleRate) float32 {
	p := float64(pos)
	freq, phase, ok := clickFrequency(p, spb, numerator)
	if !ok {
		return 0
	}
	env := max(1-phase*100, 0)
	return float32(math.Sin(2*math.Pi*freq*p/rate.Hz()) * env * clickGain)
}

// addClick mixes the metronome into the first two channels of an interleaved block.
func addClick(block []float32, channels, frames int, playhead timebase.SamplePosition, tempo timebase.Tempo, sig timebase.TimeSignature, rate timebase.SampleRate) {
	spb := tempo.SamplesPerBeat(rate)
	numerator := sig.BeatsPerBar()
	width := min(channels, 2)
	for f := range frames {
		v := clickSample(playhead+timebase.SamplePosition(f), spb, numerator, rate)
		if v == 0 {
			continue
		}
		for ch := range width {
			block[f*channels+ch] += v
		}
	}
}
