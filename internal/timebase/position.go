// Package timebase defines the sample-accurate time values shared by the
// transport, the audio graph and the callback engine: sample positions, sample
// rates, tempo, time signatures and musical (bar/beat/tick) time.
package timebase

import (
	"fmt"
	"math"
)

// SamplePosition is a signed sample count measured from stream start.
type SamplePosition int64

// ZeroPosition is the start of the stream.
const ZeroPosition SamplePosition = 0

// PositionFromSeconds converts seconds to the nearest sample position.
func PositionFromSeconds(seconds float64, rate SampleRate) SamplePosition {
	return SamplePosition(math.Round(seconds * float64(rate)))
}

// Seconds converts the position to seconds at the given rate.
func (p SamplePosition) Seconds(rate SampleRate) float64 {
	if rate == 0 {
		return 0
	}
	return float64(p) / float64(rate)
}

// Advance returns the position moved forward by frames.
func (p SamplePosition) Advance(frames int) SamplePosition {
	return p + SamplePosition(frames)
}

// Add returns p + other.
func (p SamplePosition) Add(other SamplePosition) SamplePosition {
	return p + other
}

// Sub returns p - other.
func (p SamplePosition) Sub(other SamplePosition) SamplePosition {
	return p - other
}

// Samples returns the raw sample count.
func (p SamplePosition) Samples() int64 {
	return int64(p)
}

func (p SamplePosition) String() string {
	return fmt.Sprintf("%d samples", int64(p))
}
