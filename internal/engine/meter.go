package engine

import "math"

// meter accumulates peak and sum of squares for the left and right channels.
type meter struct {
	peakL, peakR float32
	sumL, sumR   float64
	frames       int
}

func (m *meter) add(block []float32, channels, frames int) {
	for f := range frames {
		l := block[f*channels]
		r := l
		if channels > 1 {
			r = block[f*channels+1]
		}
		m.peakL = max(m.peakL, abs32(l))
		m.peakR = max(m.peakR, abs32(r))
		m.sumL += float64(l) * float64(l)
		m.sumR += float64(r) * float64(r)
	}
	m.frames += frames
}

// levels returns the window's values and starts a new window.
func (m *meter) levels() MeterLevels {
	var lv MeterLevels
	if m.frames > 0 {
		lv = MeterLevels{
			PeakLeft:  m.peakL,
			PeakRight: m.peakR,
			RMSLeft:   float32(math.Sqrt(m.sumL / float64(m.frames))),
			RMSRight:  float32(math.Sqrt(m.sumR / float64(m.frames))),
		}
	}
	*m = meter{}
	return lv
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// meterBlock folds a rendered block into the meter and emits MeterUpdate
// once a full window has been seen.
func (s *audioState) meterBlock(block []float32, frames int) {
	s.meter.add(block, s.channels, frames)
	if s.meter.frames >= s.meterInterval {
		s.emit(Event{Kind: EventMeterUpdate, Meter: s.meter.levels()})
	}
}

// playheadTick emits PlayheadMoved at most once per playhead interval while playing.
func (s *audioState) playheadTick(frames int) {
	if !s.transport.Playing {
		return
	}
	s.playheadCount += frames
	if s.playheadCount < s.playheadInterval {
		return
	}
	s.playheadCount = 0
	s.emit(Event{Kind: EventPlayheadMoved, Position: s.transport.Playhead})
}

// SilenceDBFS is the floor PeakToDBFS reports for silence.
const SilenceDBFS = -120.0

// PeakToDBFS converts a linear level to dBFS.
func PeakToDBFS(v float32) float64 {
	if v <= 0 {
		return SilenceDBFS
	}
	return max(20*math.Log10(float64(v)), SilenceDBFS)
}
