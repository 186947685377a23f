package timebase

import "fmt"

// TicksPerQuarterNote is the fixed musical resolution (PPQ).
const TicksPerQuarterNote = 960

// MusicalTime is a bar/beat/tick location. Bar and beat are 1-based, tick is
// 0-based and below TicksPerQuarterNote.
type MusicalTime struct {
	Bar  int
	Beat int
	Tick int
}

// NewMusicalTime builds a MusicalTime without normalisation.
func NewMusicalTime(bar, beat, tick int) MusicalTime {
	return MusicalTime{Bar: bar, Beat: beat, Tick: tick}
}

// Origin is bar 1, beat 1, tick 0.
var Origin = MusicalTime{Bar: 1, Beat: 1}

// ToTicks converts to an absolute tick count for the given beats per bar.
func (m MusicalTime) ToTicks(beatsPerBar int) int64 {
	bpb := int64(beatsPerBar)
	return int64(m.Bar-1)*bpb*TicksPerQuarterNote +
		int64(m.Beat-1)*TicksPerQuarterNote +
		int64(m.Tick)
}

// MusicalTimeFromTicks converts an absolute tick count back to bar/beat/tick.
// Negative tick counts clamp to the origin.
func MusicalTimeFromTicks(ticks int64, beatsPerBar int) MusicalTime {
	if ticks < 0 {
		return Origin
	}
	if beatsPerBar <= 0 {
		beatsPerBar = CommonTime.BeatsPerBar()
	}
	ticksPerBar := int64(beatsPerBar) * TicksPerQuarterNote
	bar := ticks/ticksPerBar + 1
	rem := ticks % ticksPerBar
	beat := rem/TicksPerQuarterNote + 1
	tick := rem % TicksPerQuarterNote
	return MusicalTime{Bar: int(bar), Beat: int(beat), Tick: int(tick)}
}

func (m MusicalTime) String() string {
	return fmt.Sprintf("%d.%d.%03d", m.Bar, m.Beat, m.Tick)
}
