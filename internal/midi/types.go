// Package midi provides MIDI value types, decoding of raw channel-voice
// messages and the timed Event the engine delivers to nodes.
package midi

import (
	"fmt"
	"math"
)

// Channel is a MIDI channel in 0..15.
type Channel uint8

// NewChannel clamps c to 15.
func NewChannel(c uint8) Channel { return Channel(min(c, 15)) }

// Note is a MIDI note number in 0..127.
type Note uint8

// MiddleC is C4.
const MiddleC Note = 60

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NewNote clamps n to 127.
func NewNote(n uint8) Note { return Note(min(n, 127)) }

// Name returns the pitch name with octave, such as "C4" or "A#3".
func (n Note) Name() string {
	octave := int(n)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[n%12], octave)
}

// Frequency returns the equal-tempered pitch with A4 at 440 Hz.
func (n Note) Frequency() float64 {
	return 440 * math.Pow(2, (float64(n)-69)/12)
}

// Velocity is a MIDI velocity in 0..127.
type Velocity uint8

// Dynamic markings.
const (
	VelocityOff        Velocity = 0
	VelocityPianissimo Velocity = 32
	VelocityPiano      Velocity = 48
	VelocityMezzoPiano Velocity = 64
	VelocityMezzoForte Velocity = 80
	VelocityForte      Velocity = 96
	VelocityFortissimo Velocity = 112
	VelocityMax        Velocity = 127
	DefaultVelocity             = VelocityMezzoForte
)

// NewVelocity clamps v to 127.
func NewVelocity(v uint8) Velocity { return Velocity(min(v, 127)) }

// Normalized maps the velocity to 0..1.
func (v Velocity) Normalized() float32 { return float32(v) / 127 }

// ControlNumber is a control change controller number.
type ControlNumber uint8

// Well-known controllers.
const (
	ModWheel    ControlNumber = 1
	Breath      ControlNumber = 2
	Volume      ControlNumber = 7
	Pan         ControlNumber = 10
	Expression  ControlNumber = 11
	Sustain     ControlNumber = 64
	AllNotesOff ControlNumber = 123
)

// NewControlNumber clamps c to 127.
func NewControlNumber(c uint8) ControlNumber { return ControlNumber(min(c, 127)) }
