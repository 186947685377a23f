package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/u-stem/koto/internal/errors"
)

// ComponentMIDI identifies MIDI errors.
const ComponentMIDI = "midi"

var (
	// ErrEmptyMessage is returned for zero-length input
	ErrEmptyMessage = errors.NewStd("empty midi message")
	// ErrShortMessage is returned when data bytes are missing
	ErrShortMessage = errors.NewStd("truncated midi message")
	// ErrUnsupportedMessage is returned for system and unknown status bytes
	ErrUnsupportedMessage = errors.NewStd("unsupported midi message")
)

// Kind identifies a channel-voice message.
type Kind uint8

// Message kinds.
const (
	KindNoteOn Kind = iota + 1
	KindNoteOff
	KindControlChange
	KindProgramChange
	KindPitchBend
	KindChannelPressure
	KindPolyPressure
)

func (k Kind) String() string {
	switch k {
	case KindNoteOn:
		return "NoteOn"
	case KindNoteOff:
		return "NoteOff"
	case KindControlChange:
		return "ControlChange"
	case KindProgramChange:
		return "ProgramChange"
	case KindPitchBend:
		return "PitchBend"
	case KindChannelPressure:
		return "ChannelPressure"
	case KindPolyPressure:
		return "PolyPressure"
	default:
		return "Unknown"
	}
}

// Message is a decoded channel-voice message. It is a plain value so it can
// travel through the lock-free queues without allocation. Only the fields
// relevant to Kind are set.
type Message struct {
	Kind     Kind
	Channel  Channel
	Note     Note          // NoteOn, NoteOff, PolyPressure
	Velocity Velocity      // NoteOn, NoteOff
	Control  ControlNumber // ControlChange
	// Value is the controller value, program number or pressure
	Value uint8
	// Bend is the pitch bend amount in -8192..8191, zero at centre
	Bend int16
}

// NoteOn builds a note-on message.
func NoteOn(ch Channel, note Note, vel Velocity) Message {
	return Message{Kind: KindNoteOn, Channel: ch, Note: note, Velocity: vel}
}

// NoteOff builds a note-off message.
func NoteOff(ch Channel, note Note, vel Velocity) Message {
	return Message{Kind: KindNoteOff, Channel: ch, Note: note, Velocity: vel}
}

// ControlChange builds a control change message.
func ControlChange(ch Channel, control ControlNumber, value uint8) Message {
	return Message{Kind: KindControlChange, Channel: ch, Control: control, Value: min(value, 127)}
}

// ProgramChange builds a program change message.
func ProgramChange(ch Channel, program uint8) Message {
	return Message{Kind: KindProgramChange, Channel: ch, Value: min(program, 127)}
}

// PitchBend builds a pitch bend message, clamping bend to -8192..8191.
func PitchBend(ch Channel, bend int16) Message {
	return Message{Kind: KindPitchBend, Channel: ch, Bend: min(max(bend, -8192), 8191)}
}

// ChannelPressure builds a channel aftertouch message.
func ChannelPressure(ch Channel, pressure uint8) Message {
	return Message{Kind: KindChannelPressure, Channel: ch, Value: min(pressure, 127)}
}

// PolyPressure builds a polyphonic key pressure message.
func PolyPressure(ch Channel, note Note, pressure uint8) Message {
	return Message{Kind: KindPolyPressure, Channel: ch, Note: note, Value: min(pressure, 127)}
}

// messageLength returns the full length of a channel-voice message for a
// status byte, or zero when the status is not a channel-voice status.
func messageLength(status byte) int {
	switch status & 0xF0 {
	case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
		return 3
	case 0xC0, 0xD0:
		return 2
	default:
		return 0
	}
}

// Parse decodes one channel-voice message from raw bytes. A note-on with
// velocity zero decodes as NoteOff. Trailing bytes are ignored.
func Parse(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, ErrEmptyMessage
	}
	n := messageLength(data[0])
	if n == 0 {
		return Message{}, errors.New(ErrUnsupportedMessage).
			Component(ComponentMIDI).
			Category(errors.CategoryMIDI).
			Context("status", data[0]).
			Build()
	}
	if len(data) < n {
		return Message{}, errors.New(ErrShortMessage).
			Component(ComponentMIDI).
			Category(errors.CategoryMIDI).
			Context("status", data[0]).
			Context("length", len(data)).
			Build()
	}

	msg := gomidi.Message(data[:n])
	var ch, key, vel, value uint8
	var rel int16
	var abs uint16

	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return NoteOn(NewChannel(ch), NewNote(key), NewVelocity(vel)), nil
	case msg.GetNoteEnd(&ch, &key):
		// velocity is not exposed by GetNoteEnd; it is zero for the note-on form
		return NoteOff(NewChannel(ch), NewNote(key), NewVelocity(data[2])), nil
	case msg.GetControlChange(&ch, &key, &value):
		return ControlChange(NewChannel(ch), NewControlNumber(key), value), nil
	case msg.GetProgramChange(&ch, &value):
		return ProgramChange(NewChannel(ch), value), nil
	case msg.GetPitchBend(&ch, &rel, &abs):
		return PitchBend(NewChannel(ch), rel), nil
	case msg.GetAfterTouch(&ch, &value):
		return ChannelPressure(NewChannel(ch), value), nil
	case msg.GetPolyAfterTouch(&ch, &key, &value):
		return PolyPressure(NewChannel(ch), NewNote(key), value), nil
	}
	return Message{}, errors.New(ErrUnsupportedMessage).
		Component(ComponentMIDI).
		Category(errors.CategoryMIDI).
		Context("status", data[0]).
		Build()
}

// Bytes encodes the message in wire format.
func (m Message) Bytes() []byte {
	ch := uint8(m.Channel)
	switch m.Kind {
	case KindNoteOn:
		return gomidi.NoteOn(ch, uint8(m.Note), uint8(m.Velocity))
	case KindNoteOff:
		return gomidi.NoteOffVelocity(ch, uint8(m.Note), uint8(m.Velocity))
	case KindControlChange:
		return gomidi.ControlChange(ch, uint8(m.Control), m.Value)
	case KindProgramChange:
		return gomidi.ProgramChange(ch, m.Value)
	case KindPitchBend:
		return gomidi.Pitchbend(ch, m.Bend)
	case KindChannelPressure:
		return gomidi.AfterTouch(ch, m.Value)
	case KindPolyPressure:
		return gomidi.PolyAfterTouch(ch, uint8(m.Note), m.Value)
	default:
		return nil
	}
}

func (m Message) String() string {
	if b := m.Bytes(); b != nil {
		return gomidi.Message(b).String()
	}
	return "Unknown"
}
