package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/timebase"
)

func TestValueClamping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Channel(15), NewChannel(200))
	assert.Equal(t, Note(127), NewNote(255))
	assert.Equal(t, Velocity(127), NewVelocity(128))
	assert.Equal(t, ControlNumber(127), NewControlNumber(130))
	assert.Equal(t, Velocity(80), DefaultVelocity)
}

func TestNoteNameAndFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		note Note
		name string
		freq float64
	}{
		{MiddleC, "C4", 261.6256},
		{69, "A4", 440},
		{70, "A#4", 466.1638},
		{0, "C-1", 8.1758},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.name, tt.note.Name())
			assert.InDelta(t, tt.freq, tt.note.Frequency(), 0.001)
		})
	}
}

func TestVelocityNormalized(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, float64(VelocityOff.Normalized()), 1e-6)
	assert.InDelta(t, 1.0, float64(VelocityMax.Normalized()), 1e-6)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want Message
	}{
		{"note on", []byte{0x91, 60, 100}, NoteOn(1, 60, 100)},
		{"velocity zero note on is note off", []byte{0x90, 64, 0}, NoteOff(0, 64, 0)},
		{"note off", []byte{0x82, 62, 40}, NoteOff(2, 62, 40)},
		{"control change", []byte{0xB0, 7, 90}, ControlChange(0, Volume, 90)},
		{"program change", []byte{0xC3, 12}, ProgramChange(3, 12)},
		{"pitch bend centre", []byte{0xE0, 0x00, 0x40}, PitchBend(0, 0)},
		{"pitch bend minimum", []byte{0xE0, 0x00, 0x00}, PitchBend(0, -8192)},
		{"pitch bend maximum", []byte{0xE0, 0x7F, 0x7F}, PitchBend(0, 8191)},
		{"channel pressure", []byte{0xD5, 33}, ChannelPressure(5, 33)},
		{"poly pressure", []byte{0xA0, 60, 70}, PolyPressure(0, 60, 70)},
		{"trailing bytes ignored", []byte{0xC0, 5, 0xFF}, ProgramChange(0, 5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse(nil)
	require.ErrorIs(t, err, ErrEmptyMessage)

	_, err = Parse([]byte{0x90, 60})
	require.ErrorIs(t, err, ErrShortMessage)

	_, err = Parse([]byte{0xF8})
	require.ErrorIs(t, err, ErrUnsupportedMessage)
}

func TestBytesDecodeBack(t *testing.T) {
	t.Parallel()

	msgs := []Message{
		NoteOn(9, 36, 127),
		ControlChange(0, Sustain, 127),
		PitchBend(4, -100),
	}
	for _, m := range msgs {
		got, err := Parse(m.Bytes())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	assert.Nil(t, Message{}.Bytes())
}

func TestSortByOffsetIsStable(t *testing.T) {
	t.Parallel()

	events := []Event{
		{SampleOffset: 10, Message: NoteOn(0, 1, 1)},
		{SampleOffset: 0, Message: NoteOn(0, 2, 1)},
		{SampleOffset: 10, Message: NoteOn(0, 3, 1)},
	}
	SortByOffset(events)
	assert.Equal(t, Note(2), events[0].Message.Note)
	assert.Equal(t, Note(1), events[1].Message.Note)
	assert.Equal(t, Note(3), events[2].Message.Note)
}

func TestTake(t *testing.T) {
	t.Parallel()

	var take Take
	assert.False(t, take.Record(0, Event{}), "recording before Start")

	take.Start()
	assert.True(t, take.Recording())
	assert.True(t, take.Record(4801, Event{SampleOffset: 1, Message: NoteOn(0, 60, 90)}))
	assert.True(t, take.Record(9602, Event{SampleOffset: 2, Message: NoteOff(0, 60, 0)}))

	events := take.Stop()
	assert.False(t, take.Recording())
	require.Len(t, events, 2)
	assert.Equal(t, timebase.SamplePosition(4801), events[0].Position)
	assert.Equal(t, KindNoteOff, events[1].Event.Message.Kind)

	take.Start()
	assert.Empty(t, take.Stop())
}
