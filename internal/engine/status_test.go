package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/u-stem/koto/internal/timebase"
)

func TestStatusApplyLatestWins(t *testing.T) {
	t.Parallel()

	var s Status
	s.Apply([]Event{
		{Kind: EventTransportStateChanged, Playing: true},
		{Kind: EventPlayheadMoved, Position: 4800},
		{Kind: EventMeterUpdate, Meter: MeterLevels{PeakLeft: 0.25}},
		{Kind: EventPlayheadMoved, Position: 9600},
		{Kind: EventBufferUnderrun},
		{Kind: EventBufferUnderrun},
		{Kind: EventDeviceError, Message: "stream stopped"},
		{Kind: EventGraphError, DroppedRoutes: 3},
		{Kind: EventTransportStateChanged, Playing: true, Recording: true},
	})

	assert.True(t, s.Playing)
	assert.True(t, s.Recording)
	assert.Equal(t, timebase.SamplePosition(9600), s.Playhead)
	assert.InDelta(t, 0.2, s.PlayheadSeconds(timebase.Rate48000), 1e-12)
	assert.Equal(t, float32(0.25), s.Meter.PeakLeft)
	assert.Equal(t, uint64(2), s.Underruns)
	assert.Equal(t, "stream stopped", s.LastDeviceError)
	assert.Equal(t, 3, s.DroppedRoutes)
}

func TestStatusReporterPoll(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	r := NewStatusReporter(e, 10)

	assert.Empty(t, r.Poll())

	e.Play()
	e.Process(make([]float32, 2*64), nil)
	e.ReportDeviceError("device lost")

	events := r.Poll()
	assert.NotEmpty(t, events)
	st := r.Status()
	assert.True(t, st.Playing)
	assert.Equal(t, "device lost", st.LastDeviceError)
}

func TestPeakToDBFS(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, PeakToDBFS(1), 1e-9)
	assert.InDelta(t, -6.0206, PeakToDBFS(0.5), 1e-3)
	assert.Equal(t, SilenceDBFS, PeakToDBFS(0))
	assert.Equal(t, SilenceDBFS, PeakToDBFS(1e-9))
}
