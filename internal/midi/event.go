package midi

import (
	"slices"
	"sync"

	"github.com/u-stem/koto/internal/timebase"
)

// Event is a message scheduled at a sample offset. Inside a ProcessContext
// the offset is relative to the first frame of the block.
type Event struct {
	SampleOffset int
	Message      Message
}

// SortByOffset orders events by SampleOffset, keeping arrival order for ties.
// It does not allocate.
func SortByOffset(events []Event) {
	slices.SortStableFunc(events, func(a, b Event) int {
		return a.SampleOffset - b.SampleOffset
	})
}

// Stamped is a recorded event placed on the timeline.
type Stamped struct {
	Position timebase.SamplePosition
	Event    Event
}

// Take collects events between Start and Stop on the control thread.
type Take struct {
	mu        sync.Mutex
	recording bool
	events    []Stamped
}

// Start clears any previous take and begins collecting.
func (t *Take) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = true
	t.events = t.events[:0]
}

// Record appends ev at pos when a take is in progress.
func (t *Take) Record(pos timebase.SamplePosition, ev Event) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.recording {
		return false
	}
	t.events = append(t.events, Stamped{Position: pos, Event: ev})
	return true
}

// Stop ends the take and returns the collected events in arrival order.
func (t *Take) Stop() []Stamped {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = false
	events := t.events
	t.events = nil
	return events
}

// Recording reports whether a take is in progress.
func (t *Take) Recording() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recording
}
