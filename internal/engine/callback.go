package engine

import (
	"time"

	"github.com/u-stem/koto/internal/audiocore"
	"github.com/u-stem/koto/internal/midi"
)

// panicMessage is constant so recovery never allocates.
const panicMessage = "audio callback panicked; output silenced"

// Process renders one hardware period. out holds Channels() interleaved
// channels and in holds InputChannels() interleaved channels, or is nil.
// It must only be called from the audio thread.
func (e *Engine) Process(out, in []float32) {
	start := time.Now()
	s := e.audio
	defer func() {
		if r := recover(); r != nil {
			clear(out)
			s.lease.Close()
			e.notifyPanic()
		}
	}()

	e.commands.Drain(s.apply)
	e.swapPlan()

	channels := s.channels
	frames := len(out) / channels
	e.collectMIDI(frames)
	inFrames := 0
	if s.inChannels > 0 {
		inFrames = len(in) / s.inChannels
	}

	if s.transport.Recording && inFrames > 0 && e.recorder != nil {
		e.recorder.Capture(in[:inFrames*s.inChannels])
	}

	clear(out)
	for offset := 0; offset < frames; offset += s.maxFrames {
		n := min(s.maxFrames, frames-offset)
		block := out[offset*channels : (offset+n)*channels]

		if s.transport.Playing {
			e.renderBlock(block, in, offset, n, inFrames)
			if s.metronome {
				addClick(block, channels, n, s.transport.Playhead, s.transport.Tempo, s.transport.Signature, s.rate)
			}
			s.transport.advance(n)
		}

		audiocore.ScaleSamples(block, s.volume)
		s.meterBlock(block, n)
		s.playheadTick(n)
	}
	e.position.Store(int64(s.transport.Playhead))

	elapsed := time.Since(start)
	e.metrics.RecordCallback(frames, elapsed.Seconds())
	if frames > 0 && elapsed.Seconds() > float64(frames)/s.rate.Hz() {
		s.emit(Event{Kind: EventBufferUnderrun})
		e.metrics.RecordUnderrun()
	}
}

// swapPlan picks up a plan published by SetGraph.
func (e *Engine) swapPlan() {
	s := e.audio
	p := e.plan.Load()
	if p == s.active {
		return
	}
	s.active = p
	if p != nil && p.droppedRoutes > 0 {
		s.emit(Event{Kind: EventGraphError, DroppedRoutes: p.droppedRoutes})
	}
	if p != nil {
		e.metrics.SetDroppedRoutes(p.droppedRoutes)
	}
}

// collectMIDI drains queued MIDI into midiPending, sorted by offset, with
// offsets clamped into the period.
func (e *Engine) collectMIDI(frames int) {
	s := e.audio
	s.midiPending = s.midiPending[:0]
	for len(s.midiPending) < cap(s.midiPending) {
		ev, ok := e.midiIn.TryPop()
		if !ok {
			break
		}
		ev.SampleOffset = min(max(ev.SampleOffset, 0), max(frames-1, 0))
		s.midiPending = append(s.midiPending, ev)
	}
	midi.SortByOffset(s.midiPending)
}

// renderBlock runs the active plan over frames [offset, offset+n) of the period.
func (e *Engine) renderBlock(block, in []float32, offset, n, inFrames int) {
	s := e.audio
	if s.active == nil {
		return
	}

	ctx := &s.ctx
	ctx.SampleRate = s.rate
	ctx.Tempo = s.transport.Tempo
	ctx.TimeSignature = s.transport.Signature
	ctx.Playhead = s.transport.Playhead
	ctx.Frames = n
	ctx.Playing = s.transport.Playing
	ctx.Recording = s.transport.Recording
	ctx.Input = nil
	ctx.InputFrames = 0
	if s.input != nil && offset < inFrames {
		count := min(n, inFrames-offset)
		dst := s.input.Samples()
		clear(dst)
		copy(dst, in[offset*s.inChannels:(offset+count)*s.inChannels])
		ctx.Input = s.input
		ctx.InputFrames = count
	}

	// offsets become relative to this block
	s.blockMidi = s.blockMidi[:0]
	for _, ev := range s.midiPending {
		if ev.SampleOffset < offset || ev.SampleOffset >= offset+n {
			continue
		}
		ev.SampleOffset -= offset
		s.blockMidi = append(s.blockMidi, ev)
	}
	ctx.MidiEvents = s.blockMidi

	if !s.active.render(s.lease, block, s.channels, n, ctx) {
		e.metrics.RecordPoolExhausted()
	}
}

// notifyPanic reports a recovered panic without blocking.
func (e *Engine) notifyPanic() {
	e.metrics.RecordPanic()
	ev := Event{Kind: EventDeviceError, Message: panicMessage}
	if e.noticeMu.TryLock() {
		e.notices.TryPush(ev)
		e.noticeMu.Unlock()
		return
	}
	e.audio.emit(ev)
}
