package engine

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/u-stem/koto/internal/audiocore"
	"github.com/u-stem/koto/internal/midi"
	"github.com/u-stem/koto/internal/rtqueue"
	"github.com/u-stem/koto/internal/timebase"
)

// Transport is the audio thread's view of playback.
type Transport struct {
	Playing     bool
	Recording   bool
	Playhead    timebase.SamplePosition
	Tempo       timebase.Tempo
	Signature   timebase.TimeSignature
	LoopEnabled bool
	LoopStart   timebase.SamplePosition
	LoopEnd     timebase.SamplePosition
}

// advance moves the playhead by frames, wrapping inside an active loop.
func (t *Transport) advance(frames int) {
	t.Playhead = t.Playhead.Advance(frames)
	if !t.LoopEnabled || t.LoopEnd <= t.LoopStart || t.Playhead < t.LoopEnd {
		return
	}
	length := t.LoopEnd - t.LoopStart
	t.Playhead = t.LoopStart + (t.Playhead-t.LoopEnd)%length
}

// audioState is owned by the audio thread. Nothing here is touched by the
// control thread after New returns.
type audioState struct {
	rate       timebase.SampleRate
	channels   int
	inChannels int
	maxFrames  int

	transport Transport
	volume    float32
	metronome bool

	active *plan
	pool   *audiocore.BufferPool
	lease  *audiocore.Lease

	input       *audiocore.AudioBuffer
	midiPending []midi.Event
	blockMidi   []midi.Event
	ctx         audiocore.ProcessContext

	events *rtqueue.Ring[Event]

	meter            meter
	meterInterval    int
	playheadInterval int
	playheadCount    int

	commandCounters [commandKindCount]prometheus.Counter
}

func newAudioState(cfg *Config, pool *audiocore.BufferPool, events *rtqueue.Ring[Event]) *audioState {
	s := &audioState{
		rate:       cfg.SampleRate,
		channels:   cfg.Channels,
		inChannels: cfg.InputChannels,
		maxFrames:  cfg.MaxFrames,
		transport: Transport{
			Tempo:     cfg.Tempo,
			Signature: cfg.Signature,
		},
		volume:           cfg.MasterVolume,
		metronome:        cfg.Metronome,
		pool:             pool,
		lease:            pool.NewLease(),
		midiPending:      make([]midi.Event, 0, cfg.MidiCapacity),
		blockMidi:        make([]midi.Event, 0, cfg.MidiCapacity),
		events:           events,
		meterInterval:    cfg.MeterInterval,
		playheadInterval: cfg.PlayheadInterval,
	}
	if cfg.InputChannels > 0 {
		s.input = audiocore.NewAudioBuffer(cfg.InputChannels, cfg.MaxFrames)
	}
	for k := range commandKindCount {
		s.commandCounters[k] = cfg.Metrics.CommandCounter(k.String())
	}
	return s
}

// emit queues ev; a full event ring drops it.
func (s *audioState) emit(ev Event) {
	s.events.TryPush(ev)
}

func (s *audioState) emitTransport() {
	s.emit(Event{
		Kind:      EventTransportStateChanged,
		Playing:   s.transport.Playing,
		Recording: s.transport.Recording,
	})
}

// apply executes one command.
func (s *audioState) apply(cmd Command) {
	if cmd.Kind < commandKindCount && s.commandCounters[cmd.Kind] != nil {
		s.commandCounters[cmd.Kind].Inc()
	}
	t := &s.transport
	switch cmd.Kind {
	case CmdPlay:
		t.Playing = true
		s.emitTransport()
	case CmdStop:
		t.Playing = false
		s.resetNodes()
		s.emitTransport()
	case CmdSeek:
		t.Playhead = max(cmd.Position, timebase.ZeroPosition)
		s.playheadCount = 0
		s.resetNodes()
	case CmdSetTempo:
		t.Tempo = timebase.NewTempo(cmd.Tempo.BPM())
	case CmdSetTimeSignature:
		if cmd.Signature.Valid() {
			t.Signature = cmd.Signature
		}
	case CmdStartRecording:
		t.Recording = true
		s.emitTransport()
	case CmdStopRecording:
		t.Recording = false
		s.emitTransport()
	case CmdSetMasterVolume:
		s.volume = clampVolume(cmd.Volume)
	case CmdSetMetronomeEnabled:
		s.metronome = cmd.Enabled
	case CmdSetLoop:
		t.LoopEnabled = cmd.Enabled
		t.LoopStart = max(cmd.LoopStart, timebase.ZeroPosition)
		t.LoopEnd = max(cmd.LoopEnd, timebase.ZeroPosition)
	}
}

func (s *audioState) resetNodes() {
	if s.active != nil {
		s.active.reset()
	}
}
