// Package engine is the real-time audio engine. The control thread talks to
// it through lock-free command, MIDI and event rings; the audio thread runs
// Process once per hardware period and never allocates, blocks or logs.
//
// Graph edits are compiled off the audio thread into an immutable plan and
// published with an atomic pointer swap, so the audio thread always sees
// either the old or the new plan in full.
package engine

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/u-stem/koto/internal/audiocore"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/graph"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/midi"
	"github.com/u-stem/koto/internal/observability/metrics"
	"github.com/u-stem/koto/internal/rtqueue"
	"github.com/u-stem/koto/internal/timebase"
)

const componentEngine = "engine"

// noticeCapacity bounds out-of-band notices such as device errors.
const noticeCapacity = 64

// Engine owns the queues, the active plan and the audio-thread state.
type Engine struct {
	cfg     Config
	log     logger.Logger
	metrics *metrics.EngineMetrics

	// control side producers are serialized so each ring keeps one producer
	cmdMu    sync.Mutex
	commands *rtqueue.Ring[Command]
	midiMu   sync.Mutex
	midiIn   *rtqueue.Ring[midi.Event]
	events   *rtqueue.Ring[Event]

	// notices come from any goroutine and are consumed by ReceiveEvents
	noticeMu sync.Mutex
	recvMu   sync.Mutex
	notices  *rtqueue.Ring[Event]

	// graphMu serializes SetGraph; bound holds every node that has been
	// given the engine sample rate
	graphMu sync.Mutex
	bound   map[audiocore.Node]struct{}

	plan     atomic.Pointer[plan]
	recorder *Recorder
	take     midi.Take
	// playhead as of the end of the last period, stored by the audio thread
	position atomic.Int64

	audio *audioState
}

// New validates cfg and preallocates everything the audio thread touches.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module(componentEngine)
	}

	pool, err := audiocore.NewBufferPool(cfg.PoolSize, 1, cfg.MaxFrames)
	if err != nil {
		return nil, errors.New(err).
			Component(componentEngine).
			Category(errors.CategoryConfiguration).
			Context("pool_size", cfg.PoolSize).
			Build()
	}

	e := &Engine{
		cfg:      cfg,
		log:      log,
		metrics:  cfg.Metrics,
		commands: rtqueue.New[Command](cfg.CommandCapacity),
		midiIn:   rtqueue.New[midi.Event](cfg.MidiCapacity),
		events:   rtqueue.New[Event](cfg.EventCapacity),
		notices:  rtqueue.New[Event](noticeCapacity),
		bound:    make(map[audiocore.Node]struct{}),
	}
	if cfg.InputChannels > 0 {
		e.recorder = NewRecorder(cfg.CaptureSeconds*int(cfg.SampleRate), cfg.InputChannels, cfg.MaxFrames, cfg.Metrics)
	}
	e.audio = newAudioState(&cfg, pool, e.events)

	log.Info("engine created",
		logger.Int("sample_rate", int(cfg.SampleRate)),
		logger.Int("channels", cfg.Channels),
		logger.Int("input_channels", cfg.InputChannels),
		logger.Int("max_frames", cfg.MaxFrames),
		logger.Int("pool_size", cfg.PoolSize),
		logger.Int("meter_interval", cfg.MeterInterval),
		logger.Int("playhead_interval", cfg.PlayheadInterval))
	return e, nil
}

// SampleRate returns the rate the engine renders at.
func (e *Engine) SampleRate() timebase.SampleRate { return e.cfg.SampleRate }

// Channels returns the number of interleaved output channels Process expects.
func (e *Engine) Channels() int { return e.cfg.Channels }

// InputChannels returns the number of interleaved capture channels.
func (e *Engine) InputChannels() int { return e.cfg.InputChannels }

// Recorder returns the capture buffer, or nil when the engine has no input.
func (e *Engine) Recorder() *Recorder { return e.recorder }

// Position returns the playhead as of the last rendered period.
func (e *Engine) Position() timebase.SamplePosition {
	return timebase.SamplePosition(e.position.Load())
}

// StartTake discards any previous MIDI take and begins recording events
// passed to SendMIDI.
func (e *Engine) StartTake() { e.take.Start() }

// StopTake ends the MIDI take and returns its events on the timeline.
func (e *Engine) StopTake() []midi.Stamped { return e.take.Stop() }

// TakeRecording reports whether a MIDI take is in progress.
func (e *Engine) TakeRecording() bool { return e.take.Recording() }

// SetGraph compiles g and swaps it in. On error the previous plan stays active.
//
// A node receives SetSampleRate once, the first time it is published. It is
// never called again, since a published node may be running on the audio
// thread; the engine rate does not change.
func (e *Engine) SetGraph(g *graph.Graph) error {
	e.graphMu.Lock()
	defer e.graphMu.Unlock()

	snap, err := g.Snapshot()
	if err != nil {
		e.log.Warn("graph rejected, keeping previous plan", logger.Error(err))
		return err
	}
	if err := e.bindNodes(snap); err != nil {
		e.log.Warn("graph rejected, keeping previous plan", logger.Error(err))
		return err
	}
	p, err := compilePlan(snap, e.cfg.PoolSize)
	if err != nil {
		e.log.Warn("graph rejected, keeping previous plan", logger.Error(err))
		return err
	}
	e.plan.Store(p)
	e.log.Info("graph plan published",
		logger.Int("nodes", len(p.steps)),
		logger.Int("buffers", p.buffers),
		logger.Int("dropped_routes", p.droppedRoutes),
		logger.Int("latency_samples", p.latency))
	return nil
}

// bindNodes hands the engine rate to nodes seen for the first time. Nodes
// are tracked by identity, so their dynamic type must be comparable.
func (e *Engine) bindNodes(snap graph.Snapshot) error {
	for _, id := range snap.Order {
		node, ok := snap.Nodes[id]
		if !ok {
			continue
		}
		if !reflect.TypeOf(node).Comparable() {
			return errors.New(ErrNodeNotComparable).
				Component(componentEngine).
				Category(errors.CategoryGraph).
				Context("node_id", id.String()).
				Context("node_type", fmt.Sprintf("%T", node)).
				Build()
		}
	}
	for _, id := range snap.Order {
		node, ok := snap.Nodes[id]
		if !ok {
			continue
		}
		if _, seen := e.bound[node]; seen {
			continue
		}
		node.SetSampleRate(e.cfg.SampleRate)
		e.bound[node] = struct{}{}
	}
	return nil
}

// SendCommand queues cmd for the audio thread. It returns false when the
// command queue is full.
func (e *Engine) SendCommand(cmd Command) bool {
	e.cmdMu.Lock()
	ok := e.commands.TryPush(cmd)
	e.cmdMu.Unlock()
	if !ok {
		e.metrics.RecordQueueDrop(metrics.QueueCommand)
	}
	return ok
}

func (e *Engine) Play() bool { return e.SendCommand(Command{Kind: CmdPlay}) }
func (e *Engine) Stop() bool { return e.SendCommand(Command{Kind: CmdStop}) }

// Pause stops the transport and keeps the playhead where it is.
func (e *Engine) Pause() bool { return e.Stop() }

// Rewind moves the playhead to the start.
func (e *Engine) Rewind() bool { return e.Seek(timebase.ZeroPosition) }

func (e *Engine) Seek(pos timebase.SamplePosition) bool {
	return e.SendCommand(Command{Kind: CmdSeek, Position: pos})
}

func (e *Engine) SetTempo(t timebase.Tempo) bool {
	return e.SendCommand(Command{Kind: CmdSetTempo, Tempo: t})
}

func (e *Engine) SetTimeSignature(ts timebase.TimeSignature) bool {
	return e.SendCommand(Command{Kind: CmdSetTimeSignature, Signature: ts})
}

func (e *Engine) StartRecording() bool { return e.SendCommand(Command{Kind: CmdStartRecording}) }
func (e *Engine) StopRecording() bool  { return e.SendCommand(Command{Kind: CmdStopRecording}) }

// SetMasterVolume queues a volume change; the audio thread clamps it to [0, 1].
func (e *Engine) SetMasterVolume(v float32) bool {
	return e.SendCommand(Command{Kind: CmdSetMasterVolume, Volume: v})
}

func (e *Engine) SetMetronomeEnabled(enabled bool) bool {
	return e.SendCommand(Command{Kind: CmdSetMetronomeEnabled, Enabled: enabled})
}

// SetLoop enables or disables looping between start and end.
func (e *Engine) SetLoop(enabled bool, start, end timebase.SamplePosition) bool {
	return e.SendCommand(Command{Kind: CmdSetLoop, Enabled: enabled, LoopStart: start, LoopEnd: end})
}

// SendMIDI queues ev for the next period. SampleOffset is relative to the
// start of that period. A running take records the event at Position plus
// its offset, which is where the next period renders it unless a seek or
// loop wrap lands in between.
func (e *Engine) SendMIDI(ev midi.Event) bool {
	e.take.Record(e.Position().Advance(max(ev.SampleOffset, 0)), ev)
	e.midiMu.Lock()
	ok := e.midiIn.TryPush(ev)
	e.midiMu.Unlock()
	if !ok {
		e.metrics.RecordQueueDrop(metrics.QueueMIDI)
	}
	return ok
}

// SendMIDIBytes parses a raw MIDI message and queues it.
func (e *Engine) SendMIDIBytes(offset int, data []byte) (bool, error) {
	msg, err := midi.Parse(data)
	if err != nil {
		return false, err
	}
	return e.SendMIDI(midi.Event{SampleOffset: offset, Message: msg}), nil
}

// ReportDeviceError queues a DeviceError event from outside the audio
// thread. It is safe to call from any goroutine, including backend callbacks.
func (e *Engine) ReportDeviceError(message string) bool {
	e.noticeMu.Lock()
	ok := e.notices.TryPush(Event{Kind: EventDeviceError, Message: message})
	e.noticeMu.Unlock()
	if !ok {
		e.metrics.RecordQueueDrop(metrics.QueueNotice)
	}
	return ok
}

// ReceiveEvents appends every pending event to dst and returns it. Audio
// thread events come first, then out-of-band notices.
func (e *Engine) ReceiveEvents(dst []Event) []Event {
	e.recvMu.Lock()
	defer e.recvMu.Unlock()
	push := func(ev Event) { dst = append(dst, ev) }
	e.events.Drain(push)
	e.notices.Drain(push)
	return dst
}

// DroppedEvents returns how many events the audio thread could not queue.
func (e *Engine) DroppedEvents() uint64 { return e.events.Dropped() }
