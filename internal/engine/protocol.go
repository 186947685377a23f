package engine

import (
	"fmt"

	"github.com/u-stem/koto/internal/timebase"
)

// CommandKind identifies a control command.
type CommandKind uint8

// Command kinds.
const (
	CmdPlay CommandKind = iota
	CmdStop
	CmdSeek
	CmdSetTempo
	CmdSetTimeSignature
	CmdStartRecording
	CmdStopRecording
	CmdSetMasterVolume
	CmdSetMetronomeEnabled
	CmdSetLoop
	commandKindCount
)

var commandNames = [commandKindCount]string{
	CmdPlay:                "play",
	CmdStop:                "stop",
	CmdSeek:                "seek",
	CmdSetTempo:            "set_tempo",
	CmdSetTimeSignature:    "set_time_signature",
	CmdStartRecording:      "start_recording",
	CmdStopRecording:       "stop_recording",
	CmdSetMasterVolume:     "set_master_volume",
	CmdSetMetronomeEnabled: "set_metronome_enabled",
	CmdSetLoop:             "set_loop",
}

func (k CommandKind) String() string {
	if k < commandKindCount {
		return commandNames[k]
	}
	return fmt.Sprintf("command(%d)", uint8(k))
}

// Command is a control message for the audio thread. Only the fields used by
// Kind are meaningful.
type Command struct {
	Kind      CommandKind
	Position  timebase.SamplePosition // Seek
	Tempo     timebase.Tempo          // SetTempo
	Signature timebase.TimeSignature  // SetTimeSignature
	Volume    float32                 // SetMasterVolume
	Enabled   bool                    // SetMetronomeEnabled, SetLoop
	LoopStart timebase.SamplePosition // SetLoop
	LoopEnd   timebase.SamplePosition // SetLoop
}

// EventKind identifies a status event.
type EventKind uint8

// Event kinds.
const (
	EventPlayheadMoved EventKind = iota
	EventMeterUpdate
	EventTransportStateChanged
	EventDeviceError
	EventBufferUnderrun
	EventGraphError
)

func (k EventKind) String() string {
	switch k {
	case EventPlayheadMoved:
		return "playhead_moved"
	case EventMeterUpdate:
		return "meter_update"
	case EventTransportStateChanged:
		return "transport_state_changed"
	case EventDeviceError:
		return "device_error"
	case EventBufferUnderrun:
		return "buffer_underrun"
	case EventGraphError:
		return "graph_error"
	default:
		return fmt.Sprintf("event(%d)", uint8(k))
	}
}

// MeterLevels are linear peak and RMS values of the first two output channels.
type MeterLevels struct {
	PeakLeft  float32
	PeakRight float32
	RMSLeft   float32
	RMSRight  float32
}

// Event is a status message from the audio thread. Only the fields used by
// Kind are meaningful.
type Event struct {
	Kind      EventKind
	Position  timebase.SamplePosition // PlayheadMoved
	Meter     MeterLevels             // MeterUpdate
	Playing   bool                    // TransportStateChanged
	Recording bool                    // TransportStateChanged
	Message   string                  // DeviceError
	// DroppedRoutes counts connections the active plan skipped (GraphError)
	DroppedRoutes int
}

func (e Event) String() string {
	switch e.Kind {
	case EventPlayheadMoved:
		return fmt.Sprintf("%s %s", e.Kind, e.Position)
	case EventMeterUpdate:
		return fmt.Sprintf("%s peak=%.3f/%.3f rms=%.3f/%.3f", e.Kind,
			e.Meter.PeakLeft, e.Meter.PeakRight, e.Meter.RMSLeft, e.Meter.RMSRight)
	case EventTransportStateChanged:
		return fmt.Sprintf("%s playing=%t recording=%t", e.Kind, e.Playing, e.Recording)
	case EventDeviceError:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case EventGraphError:
		return fmt.Sprintf("%s dropped=%d", e.Kind, e.DroppedRoutes)
	default:
		return e.Kind.String()
	}
}
