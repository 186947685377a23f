package device

// DeviceInfo describes one playback or capture endpoint.
type DeviceInfo struct {
	ID         string
	Name       string
	SampleRate uint32 // native rate, 0 when unknown
	Channels   int    // native channels, 0 when unknown
	IsInput    bool
	IsOutput   bool
	IsDefault  bool
}

// Direction selects playback or capture endpoints.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Format is what the backend actually opened.
type Format struct {
	SampleRate    uint32
	Channels      int
	InputChannels int // 0 for playback-only streams
	BufferFrames  int // period size in frames
}

// StreamConfig requests a stream. Input is nil for playback only.
type StreamConfig struct {
	Output        DeviceInfo
	Input         *DeviceInfo
	SampleRate    uint32
	Channels      int
	InputChannels int
	BufferFrames  int
}

// StreamCallbacks are invoked by the backend. Data runs on the audio thread
// with interleaved float32 buffers; in is nil for playback-only streams.
// Stopped runs when the stream stops, requested or not.
type StreamCallbacks struct {
	Data    func(out, in []float32)
	Stopped func()
}

// Stream is an opened but not necessarily running stream.
type Stream interface {
	Format() Format
	Start() error
	Stop() error
	// Close releases the stream. The stream must be stopped.
	Close()
}

// Backend is a host audio API.
type Backend interface {
	Name() string
	Devices(dir Direction) ([]DeviceInfo, error)
	OpenStream(cfg StreamConfig, cb StreamCallbacks) (Stream, error)
	Close() error
}

// Processor renders one period. *engine.Engine implements it.
type Processor interface {
	Process(out, in []float32)
}

// ErrorReporter receives runtime device errors from any goroutine.
type ErrorReporter interface {
	ReportDeviceError(message string) bool
}
