package engine

import (
	"github.com/u-stem/koto/internal/conf"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/observability/metrics"
	"github.com/u-stem/koto/internal/timebase"
)

// DefaultCaptureSeconds sizes the recording capture buffer.
const DefaultCaptureSeconds = 2

// Config describes the stream the engine renders and its queue sizes.
type Config struct {
	SampleRate    timebase.SampleRate
	Channels      int // device output channels
	InputChannels int // device capture channels, 0 without capture

	MaxFrames       int // largest block handed to nodes
	PoolSize        int // mono buffers available to the graph
	CommandCapacity int
	EventCapacity   int
	MidiCapacity    int

	MeterRate        float64 // MeterUpdate events per second, 0 selects 30
	PlayheadRate     float64 // PlayheadMoved events per second while playing, 0 selects 10
	MeterInterval    int     // frames per MeterUpdate, overrides MeterRate
	PlayheadInterval int     // frames per PlayheadMoved, overrides PlayheadRate
	CaptureSeconds   int     // seconds of input the capture buffer holds

	Tempo        timebase.Tempo
	Signature    timebase.TimeSignature
	Metronome    bool
	MasterVolume float32

	Metrics *metrics.EngineMetrics
	Logger  logger.Logger
}

// DefaultConfig returns a stereo 48 kHz configuration with default queue sizes.
func DefaultConfig() Config {
	return Config{
		SampleRate:      timebase.DefaultSampleRate,
		Channels:        2,
		MaxFrames:       conf.DefaultMaxFrames,
		PoolSize:        conf.DefaultPoolSize,
		CommandCapacity: conf.DefaultCommandCapacity,
		EventCapacity:   conf.DefaultEventCapacity,
		MidiCapacity:    conf.DefaultMidiCapacity,
		CaptureSeconds:  DefaultCaptureSeconds,
		Tempo:           timebase.DefaultTempoValue(),
		Signature:       timebase.CommonTime,
		MasterVolume:    1,
	}
}

// ConfigFromSettings builds a Config from application settings. Stream shape
// fields are later overridden with the format the device negotiated.
func ConfigFromSettings(s *conf.Settings) Config {
	cfg := DefaultConfig()
	cfg.SampleRate = timebase.SampleRate(s.Audio.SampleRate)
	cfg.Channels = s.Audio.Channels
	if s.Audio.InputEnabled {
		cfg.InputChannels = s.Audio.InputChannels
	}
	cfg.MaxFrames = s.Engine.MaxFrames
	cfg.PoolSize = s.Engine.PoolSize
	cfg.CommandCapacity = s.Engine.CommandCapacity
	cfg.EventCapacity = s.Engine.EventCapacity
	cfg.MidiCapacity = s.Engine.MidiCapacity
	cfg.MeterRate = s.Engine.MeterRate
	cfg.PlayheadRate = s.Engine.PlayheadRate
	cfg.Tempo = timebase.NewTempo(s.Transport.Tempo)
	cfg.Signature = timebase.TimeSignature{Numerator: s.Transport.Numerator, Denominator: s.Transport.Denominator}
	cfg.Metronome = s.Transport.Metronome
	cfg.MasterVolume = s.Transport.MasterVolume
	cfg.CaptureSeconds = s.Recording.MaxSeconds
	return cfg
}

// Validate checks the configuration and fills derived intervals.
func (c *Config) Validate() error {
	if err := c.SampleRate.Validate(); err != nil {
		return err
	}

	var problems []string
	if c.Channels < 1 {
		problems = append(problems, "channels must be at least 1")
	}
	if c.InputChannels < 0 {
		problems = append(problems, "input channels must not be negative")
	}
	if c.MaxFrames < 1 {
		problems = append(problems, "max frames must be positive")
	}
	if c.PoolSize < 1 {
		problems = append(problems, "pool size must be positive")
	}
	if c.CommandCapacity < 1 || c.EventCapacity < 1 || c.MidiCapacity < 1 {
		problems = append(problems, "queue capacities must be positive")
	}
	if !c.Signature.Valid() {
		problems = append(problems, "time signature "+c.Signature.String()+" is invalid")
	}
	if len(problems) > 0 {
		return errors.Newf("invalid engine config: %v", problems).
			Component(componentEngine).
			Category(errors.CategoryConfiguration).
			Context("problems", problems).
			Build()
	}

	if c.MeterInterval <= 0 {
		c.MeterInterval = max(framesPer(c.SampleRate, c.MeterRate, defaultMeterRate), c.MaxFrames)
	}
	if c.PlayheadInterval <= 0 {
		c.PlayheadInterval = max(framesPer(c.SampleRate, c.PlayheadRate, defaultPlayheadRate), 1)
	}
	if c.CaptureSeconds <= 0 {
		c.CaptureSeconds = DefaultCaptureSeconds
	}
	c.MasterVolume = clampVolume(c.MasterVolume)
	return nil
}

const (
	defaultMeterRate    = 30
	defaultPlayheadRate = 10
)

// framesPer converts an event rate in Hz to a frame interval.
func framesPer(rate timebase.SampleRate, hz, fallback float64) int {
	if hz <= 0 {
		hz = fallback
	}
	return int(float64(rate) / hz)
}

// clampVolume limits v to [0, 1]; NaN becomes 0.
func clampVolume(v float32) float32 {
	if v != v {
		return 0
	}
	return min(max(v, 0), 1)
}
