// Package device opens hardware audio streams and feeds them from a
// Processor. The production backend is miniaudio through malgo; tests use
// an in-memory backend.
package device

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/u-stem/koto/internal/conf"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/observability/metrics"
)

// DefaultCacheTTL is how long device enumerations are reused.
const DefaultCacheTTL = 30 * time.Second

// Config requests a stream shape and the devices to use.
type Config struct {
	Device        string // output device name, ID or name fragment
	InputDevice   string // capture device, same syntax
	SampleRate    uint32
	Channels      int
	BufferFrames  int
	InputEnabled  bool
	InputChannels int
}

// ConfigFromSettings maps the audio section of the settings.
func ConfigFromSettings(a *conf.AudioSettings) Config {
	return Config{
		Device:        a.Device,
		InputDevice:   a.InputDevice,
		SampleRate:    a.SampleRate,
		Channels:      a.Channels,
		BufferFrames:  a.BufferFrames,
		InputEnabled:  a.InputEnabled,
		InputChannels: a.InputChannels,
	}
}

// Manager enumerates devices, caching the results, and opens sessions.
type Manager struct {
	backend Backend
	devices *cache.Cache
	metrics *metrics.DeviceMetrics
	log     logger.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMetrics records enumeration and session metrics.
func WithMetrics(m *metrics.DeviceMetrics) ManagerOption {
	return func(mg *Manager) { mg.metrics = m }
}

// WithLogger replaces the module logger.
func WithLogger(l logger.Logger) ManagerOption {
	return func(mg *Manager) {
		if l != nil {
			mg.log = l
		}
	}
}

// NewManager wraps backend. Enumerations are cached for ttl, or
// DefaultCacheTTL when ttl is not positive.
func NewManager(backend Backend, ttl time.Duration, opts ...ManagerOption) *Manager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	m := &Manager{
		backend: backend,
		// no janitor goroutine; expired entries are dropped on lookup
		devices: cache.New(ttl, 0),
		log:     logger.Global().Module(ComponentDevice),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Backend returns the wrapped host API.
func (m *Manager) Backend() Backend { return m.backend }

// Devices lists endpoints for dir, from the cache when fresh.
func (m *Manager) Devices(dir Direction) ([]DeviceInfo, error) {
	key := dir.String()
	if cached, ok := m.devices.Get(key); ok {
		m.metrics.RecordEnumeration(metrics.SourceCache, 0)
		return cached.([]DeviceInfo), nil
	}

	start := time.Now()
	devices, err := m.backend.Devices(dir)
	if err != nil {
		m.metrics.RecordDeviceError(KindNoHost.String())
		return nil, err
	}
	m.metrics.RecordEnumeration(metrics.SourceBackend, time.Since(start).Seconds())
	m.devices.Set(key, devices, cache.DefaultExpiration)
	m.log.Debug("devices enumerated",
		logger.String("direction", key),
		logger.Int("count", len(devices)),
		logger.Duration("elapsed", time.Since(start)))
	return devices, nil
}

// AllDevices lists playback devices followed by capture devices.
func (m *Manager) AllDevices() ([]DeviceInfo, error) {
	outputs, err := m.Devices(Output)
	if err != nil {
		return nil, err
	}
	inputs, err := m.Devices(Input)
	if err != nil {
		return nil, err
	}
	return append(append(make([]DeviceInfo, 0, len(outputs)+len(inputs)), outputs...), inputs...), nil
}

// Refresh drops cached enumerations.
func (m *Manager) Refresh() { m.devices.Flush() }

// Open selects devices and opens a stream for cfg. The returned session is
// not started. On error nothing stays open.
func (m *Manager) Open(cfg Config, reporter ErrorReporter) (*Session, error) {
	s, err := m.open(cfg, reporter)
	if err != nil {
		if kind, ok := KindOf(err); ok {
			m.metrics.RecordDeviceError(kind.String())
		}
		m.metrics.RecordSessionOpen(m.backend.Name(), err, 0, 0)
		m.log.Error("failed to open audio session", logger.Error(err))
		return nil, err
	}
	m.metrics.RecordSessionOpen(m.backend.Name(), nil, int(s.format.SampleRate), s.format.BufferFrames)
	return s, nil
}

func (m *Manager) open(cfg Config, reporter ErrorReporter) (*Session, error) {
	if cfg.SampleRate == 0 || cfg.Channels < 1 || cfg.BufferFrames < 0 {
		return nil, newError(KindConfig, "validate_config",
			fmt.Errorf("invalid stream request: %d Hz, %d channels, %d frames", cfg.SampleRate, cfg.Channels, cfg.BufferFrames))
	}

	outputs, err := m.Devices(Output)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, newError(KindNoOutputDevice, "select_output", fmt.Errorf("no playback devices"))
	}
	output, err := SelectDevice(outputs, cfg.Device)
	if err != nil {
		return nil, newError(KindNoOutputDevice, "select_output", err)
	}

	req := StreamConfig{
		Output:       output,
		SampleRate:   cfg.SampleRate,
		Channels:     cfg.Channels,
		BufferFrames: cfg.BufferFrames,
	}
	if cfg.InputEnabled {
		if cfg.InputChannels < 1 {
			return nil, newError(KindConfig, "validate_config", fmt.Errorf("input enabled with %d channels", cfg.InputChannels))
		}
		inputs, err := m.Devices(Input)
		if err != nil {
			return nil, err
		}
		if len(inputs) == 0 {
			return nil, newError(KindNoInputDevice, "select_input", fmt.Errorf("no capture devices"))
		}
		input, err := SelectDevice(inputs, cfg.InputDevice)
		if err != nil {
			return nil, newError(KindNoInputDevice, "select_input", err)
		}
		req.Input = &input
		req.InputChannels = cfg.InputChannels
	}

	s := &Session{
		id:       uuid.NewString(),
		backend:  m.backend.Name(),
		output:   output,
		input:    req.Input,
		reporter: reporter,
		metrics:  m.metrics,
	}
	s.log = m.log.With(logger.String("session_id", s.id))

	stream, err := m.backend.OpenStream(req, StreamCallbacks{Data: s.onData, Stopped: s.onStopped})
	if err != nil {
		if _, ok := KindOf(err); ok {
			return nil, err
		}
		return nil, newError(KindConfig, "open_stream", err)
	}

	format := stream.Format()
	if format.SampleRate == 0 || format.Channels < 1 || (req.Input != nil && format.InputChannels < 1) {
		stream.Close()
		return nil, newError(KindConfig, "negotiate_format",
			fmt.Errorf("backend negotiated %d Hz, %d out, %d in", format.SampleRate, format.Channels, format.InputChannels))
	}
	if format.BufferFrames <= 0 {
		format.BufferFrames = cfg.BufferFrames
	}
	s.stream = stream
	s.format = format

	s.log.Info("audio session opened",
		logger.String("backend", s.backend),
		logger.String("output", output.Name),
		logger.Int("sample_rate", int(format.SampleRate)),
		logger.Int("channels", format.Channels),
		logger.Int("input_channels", format.InputChannels),
		logger.Int("buffer_frames", format.BufferFrames))
	return s, nil
}

// Close releases the backend.
func (m *Manager) Close() error {
	m.devices.Flush()
	return m.backend.Close()
}
