// Package conf loads koto settings from YAML files, KOTO_* environment
// variables and command-line flags through viper.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
)

// AudioSettings selects and shapes the hardware stream.
type AudioSettings struct {
	Backend        string `yaml:"backend" mapstructure:"backend"`               // "auto", "alsa", "pulse", "wasapi", "coreaudio", "null"
	Device         string `yaml:"device" mapstructure:"device"`                 // "default", a device name, ID or name fragment
	SampleRate     uint32 `yaml:"samplerate" mapstructure:"samplerate"`         // requested sample rate in Hz
	Channels       int    `yaml:"channels" mapstructure:"channels"`             // output channels
	BufferFrames   int    `yaml:"bufferframes" mapstructure:"bufferframes"`     // requested period size in frames
	InputEnabled   bool   `yaml:"inputenabled" mapstructure:"inputenabled"`     // open a duplex stream
	InputChannels  int    `yaml:"inputchannels" mapstructure:"inputchannels"`   // capture channels when input is enabled
	InputDevice    string `yaml:"inputdevice" mapstructure:"inputdevice"`       // capture device, same syntax as Device
	DeviceCacheTTL int    `yaml:"devicecachettl" mapstructure:"devicecachettl"` // seconds to cache device enumeration
}

// EngineSettings sizes the real-time engine. Everything here is allocated
// once at engine construction.
type EngineSettings struct {
	CommandCapacity int     `yaml:"commandcapacity" mapstructure:"commandcapacity"` // control to audio queue size
	EventCapacity   int     `yaml:"eventcapacity" mapstructure:"eventcapacity"`     // audio to control queue size
	MidiCapacity    int     `yaml:"midicapacity" mapstructure:"midicapacity"`       // MIDI events per period
	PoolSize        int     `yaml:"poolsize" mapstructure:"poolsize"`               // mono buffers in the processing pool
	MaxFrames       int     `yaml:"maxframes" mapstructure:"maxframes"`             // largest processing block
	MeterRate       float64 `yaml:"meterrate" mapstructure:"meterrate"`             // meter updates per second
	PlayheadRate    float64 `yaml:"playheadrate" mapstructure:"playheadrate"`       // playhead events per second
}

// TransportSettings are the initial transport values.
type TransportSettings struct {
	Tempo        float64 `yaml:"tempo" mapstructure:"tempo"`               // beats per minute
	Numerator    uint8   `yaml:"numerator" mapstructure:"numerator"`       // beats per bar
	Denominator  uint8   `yaml:"denominator" mapstructure:"denominator"`   // beat unit
	Metronome    bool    `yaml:"metronome" mapstructure:"metronome"`       // click enabled at startup
	MasterVolume float32 `yaml:"mastervolume" mapstructure:"mastervolume"` // 0.0 - 1.0
}

// RecordingSettings control the input capture export.
type RecordingSettings struct {
	Path       string `yaml:"path" mapstructure:"path"`             // directory for recorded takes
	BitDepth   int    `yaml:"bitdepth" mapstructure:"bitdepth"`     // 16, 24 or 32
	MaxSeconds int    `yaml:"maxseconds" mapstructure:"maxseconds"` // capture ring length in seconds
}

// MetricsSettings expose prometheus metrics over HTTP.
type MetricsSettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Listen  string `yaml:"listen" mapstructure:"listen"` // host:port for /metrics
}

// TelemetrySettings configure Sentry error reporting.
type TelemetrySettings struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

// Settings is the root configuration.
type Settings struct {
	Debug     bool                 `yaml:"debug" mapstructure:"debug"`
	Audio     AudioSettings        `yaml:"audio" mapstructure:"audio"`
	Engine    EngineSettings       `yaml:"engine" mapstructure:"engine"`
	Transport TransportSettings    `yaml:"transport" mapstructure:"transport"`
	Recording RecordingSettings    `yaml:"recording" mapstructure:"recording"`
	Metrics   MetricsSettings      `yaml:"metrics" mapstructure:"metrics"`
	Telemetry TelemetrySettings    `yaml:"telemetry" mapstructure:"telemetry"`
	Logging   logger.LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// ErrConfigRead is returned when an existing config file cannot be parsed.
var ErrConfigRead = errors.NewStd("error reading config file")

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into the global viper instance and validates it.
// An empty configFile searches the default paths; a missing file is not an error.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings, err := LoadFrom(viper.GetViper(), configFile)
	if err != nil {
		return nil, err
	}
	settingsInstance = settings
	return settings, nil
}

// LoadFrom reads configuration through v. Tests pass a fresh viper.New().
func LoadFrom(v *viper.Viper, configFile string) (*Settings, error) {
	if err := initViper(v, configFile); err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}
	return settings, nil
}

// initViper sets defaults, environment binding and reads the config file.
func initViper(v *viper.Viper, configFile string) error {
	setDefaultConfig(v)

	v.SetEnvPrefix("KOTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range DefaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return errors.New(fmt.Errorf("%w: %w", ErrConfigRead, err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("config_file", configFile).
			Build()
	}
	return nil
}

// DefaultConfigPaths lists the directories searched for config.yaml, in order.
func DefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "koto"))
	}
	return append(paths, "/etc/koto")
}

// Setting returns the most recently loaded settings, or defaults if Load was never called.
func Setting() *Settings {
	settingsMutex.RLock()
	if settingsInstance != nil {
		defer settingsMutex.RUnlock()
		return settingsInstance
	}
	settingsMutex.RUnlock()
	return Defaults()
}

// Defaults returns settings populated only from defaults.
func Defaults() *Settings {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	_ = v.Unmarshal(settings)
	return settings
}
