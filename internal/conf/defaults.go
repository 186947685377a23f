package conf

import (
	"github.com/spf13/viper"
)

// Engine sizing defaults. Command and event capacities match one period of UI
// interaction with headroom.
const (
	DefaultCommandCapacity = 256
	DefaultEventCapacity   = 1024
	DefaultMidiCapacity    = 512
	DefaultPoolSize        = 256
	DefaultMaxFrames       = 1024
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("audio.backend", "auto")
	v.SetDefault("audio.device", "default")
	v.SetDefault("audio.samplerate", 48000)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("audio.bufferframes", 256)
	v.SetDefault("audio.inputenabled", false)
	v.SetDefault("audio.inputchannels", 2)
	v.SetDefault("audio.inputdevice", "default")
	v.SetDefault("audio.devicecachettl", 30)

	v.SetDefault("engine.commandcapacity", DefaultCommandCapacity)
	v.SetDefault("engine.eventcapacity", DefaultEventCapacity)
	v.SetDefault("engine.midicapacity", DefaultMidiCapacity)
	v.SetDefault("engine.poolsize", DefaultPoolSize)
	v.SetDefault("engine.maxframes", DefaultMaxFrames)
	v.SetDefault("engine.meterrate", 30.0)
	v.SetDefault("engine.playheadrate", 10.0)

	v.SetDefault("transport.tempo", 120.0)
	v.SetDefault("transport.numerator", 4)
	v.SetDefault("transport.denominator", 4)
	v.SetDefault("transport.metronome", false)
	v.SetDefault("transport.mastervolume", 1.0)

	v.SetDefault("recording.path", "recordings")
	v.SetDefault("recording.bitdepth", 16)
	v.SetDefault("recording.maxseconds", 60)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:9464")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.dsn", "")

	v.SetDefault("logging.default_level", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.file_output.enabled", false)
	v.SetDefault("logging.file_output.path", "logs/koto.log")
	v.SetDefault("logging.file_output.level", "debug")
}
