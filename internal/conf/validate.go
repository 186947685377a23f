package conf

import (
	"fmt"
	"net"
	"slices"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

var (
	validBackends  = []string{"auto", "alsa", "pulse", "jack", "wasapi", "dsound", "coreaudio", "null"}
	validBitDepths = []int{16, 24, 32}
	validLevels    = []string{"", "trace", "debug", "info", "warn", "error"}
)

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateAudioSettings(&settings.Audio)...)
	ve.Errors = append(ve.Errors, validateEngineSettings(&settings.Engine)...)
	ve.Errors = append(ve.Errors, validateTransportSettings(&settings.Transport)...)
	ve.Errors = append(ve.Errors, validateRecordingSettings(&settings.Recording)...)
	ve.Errors = append(ve.Errors, validateServiceSettings(settings)...)

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateAudioSettings(a *AudioSettings) []string {
	var errs []string
	if !slices.Contains(validBackends, a.Backend) {
		errs = append(errs, fmt.Sprintf("audio.backend %q is not one of %v", a.Backend, validBackends))
	}
	if a.SampleRate < 8000 || a.SampleRate > 384000 {
		errs = append(errs, fmt.Sprintf("audio.samplerate %d must be between 8000 and 384000", a.SampleRate))
	}
	if a.Channels < 1 || a.Channels > 32 {
		errs = append(errs, fmt.Sprintf("audio.channels %d must be between 1 and 32", a.Channels))
	}
	if a.BufferFrames < 16 || a.BufferFrames > 8192 {
		errs = append(errs, fmt.Sprintf("audio.bufferframes %d must be between 16 and 8192", a.BufferFrames))
	}
	if a.InputEnabled && (a.InputChannels < 1 || a.InputChannels > 32) {
		errs = append(errs, fmt.Sprintf("audio.inputchannels %d must be between 1 and 32", a.InputChannels))
	}
	if a.DeviceCacheTTL < 0 {
		errs = append(errs, "audio.devicecachettl must not be negative")
	}
	return errs
}

func validateEngineSettings(e *EngineSettings) []string {
	var errs []string
	if e.CommandCapacity < 2 {
		errs = append(errs, "engine.commandcapacity must be at least 2")
	}
	if e.EventCapacity < 2 {
		errs = append(errs, "engine.eventcapacity must be at least 2")
	}
	if e.MidiCapacity < 1 {
		errs = append(errs, "engine.midicapacity must be at least 1")
	}
	if e.PoolSize < 1 {
		errs = append(errs, "engine.poolsize must be at least 1")
	}
	if e.MaxFrames < 16 {
		errs = append(errs, "engine.maxframes must be at least 16")
	}
	if e.MeterRate <= 0 || e.PlayheadRate <= 0 {
		errs = append(errs, "engine.meterrate and engine.playheadrate must be positive")
	}
	return errs
}

func validateTransportSettings(t *TransportSettings) []string {
	var errs []string
	if t.Tempo < 20 || t.Tempo > 999 {
		errs = append(errs, fmt.Sprintf("transport.tempo %.2f must be between 20 and 999", t.Tempo))
	}
	if t.Numerator == 0 {
		errs = append(errs, "transport.numerator must be at least 1")
	}
	if d := t.Denominator; d == 0 || d&(d-1) != 0 {
		errs = append(errs, fmt.Sprintf("transport.denominator %d must be a power of two", d))
	}
	if t.MasterVolume < 0 || t.MasterVolume > 1 {
		errs = append(errs, "transport.mastervolume must be between 0 and 1")
	}
	return errs
}

func validateRecordingSettings(r *RecordingSettings) []string {
	var errs []string
	if !slices.Contains(validBitDepths, r.BitDepth) {
		errs = append(errs, fmt.Sprintf("recording.bitdepth %d must be one of %v", r.BitDepth, validBitDepths))
	}
	if r.MaxSeconds < 1 {
		errs = append(errs, "recording.maxseconds must be at least 1")
	}
	if strings.TrimSpace(r.Path) == "" {
		errs = append(errs, "recording.path must not be empty")
	}
	return errs
}

func validateServiceSettings(s *Settings) []string {
	var errs []string
	if s.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(s.Metrics.Listen); err != nil {
			errs = append(errs, fmt.Sprintf("metrics.listen %q: %v", s.Metrics.Listen, err))
		}
	}
	if s.Telemetry.Enabled && s.Telemetry.DSN == "" {
		errs = append(errs, "telemetry.dsn is required when telemetry is enabled")
	}
	if !slices.Contains(validLevels, s.Logging.DefaultLevel) {
		errs = append(errs, fmt.Sprintf("logging.default_level %q is not a known level", s.Logging.DefaultLevel))
	}
	return errs
}
