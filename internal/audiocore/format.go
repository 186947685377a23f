package audiocore

import (
	"time"

	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/timebase"
)

// ChannelCount is the number of interleaved channels in a stream.
type ChannelCount uint16

// Channel layouts.
const (
	Mono   ChannelCount = 1
	Stereo ChannelCount = 2
)

// BufferSize is a hardware period length in frames.
type BufferSize uint32

// Common period sizes.
const (
	BufferSize64   BufferSize = 64
	BufferSize256  BufferSize = 256
	BufferSize512  BufferSize = 512
	BufferSize1024 BufferSize = 1024

	DefaultBufferSize = BufferSize256
)

// Period sizes accepted by Format.Validate.
const (
	MinBufferSize BufferSize = 16
	MaxBufferSize BufferSize = 8192
)

// ErrInvalidBufferSize is returned for periods outside [MinBufferSize, MaxBufferSize].
var ErrInvalidBufferSize = errors.NewStd("invalid buffer size")

// Format is a negotiated stream configuration.
type Format struct {
	SampleRate timebase.SampleRate
	Channels   ChannelCount
	BufferSize BufferSize
}

// DefaultFormat is 48 kHz stereo with a 256-frame period.
func DefaultFormat() Format {
	return Format{
		SampleRate: timebase.DefaultSampleRate,
		Channels:   Stereo,
		BufferSize: DefaultBufferSize,
	}
}

// Validate checks sample rate, channel count and period size.
func (f Format) Validate() error {
	if err := f.SampleRate.Validate(); err != nil {
		return err
	}
	if f.Channels == 0 {
		return errors.Newf("channel count must be at least 1").
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}
	if f.BufferSize < MinBufferSize || f.BufferSize > MaxBufferSize {
		return errors.New(ErrInvalidBufferSize).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Context("buffer_size", uint32(f.BufferSize)).
			Build()
	}
	return nil
}

// PeriodDuration is the wall-clock length of one period.
func (f Format) PeriodDuration() time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(uint64(f.BufferSize) * uint64(time.Second) / uint64(f.SampleRate))
}

// StereoFrame is one left/right sample pair.
type StereoFrame struct {
	Left  float32
	Right float32
}

// MonoFrame duplicates a sample to both sides.
func MonoFrame(v float32) StereoFrame {
	return StereoFrame{Left: v, Right: v}
}

// Scale returns the frame multiplied by gain.
func (f StereoFrame) Scale(gain float32) StereoFrame {
	return StereoFrame{Left: f.Left * gain, Right: f.Right * gain}
}
