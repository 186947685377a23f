package timebase

import (
	"strconv"

	"github.com/u-stem/koto/internal/errors"
)

// SampleRate is a stream sample rate in Hz.
type SampleRate uint32

// Common sample rates.
const (
	Rate44100 SampleRate = 44100
	Rate48000 SampleRate = 48000
	Rate96000 SampleRate = 96000

	DefaultSampleRate = Rate48000
)

// Sample rates outside this range are rejected by Validate.
const (
	MinSampleRate SampleRate = 8000
	MaxSampleRate SampleRate = 384000
)

// ErrInvalidSampleRate is returned for rates outside [MinSampleRate, MaxSampleRate].
var ErrInvalidSampleRate = errors.NewStd("invalid sample rate")

// Hz returns the rate as float64.
func (r SampleRate) Hz() float64 {
	return float64(r)
}

// Validate reports whether the rate is usable for a stream.
func (r SampleRate) Validate() error {
	if r < MinSampleRate || r > MaxSampleRate {
		return errors.New(ErrInvalidSampleRate).
			Component("timebase").
			Category(errors.CategoryValidation).
			Context("sample_rate", uint32(r)).
			Build()
	}
	return nil
}

func (r SampleRate) String() string {
	return strconv.FormatUint(uint64(r), 10) + " Hz"
}
