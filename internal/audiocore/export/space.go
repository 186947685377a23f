package export

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/u-stem/koto/internal/errors"
)

// MinRecordingHeadroom is the take length EnsureSpace reserves when the
// caller does not know how long the recording will run.
const MinRecordingHeadroom = 10 * time.Minute

// BytesPerSecond is the PCM data rate of the configured stream.
func (c *Config) BytesPerSecond() uint64 {
	return uint64(c.SampleRate) * uint64(c.Channels) * uint64(c.BitDepth/8)
}

// RequiredBytes returns the space needed for a take of length d. A
// non-positive d reserves MinRecordingHeadroom.
func (c *Config) RequiredBytes(d time.Duration) uint64 {
	if d <= 0 {
		d = MinRecordingHeadroom
	}
	return uint64(d.Seconds() * float64(c.BytesPerSecond()))
}

// EnsureSpace creates the output directory and checks it has at least need
// bytes free.
func (c *Config) EnsureSpace(need uint64) error {
	if err := os.MkdirAll(c.OutputPath, 0o755); err != nil {
		return errors.FileError(err, c.OutputPath)
	}

	usage, err := disk.Usage(c.OutputPath)
	if err != nil {
		return errors.New(err).
			Component(ComponentExport).
			Category(errors.CategoryFileIO).
			Context("operation", "disk_usage").
			Context("path", c.OutputPath).
			Build()
	}

	if usage.Free < need {
		return errors.Newf("insufficient disk space: %d bytes free, %d needed", usage.Free, need).
			Component(ComponentExport).
			Category(errors.CategoryLimit).
			Context("path", c.OutputPath).
			Context("free_bytes", usage.Free).
			Context("required_bytes", need).
			Build()
	}
	return nil
}
