// Package export writes captured audio to disk. Recordings are encoded as
// PCM WAV through go-audio.
package export

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/u-stem/koto/internal/errors"
)

// ComponentExport identifies export errors.
const ComponentExport = "export"

// Extension is the file extension of exported recordings.
const Extension = "wav"

// Config describes where and how recordings are written.
type Config struct {
	// OutputPath is the directory where recordings are saved
	OutputPath string

	// FileNameTemplate supports {source}, {date}, {time} and {timestamp}
	FileNameTemplate string

	// BitDepth of the PCM data: 16, 24 or 32
	BitDepth int

	SampleRate int
	Channels   int
}

// DefaultConfig returns 16-bit stereo at 48 kHz into recordings/.
func DefaultConfig() *Config {
	return &Config{
		OutputPath:       "recordings",
		FileNameTemplate: "{source}_{timestamp}",
		BitDepth:         16,
		SampleRate:       48000,
		Channels:         2,
	}
}

// ValidateConfig checks an export configuration.
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.Newf("export config is nil").
			Component(ComponentExport).
			Category(errors.CategoryValidation).
			Build()
	}

	if config.OutputPath == "" {
		return errors.Newf("export output path is empty").
			Component(ComponentExport).
			Category(errors.CategoryValidation).
			Build()
	}

	if config.FileNameTemplate == "" {
		return errors.Newf("export file name template is empty").
			Component(ComponentExport).
			Category(errors.CategoryValidation).
			Build()
	}

	if !IsValidBitDepth(config.BitDepth) {
		return errors.Newf("unsupported bit depth: %d", config.BitDepth).
			Component(ComponentExport).
			Category(errors.CategoryValidation).
			Context("bit_depth", config.BitDepth).
			Build()
	}

	if config.SampleRate <= 0 || config.Channels <= 0 {
		return errors.Newf("invalid stream shape: %d Hz, %d channels", config.SampleRate, config.Channels).
			Component(ComponentExport).
			Category(errors.CategoryValidation).
			Build()
	}

	return nil
}

// IsValidBitDepth reports whether depth is a supported PCM width.
func IsValidBitDepth(depth int) bool {
	switch depth {
	case 16, 24, 32:
		return true
	default:
		return false
	}
}

// GenerateFileName expands template and appends the wav extension.
func GenerateFileName(template, sourceID string, timestamp time.Time) string {
	fileName := template

	fileName = strings.ReplaceAll(fileName, "{source}", sourceID)
	fileName = strings.ReplaceAll(fileName, "{date}", timestamp.Format("2006-01-02"))
	fileName = strings.ReplaceAll(fileName, "{time}", timestamp.Format("15-04-05"))
	fileName = strings.ReplaceAll(fileName, "{timestamp}", timestamp.Format("20060102_150405"))

	return filepath.Clean(fileName + "." + Extension)
}

// FilePath joins the output directory and the generated file name.
func (c *Config) FilePath(sourceID string, timestamp time.Time) string {
	return filepath.Join(c.OutputPath, GenerateFileName(c.FileNameTemplate, sourceID, timestamp))
}
