package export

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/u-stem/koto/internal/errors"
)

// WAVWriter streams interleaved float samples into a PCM WAV file. It is not
// safe for concurrent use.
type WAVWriter struct {
	path     string
	file     *os.File
	enc      *wav.Encoder
	buf      *audio.IntBuffer
	scale    float64
	channels int
	rate     int
	frames   int64
	closed   bool
}

// CreateWAV creates the file at path, including missing parent directories.
func CreateWAV(path string, sampleRate, channels, bitDepth int) (*WAVWriter, error) {
	cfg := &Config{
		OutputPath:       filepath.Dir(path),
		FileNameTemplate: "-",
		BitDepth:         bitDepth,
		SampleRate:       sampleRate,
		Channels:         channels,
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.FileError(err, filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.FileError(err, path)
	}

	return &WAVWriter{
		path: path,
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, bitDepth, channels, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		scale:    float64(int64(1)<<(bitDepth-1) - 1),
		channels: channels,
		rate:     sampleRate,
	}, nil
}

// Write encodes interleaved samples, clamping them to [-1, 1]. A trailing
// partial frame is ignored.
func (w *WAVWriter) Write(samples []float32) error {
	if w.closed {
		return errors.Newf("write to closed wav writer").
			Component(ComponentExport).
			Category(errors.CategoryState).
			Context("path", w.path).
			Build()
	}
	n := len(samples) - len(samples)%w.channels
	if n == 0 {
		return nil
	}

	if cap(w.buf.Data) < n {
		w.buf.Data = make([]int, n)
	}
	w.buf.Data = w.buf.Data[:n]
	for i, s := range samples[:n] {
		v := min(max(float64(s), -1), 1)
		w.buf.Data[i] = int(v * w.scale)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return errors.New(err).
			Component(ComponentExport).
			Category(errors.CategoryFileIO).
			Context("path", w.path).
			Build()
	}
	w.frames += int64(n / w.channels)
	return nil
}

// Frames returns the number of frames written.
func (w *WAVWriter) Frames() int64 { return w.frames }

// Duration returns the audio length written so far.
func (w *WAVWriter) Duration() time.Duration {
	return time.Duration(w.frames) * time.Second / time.Duration(w.rate)
}

// Path returns the output file path.
func (w *WAVWriter) Path() string { return w.path }

// Close finalises the WAV header and closes the file. Further calls are no-ops.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	if err := errors.Join(encErr, fileErr); err != nil {
		return errors.FileError(err, w.path)
	}
	return nil
}
