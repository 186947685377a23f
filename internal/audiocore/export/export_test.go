package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateConfig(DefaultConfig()))

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty path", func(c *Config) { c.OutputPath = "" }},
		{"empty template", func(c *Config) { c.FileNameTemplate = "" }},
		{"bit depth", func(c *Config) { c.BitDepth = 12 }},
		{"channels", func(c *Config) { c.Channels = 0 }},
		{"sample rate", func(c *Config) { c.SampleRate = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, ValidateConfig(cfg))
		})
	}
	assert.Error(t, ValidateConfig(nil))
}

func TestGenerateFileName(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	assert.Equal(t, "take_20260314_150926.wav", GenerateFileName("{source}_{timestamp}", "take", ts))
	assert.Equal(t, "2026-03-14/15-09-26.wav", GenerateFileName("{date}/{time}", "x", ts))

	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("recordings", "take_20260314_150926.wav"), cfg.FilePath("take", ts))
}

func TestWAVWriterRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "take.wav")
	w, err := CreateWAV(path, 48000, 2, 16)
	require.NoError(t, err)

	require.NoError(t, w.Write([]float32{0.5, -0.5, 1, -1, 2, -2}))
	require.NoError(t, w.Write([]float32{0, 0, 0.25}), "partial frame dropped")
	assert.Equal(t, int64(4), w.Frames())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	require.Error(t, w.Write([]float32{0, 0}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, uint32(48000), dec.SampleRate)
	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint16(16), dec.BitDepth)
	assert.Equal(t, []int{16383, -16383, 32767, -32767, 32767, -32767, 0, 0}, buf.Data)
}

func TestWAVWriterDuration(t *testing.T) {
	t.Parallel()

	w, err := CreateWAV(filepath.Join(t.TempDir(), "d.wav"), 1000, 1, 24)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Write(make([]float32, 500)))
	assert.Equal(t, 500*time.Millisecond, w.Duration())
	assert.Equal(t, "d.wav", filepath.Base(w.Path()))
}

func TestCreateWAVRejectsBadFormat(t *testing.T) {
	t.Parallel()

	_, err := CreateWAV(filepath.Join(t.TempDir(), "x.wav"), 48000, 2, 8)
	require.Error(t, err)
}
