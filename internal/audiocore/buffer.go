package audiocore

import "math"

// AudioBuffer is an interleaved multi-channel sample container. Its shape is
// fixed at construction: len(samples) == channels*frames for its whole life.
// No method allocates.
type AudioBuffer struct {
	samples  []float32
	channels int
	frames   int

	// pool bookkeeping, set only for pooled buffers
	pool *BufferPool
	free bool
	gen  uint64 // bumped on every acquisition
}

// NewAudioBuffer returns a silent buffer. Negative sizes are treated as zero.
func NewAudioBuffer(channels, frames int) *AudioBuffer {
	channels = max(channels, 0)
	frames = max(frames, 0)
	return &AudioBuffer{
		samples:  make([]float32, channels*frames),
		channels: channels,
		frames:   frames,
	}
}

// AudioBufferFromSamples wraps an existing interleaved store. The buffer takes
// ownership of samples. It fails with ErrShapeMismatch when the store length
// is not a multiple of channels.
func AudioBufferFromSamples(samples []float32, channels int) (*AudioBuffer, error) {
	if channels <= 0 || len(samples)%channels != 0 {
		return nil, ErrShapeMismatch
	}
	return &AudioBuffer{
		samples:  samples,
		channels: channels,
		frames:   len(samples) / channels,
	}, nil
}

// Channels returns the channel count.
func (b *AudioBuffer) Channels() int { return b.channels }

// Frames returns the frame count.
func (b *AudioBuffer) Frames() int { return b.frames }

// Len returns channels*frames.
func (b *AudioBuffer) Len() int { return len(b.samples) }

// Samples exposes the interleaved store. The slice must not be resized.
func (b *AudioBuffer) Samples() []float32 { return b.samples }

// Get returns the sample at (frame, channel), or false outside the buffer.
func (b *AudioBuffer) Get(frame, channel int) (float32, bool) {
	if frame < 0 || frame >= b.frames || channel < 0 || channel >= b.channels {
		return 0, false
	}
	return b.samples[frame*b.channels+channel], true
}

// Set writes the sample at (frame, channel). It reports false outside the buffer.
func (b *AudioBuffer) Set(frame, channel int, value float32) bool {
	if frame < 0 || frame >= b.frames || channel < 0 || channel >= b.channels {
		return false
	}
	b.samples[frame*b.channels+channel] = value
	return true
}

// Clear sets every sample to zero.
func (b *AudioBuffer) Clear() {
	clear(b.samples)
}

// CopyFrom copies src into b. Only the overlapping prefix of the two stores is
// copied; a shape mismatch truncates silently.
func (b *AudioBuffer) CopyFrom(src *AudioBuffer) {
	copy(b.samples, src.samples)
}

// ApplyGain multiplies every sample by gain.
func (b *AudioBuffer) ApplyGain(gain float32) {
	ScaleSamples(b.samples, gain)
}

// Mix adds src into b over the overlapping prefix, with the same truncation
// policy as CopyFrom.
func (b *AudioBuffer) Mix(src *AudioBuffer) {
	MixSamples(b.samples, src.samples)
}

// Peak returns the largest absolute sample value.
func (b *AudioBuffer) Peak() float32 {
	return PeakOf(b.samples)
}

// Frame returns the first two channels of a frame as a StereoFrame. Mono
// buffers duplicate their only channel.
func (b *AudioBuffer) Frame(frame int) StereoFrame {
	left, ok := b.Get(frame, 0)
	if !ok {
		return StereoFrame{}
	}
	if b.channels == 1 {
		return MonoFrame(left)
	}
	right, _ := b.Get(frame, 1)
	return StereoFrame{Left: left, Right: right}
}

// MixSamples adds src into dst over min(len(dst), len(src)) samples.
func MixSamples(dst, src []float32) {
	n := min(len(dst), len(src))
	dst = dst[:n]
	src = src[:n]
	for i := range dst {
		dst[i] += src[i]
	}
}

// ScaleSamples multiplies every sample by gain.
func ScaleSamples(s []float32, gain float32) {
	for i := range s {
		s[i] *= gain
	}
}

// PeakOf returns the largest absolute value in s.
func PeakOf(s []float32) float32 {
	var peak float32
	for _, v := range s {
		if a := float32(math.Abs(float64(v))); a > peak {
			peak = a
		}
	}
	return peak
}
