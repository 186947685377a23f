package engine

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/logger"
	"github.com/u-stem/koto/internal/observability/metrics"
)

const bytesPerSample = 4

// DefaultDrainInterval is how often RunRecordingWriter empties the capture buffer.
const DefaultDrainInterval = 100 * time.Millisecond

// Recorder is the capture buffer shared by the audio thread and the
// recording writer. The audio thread only ever TryLocks mu, so a busy writer
// costs a skipped period rather than a blocked callback.
type Recorder struct {
	mu       sync.Mutex
	ring     *ringbuffer.RingBuffer
	scratch  []byte // audio thread encode buffer
	readBuf  []byte // writer decode buffer
	channels int

	captured   atomic.Uint64 // frames stored
	contention atomic.Uint64 // periods skipped because the writer held the lock
	overflow   atomic.Uint64 // periods skipped because the ring was full

	metrics *metrics.EngineMetrics
}

// NewRecorder sizes the ring for capacityFrames frames of channels samples.
// maxFrames bounds the chunk encoded per write.
func NewRecorder(capacityFrames, channels, maxFrames int, m *metrics.EngineMetrics) *Recorder {
	channels = max(channels, 1)
	capacityFrames = max(capacityFrames, maxFrames, 1)
	return &Recorder{
		ring:     ringbuffer.New(capacityFrames * channels * bytesPerSample),
		scratch:  make([]byte, max(maxFrames, 1)*channels*bytesPerSample),
		channels: channels,
		metrics:  m,
	}
}

// Channels returns the interleaved width of captured frames.
func (r *Recorder) Channels() int { return r.channels }

// Capture stores interleaved samples without blocking. The whole period is
// skipped when the writer holds the buffer or it lacks room.
func (r *Recorder) Capture(samples []float32) bool {
	frames := len(samples) / r.channels
	if frames == 0 {
		return true
	}
	samples = samples[:frames*r.channels]

	if !r.mu.TryLock() {
		r.contention.Add(1)
		r.metrics.RecordRecordingSkip(metrics.SkipContention)
		return false
	}
	defer r.mu.Unlock()

	if r.ring.Free() < len(samples)*bytesPerSample {
		r.overflow.Add(1)
		r.metrics.RecordRecordingSkip(metrics.SkipOverflow)
		return false
	}

	chunk := len(r.scratch) / bytesPerSample
	for len(samples) > 0 {
		n := min(chunk, len(samples))
		buf := r.scratch[:n*bytesPerSample]
		for i, v := range samples[:n] {
			binary.LittleEndian.PutUint32(buf[i*bytesPerSample:], math.Float32bits(v))
		}
		if _, err := r.ring.Write(buf); err != nil {
			r.overflow.Add(1)
			r.metrics.RecordRecordingSkip(metrics.SkipOverflow)
			return false
		}
		samples = samples[n:]
	}
	r.captured.Add(uint64(frames))
	return true
}

// Drain appends every stored sample to dst. It runs on the writer goroutine.
func (r *Recorder) Drain(dst []float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.ring.Length()
	if n == 0 {
		return dst
	}
	if cap(r.readBuf) < n {
		r.readBuf = make([]byte, n)
	}
	buf := r.readBuf[:n]
	read, err := r.ring.Read(buf)
	if err != nil {
		return dst
	}
	buf = buf[:read-read%bytesPerSample]
	for i := 0; i < len(buf); i += bytesPerSample {
		dst = append(dst, math.Float32frombits(binary.LittleEndian.Uint32(buf[i:])))
	}
	return dst
}

// RecorderStats are cumulative capture counters.
type RecorderStats struct {
	CapturedFrames    uint64
	ContentionSkipped uint64
	OverflowSkipped   uint64
}

func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		CapturedFrames:    r.captured.Load(),
		ContentionSkipped: r.contention.Load(),
		OverflowSkipped:   r.overflow.Load(),
	}
}

// SampleWriter consumes drained interleaved samples, typically a WAV file.
type SampleWriter interface {
	Write(samples []float32) error
}

// RunRecordingWriter drains the capture buffer into w every interval until
// ctx is cancelled, then drains once more.
func (e *Engine) RunRecordingWriter(ctx context.Context, w SampleWriter, interval time.Duration) error {
	if e.recorder == nil {
		return errors.Newf("engine has no capture input").
			Component(componentEngine).
			Category(errors.CategoryState).
			Build()
	}
	if interval <= 0 {
		interval = DefaultDrainInterval
	}
	log := e.log.Module("recorder")
	log.Info("recording writer started", logger.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var samples []float32
	flush := func() error {
		samples = e.recorder.Drain(samples[:0])
		if len(samples) == 0 {
			return nil
		}
		if err := w.Write(samples); err != nil {
			return errors.New(err).
				Component(componentEngine).
				Category(errors.CategoryFileIO).
				Context("operation", "write_recording").
				Build()
		}
		e.metrics.AddRecordedBytes(len(samples) * bytesPerSample)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			err := flush()
			stats := e.recorder.Stats()
			log.Info("recording writer stopped",
				logger.Uint64("captured_frames", stats.CapturedFrames),
				logger.Uint64("skipped_contention", stats.ContentionSkipped),
				logger.Uint64("skipped_overflow", stats.OverflowSkipped))
			return err
		case <-ticker.C:
			if err := flush(); err != nil {
				log.Error("recording write failed", logger.Error(err))
				return err
			}
		}
	}
}
