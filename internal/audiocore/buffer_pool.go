package audiocore

import (
	"sync/atomic"

	"github.com/u-stem/koto/internal/errors"
)

// BufferPool is a fixed-capacity store of identically shaped AudioBuffers.
// Every buffer is allocated by NewBufferPool; Acquire and Release never
// allocate. The pool itself is owned by one goroutine, normally the audio
// thread.
type BufferPool struct {
	free     []*AudioBuffer
	channels int
	frames   int
	capacity int

	available atomic.Int64
	stats     poolStats
}

type poolStats struct {
	acquired  atomic.Uint64
	released  atomic.Uint64
	exhausted atomic.Uint64
	rejected  atomic.Uint64
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Acquired  uint64
	Released  uint64
	Exhausted uint64
	Rejected  uint64
}

// NewBufferPool allocates capacity silent buffers of channels x frames.
func NewBufferPool(capacity, channels, frames int) (*BufferPool, error) {
	if capacity <= 0 || channels <= 0 || frames <= 0 {
		return nil, errors.Newf("invalid buffer pool shape: capacity=%d channels=%d frames=%d", capacity, channels, frames).
			Component(ComponentAudioCore).
			Category(errors.CategoryValidation).
			Build()
	}

	p := &BufferPool{
		free:     make([]*AudioBuffer, 0, capacity),
		channels: channels,
		frames:   frames,
		capacity: capacity,
	}
	for range capacity {
		buf := NewAudioBuffer(channels, frames)
		buf.pool = p
		buf.free = true
		p.free = append(p.free, buf)
	}
	p.available.Store(int64(capacity))
	return p, nil
}

// Acquire takes a silent buffer from the pool.
func (p *BufferPool) Acquire() (*AudioBuffer, error) {
	n := len(p.free)
	if n == 0 {
		p.stats.exhausted.Add(1)
		return nil, ErrPoolExhausted
	}
	buf := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	buf.free = false
	buf.gen++
	p.available.Add(-1)
	p.stats.acquired.Add(1)
	return buf, nil
}

// Release clears buf and returns it to the pool. Buffers created elsewhere,
// reshaped buffers and buffers already returned are rejected.
func (p *BufferPool) Release(buf *AudioBuffer) error {
	switch {
	case buf == nil || buf.pool != p || buf.channels != p.channels || buf.frames != p.frames:
		p.stats.rejected.Add(1)
		return ErrForeignBuffer
	case buf.free || len(p.free) >= p.capacity:
		p.stats.rejected.Add(1)
		return ErrDoubleRelease
	}
	buf.Clear()
	buf.free = true
	p.free = append(p.free, buf)
	p.available.Add(1)
	p.stats.released.Add(1)
	return nil
}

// AcquireScoped takes a buffer wrapped in a guard whose Release is idempotent,
// suitable for defer:
//
//	g, err := pool.AcquireScoped()
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
func (p *BufferPool) AcquireScoped() (PooledBuffer, error) {
	buf, err := p.Acquire()
	if err != nil {
		return PooledBuffer{}, err
	}
	return PooledBuffer{pool: p, buf: buf, gen: buf.gen}, nil
}

// Available returns the number of buffers ready to acquire. Safe from any goroutine.
func (p *BufferPool) Available() int { return int(p.available.Load()) }

// Capacity returns the total number of buffers.
func (p *BufferPool) Capacity() int { return p.capacity }

// Channels returns the channel count of pooled buffers.
func (p *BufferPool) Channels() int { return p.channels }

// Frames returns the frame count of pooled buffers.
func (p *BufferPool) Frames() int { return p.frames }

// Stats returns a counter snapshot. Safe from any goroutine.
func (p *BufferPool) Stats() PoolStats {
	return PoolStats{
		Acquired:  p.stats.acquired.Load(),
		Released:  p.stats.released.Load(),
		Exhausted: p.stats.exhausted.Load(),
		Rejected:  p.stats.rejected.Load(),
	}
}

// PooledBuffer is a scoped handle on one acquisition of a pooled AudioBuffer.
// It remembers the acquisition generation, so a handle, or a copy of it, left
// over from an earlier acquisition never touches the buffer's next owner.
type PooledBuffer struct {
	pool     *BufferPool
	buf      *AudioBuffer
	gen      uint64
	released bool
}

// owns reports whether the handle still refers to a live acquisition.
func (g *PooledBuffer) owns() bool {
	return !g.released && g.buf != nil && !g.buf.free && g.buf.gen == g.gen
}

// Buffer returns the underlying buffer, or nil after Release.
func (g *PooledBuffer) Buffer() *AudioBuffer {
	if !g.owns() {
		return nil
	}
	return g.buf
}

// Release returns the buffer to its pool. Calls after the first are no-ops.
func (g *PooledBuffer) Release() {
	if !g.owns() {
		g.released = true
		return
	}
	g.released = true
	_ = g.pool.Release(g.buf)
}

// Lease tracks every buffer acquired during one processing block so they can
// all be returned with a single deferred Close.
type Lease struct {
	pool *BufferPool
	held []*AudioBuffer
}

// NewLease allocates a lease able to hold every buffer of the pool.
func (p *BufferPool) NewLease() *Lease {
	return &Lease{pool: p, held: make([]*AudioBuffer, 0, p.capacity)}
}

// Acquire takes a buffer from the pool and records it.
func (l *Lease) Acquire() (*AudioBuffer, error) {
	buf, err := l.pool.Acquire()
	if err != nil {
		return nil, err
	}
	l.held = append(l.held, buf)
	return buf, nil
}

// Held returns the number of outstanding buffers.
func (l *Lease) Held() int { return len(l.held) }

// Close releases every held buffer. The lease can be reused afterwards.
func (l *Lease) Close() {
	for i, buf := range l.held {
		_ = l.pool.Release(buf)
		l.held[i] = nil
	}
	l.held = l.held[:0]
}
