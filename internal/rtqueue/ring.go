// Package rtqueue provides the bounded single-producer single-consumer ring
// used to pass commands, events and MIDI between the control thread and the
// audio thread. Push and pop are wait-free and never allocate.
package rtqueue

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// cacheLinePad keeps the producer and consumer indices on separate cache lines.
type cacheLinePad [64]byte

// Ring is a fixed-capacity SPSC queue. Exactly one goroutine may call TryPush
// and exactly one goroutine may call TryPop or Drain.
type Ring[T any] struct {
	_    cacheLinePad
	head atomic.Uint64 // next slot to read, owned by the consumer
	_    cacheLinePad
	tail atomic.Uint64 // next slot to write, owned by the producer
	_    cacheLinePad

	mask     uint64
	capacity uint64
	slots    []T

	dropped atomic.Uint64
}

// New returns a ring holding exactly capacity items. Storage is rounded up to
// the next power of two for index masking; the extra slots are never filled.
func New[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("rtqueue: capacity must be positive, got %d", capacity))
	}
	size := uint64(1) << bits.Len64(uint64(capacity-1))
	return &Ring[T]{
		mask:     size - 1,
		capacity: uint64(capacity),
		slots:    make([]T, size),
	}
}

// TryPush enqueues v. It returns false when the ring is full; the item is
// dropped and counted.
func (r *Ring[T]) TryPush(v T) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() >= r.capacity {
		r.dropped.Add(1)
		return false
	}
	r.slots[tail&r.mask] = v
	r.tail.Store(tail + 1)
	return true
}

// TryPop dequeues the oldest item. It returns false when the ring is empty.
func (r *Ring[T]) TryPop() (T, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		var zero T
		return zero, false
	}
	idx := head & r.mask
	v := r.slots[idx]
	var zero T
	r.slots[idx] = zero
	r.head.Store(head + 1)
	return v, true
}

// Drain pops every item visible at the time of the call, in FIFO order, and
// returns how many were handled.
func (r *Ring[T]) Drain(fn func(T)) int {
	head := r.head.Load()
	tail := r.tail.Load()
	var zero T
	for i := head; i != tail; i++ {
		idx := i & r.mask
		v := r.slots[idx]
		r.slots[idx] = zero
		r.head.Store(i + 1)
		fn(v)
	}
	return int(tail - head)
}

// Len returns the number of queued items. It is exact only when called from
// the producer or consumer.
func (r *Ring[T]) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return int(r.capacity) }

// Dropped returns how many pushes failed because the ring was full.
func (r *Ring[T]) Dropped() uint64 { return r.dropped.Load() }
