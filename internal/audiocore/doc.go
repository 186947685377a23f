// Package audiocore holds the building blocks shared by every part of the
// real-time path: the AudioBuffer sample container, the fixed-capacity
// BufferPool, and the Node contract that processing units implement.
//
// # Real-time rules
//
// Everything reachable from Node.Process and from the BufferPool acquire and
// release paths runs on the audio thread. Those paths never allocate, never
// block and never perform I/O. Construction (NewAudioBuffer, NewBufferPool,
// NewLease) happens on the control thread before the stream starts.
//
// # Buffer lifecycle
//
// The engine hands each node one mono pool buffer per input channel and one
// per output channel for every processing block:
//
//	lease := pool.NewLease()
//	func() {
//	    defer lease.Close() // every buffer returns to the pool, even on panic
//	    buf, err := lease.Acquire()
//	    ...
//	}()
//
// Single buffers can be borrowed with AcquireScoped and released with defer.
//
// # Thread safety
//
// AudioBuffer and BufferPool are owned by one goroutine at a time. The pool's
// Available and Stats methods are safe to call from any goroutine.
package audiocore
