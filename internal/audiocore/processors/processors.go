// Package processors provides the routing nodes used to assemble an audio
// graph: Gain, Passthrough, Master, Input and the mixer channel Strip.
//
// All nodes treat ports as mono channels. Parameters are stored in atomics so
// the control thread can change them while the audio thread is processing.
package processors

import (
	"math"
	"sync/atomic"

	"github.com/u-stem/koto/internal/logger"
)

func processorLogger() logger.Logger {
	return logger.Global().Module("processors")
}

// atomicFloat32 stores a float32 as its bit pattern.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (a *atomicFloat32) Load() float32 { return math.Float32frombits(a.bits.Load()) }

func (a *atomicFloat32) Store(v float32) { a.bits.Store(math.Float32bits(v)) }

// frames returns the number of valid samples to touch in a port buffer.
func frames(n int, ports ...[]float32) int {
	for _, p := range ports {
		n = min(n, len(p))
	}
	return max(n, 0)
}
