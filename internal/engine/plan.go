package engine

import (
	"github.com/u-stem/koto/internal/audiocore"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/graph"
)

// ErrPoolTooSmall is returned when a graph needs more buffers than the pool holds.
var ErrPoolTooSmall = errors.NewStd("graph needs more buffers than the pool holds")

// ErrNodeNotComparable is returned for a node whose dynamic type cannot be
// tracked by identity. Implement Node on a pointer type.
var ErrNodeNotComparable = errors.NewStd("node type is not comparable")

// plan is a compiled graph ready for the audio thread. Everything except the
// per-step buffer slots is immutable after compilePlan returns.
type plan struct {
	steps         []step
	buffers       int // pool buffers one block needs
	droppedRoutes int
	latency       int // largest node latency in samples
}

type step struct {
	id     graph.NodeID
	node   audiocore.Node
	sink   bool
	routes []route

	// buffer slots, refilled from the pool on every block
	inputs  []*audiocore.AudioBuffer
	outputs []*audiocore.AudioBuffer
}

// route mixes output fromPort of steps[from] into input toPort of the owning step.
type route struct {
	from     int
	fromPort int
	toPort   int
}

// compilePlan turns a scheduled snapshot into a plan. Connections naming an
// unknown node or an out-of-range port are skipped and counted.
func compilePlan(snap graph.Snapshot, poolSize int) (*plan, error) {
	p := &plan{steps: make([]step, 0, len(snap.Order))}
	index := make(map[graph.NodeID]int, len(snap.Order))

	for _, id := range snap.Order {
		node, ok := snap.Nodes[id]
		if !ok {
			// referenced by a connection only
			continue
		}
		in, out := max(node.InputChannels(), 0), max(node.OutputChannels(), 0)
		index[id] = len(p.steps)
		p.steps = append(p.steps, step{
			id:      id,
			node:    node,
			sink:    audiocore.IsSink(node),
			inputs:  make([]*audiocore.AudioBuffer, in),
			outputs: make([]*audiocore.AudioBuffer, out),
		})
		p.buffers += in + out
		p.latency = max(p.latency, node.Latency())
	}

	if p.buffers > poolSize {
		return nil, errors.New(ErrPoolTooSmall).
			Component(componentEngine).
			Category(errors.CategoryLimit).
			Context("required", p.buffers).
			Context("available", poolSize).
			Build()
	}

	for _, c := range snap.Connections {
		src, okSrc := index[c.Source]
		dst, okDst := index[c.Target]
		if !okSrc || !okDst ||
			c.SourcePort < 0 || c.SourcePort >= len(p.steps[src].outputs) ||
			c.TargetPort < 0 || c.TargetPort >= len(p.steps[dst].inputs) {
			p.droppedRoutes++
			continue
		}
		p.steps[dst].routes = append(p.steps[dst].routes, route{
			from:     src,
			fromPort: c.SourcePort,
			toPort:   c.TargetPort,
		})
	}
	return p, nil
}

// render runs one block through the plan and mixes every sink into bus, an
// interleaved buffer of channels x frames. It reports false when the pool ran
// out; whatever was mixed before that point stays in bus.
func (p *plan) render(lease *audiocore.Lease, bus []float32, channels, frames int, ctx *audiocore.ProcessContext) bool {
	defer lease.Close()

	for i := range p.steps {
		st := &p.steps[i]
		if !acquireAll(lease, st.inputs) || !acquireAll(lease, st.outputs) {
			return false
		}

		for _, r := range st.routes {
			src := p.steps[r.from].outputs[r.fromPort].Samples()[:frames]
			audiocore.MixSamples(st.inputs[r.toPort].Samples()[:frames], src)
		}

		st.node.Process(st.inputs, st.outputs, ctx)

		if st.sink {
			for ch, in := range st.inputs {
				if ch >= channels {
					break
				}
				s := in.Samples()[:frames]
				for f, v := range s {
					bus[f*channels+ch] += v
				}
			}
		}
	}
	return true
}

func acquireAll(lease *audiocore.Lease, slots []*audiocore.AudioBuffer) bool {
	for i := range slots {
		buf, err := lease.Acquire()
		if err != nil {
			return false
		}
		slots[i] = buf
	}
	return true
}

// reset calls Reset on every node.
func (p *plan) reset() {
	for i := range p.steps {
		p.steps[i].node.Reset()
	}
}
