package engine

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/audiocore"
	"github.com/u-stem/koto/internal/errors"
	"github.com/u-stem/koto/internal/graph"
	"github.com/u-stem/koto/internal/timebase"
)

// rateNode keeps the rate it was given in a plain field that Process reads,
// so the race detector sees any SetSampleRate issued while it renders.
type rateNode struct {
	audiocore.NodeBase
	rate  timebase.SampleRate
	calls atomic.Int32
	seen  timebase.SampleRate
}

func (n *rateNode) InputChannels() int  { return 0 }
func (n *rateNode) OutputChannels() int { return 2 }

func (n *rateNode) SetSampleRate(r timebase.SampleRate) {
	n.rate = r
	n.calls.Add(1)
}

func (n *rateNode) Process(_, _ []*audiocore.AudioBuffer, _ *audiocore.ProcessContext) {
	n.seen = n.rate
}

func TestRepublishDoesNotTouchRunningNodes(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	node := &rateNode{}
	g := sourceToMaster(node)
	require.NoError(t, e.SetGraph(g))
	require.True(t, e.Play())

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Go(func() {
		out := make([]float32, 2*64)
		for {
			select {
			case <-stop:
				return
			default:
				e.Process(out, nil)
			}
		}
	})

	for range 500 {
		require.NoError(t, e.SetGraph(g))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, int32(1), node.calls.Load())
	assert.Equal(t, e.SampleRate(), node.rate)
	assert.Equal(t, e.SampleRate(), node.seen)
}

func TestNewNodesAreBoundOnce(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	first, second := &rateNode{}, &rateNode{}

	g := sourceToMaster(first)
	require.NoError(t, e.SetGraph(g))

	g.AddNode(second)
	require.NoError(t, e.SetGraph(g))
	require.NoError(t, e.SetGraph(g))

	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(1), second.calls.Load())
	assert.Equal(t, e.SampleRate(), second.rate)
}

// valueNode is a Node implemented on a non-comparable value type.
type valueNode struct {
	audiocore.NodeBase
	scratch []float32
}

func (valueNode) InputChannels() int                                                 { return 0 }
func (valueNode) OutputChannels() int                                                { return 1 }
func (valueNode) Process(_, _ []*audiocore.AudioBuffer, _ *audiocore.ProcessContext) {}

func TestNonComparableNodeRejected(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, nil)
	g := graph.New()
	g.AddNode(valueNode{scratch: make([]float32, 4)})

	err := e.SetGraph(g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNodeNotComparable))
	assert.True(t, errors.IsCategory(err, errors.CategoryGraph))
}
