package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/u-stem/koto/internal/audiocore"
	"github.com/u-stem/koto/internal/errors"
)

type stubNode struct {
	audiocore.NodeBase
	in, out int
}

func (n *stubNode) InputChannels() int                                                 { return n.in }
func (n *stubNode) OutputChannels() int                                                { return n.out }
func (n *stubNode) Process(_, _ []*audiocore.AudioBuffer, _ *audiocore.ProcessContext) {}

func edge(src, dst NodeID) Connection {
	return Connection{Source: src, Target: dst}
}

func TestScheduleOrders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []NodeID
		conns []Connection
		want  []NodeID
	}{
		{"chain", nil, []Connection{edge(0, 1), edge(1, 2)}, []NodeID{0, 1, 2}},
		{"parallel paths", nil, []Connection{edge(0, 2), edge(1, 2)}, []NodeID{0, 1, 2}},
		{"reverse ids", nil, []Connection{edge(5, 3), edge(3, 1)}, []NodeID{5, 3, 1}},
		{"isolated nodes", []NodeID{4, 0, 9}, []Connection{edge(2, 1)}, []NodeID{0, 2, 1, 4, 9}},
		{"diamond", nil, []Connection{edge(0, 2), edge(0, 1), edge(1, 3), edge(2, 3)}, []NodeID{0, 1, 2, 3}},
		{"fan in with duplicate edges", nil, []Connection{edge(0, 1), edge(0, 1)}, []NodeID{0, 1}},
		{"empty", nil, nil, []NodeID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Schedule(tt.nodes, tt.conns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheduleIsTopological(t *testing.T) {
	t.Parallel()

	conns := []Connection{edge(7, 3), edge(3, 8), edge(1, 8), edge(7, 1), edge(2, 7), edge(8, 0)}
	order, err := Schedule(nil, conns)
	require.NoError(t, err)

	pos := make(map[NodeID]int)
	for i, id := range order {
		pos[id] = i
	}
	for _, c := range conns {
		assert.Less(t, pos[c.Source], pos[c.Target], c.String())
	}

	again, err := Schedule(nil, conns)
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestScheduleDetectsCycle(t *testing.T) {
	t.Parallel()

	order, err := Schedule([]NodeID{9}, []Connection{edge(0, 1), edge(1, 2), edge(2, 1)})
	require.ErrorIs(t, err, ErrGraphCycle)
	assert.Nil(t, order)

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, []NodeID{1, 2}, ee.GetContext()["unscheduled"])

	_, err = Schedule(nil, []Connection{edge(3, 3)})
	require.ErrorIs(t, err, ErrGraphCycle)
}

func TestGraphEditing(t *testing.T) {
	t.Parallel()

	g := New()
	a := g.AddNode(&stubNode{out: 1})
	b := g.AddNode(&stubNode{in: 1, out: 1})
	c := g.AddNode(&stubNode{in: 1})
	assert.Equal(t, []NodeID{0, 1, 2}, []NodeID{a, b, c})
	assert.Equal(t, 3, g.Len())

	g.Connect(Connection{Source: a, Target: b})
	g.Connect(Connection{Source: b, Target: c})
	g.Connect(Connection{Source: a, SourcePort: 0, Target: c, TargetPort: 0})
	assert.Len(t, g.Connections(), 3)

	order, err := g.ProcessingOrder()
	require.NoError(t, err)
	assert.Equal(t, []NodeID{a, b, c}, order)

	g.Disconnect(a, c)
	assert.Len(t, g.Connections(), 2)

	g.RemoveNode(b)
	assert.Empty(t, g.Connections())
	_, ok := g.Node(b)
	assert.False(t, ok)
	g.RemoveNode(42)

	d := g.AddNode(&stubNode{})
	assert.Equal(t, NodeID(3), d, "ids are never reused")
	assert.Equal(t, []NodeID{a, c, d}, g.Nodes())

	n, ok := g.Node(c)
	require.True(t, ok)
	assert.Equal(t, 1, n.InputChannels())
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	g := New()
	a := g.AddNode(&stubNode{out: 1})
	b := g.AddNode(&stubNode{in: 1})
	g.Connect(edge(a, b))

	snap, err := g.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, []NodeID{a, b}, snap.Order)
	assert.Len(t, snap.Nodes, 2)

	g.Connect(edge(b, a))
	assert.Len(t, snap.Connections, 1, "snapshot is detached from later edits")

	_, err = g.Snapshot()
	require.ErrorIs(t, err, ErrGraphCycle)
}
