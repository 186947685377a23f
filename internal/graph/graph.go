// Package graph holds the audio processing graph: nodes owned by the graph,
// port-to-port connections between them and the scheduler that orders them
// for processing.
package graph

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/u-stem/koto/internal/audiocore"
)

// NodeID identifies a node within one graph. IDs increase monotonically and
// are never reused.
type NodeID uint64

func (id NodeID) String() string { return fmt.Sprintf("node-%d", uint64(id)) }

// Connection routes one output channel of Source into one input channel of
// Target. Several connections may feed the same input; they are summed.
type Connection struct {
	Source     NodeID
	SourcePort int
	Target     NodeID
	TargetPort int
}

func (c Connection) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d", c.Source, c.SourcePort, c.Target, c.TargetPort)
}

// Graph is a mutable set of nodes and connections, edited from the control
// thread. The engine never reads a Graph directly; it compiles a Snapshot.
type Graph struct {
	mu          sync.RWMutex
	nodes       map[NodeID]audiocore.Node
	connections []Connection
	nextID      NodeID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]audiocore.Node)}
}

// AddNode takes ownership of node and returns its fresh ID.
func (g *Graph) AddNode(node audiocore.Node) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.nodes[id] = node
	return id
}

// RemoveNode drops the node and every connection touching it. Unknown IDs are ignored.
func (g *Graph) RemoveNode(id NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, id)
	g.connections = slices.DeleteFunc(g.connections, func(c Connection) bool {
		return c.Source == id || c.Target == id
	})
}

// Connect appends a connection. Ports are checked when the engine compiles
// the graph, not here.
func (g *Graph) Connect(c Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connections = append(g.connections, c)
}

// Disconnect removes every connection from source to target.
func (g *Graph) Disconnect(source, target NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connections = slices.DeleteFunc(g.connections, func(c Connection) bool {
		return c.Source == source && c.Target == target
	})
}

// Node returns the node with the given ID.
func (g *Graph) Node(id NodeID) (audiocore.Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns every node ID in ascending order.
func (g *Graph) Nodes() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Sorted(maps.Keys(g.nodes))
}

// Connections returns a copy of the connection list.
func (g *Graph) Connections() []Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.connections)
}

// Len returns the node count.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// ProcessingOrder schedules every node, isolated ones included.
func (g *Graph) ProcessingOrder() ([]NodeID, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Schedule(slices.Collect(maps.Keys(g.nodes)), g.connections)
}

// Snapshot is an immutable view of a graph with its processing order.
type Snapshot struct {
	Order       []NodeID
	Nodes       map[NodeID]audiocore.Node
	Connections []Connection
}

// Snapshot schedules the graph and copies its node table and connections.
// It fails with ErrGraphCycle when the graph is not acyclic.
func (g *Graph) Snapshot() (Snapshot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	order, err := Schedule(slices.Collect(maps.Keys(g.nodes)), g.connections)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Order:       order,
		Nodes:       maps.Clone(g.nodes),
		Connections: slices.Clone(g.connections),
	}, nil
}
