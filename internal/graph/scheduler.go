package graph

import (
	"slices"

	"github.com/u-stem/koto/internal/errors"
)

// ErrGraphCycle is returned when connections form a cycle.
var ErrGraphCycle = errors.NewStd("audio graph contains a cycle")

// Schedule returns a topological order of nodes using Kahn's algorithm over
// source to target edges. Nodes referenced only by connections are included.
// Whenever several nodes are ready the smallest ID goes first, so the result
// depends only on the input sets. Ports do not affect ordering.
func Schedule(nodes []NodeID, connections []Connection) ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(nodes))
	edges := make(map[NodeID][]NodeID, len(nodes))

	for _, id := range nodes {
		inDegree[id] += 0
	}
	for _, c := range connections {
		inDegree[c.Source] += 0
		inDegree[c.Target]++
		edges[c.Source] = append(edges[c.Source], c.Target)
	}

	ready := make([]NodeID, 0, len(inDegree))
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	slices.Sort(ready)

	order := make([]NodeID, 0, len(inDegree))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, next := range edges[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				pos, _ := slices.BinarySearch(ready, next)
				ready = slices.Insert(ready, pos, next)
			}
		}
	}

	if len(order) != len(inDegree) {
		var stuck []NodeID
		for id, d := range inDegree {
			if d > 0 {
				stuck = append(stuck, id)
			}
		}
		slices.Sort(stuck)
		return nil, errors.New(ErrGraphCycle).
			Component("graph").
			Category(errors.CategoryGraph).
			Context("unscheduled", stuck).
			Context("scheduled", len(order)).
			Build()
	}
	return order, nil
}
