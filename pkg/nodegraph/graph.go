// Package nodegraph holds the node-based graph: the intersection/
// road-segment representation produced by the extractor front-end and
// consumed by the graph compressor (C3) and the edge-based graph
// factory (C4).
package nodegraph

import (
	"osmch/pkg/format"
)

// Node is one intersection (or any other node the extractor kept) in
// internal-id space.
type Node struct {
	ExternalID    uint64
	Lat, Lon      float64
	Barrier       bool
	TrafficSignal bool
}

// Graph is a node-based graph held as an edge arena plus a per-node
// adjacency list of arena indices — dense indices rather than
// pointers, so the compressor can delete/redirect edges in place
// without invalidating anything but the indices it explicitly touches.
type Graph struct {
	Nodes []Node
	Edges []format.NodeBasedEdge // arena; Tombstoned marks a dead slot
	// AdjOut[v] / AdjIn[v] are arena indices of edges leaving/entering v.
	AdjOut [][]int32
	AdjIn  [][]int32

	Tombstoned []bool
}

// NewGraph returns an empty graph with n pre-sized node slots.
func NewGraph(n int) *Graph {
	return &Graph{
		Nodes:      make([]Node, n),
		Edges:      make([]format.NodeBasedEdge, 0),
		AdjOut:     make([][]int32, n),
		AdjIn:      make([][]int32, n),
		Tombstoned: make([]bool, 0),
	}
}

// AddEdge appends e to the arena and indexes it into the adjacency
// lists of its endpoints, returning its arena index.
func (g *Graph) AddEdge(e format.NodeBasedEdge) int32 {
	idx := int32(len(g.Edges))
	g.Edges = append(g.Edges, e)
	g.Tombstoned = append(g.Tombstoned, false)
	g.AdjOut[e.Source] = append(g.AdjOut[e.Source], idx)
	g.AdjIn[e.Target] = append(g.AdjIn[e.Target], idx)
	return idx
}

// RemoveEdge tombstones edge idx and unlinks it from both endpoints'
// adjacency lists. The arena slot itself is left in place so no other
// index shifts.
func (g *Graph) RemoveEdge(idx int32) {
	if g.Tombstoned[idx] {
		return
	}
	g.Tombstoned[idx] = true
	e := g.Edges[idx]
	g.AdjOut[e.Source] = removeValue(g.AdjOut[e.Source], idx)
	g.AdjIn[e.Target] = removeValue(g.AdjIn[e.Target], idx)
}

func removeValue(s []int32, v int32) []int32 {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// OutEdges returns the live (non-tombstoned) edges leaving v.
func (g *Graph) OutEdges(v uint32) []format.NodeBasedEdge {
	idxs := g.AdjOut[v]
	out := make([]format.NodeBasedEdge, 0, len(idxs))
	for _, idx := range idxs {
		if !g.Tombstoned[idx] {
			out = append(out, g.Edges[idx])
		}
	}
	return out
}

// Degree returns the number of live edges touching v, counting both
// directions (an undirected-style degree, as used by the compressor's
// degree-2 collapsibility test).
func (g *Graph) Degree(v uint32) int {
	d := 0
	for _, idx := range g.AdjOut[v] {
		if !g.Tombstoned[idx] {
			d++
		}
	}
	for _, idx := range g.AdjIn[v] {
		if !g.Tombstoned[idx] {
			d++
		}
	}
	return d
}

// LiveEdges returns every non-tombstoned edge in arena order.
func (g *Graph) LiveEdges() []format.NodeBasedEdge {
	out := make([]format.NodeBasedEdge, 0, len(g.Edges))
	for i, e := range g.Edges {
		if !g.Tombstoned[int32(i)] {
			out = append(out, e)
		}
	}
	return out
}
