// Package contractor implements the Contractor (C8): parallel
// contraction-hierarchy construction over the edge-based graph,
// producing shortcut edges, per-node levels, and a bitmap of nodes
// left in the uncontracted core.
package contractor

import "osmch/pkg/format"

// liveEdge is one directed edge in the contraction working graph,
// either an original edge-based edge or a shortcut added while
// contracting some node.
type liveEdge struct {
	target         uint32
	weight         int32
	originalEdgeID uint32
	shortcut       bool
	middle         uint32
	hops           int // original edge-based edges folded into this one
}

// Graph is the mutable working graph contraction runs against.
// Contracting a node never removes its edges — it only flips
// contracted[v], so every edge ever live (original or shortcut) is
// still present for the final output; simulate/witness search skip
// contracted nodes explicitly instead.
type Graph struct {
	out        [][]liveEdge
	in         [][]liveEdge
	contracted []bool
	level      []int32
	depth      []int32
	n          int
}

// NewGraph builds the working graph from the edge-based graph's edges.
func NewGraph(nodeCount int, edges []format.EdgeBasedEdge) *Graph {
	g := &Graph{
		out:        make([][]liveEdge, nodeCount),
		in:         make([][]liveEdge, nodeCount),
		contracted: make([]bool, nodeCount),
		level:      make([]int32, nodeCount),
		depth:      make([]int32, nodeCount),
		n:          nodeCount,
	}
	for i := range g.level {
		g.level[i] = -1
	}
	for _, e := range edges {
		g.out[e.Source] = append(g.out[e.Source], liveEdge{
			target: e.Target, weight: e.Weight, originalEdgeID: e.OriginalEdgeID, hops: 1,
		})
		g.in[e.Target] = append(g.in[e.Target], liveEdge{
			target: e.Source, weight: e.Weight, originalEdgeID: e.OriginalEdgeID, hops: 1,
		})
	}
	return g
}

// addShortcut inserts (or updates) the directed edge from->to with
// weight/hops/middle, deduping by (from,to): an existing edge is
// replaced, and marked as a shortcut, only when the new weight is
// strictly shorter; otherwise it is left unchanged.
func (g *Graph) addShortcut(from, to uint32, weight int32, hops int, middle uint32) {
	for i := range g.out[from] {
		e := &g.out[from][i]
		if e.target != to {
			continue
		}
		if weight < e.weight {
			e.weight, e.hops, e.middle, e.shortcut = weight, hops, middle, true
			g.updateInCopy(to, from, weight, hops, middle)
		}
		return
	}
	g.out[from] = append(g.out[from], liveEdge{target: to, weight: weight, hops: hops, middle: middle, shortcut: true})
	g.in[to] = append(g.in[to], liveEdge{target: from, weight: weight, hops: hops, middle: middle, shortcut: true})
}

func (g *Graph) updateInCopy(to, from uint32, weight int32, hops int, middle uint32) {
	for i := range g.in[to] {
		e := &g.in[to][i]
		if e.target == from {
			e.weight, e.hops, e.middle, e.shortcut = weight, hops, middle, true
			return
		}
	}
}

// liveDegreeOut/In count a node's edges toward still-live neighbors.
func (g *Graph) liveDegreeOut(v uint32) int {
	n := 0
	for _, e := range g.out[v] {
		if !g.contracted[e.target] {
			n++
		}
	}
	return n
}

func (g *Graph) liveDegreeIn(v uint32) int {
	n := 0
	for _, e := range g.in[v] {
		if !g.contracted[e.target] {
			n++
		}
	}
	return n
}

// neighbors returns v's distinct live neighbors (either direction).
func (g *Graph) neighbors(v uint32) []uint32 {
	seen := map[uint32]struct{}{}
	var out []uint32
	add := func(u uint32) {
		if u == v || g.contracted[u] {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	for _, e := range g.out[v] {
		add(e.target)
	}
	for _, e := range g.in[v] {
		add(e.target)
	}
	return out
}

// twoHopNeighborhood returns v's neighbors plus its neighbors'
// neighbors, deduplicated and excluding v itself.
func (g *Graph) twoHopNeighborhood(v uint32) []uint32 {
	seen := map[uint32]struct{}{v: {}}
	var out []uint32
	first := g.neighbors(v)
	for _, u := range first {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	for _, u := range first {
		for _, w := range g.neighbors(u) {
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

// ContractedEdge is one finalized record of the contraction output:
// an edge-based-edge source plus its query-graph edge.
type ContractedEdge struct {
	Source uint32
	format.QueryEdge
}

// finalEdges drains every edge (original or shortcut) currently in
// the graph, tagged with its source node, for the serializer.
func (g *Graph) finalEdges() []ContractedEdge {
	var out []ContractedEdge
	for v := range g.out {
		for _, e := range g.out[v] {
			out = append(out, ContractedEdge{
				Source: uint32(v),
				QueryEdge: format.QueryEdge{
					Target:         e.target,
					Weight:         e.weight,
					OriginalEdgeID: e.originalEdgeID,
					Forward:        true,
					Shortcut:       e.shortcut,
					Middle:         e.middle,
				},
			})
		}
	}
	return out
}

// mergeBidirectional collapses pairs of opposite-direction edges that
// share the same endpoints, weight, shortcut flag and middle node
// into a single record carrying both Forward and Backward bits,
// halving storage for the common symmetric-street case (spec §4.6
// directionality note).
func mergeBidirectional(edges []ContractedEdge) []ContractedEdge {
	index := make(map[[2]uint32]int, len(edges))
	drop := make([]bool, len(edges))
	for i, e := range edges {
		index[[2]uint32{e.Source, e.Target}] = i
	}
	for i, e := range edges {
		if drop[i] {
			continue
		}
		j, ok := index[[2]uint32{e.Target, e.Source}]
		if !ok || j == i || drop[j] {
			continue
		}
		other := edges[j]
		if other.Weight == e.Weight && other.Shortcut == e.Shortcut && other.Middle == e.Middle {
			edges[i].Backward = true
			drop[j] = true
		}
	}
	out := make([]ContractedEdge, 0, len(edges))
	for i, e := range edges {
		if !drop[i] {
			out = append(out, e)
		}
	}
	return out
}
