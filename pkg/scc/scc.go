// Package scc implements the SCC Labeler (C5): Tarjan's
// strongly-connected-components algorithm run over the directed
// augmented edge-based graph (the edge-based edges plus symmetric
// links between every paired forward/reverse edge-based node), used
// to annotate every edge-based node with a component id and a
// tiny-component flag.
package scc

import "osmch/pkg/format"

// TinyThreshold is the component-size cutoff below which a component
// is flagged tiny (suppressing snapping onto disconnected islands).
const TinyThreshold = 1000

// Label runs Tarjan's algorithm over nodes/edges and writes
// ComponentID and Tiny back onto each node in place, returning the
// per-component node counts indexed by component id.
func Label(nodes []format.EdgeBasedNode, edges []format.EdgeBasedEdge) []int {
	adj := buildAugmentedAdjacency(nodes, edges)
	t := &tarjan{
		adj:     adj,
		index:   make([]int32, len(nodes)),
		lowlink: make([]int32, len(nodes)),
		onStack: make([]bool, len(nodes)),
		comp:    make([]int32, len(nodes)),
	}
	for i := range t.index {
		t.index[i] = -1
	}

	for v := range nodes {
		if t.index[v] == -1 {
			t.strongConnect(int32(v))
		}
	}

	counts := make([]int, t.nextComp)
	for _, c := range t.comp {
		counts[c]++
	}
	for i := range nodes {
		nodes[i].ComponentID = uint32(t.comp[i])
		nodes[i].Tiny = counts[t.comp[i]] < TinyThreshold
	}
	return counts
}

// buildAugmentedAdjacency adds, to the edge-based edge adjacency, a
// symmetric link between every node's ForwardID and ReverseID (per
// spec §4.4), so a node and its opposite-direction twin always land
// in the same component.
func buildAugmentedAdjacency(nodes []format.EdgeBasedNode, edges []format.EdgeBasedEdge) [][]int32 {
	adj := make([][]int32, len(nodes))
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], int32(e.Target))
	}
	for _, n := range nodes {
		if n.ReverseID == format.NoEdge {
			continue
		}
		adj[n.ForwardID] = append(adj[n.ForwardID], int32(n.ReverseID))
		adj[n.ReverseID] = append(adj[n.ReverseID], int32(n.ForwardID))
	}
	return adj
}

// tarjan holds the algorithm's working state. strongConnect is
// iterative (an explicit work stack standing in for the call stack)
// since the augmented graph can be far too large for recursive DFS.
type tarjan struct {
	adj      [][]int32
	index    []int32
	lowlink  []int32
	onStack  []bool
	stack    []int32
	comp     []int32
	nextComp int32
	counter  int32
}

// frame is one explicit stack entry for strongConnect's DFS, tracking
// how far we've iterated through v's adjacency list so a push can
// resume it later.
type frame struct {
	v      int32
	adjPos int
	parent int32
	hasPar bool
}

func (t *tarjan) strongConnect(root int32) {
	work := []frame{{v: root, hasPar: false}}

	for len(work) > 0 {
		f := &work[len(work)-1]
		v := f.v

		if f.adjPos == 0 {
			t.index[v] = t.counter
			t.lowlink[v] = t.counter
			t.counter++
			t.stack = append(t.stack, v)
			t.onStack[v] = true
		}

		recursed := false
		for f.adjPos < len(t.adj[v]) {
			w := t.adj[v][f.adjPos]
			f.adjPos++
			if t.index[w] == -1 {
				work = append(work, frame{v: w, parent: v, hasPar: true})
				recursed = true
				break
			} else if t.onStack[w] {
				if t.index[w] < t.lowlink[v] {
					t.lowlink[v] = t.index[w]
				}
			}
		}
		if recursed {
			continue
		}

		// v's adjacency is exhausted: pop it, close its component if
		// it's a root, then propagate lowlink to its parent.
		work = work[:len(work)-1]
		if t.lowlink[v] == t.index[v] {
			for {
				w := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[w] = false
				t.comp[w] = t.nextComp
				if w == v {
					break
				}
			}
			t.nextComp++
		}
		if f.hasPar {
			p := f.parent
			if t.lowlink[v] < t.lowlink[p] {
				t.lowlink[p] = t.lowlink[v]
			}
		}
	}
}
