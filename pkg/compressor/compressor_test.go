package compressor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
	"osmch/pkg/restriction"
)

// linearChain builds A -(0)-> B -(1)-> C -(2)-> D, all four edges
// sharing the same name/mode/access/direction/roundabout/class
// attributes, with B and C plain degree-2 intersections.
func linearChain() *nodegraph.Graph {
	g := nodegraph.NewGraph(4)
	g.Nodes[0] = nodegraph.Node{ExternalID: 100, Lat: 0.00, Lon: 0.00}
	g.Nodes[1] = nodegraph.Node{ExternalID: 101, Lat: 0.01, Lon: 0.00}
	g.Nodes[2] = nodegraph.Node{ExternalID: 102, Lat: 0.02, Lon: 0.00}
	g.Nodes[3] = nodegraph.Node{ExternalID: 103, Lat: 0.03, Lon: 0.00}

	mk := func(src, dst uint32, w int32) format.NodeBasedEdge {
		return format.NodeBasedEdge{
			Source: src, Target: dst, NameID: 7, Weight: w,
			Forward: true, Backward: true, TravelMode: 1, HighwayClassification: 3,
		}
	}
	g.AddEdge(mk(0, 1, 50))
	g.AddEdge(mk(1, 2, 50))
	g.AddEdge(mk(2, 3, 50))
	return g
}

func TestCollapsesLinearChain(t *testing.T) {
	g := linearChain()
	restr := restriction.NewMap(nil)

	res := Compress(g, restr, DefaultSignalPenaltyDeciseconds)

	live := res.Graph.LiveEdges()
	require.Len(t, live, 1)
	assert.Equal(t, uint32(0), live[0].Source)
	assert.Equal(t, uint32(3), live[0].Target)
	assert.Equal(t, int32(150), live[0].Weight)
	assert.True(t, live[0].Geometry)
}

func TestBarrierStopsCollapse(t *testing.T) {
	g := linearChain()
	g.Nodes[1].Barrier = true
	restr := restriction.NewMap(nil)

	res := Compress(g, restr, DefaultSignalPenaltyDeciseconds)

	live := res.Graph.LiveEdges()
	// node 1 stays uncollapsed; node 2 still collapses into node 1..3? no:
	// edges (0,1) and (1,2) cannot merge (1 is a barrier), but (1,2) and
	// (2,3) can, since node 2 is untouched.
	require.Len(t, live, 2)
}

func TestRestrictionStopsCollapse(t *testing.T) {
	g := linearChain()
	restr := restriction.NewMap([]format.RestrictionRecord{
		{FromNode: 0, ViaNode: 1, ToNode: 2, Kind: format.RestrictionNo},
	})

	res := Compress(g, restr, DefaultSignalPenaltyDeciseconds)

	live := res.Graph.LiveEdges()
	require.Len(t, live, 3)
}

func TestSignalPenaltyFoldedIntoDownstreamWeight(t *testing.T) {
	g := linearChain()
	g.Nodes[1].TrafficSignal = true
	restr := restriction.NewMap(nil)

	res := Compress(g, restr, DefaultSignalPenaltyDeciseconds)

	live := res.Graph.LiveEdges()
	require.Len(t, live, 1)
	assert.Equal(t, int32(150+DefaultSignalPenaltyDeciseconds), live[0].Weight)
}

func TestMismatchedAttributesStopCollapse(t *testing.T) {
	g := linearChain()
	// make edge (1,2) a different name: the chain can no longer merge
	// through node 1 or node 2 as a single run.
	idx := g.AdjOut[1][0]
	e := g.Edges[idx]
	e.NameID = 999
	g.Edges[idx] = e
	restr := restriction.NewMap(nil)

	res := Compress(g, restr, DefaultSignalPenaltyDeciseconds)

	live := res.Graph.LiveEdges()
	require.Len(t, live, 3)
}
