package edgebased_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/edgebased"
	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
	"osmch/pkg/profile"
	"osmch/pkg/restriction"
)

func chainGraph() *nodegraph.Graph {
	g := nodegraph.NewGraph(3)
	g.Nodes[0] = nodegraph.Node{Lat: 0.0, Lon: 0.0}
	g.Nodes[1] = nodegraph.Node{Lat: 0.0, Lon: 0.001}
	g.Nodes[2] = nodegraph.Node{Lat: 0.0, Lon: 0.002}
	g.AddEdge(format.NodeBasedEdge{Source: 0, Target: 1, Weight: 10, Forward: true})
	g.AddEdge(format.NodeBasedEdge{Source: 1, Target: 2, Weight: 10, Forward: true})
	return g
}

func TestBuildGeneratesOneTurnAcrossMiddleNode(t *testing.T) {
	g := chainGraph()
	factory := edgebased.Factory{
		Graph:          g,
		EdgeGeometryID: map[int32]uint32{},
		Restrictions:   restriction.NewMap(nil),
		Profile:        profile.NewDefault(),
	}
	nodes, edges, segments, penalties := factory.Build()

	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)
	require.Len(t, segments, 1)
	require.Len(t, penalties, 1)
	require.Equal(t, uint32(0), edges[0].Source)
	require.Equal(t, uint32(1), edges[0].Target)
	require.Greater(t, edges[0].Weight, int32(0))
}

func TestBuildVetoesRestrictedTurn(t *testing.T) {
	g := chainGraph()
	restrictions := restriction.NewMap([]format.RestrictionRecord{
		{FromNode: 0, ViaNode: 1, ToNode: 2, Kind: format.RestrictionNo},
	})
	factory := edgebased.Factory{
		Graph:          g,
		EdgeGeometryID: map[int32]uint32{},
		Restrictions:   restrictions,
		Profile:        profile.NewDefault(),
	}
	_, edges, _, _ := factory.Build()
	require.Empty(t, edges)
}

func TestBuildAllowsUTurnAtDeadEnd(t *testing.T) {
	// X(2) -- A(0) -- B(1): B is a dead end (degree 1), A is not (degree 2).
	g := nodegraph.NewGraph(3)
	g.Nodes[0] = nodegraph.Node{Lat: 0.0, Lon: 0.0}
	g.Nodes[1] = nodegraph.Node{Lat: 0.0, Lon: 0.001}
	g.Nodes[2] = nodegraph.Node{Lat: 0.0, Lon: -0.001}
	g.AddEdge(format.NodeBasedEdge{Source: 2, Target: 0, Weight: 10, Forward: true, Backward: true})
	g.AddEdge(format.NodeBasedEdge{Source: 0, Target: 1, Weight: 10, Forward: true, Backward: true})

	factory := edgebased.Factory{
		Graph:          g,
		EdgeGeometryID: map[int32]uint32{},
		Restrictions:   restriction.NewMap(nil),
		Profile:        profile.NewDefault(),
	}
	nodes, edges, _, _ := factory.Build()

	uTurnsAtB := 0
	for _, e := range edges {
		if nodes[e.Source].ToInternal == 1 && nodes[e.Target].FromInternal == 1 && nodes[e.Source].FromInternal == nodes[e.Target].ToInternal {
			uTurnsAtB++
		}
	}
	require.Equal(t, 1, uTurnsAtB)

	for _, e := range edges {
		require.False(t, nodes[e.Source].ToInternal == 0 && nodes[e.Target].FromInternal == 0 &&
			nodes[e.Source].FromInternal == nodes[e.Target].ToInternal,
			"u-turn at A must be forbidden, A has degree 2")
	}
}

func TestBuildNoLeftTurnRestrictionSparesOtherOutgoingEdges(t *testing.T) {
	g := nodegraph.NewGraph(4)
	g.Nodes[0] = nodegraph.Node{Lat: 0.0, Lon: 0.0}   // A
	g.Nodes[1] = nodegraph.Node{Lat: 0.0, Lon: 0.001} // V
	g.Nodes[2] = nodegraph.Node{Lat: 0.001, Lon: 0.002}
	g.Nodes[3] = nodegraph.Node{Lat: -0.001, Lon: 0.002}
	g.AddEdge(format.NodeBasedEdge{Source: 0, Target: 1, Weight: 10, Forward: true}) // A->V
	g.AddEdge(format.NodeBasedEdge{Source: 1, Target: 2, Weight: 10, Forward: true}) // V->B
	g.AddEdge(format.NodeBasedEdge{Source: 1, Target: 3, Weight: 10, Forward: true}) // V->C

	restrictions := restriction.NewMap([]format.RestrictionRecord{
		{FromNode: 0, ViaNode: 1, ToNode: 2, Kind: format.RestrictionNo},
	})
	factory := edgebased.Factory{
		Graph:          g,
		EdgeGeometryID: map[int32]uint32{},
		Restrictions:   restrictions,
		Profile:        profile.NewDefault(),
	}
	nodes, edges, _, _ := factory.Build()

	require.Len(t, edges, 1)
	require.Equal(t, uint32(3), nodes[edges[0].Target].ToInternal)
}
