package nodegraph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
)

func TestAddEdgeIndexesBothEndpoints(t *testing.T) {
	g := nodegraph.NewGraph(2)
	idx := g.AddEdge(format.NodeBasedEdge{Source: 0, Target: 1, Weight: 5, Forward: true})
	require.Equal(t, int32(0), idx)
	require.Equal(t, 1, g.Degree(0))
	require.Equal(t, 1, g.Degree(1))
}

func TestRemoveEdgeTombstonesWithoutShiftingIndices(t *testing.T) {
	g := nodegraph.NewGraph(2)
	idx := g.AddEdge(format.NodeBasedEdge{Source: 0, Target: 1, Weight: 5, Forward: true})
	g.RemoveEdge(idx)
	require.Zero(t, g.Degree(0))
	require.Zero(t, g.Degree(1))
	require.Empty(t, g.LiveEdges())
	require.Len(t, g.Edges, 1) // arena slot stays, just tombstoned
}

func TestRemoveEdgeIsIdempotent(t *testing.T) {
	g := nodegraph.NewGraph(2)
	idx := g.AddEdge(format.NodeBasedEdge{Source: 0, Target: 1, Forward: true})
	g.RemoveEdge(idx)
	require.NotPanics(t, func() { g.RemoveEdge(idx) })
}
