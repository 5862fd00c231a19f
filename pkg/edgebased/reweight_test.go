package edgebased_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/edgebased"
	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
)

func TestLoadSpeedTableParsesUnorderedPairs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "speeds.csv")
	require.NoError(t, os.WriteFile(path, []byte("10,20,50\n"), 0o644))

	table, err := edgebased.LoadSpeedTable(path)
	require.NoError(t, err)
	require.Len(t, table, 1)
	require.Equal(t, 50.0, table[[2]uint64{10, 20}])
}

func TestLoadSpeedTableRejectsZeroSpeedRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "speeds.csv")
	require.NoError(t, os.WriteFile(path, []byte("10,20,0\n"), 0o644))

	_, err := edgebased.LoadSpeedTable(path)
	require.Error(t, err)
}

func TestLoadSpeedTableRejectsNegativeSpeedRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "speeds.csv")
	require.NoError(t, os.WriteFile(path, []byte("10,20,-5\n"), 0o644))

	_, err := edgebased.LoadSpeedTable(path)
	require.Error(t, err)
}

func TestReadSegmentLookupChainedSeedsFromNodeFromEdgeSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lookup")

	// edge-based nodes are indexed independently of edge-based edges;
	// pick Source indices that don't line up with the edge's own index
	// to catch any accidental edges[i]<->nodes[i] mix-up.
	nodes := []edgebased.Node{
		{FromInternal: 100},
		{FromInternal: 101},
		{FromInternal: 102},
		{FromInternal: 103},
	}
	edges := []format.EdgeBasedEdge{
		{Source: 2, Target: 3},
		{Source: 0, Target: 1},
	}
	written := [][]edgebased.Segment{
		{{ToNode: 5, LengthMeters: 10, Weight: 1}, {ToNode: 6, LengthMeters: 20, Weight: 2}},
		{{ToNode: 7, LengthMeters: 30, Weight: 3}},
	}
	require.NoError(t, edgebased.WriteSegmentLookup(path, written))

	segments, err := edgebased.ReadSegmentLookupChained(path, nodes, edges)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	require.Equal(t, uint32(102), segments[0][0].FromNode) // nodes[edges[0].Source=2].FromInternal
	require.Equal(t, uint32(5), segments[0][1].FromNode)   // chained from segment 0's ToNode
	require.Equal(t, uint32(100), segments[1][0].FromNode) // nodes[edges[1].Source=0].FromInternal
}

func TestReweightOverridesSegmentWeightFromSpeedTable(t *testing.T) {
	g := nodegraph.NewGraph(2)
	g.Nodes[0] = nodegraph.Node{ExternalID: 10, Lat: 0.0, Lon: 0.0}
	g.Nodes[1] = nodegraph.Node{ExternalID: 20, Lat: 0.0, Lon: 0.001}

	edges := []format.EdgeBasedEdge{{Source: 0, Target: 1, Weight: 999}}
	segments := [][]edgebased.Segment{{{FromNode: 0, ToNode: 1, LengthMeters: 100, Weight: 999}}}
	penalties := []int32{0}
	table := edgebased.SpeedTable{{10, 20}: 36} // 36 km/h == 10 m/s -> 100m costs 10s == weight 100

	edgebased.Reweight(g, edges, segments, penalties, table)
	require.Equal(t, int32(100), edges[0].Weight)
}

func TestReweightOverrideRowMatchesPublishedExample(t *testing.T) {
	// Original segment (X,Y), length 100m, starting weight 36.
	// Override row (X,Y,72) yields new weight 50, per the published
	// worked example: max(1, floor(100*10/(72/3.6)+0.5)) = 50.
	g := nodegraph.NewGraph(2)
	g.Nodes[0] = nodegraph.Node{ExternalID: 100} // X
	g.Nodes[1] = nodegraph.Node{ExternalID: 200} // Y

	edges := []format.EdgeBasedEdge{{Source: 0, Target: 1, Weight: 36}}
	segments := [][]edgebased.Segment{{{FromNode: 0, ToNode: 1, LengthMeters: 100, Weight: 36}}}
	penalties := []int32{0}
	table := edgebased.SpeedTable{{100, 200}: 72}

	edgebased.Reweight(g, edges, segments, penalties, table)
	require.Equal(t, int32(50), edges[0].Weight)
}

func TestReweightFallsBackToOriginalWeightWhenUnmatched(t *testing.T) {
	g := nodegraph.NewGraph(2)
	g.Nodes[0] = nodegraph.Node{ExternalID: 10}
	g.Nodes[1] = nodegraph.Node{ExternalID: 20}

	edges := []format.EdgeBasedEdge{{Source: 0, Target: 1, Weight: 999}}
	segments := [][]edgebased.Segment{{{FromNode: 0, ToNode: 1, LengthMeters: 100, Weight: 42}}}
	penalties := []int32{5}
	table := edgebased.SpeedTable{}

	edgebased.Reweight(g, edges, segments, penalties, table)
	require.Equal(t, int32(47), edges[0].Weight)
}
