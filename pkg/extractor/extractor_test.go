package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/extractor"
	"osmch/pkg/profile"
	"osmch/pkg/rawmap"
)

func twoWayMap() *rawmap.Map {
	return &rawmap.Map{
		Nodes: map[int64]rawmap.Node{
			1: {ID: 1, Lat: 0.0, Lon: 0.0},
			2: {ID: 2, Lat: 0.0, Lon: 0.001},
			3: {ID: 3, Lat: 0.0, Lon: 0.002},
		},
		Ways: []rawmap.Way{
			{ID: 100, NodeIDs: []int64{1, 2, 3}, Tags: map[string]string{"highway": "residential", "name": "Main St"}},
		},
	}
}

func TestExtractBuildsOneEdgePerWaySegment(t *testing.T) {
	m := twoWayMap()
	result, err := extractor.Extract(m, profile.NewDefault())
	require.NoError(t, err)
	require.Len(t, result.Graph.Nodes, 3)
	require.Len(t, result.Graph.LiveEdges(), 2)
}

func TestExtractWeighsEdgesBySpeed(t *testing.T) {
	fast := twoWayMap()
	fast.Ways[0].Tags["highway"] = "motorway"
	slow := twoWayMap()
	slow.Ways[0].Tags["highway"] = "service"

	fastResult, err := extractor.Extract(fast, profile.NewDefault())
	require.NoError(t, err)
	slowResult, err := extractor.Extract(slow, profile.NewDefault())
	require.NoError(t, err)

	require.Less(t, fastResult.Graph.LiveEdges()[0].Weight, slowResult.Graph.LiveEdges()[0].Weight)
}

func TestExtractInternsWayNames(t *testing.T) {
	m := twoWayMap()
	result, err := extractor.Extract(m, profile.NewDefault())
	require.NoError(t, err)
	names := result.Names.All()
	require.Contains(t, names, "Main St")
}

func TestExtractResolvesRestrictionToAdjacentNodes(t *testing.T) {
	m := twoWayMap()
	m.Ways = append(m.Ways, rawmap.Way{ID: 200, NodeIDs: []int64{3, 1}, Tags: map[string]string{"highway": "residential"}})
	m.Restrictions = []rawmap.Restriction{
		{FromWayID: 100, ViaNodeID: 3, ToWayID: 200, Kind: "no_u_turn"},
	}
	result, err := extractor.Extract(m, profile.NewDefault())
	require.NoError(t, err)
	require.Len(t, result.Restrictions, 1)
}
