package spatialindex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osmch/pkg/format"
	"osmch/pkg/nodegraph"
)

func threeNodeGraph() (*nodegraph.Graph, []format.EdgeBasedNode) {
	g := nodegraph.NewGraph(3)
	g.Nodes[0] = nodegraph.Node{Lat: 0, Lon: 0}
	g.Nodes[1] = nodegraph.Node{Lat: 0, Lon: 1}
	g.Nodes[2] = nodegraph.Node{Lat: 10, Lon: 10}

	nodes := []format.EdgeBasedNode{
		{FromInternal: 0, ToInternal: 1},
		{FromInternal: 1, ToInternal: 2},
	}
	return g, nodes
}

func TestBuildEntriesBoundingBoxes(t *testing.T) {
	g, nodes := threeNodeGraph()
	entries := BuildEntries(g, nodes)

	require.Len(t, entries, 2)
	assert.Equal(t, 0.0, entries[0].MinLat)
	assert.Equal(t, 1.0, entries[0].MaxLon)
	assert.Equal(t, 10.0, entries[1].MaxLat)
}

func TestWriteReadRoundTrip(t *testing.T) {
	g, nodes := threeNodeGraph()
	entries := BuildEntries(g, nodes)

	base := filepath.Join(t.TempDir(), "index")
	require.NoError(t, Write(base, entries, 1))

	idx, err := Read(base)
	require.NoError(t, err)

	found := idx.Query(-1, -1, 1, 0.5)
	assert.Len(t, found, 1)
	assert.Equal(t, uint32(0), found[0].NodeID)

	foundAll := idx.Query(-1, -1, 11, 11)
	assert.Len(t, foundAll, 2)

	_, statErr := os.Stat(base + ".ramIndex")
	assert.NoError(t, statErr)
	_, statErr = os.Stat(base + ".fileIndex")
	assert.NoError(t, statErr)
}

func TestBuildTreeBulkLoadsWithoutError(t *testing.T) {
	g, nodes := threeNodeGraph()
	entries := BuildEntries(g, nodes)

	tree := BuildTree(entries, 2, 4)
	assert.Equal(t, len(entries), tree.Size())
}
