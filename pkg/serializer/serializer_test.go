package serializer_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osmch/pkg/contractor"
	"osmch/pkg/format"
	"osmch/pkg/serializer"
)

func sampleEdges() []contractor.ContractedEdge {
	return []contractor.ContractedEdge{
		{Source: 2, QueryEdge: format.QueryEdge{Target: 3, Weight: 5, Forward: true}},
		{Source: 0, QueryEdge: format.QueryEdge{Target: 1, Weight: 10, Forward: true}},
		{Source: 0, QueryEdge: format.QueryEdge{Target: 2, Weight: 20, Forward: true, Shortcut: true, Middle: 1}},
	}
}

func TestBuildProducesSortedCSR(t *testing.T) {
	nodeArray, edgeArray := serializer.Build(sampleEdges(), 4)
	require.Len(t, nodeArray, 5)
	require.Len(t, edgeArray, 3)

	assert.Equal(t, uint32(0), nodeArray[0])
	assert.Equal(t, uint32(2), nodeArray[1]) // node 1 has no outgoing edge
	assert.Equal(t, uint32(2), nodeArray[2])
	assert.Equal(t, uint32(3), nodeArray[3]) // node 3 has no outgoing edge
	assert.Equal(t, uint32(3), nodeArray[4]) // sentinel == total edge count

	assert.Equal(t, uint32(1), edgeArray[0].Target)
	assert.Equal(t, uint32(2), edgeArray[1].Target)
	assert.Equal(t, uint32(3), edgeArray[2].Target)
}

func TestHsgrWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.hsgr")

	nodeArray, edgeArray := serializer.Build(sampleEdges(), 4)
	require.NoError(t, serializer.Write(path, nodeArray, edgeArray))

	gotNodes, gotEdges, err := serializer.Read(path)
	require.NoError(t, err)
	assert.Equal(t, nodeArray, gotNodes)
	assert.Equal(t, edgeArray, gotEdges)
}

func TestCoreBitmapRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.core")

	core := []bool{true, false, true, true, false, false, false, false, true}
	require.NoError(t, serializer.WriteCore(path, core))

	got, err := serializer.ReadCore(path)
	require.NoError(t, err)
	assert.Equal(t, core, got)
}

func TestLevelRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.level")

	levels := []int32{-1, 0, 3, 7, -1}
	require.NoError(t, serializer.WriteLevel(path, levels))

	got, err := serializer.ReadLevel(path)
	require.NoError(t, err)
	assert.Equal(t, levels, got)
}
