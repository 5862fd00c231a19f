package scc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osmch/pkg/format"
)

// pairedNode builds a forward/reverse edge-based-node pair at ids
// fwd, fwd+1.
func pairedNode(fwd uint32) format.EdgeBasedNode {
	return format.EdgeBasedNode{ForwardID: fwd, ReverseID: fwd + 1}
}

func TestPairedNodesShareComponent(t *testing.T) {
	nodes := []format.EdgeBasedNode{
		pairedNode(0), // ids 0,1
	}
	// ReverseID is stamped on id 1's own record too, mirrored.
	nodes = append(nodes, format.EdgeBasedNode{ForwardID: 1, ReverseID: 0})
	edges := []format.EdgeBasedEdge{}

	Label(nodes, edges)

	assert.Equal(t, nodes[0].ComponentID, nodes[1].ComponentID)
}

func TestDisconnectedIslandsGetDistinctComponents(t *testing.T) {
	// island A: 0<->1 (paired), island B: 2<->3 (paired), no edges between.
	nodes := []format.EdgeBasedNode{
		{ForwardID: 0, ReverseID: 1},
		{ForwardID: 1, ReverseID: 0},
		{ForwardID: 2, ReverseID: 3},
		{ForwardID: 3, ReverseID: 2},
	}
	Label(nodes, nil)

	assert.Equal(t, nodes[0].ComponentID, nodes[1].ComponentID)
	assert.Equal(t, nodes[2].ComponentID, nodes[3].ComponentID)
	assert.NotEqual(t, nodes[0].ComponentID, nodes[2].ComponentID)
}

func TestTinyComponentFlag(t *testing.T) {
	// a 4-node mutually reachable component (tiny) and one large
	// component built as a single long cycle of >= TinyThreshold nodes.
	const big = TinyThreshold + 5

	nodes := make([]format.EdgeBasedNode, 0, 4+big)
	var edges []format.EdgeBasedEdge

	// small strongly connected ring: 0->1->2->3->0
	for i := 0; i < 4; i++ {
		nodes = append(nodes, format.EdgeBasedNode{ForwardID: uint32(i), ReverseID: format.NoEdge})
	}
	for i := 0; i < 4; i++ {
		edges = append(edges, format.EdgeBasedEdge{Source: uint32(i), Target: uint32((i + 1) % 4)})
	}

	base := uint32(len(nodes))
	for i := 0; i < big; i++ {
		nodes = append(nodes, format.EdgeBasedNode{ForwardID: base + uint32(i), ReverseID: format.NoEdge})
	}
	for i := 0; i < big; i++ {
		edges = append(edges, format.EdgeBasedEdge{Source: base + uint32(i), Target: base + uint32((i+1)%big)})
	}

	counts := Label(nodes, edges)
	require.NotEmpty(t, counts)

	assert.True(t, nodes[0].Tiny)
	assert.False(t, nodes[base].Tiny)
}
