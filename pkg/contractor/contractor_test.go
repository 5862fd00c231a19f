package contractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"osmch/pkg/contractor"
	"osmch/pkg/format"
)

func chainEdges() []format.EdgeBasedEdge {
	// 0 -> 1 -> 2 -> 3, weight 10 per hop.
	return []format.EdgeBasedEdge{
		{Source: 0, Target: 1, OriginalEdgeID: 0, Weight: 10, Forward: true},
		{Source: 1, Target: 2, OriginalEdgeID: 1, Weight: 10, Forward: true},
		{Source: 2, Target: 3, OriginalEdgeID: 2, Weight: 10, Forward: true},
	}
}

func TestContractChainProducesShortcutAcrossMiddleNode(t *testing.T) {
	log := zap.NewNop()
	res := contractor.Contract(log, 4, chainEdges(), 1.0, 2)

	require.NotEmpty(t, res.Edges)
	found := false
	for _, e := range res.Edges {
		if e.Source == 0 && e.Target == 2 && e.Weight == 20 {
			found = true
		}
		if e.Source == 1 && e.Target == 3 && e.Weight == 20 {
			found = true
		}
	}
	assert.True(t, found, "expected a shortcut bridging a contracted middle node")

	contractedCount := 0
	for _, isCore := range res.Core {
		if !isCore {
			contractedCount++
		}
	}
	assert.Greater(t, contractedCount, 0)
}

func TestContractFullyContractsAtCoreFactorOne(t *testing.T) {
	log := zap.NewNop()
	res := contractor.Contract(log, 4, chainEdges(), 1.0, 2)

	for _, isCore := range res.Core {
		assert.False(t, isCore, "core_factor=1.0 must leave zero uncontracted nodes")
	}
	for _, lvl := range res.Levels {
		assert.NotEqual(t, int32(-1), lvl)
	}
}

func TestContractStopsAtCoreFactorZero(t *testing.T) {
	log := zap.NewNop()
	res := contractor.Contract(log, 4, chainEdges(), 0.0, 2)

	for _, isCore := range res.Core {
		assert.True(t, isCore, "core_factor=0.0 must contract nothing")
	}
	for _, lvl := range res.Levels {
		assert.Equal(t, int32(-1), lvl)
	}
}

func TestContractCachedReplaysContractionOrderFromLevels(t *testing.T) {
	log := zap.NewNop()
	first := contractor.Contract(log, 4, chainEdges(), 1.0, 2)

	replayed := contractor.ContractCached(log, 4, chainEdges(), 1.0, 2, first.Levels)
	assert.Equal(t, len(first.Edges), len(replayed.Edges))
	for i, isCore := range first.Core {
		assert.Equal(t, isCore, replayed.Core[i])
	}
}

func TestContractDisconnectedIslandsDoNotInterfere(t *testing.T) {
	edges := []format.EdgeBasedEdge{
		{Source: 0, Target: 1, OriginalEdgeID: 0, Weight: 5, Forward: true},
		{Source: 2, Target: 3, OriginalEdgeID: 1, Weight: 7, Forward: true},
	}
	log := zap.NewNop()
	res := contractor.Contract(log, 4, edges, 1.0, 2)
	assert.NotNil(t, res.Edges)
}
