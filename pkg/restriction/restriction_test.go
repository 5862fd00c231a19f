package restriction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"osmch/pkg/format"
)

func TestNoTurnRestriction(t *testing.T) {
	m := NewMap([]format.RestrictionRecord{
		{FromNode: 1, ViaNode: 2, ToNode: 3, Kind: format.RestrictionNo},
	})

	assert.Equal(t, Forbidden, m.Check(1, 2, 3))
	assert.False(t, m.Allowed(1, 2, 3))
	assert.True(t, m.Allowed(4, 2, 3))
	assert.True(t, m.InvolvesNode(1))
	assert.True(t, m.InvolvesNode(2))
	assert.True(t, m.InvolvesNode(3))
	assert.False(t, m.InvolvesNode(99))
}

func TestOnlyTurnRestriction(t *testing.T) {
	m := NewMap([]format.RestrictionRecord{
		{FromNode: 1, ViaNode: 2, ToNode: 3, Kind: format.RestrictionOnly},
	})

	assert.Equal(t, OnlyAllowed, m.Check(1, 2, 3))
	assert.Equal(t, OnlyForbidden, m.Check(1, 2, 4))
	assert.True(t, m.Allowed(1, 2, 3))
	assert.False(t, m.Allowed(1, 2, 4))
	// a from-node not named by the only-restriction is unaffected.
	assert.Equal(t, Unrestricted, m.Check(5, 2, 3))
}

func TestUnrestrictedNode(t *testing.T) {
	m := NewMap(nil)
	assert.Equal(t, Unrestricted, m.Check(1, 2, 3))
	assert.True(t, m.Allowed(1, 2, 3))
	assert.False(t, m.InvolvesNode(2))
	assert.Equal(t, 0, m.Len())
}

func TestLenCountsAllRecords(t *testing.T) {
	m := NewMap([]format.RestrictionRecord{
		{FromNode: 1, ViaNode: 2, ToNode: 3, Kind: format.RestrictionNo},
		{FromNode: 4, ViaNode: 2, ToNode: 5, Kind: format.RestrictionNo},
		{FromNode: 6, ViaNode: 7, ToNode: 8, Kind: format.RestrictionOnly},
	})
	assert.Equal(t, 3, m.Len())
}
