package rawmap

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagMapDropsMetadataTags(t *testing.T) {
	tags := osm.Tags{
		{Key: "highway", Value: "residential"},
		{Key: "created_by", Value: "JOSM"},
		{Key: "source", Value: "survey"},
		{Key: "note", Value: "check this"},
		{Key: "fixme", Value: "broken geometry"},
	}

	got := tagMap(tags)

	assert.Equal(t, map[string]string{"highway": "residential"}, got)
}

func TestTagMapEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, tagMap(nil))
}

func TestRestrictionFromRelationResolvesFromViaTo(t *testing.T) {
	rel := &osm.Relation{
		Tags: osm.Tags{{Key: "type", Value: "restriction"}, {Key: "restriction", Value: "no_left_turn"}},
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: 10, Role: "from"},
			{Type: osm.TypeNode, Ref: 20, Role: "via"},
			{Type: osm.TypeWay, Ref: 30, Role: "to"},
		},
	}

	restrictions := restrictionFromRelation(rel)

	require.Len(t, restrictions, 1)
	assert.Equal(t, Restriction{FromWayID: 10, ViaNodeID: 20, ToWayID: 30, Kind: "no_left_turn"}, restrictions[0])
}

func TestRestrictionFromRelationRejectsWayViaMember(t *testing.T) {
	rel := &osm.Relation{
		Tags: osm.Tags{{Key: "type", Value: "restriction"}, {Key: "restriction", Value: "no_u_turn"}},
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: 10, Role: "from"},
			{Type: osm.TypeWay, Ref: 15, Role: "via"},
			{Type: osm.TypeWay, Ref: 30, Role: "to"},
		},
	}

	assert.Empty(t, restrictionFromRelation(rel))
}

func TestRestrictionFromRelationRejectsMissingRestrictionTag(t *testing.T) {
	rel := &osm.Relation{
		Tags: osm.Tags{{Key: "type", Value: "restriction"}},
		Members: osm.Members{
			{Type: osm.TypeWay, Ref: 10, Role: "from"},
			{Type: osm.TypeNode, Ref: 20, Role: "via"},
			{Type: osm.TypeWay, Ref: 30, Role: "to"},
		},
	}

	assert.Empty(t, restrictionFromRelation(rel))
}
