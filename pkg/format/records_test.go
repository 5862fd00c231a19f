package format_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/format"
)

func TestNodeBasedEdgeEncodeDecodeRoundTrip(t *testing.T) {
	e := format.NodeBasedEdge{
		Source: 7, Target: 9, NameID: 3, Weight: -42,
		Roundabout: true, AccessRestricted: true, Forward: true,
		TravelMode: 2, HighwayClassification: 5,
	}
	buf := make([]byte, format.NodeBasedEdgeSize)
	e.Encode(buf)
	require.Equal(t, e, format.DecodeNodeBasedEdge(buf))
}

func TestEdgeBasedEdgePacksDirectionBitsWithoutClobberingID(t *testing.T) {
	e := format.EdgeBasedEdge{Source: 1, Target: 2, OriginalEdgeID: 0x3FFFFFFF, Weight: 100, Forward: true, Backward: true}
	buf := make([]byte, format.EdgeBasedEdgeSize)
	e.Encode(buf)
	require.Equal(t, e, format.DecodeEdgeBasedEdge(buf))
}

func TestQueryEdgeRoundTripWithShortcutMiddle(t *testing.T) {
	e := format.QueryEdge{Target: 4, Weight: 55, OriginalEdgeID: 0, Shortcut: true, Middle: 12, Forward: true}
	buf := make([]byte, format.QueryEdgeSize)
	e.Encode(buf)
	require.Equal(t, e, format.DecodeQueryEdge(buf))
}

func TestRestrictionRecordRoundTrip(t *testing.T) {
	r := format.RestrictionRecord{FromNode: 1, ViaNode: 2, ToNode: 3, Kind: format.RestrictionOnly}
	buf := make([]byte, format.RestrictionRecordSize)
	r.Encode(buf)
	require.Equal(t, r, format.DecodeRestrictionRecord(buf))
}
