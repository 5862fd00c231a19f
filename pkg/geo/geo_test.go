package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"osmch/pkg/geo"
)

func TestHaversineDistanceKnownSeparation(t *testing.T) {
	// One degree of longitude at the equator is roughly 111.2km.
	d := geo.HaversineDistanceMeters(0, 0, 0, 1)
	require.InDelta(t, 111195.0, d, 500.0)
}

func TestHaversineDistanceZeroForSamePoint(t *testing.T) {
	require.Equal(t, 0.0, geo.HaversineDistanceMeters(12.3, 45.6, 12.3, 45.6))
}

func TestTurnAngleStraightAheadIsZero(t *testing.T) {
	angle := geo.TurnAngleDegrees(0, 0, 0, 1, 0, 2)
	require.InDelta(t, 0.0, angle, 1e-6)
}

func TestTurnAngleUTurnIsOneEighty(t *testing.T) {
	angle := geo.TurnAngleDegrees(0, 0, 0, 1, 0, 0)
	require.InDelta(t, 180.0, math.Abs(angle), 1e-6)
}
