// Package geo holds the small geometric helpers the pipeline needs:
// distance between two lat/lon points and the turn angle at a vertex,
// using haversine distance and s2-backed bearing math.
package geo

import (
	"math"

	"github.com/golang/geo/s2"
)

const earthRadiusM = 6371007.0

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

func degreeToRadians(angle float64) float64 {
	return angle * (math.Pi / 180.0)
}

// HaversineDistanceMeters returns the great-circle distance between two
// lat/lon points, in meters.
func HaversineDistanceMeters(latOne, lonOne, latTwo, lonTwo float64) float64 {
	latOneR := degreeToRadians(latOne)
	lonOneR := degreeToRadians(lonOne)
	latTwoR := degreeToRadians(latTwo)
	lonTwoR := degreeToRadians(lonTwo)

	a := havFunction(latOneR-latTwoR) + math.Cos(latOneR)*math.Cos(latTwoR)*havFunction(lonOneR-lonTwoR)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusM * c
}

// InitialBearingDegrees returns the initial bearing, in degrees from
// true north, of the great-circle path from (latOne,lonOne) to
// (latTwo,lonTwo).
func InitialBearingDegrees(latOne, lonOne, latTwo, lonTwo float64) float64 {
	from := s2.LatLngFromDegrees(latOne, lonOne)
	to := s2.LatLngFromDegrees(latTwo, lonTwo)

	lat1 := from.Lat.Radians()
	lat2 := to.Lat.Radians()
	dLon := to.Lng.Radians() - from.Lng.Radians()

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * (180.0 / math.Pi)
	return math.Mod(bearing+360.0, 360.0)
}

// TurnAngleDegrees returns the signed deviation, in degrees, between
// continuing straight on the incoming bearing and the outgoing
// bearing: 0 means straight ahead, +-180 a U-turn, positive values a
// turn to the right. via is the intersection node; from and to are the
// road-segment endpoints immediately before/after via.
func TurnAngleDegrees(fromLat, fromLon, viaLat, viaLon, toLat, toLon float64) float64 {
	inBearing := InitialBearingDegrees(fromLat, fromLon, viaLat, viaLon)
	outBearing := InitialBearingDegrees(viaLat, viaLon, toLat, toLon)
	angle := outBearing - inBearing
	for angle > 180 {
		angle -= 360
	}
	for angle < -180 {
		angle += 360
	}
	return angle
}
