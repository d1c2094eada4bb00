// Package location tracks live driver positions for active journeys; geo_utils holds the great-circle helpers.
package location

import (
	"math"

	"chauffeur/internal/types"
)

const earthRadiusM = 6371000.0

// DistanceMeters returns the great-circle distance in metres between a and b.
func DistanceMeters(a, b types.Point) float64 {
	return haversineM(a.Lat, a.Lng, b.Lat, b.Lng)
}

// haversineM returns the great-circle distance in metres between two
// points specified in decimal degrees.
func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// ValidPoint reports whether p is a usable WGS84 coordinate.
func ValidPoint(p types.Point) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}
