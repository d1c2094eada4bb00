// README: Shared identifiers and geographic value objects.
package types

type ID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteInfo is the resolved driving distance and duration between two addresses.
type RouteInfo struct {
	DistanceKm      float64
	DurationMinutes int
}
