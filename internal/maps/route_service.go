package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"

	"chauffeur/internal/types"
)

// RouteService resolves driving distance and duration between two addresses.
type RouteService struct {
	client directionsAPI
	opts   Options
}

func NewRouteService(client *maps.Client, opts Options) *RouteService {
	return &RouteService{client: client, opts: opts}
}

// Route returns the driving distance (km, one decimal) and duration (whole
// minutes) of the first suggested route from origin to destination.
func (s *RouteService) Route(ctx context.Context, origin, destination string) (types.RouteInfo, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Language:    s.opts.Language,
		Region:      s.opts.Region,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return types.RouteInfo{}, unavailable("routing", fmt.Errorf("maps api error: %w", err))
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return types.RouteInfo{}, unavailable("routing", fmt.Errorf("%s to %s: %w", origin, destination, ErrNoResult))
	}

	var meters int
	var minutes float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		minutes += leg.Duration.Minutes()
	}
	return types.RouteInfo{
		DistanceKm:      types.RoundKm(float64(meters) / 1000),
		DurationMinutes: int(math.Round(minutes)),
	}, nil
}
