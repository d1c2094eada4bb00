// README: Google Maps client shared by the routing and geocoding lookups.
package maps

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"chauffeur/internal/types"
)

// ErrNoResult is returned when the provider answers but finds nothing for the query.
var ErrNoResult = errors.New("maps: no result")

type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

type geocodeAPI interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// Options bias lookups to the service area.
type Options struct {
	Region   string
	Language string
}

// NewClient creates the underlying Google Maps client for apiKey.
func NewClient(apiKey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}

func unavailable(service string, err error) error {
	return &types.ExternalServiceError{Service: service, Err: err}
}
