package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"chauffeur/internal/types"
)

// Geocoder turns an address or Eircode into coordinates.
type Geocoder struct {
	client geocodeAPI
	opts   Options
}

func NewGeocoder(client *maps.Client, opts Options) *Geocoder {
	return &Geocoder{client: client, opts: opts}
}

func (g *Geocoder) ResolveCoordinates(ctx context.Context, query string) (types.Point, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.Point{}, &types.ValidationError{Field: "address", Msg: "is empty"}
	}

	req := &maps.GeocodingRequest{
		Address:  query,
		Region:   g.opts.Region,
		Language: g.opts.Language,
	}
	if g.opts.Region != "" {
		req.Components = map[maps.Component]string{
			maps.ComponentCountry: strings.ToUpper(g.opts.Region),
		}
	}

	results, err := g.client.Geocode(ctx, req)
	if err != nil {
		return types.Point{}, unavailable("geocoding", fmt.Errorf("maps api error: %w", err))
	}
	if len(results) == 0 {
		return types.Point{}, unavailable("geocoding", fmt.Errorf("%q: %w", query, ErrNoResult))
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
