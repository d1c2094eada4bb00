package maps

import (
	"context"
	"errors"
	"testing"
	"time"

	"googlemaps.github.io/maps"

	"chauffeur/internal/types"
)

type fakeDirections struct {
	routes []maps.Route
	err    error
	got    *maps.DirectionsRequest
}

func (f *fakeDirections) Directions(_ context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	f.got = r
	return f.routes, nil, f.err
}

type fakeGeocode struct {
	results []maps.GeocodingResult
	err     error
	got     *maps.GeocodingRequest
}

func (f *fakeGeocode) Geocode(_ context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error) {
	f.got = r
	return f.results, f.err
}

func TestRouteSumsLegsAndRounds(t *testing.T) {
	fake := &fakeDirections{routes: []maps.Route{{
		Legs: []*maps.Leg{
			{Distance: maps.Distance{Meters: 12040}, Duration: 24*time.Minute + 40*time.Second},
			{Distance: maps.Distance{Meters: 960}, Duration: 2 * time.Minute},
		},
	}}}
	svc := &RouteService{client: fake, opts: Options{Region: "ie", Language: "en"}}

	got, err := svc.Route(context.Background(), "D02 X285", "K67 F2K5")
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if got.DistanceKm != 13.0 || got.DurationMinutes != 27 {
		t.Errorf("Route() = %+v, want 13.0 km / 27 min", got)
	}
	if fake.got.Mode != maps.TravelModeDriving || fake.got.Region != "ie" {
		t.Errorf("unexpected request %+v", fake.got)
	}
}

func TestRouteErrors(t *testing.T) {
	cases := []struct {
		name string
		fake *fakeDirections
	}{
		{"provider error", &fakeDirections{err: errors.New("quota")}},
		{"no routes", &fakeDirections{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &RouteService{client: tc.fake}
			_, err := svc.Route(context.Background(), "a", "b")
			var ext *types.ExternalServiceError
			if !errors.As(err, &ext) || ext.Service != "routing" {
				t.Fatalf("want routing ExternalServiceError, got %v", err)
			}
		})
	}
}

func TestResolveCoordinates(t *testing.T) {
	fake := &fakeGeocode{results: []maps.GeocodingResult{{
		Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 53.4264, Lng: -6.2499}},
	}}}
	g := &Geocoder{client: fake, opts: Options{Region: "ie"}}

	p, err := g.ResolveCoordinates(context.Background(), " K67 F2K5 ")
	if err != nil {
		t.Fatalf("ResolveCoordinates: %v", err)
	}
	if p != (types.Point{Lat: 53.4264, Lng: -6.2499}) {
		t.Errorf("got %+v", p)
	}
	if fake.got.Address != "K67 F2K5" || fake.got.Components[maps.ComponentCountry] != "IE" {
		t.Errorf("unexpected request %+v", fake.got)
	}
}

func TestResolveCoordinatesFailures(t *testing.T) {
	g := &Geocoder{client: &fakeGeocode{}}
	if _, err := g.ResolveCoordinates(context.Background(), "nowhere"); !errors.Is(err, ErrNoResult) {
		t.Errorf("want ErrNoResult, got %v", err)
	}

	var verr *types.ValidationError
	if _, err := g.ResolveCoordinates(context.Background(), "  "); !errors.As(err, &verr) {
		t.Errorf("want ValidationError, got %v", err)
	}
}
