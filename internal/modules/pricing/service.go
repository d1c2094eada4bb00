// README: Pricing service quotes fares for bookings and ad-hoc estimates.
package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chauffeur/internal/types"
)

// Router resolves driving distance and duration between two addresses or Eircodes.
type Router interface {
	Route(ctx context.Context, origin, destination string) (types.RouteInfo, error)
}

type Service struct {
	router Router
	loc    *time.Location
	now    func() time.Time
}

// NewService builds a pricing service. router may be nil, in which case estimates
// require an explicit distance. loc is the tariff zone used for "now" estimates.
func NewService(router Router, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{router: router, loc: loc, now: time.Now}
}

type EstimateRequest struct {
	DistanceKm      *float64
	DurationMinutes *int
	Origin          string
	Destination     string
	// Date and Time are the scheduled pickup in the tariff zone. Both empty means now.
	Date string
	Time string
}

// Quote prices a resolved route for a scheduled pickup.
func (s *Service) Quote(distanceKm float64, durationMin int, date, clock string) FareBreakdown {
	return ComputeFare(distanceKm, durationMin, SelectRate(date, clock))
}

func (s *Service) Estimate(ctx context.Context, req EstimateRequest) (FareBreakdown, error) {
	var route types.RouteInfo
	switch {
	case req.DistanceKm != nil:
		if *req.DistanceKm < 0 {
			return FareBreakdown{}, &types.ValidationError{Field: "distance_km", Msg: "must not be negative"}
		}
		route.DistanceKm = types.RoundKm(*req.DistanceKm)
		if req.DurationMinutes != nil {
			if *req.DurationMinutes < 0 {
				return FareBreakdown{}, &types.ValidationError{Field: "duration_minutes", Msg: "must not be negative"}
			}
			route.DurationMinutes = *req.DurationMinutes
		}
	case strings.TrimSpace(req.Origin) != "" && strings.TrimSpace(req.Destination) != "":
		if s.router == nil {
			return FareBreakdown{}, &types.ExternalServiceError{Service: "routing", Err: fmt.Errorf("no route provider configured")}
		}
		r, err := s.router.Route(ctx, req.Origin, req.Destination)
		if err != nil {
			return FareBreakdown{}, err
		}
		route = r
	default:
		return FareBreakdown{}, &types.ValidationError{Msg: "distance_km or origin and destination are required"}
	}

	if req.Date == "" && req.Time == "" {
		return ComputeFare(route.DistanceKm, route.DurationMinutes, SelectRateAt(s.now().In(s.loc))), nil
	}
	return s.Quote(route.DistanceKm, route.DurationMinutes, req.Date, req.Time), nil
}
