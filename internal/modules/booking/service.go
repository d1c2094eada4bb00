// README: Booking service handles creation, quoting, confirmation and cancellation.
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"chauffeur/internal/logger"
	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/types"
)

// Repository is the persistence boundary for bookings. Store is the Postgres implementation.
type Repository interface {
	Find(ctx context.Context, id types.ID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	UpdateDriverLocation(ctx context.Context, id types.ID, pos types.Point) error
	ListActive(ctx context.Context) ([]*Booking, error)
	AppendTransition(ctx context.Context, t Transition) error
}

type Quoter interface {
	Quote(distanceKm float64, durationMin int, date, clock string) pricing.FareBreakdown
}

type Service struct {
	repo   Repository
	quoter Quoter
	log    logger.ILogger
	now    func() time.Time
}

func NewService(repo Repository, quoter Quoter, log logger.ILogger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{repo: repo, quoter: quoter, log: log, now: time.Now}
}

type CreateCommand struct {
	Customer       Contact
	Route          Route
	VehicleType    string
	PassengerCount int
	ScheduledDate  string
	ScheduledTime  string
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Booking, error) {
	if strings.TrimSpace(cmd.Customer.Name) == "" {
		return nil, &types.ValidationError{Field: "customer.name", Msg: "is required"}
	}
	if strings.TrimSpace(cmd.Route.PickupPostcode) == "" && strings.TrimSpace(cmd.Route.PickupAddress) == "" {
		return nil, &types.ValidationError{Field: "route.pickup", Msg: "address or postcode is required"}
	}
	if strings.TrimSpace(cmd.Route.DestinationQuery()) == "" {
		return nil, &types.ValidationError{Field: "route.destination", Msg: "address or postcode is required"}
	}
	if cmd.Route.DistanceKm < 0 || cmd.Route.DurationMinutes < 0 {
		return nil, &types.ValidationError{Field: "route", Msg: "distance and duration must not be negative"}
	}
	if cmd.PassengerCount < 0 {
		return nil, &types.ValidationError{Field: "passenger_count", Msg: "must not be negative"}
	}

	now := s.now()
	b := &Booking{
		RequestID:      types.ID(uuid.NewString()),
		Customer:       cmd.Customer,
		Route:          cmd.Route,
		VehicleType:    cmd.VehicleType,
		PassengerCount: cmd.PassengerCount,
		ScheduledDate:  cmd.ScheduledDate,
		ScheduledTime:  cmd.ScheduledTime,
		Status:         StatusRequested,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.Route.DistanceKm = types.RoundKm(b.Route.DistanceKm)
	if err := s.repo.Save(ctx, b); err != nil {
		return nil, err
	}
	s.log.Info("booking created", logger.String("request_id", string(b.RequestID)))
	return b, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Booking, error) {
	return s.repo.Find(ctx, id)
}

// Quote prices the booking from its stored route and scheduled pickup. A quoted
// booking may be re-quoted; anything past Quoted is rejected.
func (s *Service) Quote(ctx context.Context, id types.ID) (*Booking, error) {
	return RetryOnConflict(func() (*Booking, error) {
		b, err := s.repo.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		if !CanTransition(b.Status, StatusQuoted) {
			return nil, fmt.Errorf("quote %s from %s: %w", id, b.Status, ErrInvalidState)
		}
		fare := s.quoter.Quote(b.Route.DistanceKm, b.Route.DurationMinutes, b.ScheduledDate, b.ScheduledTime)
		b.Fare = &fare
		if err := s.transition(ctx, b, StatusQuoted, "dispatcher"); err != nil {
			return nil, err
		}
		return b, nil
	})
}

func (s *Service) Confirm(ctx context.Context, id types.ID) (*Booking, error) {
	return RetryOnConflict(func() (*Booking, error) {
		b, err := s.repo.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		if b.Status == StatusConfirmed {
			return b, nil
		}
		if !CanTransition(b.Status, StatusConfirmed) {
			return nil, fmt.Errorf("confirm %s from %s: %w", id, b.Status, ErrInvalidState)
		}
		if err := s.transition(ctx, b, StatusConfirmed, "dispatcher"); err != nil {
			return nil, err
		}
		return b, nil
	})
}

// Cancel withdraws a booking that has not yet picked up its passenger.
func (s *Service) Cancel(ctx context.Context, id types.ID) (*Booking, error) {
	return RetryOnConflict(func() (*Booking, error) {
		b, err := s.repo.Find(ctx, id)
		if err != nil {
			return nil, err
		}
		if b.Status == StatusCancelled {
			return b, nil
		}
		if !CanTransition(b.Status, StatusCancelled) {
			return nil, fmt.Errorf("cancel %s from %s: %w", id, b.Status, ErrInvalidState)
		}
		if j := b.Journey; j != nil && (j.Status == JourneyOnBoard || j.Status == JourneyCompleted) {
			return nil, fmt.Errorf("cancel %s with journey %s: %w", id, j.Status, ErrInvalidState)
		}
		if b.Journey != nil {
			b.Journey.DriverPos = nil
		}
		if err := s.transition(ctx, b, StatusCancelled, "dispatcher"); err != nil {
			return nil, err
		}
		return b, nil
	})
}

func (s *Service) transition(ctx context.Context, b *Booking, to Status, actor string) error {
	from := b.Status
	now := s.now()
	b.Status = to
	b.UpdatedAt = now
	if err := s.repo.Save(ctx, b); err != nil {
		return err
	}
	if err := s.repo.AppendTransition(ctx, Transition{
		RequestID:  b.RequestID,
		FromStatus: string(from),
		ToStatus:   string(to),
		Actor:      actor,
		CreatedAt:  now,
	}); err != nil {
		s.log.Warning("append booking transition failed",
			logger.String("request_id", string(b.RequestID)), logger.Error(err))
	}
	return nil
}
