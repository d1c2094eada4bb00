// README: Journey service drives Idle -> EnRoute -> OnBoard -> Completed for one booking at a time.
package journey

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chauffeur/internal/config"
	"chauffeur/internal/logger"
	"chauffeur/internal/modules/booking"
	"chauffeur/internal/modules/location"
	"chauffeur/internal/types"
)

type Repository interface {
	Find(ctx context.Context, id types.ID) (*booking.Booking, error)
	Save(ctx context.Context, b *booking.Booking) error
	ListActive(ctx context.Context) ([]*booking.Booking, error)
	AppendTransition(ctx context.Context, t booking.Transition) error
}

type Tracker interface {
	Track(ctx context.Context, id types.ID, onFix func(location.Fix)) (func(), error)
	Clear(ctx context.Context, id types.ID)
}

type Geocoder interface {
	ResolveCoordinates(ctx context.Context, query string) (types.Point, error)
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// ProgressSink receives the periodic progress snapshots of on-board journeys.
type ProgressSink interface {
	PublishProgress(ctx context.Context, p location.Progress) error
	ClearProgress(ctx context.Context, id types.ID) error
}

// PositionCache holds the last fix seen for a journey outside this process.
type PositionCache interface {
	Latest(ctx context.Context, id types.ID) (location.Fix, bool, error)
}

// Deps are the collaborators of the journey service. Geocoder, Notifier,
// Progress and Positions are optional.
type Deps struct {
	Repo      Repository
	Tracker   Tracker
	Feed      location.Publisher
	Geocoder  Geocoder
	Notifier  Notifier
	Progress  ProgressSink
	Positions PositionCache
	Log       logger.ILogger
}

type Service struct {
	repo     Repository
	tracker  Tracker
	feed     location.Publisher
	geocoder Geocoder
	notifier Notifier
	progress ProgressSink
	cache    PositionCache
	log      logger.ILogger
	cfg      config.JourneyConfig
	now      func() time.Time

	mu       sync.Mutex
	sessions map[types.ID]*session
}

func NewService(deps Deps, cfg config.JourneyConfig) *Service {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.ElapsedTick <= 0 {
		cfg.ElapsedTick = 10 * time.Second
	}
	if cfg.ReconcileEvery <= 0 {
		cfg.ReconcileEvery = 30 * time.Second
	}
	if cfg.GeocodeTimeout <= 0 {
		cfg.GeocodeTimeout = 5 * time.Second
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &Service{
		repo:     deps.Repo,
		tracker:  deps.Tracker,
		feed:     deps.Feed,
		geocoder: deps.Geocoder,
		notifier: deps.Notifier,
		progress: deps.Progress,
		cache:    deps.Positions,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[types.ID]*session),
	}
}

// Assign puts a driver on a confirmed booking and creates the journey at Idle.
// Assigning a quoted booking confirms it in the same step. A driver can be
// replaced while the journey is still Idle.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*booking.Booking, error) {
	cmd.DriverName = strings.TrimSpace(cmd.DriverName)
	cmd.VehicleReg = strings.TrimSpace(cmd.VehicleReg)
	if cmd.DriverName == "" {
		return nil, &types.ValidationError{Field: "driver_name", Msg: "is required"}
	}
	if cmd.VehicleReg == "" {
		return nil, &types.ValidationError{Field: "vehicle_reg", Msg: "is required"}
	}

	sess := s.acquire(cmd.RequestID)
	defer sess.mu.Unlock()

	return booking.RetryOnConflict(func() (*booking.Booking, error) {
		b, err := s.find(ctx, cmd.RequestID)
		if err != nil {
			return nil, err
		}
		if b.Journey != nil && b.Journey.Status != booking.JourneyIdle {
			return nil, fmt.Errorf("assign %s while %s: %w", b.RequestID, b.Journey.Status, ErrInvalidState)
		}

		now := s.now()
		confirmed := false
		switch b.Status {
		case booking.StatusConfirmed:
		case booking.StatusQuoted:
			b.Status = booking.StatusConfirmed
			confirmed = true
		default:
			return nil, fmt.Errorf("assign %s with booking %s: %w", b.RequestID, b.Status, ErrInvalidState)
		}

		from := ""
		if b.Journey == nil {
			b.Journey = &booking.Journey{Status: booking.JourneyIdle}
		} else {
			from = string(booking.JourneyIdle)
		}
		b.Journey.DriverName = cmd.DriverName
		b.Journey.VehicleReg = cmd.VehicleReg
		b.Journey.UpdatedAt = now
		b.UpdatedAt = now

		if err := s.repo.Save(ctx, b); err != nil {
			return nil, err
		}
		if confirmed {
			s.audit(ctx, b.RequestID, string(booking.StatusQuoted), string(booking.StatusConfirmed), "dispatcher")
		}
		s.audit(ctx, b.RequestID, from, string(booking.JourneyIdle), "dispatcher")
		s.log.Info("driver assigned",
			logger.String("request_id", string(b.RequestID)),
			logger.String("driver", cmd.DriverName))
		return b, nil
	})
}

// Start moves Idle -> EnRoute, issues the tracking reference and begins tracking.
func (s *Service) Start(ctx context.Context, id types.ID) (*booking.Booking, error) {
	sess := s.acquire(id)
	defer sess.mu.Unlock()

	return booking.RetryOnConflict(func() (*booking.Booking, error) {
		b, err := s.findJourney(ctx, id)
		if err != nil {
			return nil, err
		}
		switch b.Journey.Status {
		case booking.JourneyEnRoute, booking.JourneyOnBoard:
			s.ensureTracking(ctx, sess)
			return b, nil
		case booking.JourneyCompleted:
			return b, nil
		}

		now := s.now()
		j := b.Journey
		j.Status = booking.JourneyEnRoute
		if j.TrackingRef == "" {
			j.TrackingRef = uuid.NewString()
		}
		j.UpdatedAt = now
		b.UpdatedAt = now
		if err := s.repo.Save(ctx, b); err != nil {
			return nil, err
		}
		s.audit(ctx, id, string(booking.JourneyIdle), string(booking.JourneyEnRoute), "driver")
		s.ensureTracking(ctx, sess)

		s.notify(ctx, s.event(EventDriverDeparted, b, now))
		return b, nil
	})
}

// MarkOnBoard moves EnRoute -> OnBoard, stamps the pickup and starts the
// elapsed-time ticker. The destination is resolved here, once per journey.
func (s *Service) MarkOnBoard(ctx context.Context, id types.ID) (*booking.Booking, error) {
	sess := s.acquire(id)
	defer sess.mu.Unlock()

	return booking.RetryOnConflict(func() (*booking.Booking, error) {
		b, err := s.findJourney(ctx, id)
		if err != nil {
			return nil, err
		}
		switch b.Journey.Status {
		case booking.JourneyIdle:
			return nil, fmt.Errorf("on-board %s before departure: %w", id, ErrInvalidState)
		case booking.JourneyOnBoard:
			s.ensureTracking(ctx, sess)
			s.ensureTicker(sess)
			return b, nil
		case booking.JourneyCompleted:
			return b, nil
		}

		now := s.now()
		b.Journey.Status = booking.JourneyOnBoard
		b.Journey.PickupAt = &now
		b.Journey.UpdatedAt = now
		b.UpdatedAt = now
		if err := s.repo.Save(ctx, b); err != nil {
			return nil, err
		}
		s.audit(ctx, id, string(booking.JourneyEnRoute), string(booking.JourneyOnBoard), "driver")

		s.resolveDestination(ctx, sess, b)
		s.ensureTracking(ctx, sess)
		s.ensureTicker(sess)
		return b, nil
	})
}

// Complete moves OnBoard -> Completed when the proximity gate allows it,
// otherwise it returns a *NotReadyError. Completion clears the live position
// everywhere and stops tracking.
func (s *Service) Complete(ctx context.Context, id types.ID) (*booking.Booking, error) {
	sess := s.acquire(id)
	defer sess.mu.Unlock()

	return booking.RetryOnConflict(func() (*booking.Booking, error) {
		b, err := s.findJourney(ctx, id)
		if err != nil {
			return nil, err
		}
		switch b.Journey.Status {
		case booking.JourneyIdle, booking.JourneyEnRoute:
			return nil, fmt.Errorf("complete %s while %s: %w", id, b.Journey.Status, ErrInvalidState)
		case booking.JourneyCompleted:
			return b, nil
		}

		now := s.now()
		decision := s.gate(ctx, sess, b, now)
		if !decision.Allowed {
			return nil, newNotReady(decision)
		}

		j := b.Journey
		completedAt := now
		if j.PickupAt != nil && completedAt.Before(*j.PickupAt) {
			completedAt = *j.PickupAt
		}
		j.Status = booking.JourneyCompleted
		j.CompletedAt = &completedAt
		if j.PickupAt != nil {
			minutes := int(math.Round(completedAt.Sub(*j.PickupAt).Minutes()))
			j.ActualDurationMinutes = &minutes
		}
		// Driven distance is not measured; the planned distance stands in for it.
		km := b.Route.DistanceKm
		j.ActualKmDriven = &km
		j.DriverPos = nil
		j.UpdatedAt = now
		b.Status = booking.StatusCompleted
		b.UpdatedAt = now
		if err := s.repo.Save(ctx, b); err != nil {
			return nil, err
		}
		s.audit(ctx, id, string(booking.JourneyOnBoard), string(booking.JourneyCompleted), "driver")

		s.close(sess)
		s.clearLive(ctx, id)
		s.log.Info("journey completed",
			logger.String("request_id", string(id)),
			logger.String("gate", string(decision.Reason)))

		s.notify(ctx, s.event(EventJourneyCompleted, b, now))
		return b, nil
	})
}

// RequestOverride latches the proximity override. It is refused with a
// *NotReadyError until the passenger has been on board for OverrideAfterMinutes.
func (s *Service) RequestOverride(ctx context.Context, id types.ID) (*booking.Booking, error) {
	sess := s.acquire(id)
	defer sess.mu.Unlock()

	return booking.RetryOnConflict(func() (*booking.Booking, error) {
		b, err := s.findJourney(ctx, id)
		if err != nil {
			return nil, err
		}
		switch b.Journey.Status {
		case booking.JourneyCompleted:
			return b, nil
		case booking.JourneyOnBoard:
		default:
			return nil, fmt.Errorf("override %s while %s: %w", id, b.Journey.Status, ErrInvalidState)
		}
		if b.Journey.OverrideRequested {
			return b, nil
		}

		now := s.now()
		elapsed := elapsedMinutes(b.Journey.PickupAt, now)
		if !OverrideAvailable(elapsed) {
			return nil, &NotReadyError{
				Reason:               reasonOverrideLocked,
				MinutesUntilOverride: OverrideAfterMinutes - elapsed,
			}
		}

		b.Journey.OverrideRequested = true
		b.Journey.UpdatedAt = now
		b.UpdatedAt = now
		if err := s.repo.Save(ctx, b); err != nil {
			return nil, err
		}
		s.log.Info("proximity override latched",
			logger.String("request_id", string(id)), logger.Int("elapsed_min", elapsed))
		return b, nil
	})
}

// PushLocation accepts a fix from the driver's device and hands it to the feed.
func (s *Service) PushLocation(ctx context.Context, id types.ID, fix location.Fix) error {
	if !location.ValidPoint(fix.Position) {
		return &types.ValidationError{Field: "position", Msg: "is not a valid coordinate"}
	}
	if fix.RecordedAt.IsZero() {
		fix.RecordedAt = s.now()
	}

	b, err := s.findJourney(ctx, id)
	if err != nil {
		return err
	}
	if !tracked(b) {
		return fmt.Errorf("location for %s while %s: %w", id, b.Journey.Status, ErrInvalidState)
	}

	if sess := s.lookup(id); sess == nil || !sess.tracking() {
		if err := s.resume(ctx, id); err != nil {
			return err
		}
	}
	return s.feed.Publish(ctx, id, fix)
}

// Progress is the live tracking view of a journey.
func (s *Service) Progress(ctx context.Context, id types.ID) (location.Progress, error) {
	b, err := s.findJourney(ctx, id)
	if err != nil {
		return location.Progress{}, err
	}
	return s.progressOf(b, s.lookup(id), s.now()), nil
}

func (s *Service) progressOf(b *booking.Booking, sess *session, now time.Time) location.Progress {
	j := b.Journey
	p := location.Progress{
		RequestID:         b.RequestID,
		Status:            string(j.Status),
		TrackingRef:       j.TrackingRef,
		OverrideRequested: j.OverrideRequested,
		UpdatedAt:         now,
	}
	if !tracked(b) {
		return p
	}

	driver := j.DriverPos
	var dest *types.Point
	if sess != nil {
		d, dst, _ := sess.snapshot()
		if d != nil {
			driver = d
		}
		dest = dst
	}
	p.DriverPos = driver

	if j.Status == booking.JourneyOnBoard {
		p.ElapsedMinutes = elapsedMinutes(j.PickupAt, now)
		p.OverrideAvailable = OverrideAvailable(p.ElapsedMinutes)
		if dest == nil {
			dest = b.Route.Destination
		}
		decision := EvaluateGate(driver, dest, j.OverrideRequested, p.ElapsedMinutes)
		p.CanComplete = decision.Allowed
		p.DistanceRemainingM = decision.RemainingM
	}
	return p
}

// gate evaluates completion using the freshest known positions. Caller holds sess.mu.
func (s *Service) gate(ctx context.Context, sess *session, b *booking.Booking, now time.Time) GateDecision {
	s.resolveDestination(ctx, sess, b)
	driver, dest, _ := sess.snapshot()
	if driver == nil {
		driver = b.Journey.DriverPos
	}
	elapsed := elapsedMinutes(b.Journey.PickupAt, now)
	return EvaluateGate(driver, dest, b.Journey.OverrideRequested, elapsed)
}

// resolveDestination fills the session's destination once. A stored coordinate
// wins; otherwise the geocoder is asked. Failure leaves it unknown.
func (s *Service) resolveDestination(ctx context.Context, sess *session, b *booking.Booking) {
	if _, _, resolved := sess.snapshot(); resolved {
		return
	}

	var dest *types.Point
	switch {
	case b.Route.Destination != nil:
		p := *b.Route.Destination
		dest = &p
	case s.geocoder != nil && b.Route.DestinationQuery() != "":
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.GeocodeTimeout)
		p, err := s.geocoder.ResolveCoordinates(gctx, b.Route.DestinationQuery())
		cancel()
		if err != nil {
			s.log.Warning("destination geocoding failed; proximity gate open",
				logger.String("request_id", string(b.RequestID)), logger.Error(err))
		} else {
			dest = &p
		}
	}

	sess.live.Lock()
	sess.dest = dest
	sess.destResolved = true
	sess.live.Unlock()
}

// ensureTracking starts the location subscription if it is not running. Caller holds sess.mu.
func (s *Service) ensureTracking(ctx context.Context, sess *session) {
	if sess.stopTracking != nil || s.tracker == nil {
		return
	}
	stop, err := s.tracker.Track(ctx, sess.id, func(f location.Fix) {
		sess.setDriverPos(f.Position)
	})
	if err != nil {
		s.log.Warning("start location tracking failed",
			logger.String("request_id", string(sess.id)), logger.Error(err))
		return
	}
	sess.stopTracking = stop
}

func (sess *session) tracking() bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.stopTracking != nil
}

func (s *Service) clearLive(ctx context.Context, id types.ID) {
	if s.tracker != nil {
		s.tracker.Clear(ctx, id)
	}
	if s.progress != nil {
		if err := s.progress.ClearProgress(context.WithoutCancel(ctx), id); err != nil {
			s.log.Warning("clear progress failed", logger.String("request_id", string(id)), logger.Error(err))
		}
	}
}

func (s *Service) find(ctx context.Context, id types.ID) (*booking.Booking, error) {
	b, err := s.repo.Find(ctx, id)
	if errors.Is(err, booking.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return b, err
}

// findJourney loads a booking that has an assigned journey. Cancelled
// bookings accept no further journey commands.
func (s *Service) findJourney(ctx context.Context, id types.ID) (*booking.Booking, error) {
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Journey == nil {
		return nil, fmt.Errorf("%w: %s has no assigned driver", ErrNotFound, id)
	}
	if b.Status == booking.StatusCancelled {
		return nil, fmt.Errorf("%s is cancelled: %w", id, ErrInvalidState)
	}
	return b, nil
}

func (s *Service) audit(ctx context.Context, id types.ID, from, to, actor string) {
	err := s.repo.AppendTransition(ctx, booking.Transition{
		RequestID:  id,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.log.Warning("append journey transition failed",
			logger.String("request_id", string(id)), logger.Error(err))
	}
}

func (s *Service) event(t EventType, b *booking.Booking, at time.Time) Event {
	j := b.Journey
	e := Event{
		ID:                    uuid.NewString(),
		Type:                  t,
		RequestID:             b.RequestID,
		TrackingRef:           j.TrackingRef,
		Customer:              b.Customer,
		DriverName:            j.DriverName,
		VehicleReg:            j.VehicleReg,
		Destination:           b.Route.DestinationQuery(),
		OccurredAt:            at,
		PickupAt:              j.PickupAt,
		CompletedAt:           j.CompletedAt,
		ActualDurationMinutes: j.ActualDurationMinutes,
		ActualKmDriven:        j.ActualKmDriven,
	}
	if b.Fare != nil {
		total := b.Fare.TotalFare
		e.FareTotal = &total
	}
	return e
}

// notify dispatches best-effort. A failure is logged and never fails the transition.
func (s *Service) notify(ctx context.Context, e Event) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(nctx, e); err != nil {
		s.log.Warning("notification dispatch failed",
			logger.String("request_id", string(e.RequestID)),
			logger.String("event", string(e.Type)),
			logger.Error(err))
	}
}

func tracked(b *booking.Booking) bool {
	return b.Status != booking.StatusCancelled && b.Journey != nil && b.Journey.Status.Active()
}

func elapsedMinutes(pickupAt *time.Time, now time.Time) int {
	if pickupAt == nil || now.Before(*pickupAt) {
		return 0
	}
	return int(now.Sub(*pickupAt) / time.Minute)
}
