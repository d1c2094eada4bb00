// README: Booking repository backed by PostgreSQL (one row per booking, journey columns inline).
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/types"
)

var bookingColumns = []string{
	"request_id",
	"customer_name", "customer_phone", "customer_email",
	"pickup_postcode", "pickup_address", "destination_postcode", "destination_address",
	"pickup_lat", "pickup_lng", "dest_lat", "dest_lng",
	"distance_km", "duration_minutes",
	"vehicle_type", "passenger_count", "scheduled_date", "scheduled_time",
	"fare_initial", "fare_tariff_a", "fare_tariff_b", "fare_total",
	"rate_type", "rate_name", "fare_distance_km", "fare_duration_minutes",
	"status",
	"journey_status", "driver_name", "vehicle_reg", "tracking_ref",
	"pickup_at", "completed_at", "actual_km_driven", "actual_duration_minutes",
	"driver_lat", "driver_lng", "override_requested", "journey_updated_at",
	"created_at", "updated_at",
}

// immutableColumns are never rewritten by an update.
var immutableColumns = map[string]bool{
	"request_id":     true,
	"customer_name":  true,
	"customer_phone": true,
	"customer_email": true,
	"created_at":     true,
}

var (
	selectBookingSQL = "SELECT " + strings.Join(bookingColumns, ", ") + ", version FROM bookings"
	insertBookingSQL = buildInsert()
	updateBookingSQL = buildUpdate()
)

func buildInsert() string {
	placeholders := make([]string, len(bookingColumns))
	for i := range bookingColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO bookings (%s, version) VALUES (%s, 1) ON CONFLICT (request_id) DO NOTHING",
		strings.Join(bookingColumns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// buildUpdate takes the same arguments as the insert plus the expected version last.
func buildUpdate() string {
	var sets []string
	for i, col := range bookingColumns {
		if !immutableColumns[col] {
			sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		}
	}
	return fmt.Sprintf(
		"UPDATE bookings SET %s, version = version + 1 WHERE request_id = $1 AND version = $%d",
		strings.Join(sets, ", "),
		len(bookingColumns)+1,
	)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Find(ctx context.Context, id types.ID) (*Booking, error) {
	row := s.db.QueryRow(ctx, selectBookingSQL+" WHERE request_id = $1", string(id))
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}
	return b, nil
}

// Save writes the whole record, guarded by its version: a booking with Version 0
// is inserted, otherwise the stored row must still be at b.Version. A lost race
// returns ErrConflict. On success b.Version holds the new version. Customer
// contact and created_at are kept from the insert.
func (s *Store) Save(ctx context.Context, b *Booking) error {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = b.CreatedAt
	}

	args := bookingArgs(b)
	query := insertBookingSQL
	if b.Version > 0 {
		query = updateBookingSQL
		args = append(args, b.Version)
	}
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save booking %s: %w", b.RequestID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save booking %s at version %d: %w", b.RequestID, b.Version, ErrConflict)
	}
	b.Version++
	return nil
}

// UpdateDriverLocation writes only the live-location columns, and only while the
// journey is en-route or on-board, so a late fix cannot resurrect a cleared position.
func (s *Store) UpdateDriverLocation(ctx context.Context, id types.ID, pos types.Point) error {
	_, err := s.db.Exec(ctx, `
        UPDATE bookings
        SET driver_lat = $2,
            driver_lng = $3,
            journey_updated_at = NOW()
        WHERE request_id = $1
          AND status <> 'Cancelled'
          AND journey_status IN ('en-route', 'on-board')`,
		string(id), pos.Lat, pos.Lng,
	)
	return err
}

// ListActive returns uncancelled bookings whose journey is en-route or on-board.
func (s *Store) ListActive(ctx context.Context) ([]*Booking, error) {
	rows, err := s.db.Query(ctx, selectBookingSQL+
		" WHERE status <> 'Cancelled' AND journey_status IN ('en-route', 'on-board') ORDER BY request_id")
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan active booking: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) AppendTransition(ctx context.Context, t Transition) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO journey_events (
            request_id, from_status, to_status, actor, created_at
        ) VALUES ($1, $2, $3, $4, $5)`,
		string(t.RequestID), t.FromStatus, t.ToStatus, t.Actor, t.CreatedAt,
	)
	return err
}

func bookingArgs(b *Booking) []any {
	var (
		fareInitial, fareA, fareB, fareTotal, fareDistance *float64
		fareDuration                                       *int
		rateType, rateName                                 *string
	)
	if f := b.Fare; f != nil {
		fareInitial, fareA, fareB, fareTotal = &f.InitialCharge, &f.TariffA, &f.TariffB, &f.TotalFare
		rt := string(f.RateType)
		rateType, rateName = &rt, &f.RateName
		fareDistance, fareDuration = &f.DistanceKm, &f.DurationMinutes
	}

	var (
		journeyStatus, driverName, vehicleReg, trackingRef *string
		pickupAt, completedAt, journeyUpdatedAt            *time.Time
		actualKm                                           *float64
		actualMinutes                                      *int
		driverLat, driverLng                               *float64
		override                                           bool
	)
	if j := b.Journey; j != nil {
		js := string(j.Status)
		journeyStatus, driverName, vehicleReg, trackingRef = &js, &j.DriverName, &j.VehicleReg, &j.TrackingRef
		pickupAt, completedAt = j.PickupAt, j.CompletedAt
		actualKm, actualMinutes = j.ActualKmDriven, j.ActualDurationMinutes
		driverLat, driverLng = pointLat(j.DriverPos), pointLng(j.DriverPos)
		override = j.OverrideRequested
		ju := j.UpdatedAt
		journeyUpdatedAt = &ju
	}

	return []any{
		string(b.RequestID),
		b.Customer.Name, b.Customer.Phone, b.Customer.Email,
		b.Route.PickupPostcode, b.Route.PickupAddress, b.Route.DestinationPostcode, b.Route.DestinationAddress,
		pointLat(b.Route.Pickup), pointLng(b.Route.Pickup), pointLat(b.Route.Destination), pointLng(b.Route.Destination),
		b.Route.DistanceKm, b.Route.DurationMinutes,
		b.VehicleType, b.PassengerCount, b.ScheduledDate, b.ScheduledTime,
		fareInitial, fareA, fareB, fareTotal,
		rateType, rateName, fareDistance, fareDuration,
		string(b.Status),
		journeyStatus, driverName, vehicleReg, trackingRef,
		pickupAt, completedAt, actualKm, actualMinutes,
		driverLat, driverLng, override, journeyUpdatedAt,
		b.CreatedAt, b.UpdatedAt,
	}
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b                                                  Booking
		id, status                                         string
		pickupLat, pickupLng, destLat, destLng             *float64
		fareInitial, fareA, fareB, fareTotal, fareDistance *float64
		fareDuration                                       *int
		rateType, rateName                                 *string
		journeyStatus, driverName, vehicleReg, trackingRef *string
		pickupAt, completedAt, journeyUpdatedAt            *time.Time
		actualKm                                           *float64
		actualMinutes                                      *int
		driverLat, driverLng                               *float64
		override                                           bool
	)
	err := row.Scan(
		&id,
		&b.Customer.Name, &b.Customer.Phone, &b.Customer.Email,
		&b.Route.PickupPostcode, &b.Route.PickupAddress, &b.Route.DestinationPostcode, &b.Route.DestinationAddress,
		&pickupLat, &pickupLng, &destLat, &destLng,
		&b.Route.DistanceKm, &b.Route.DurationMinutes,
		&b.VehicleType, &b.PassengerCount, &b.ScheduledDate, &b.ScheduledTime,
		&fareInitial, &fareA, &fareB, &fareTotal,
		&rateType, &rateName, &fareDistance, &fareDuration,
		&status,
		&journeyStatus, &driverName, &vehicleReg, &trackingRef,
		&pickupAt, &completedAt, &actualKm, &actualMinutes,
		&driverLat, &driverLng, &override, &journeyUpdatedAt,
		&b.CreatedAt, &b.UpdatedAt,
		&b.Version,
	)
	if err != nil {
		return nil, err
	}

	b.RequestID = types.ID(id)
	b.Status = Status(status)
	b.Route.Pickup = toPoint(pickupLat, pickupLng)
	b.Route.Destination = toPoint(destLat, destLng)

	if fareTotal != nil {
		b.Fare = &pricing.FareBreakdown{
			InitialCharge:   deref(fareInitial),
			TariffA:         deref(fareA),
			TariffB:         deref(fareB),
			TotalFare:       *fareTotal,
			RateType:        pricing.RateTier(deref(rateType)),
			RateName:        deref(rateName),
			DistanceKm:      deref(fareDistance),
			DurationMinutes: deref(fareDuration),
		}
	}

	if journeyStatus != nil {
		j := &Journey{
			Status:                JourneyStatus(*journeyStatus),
			DriverName:            deref(driverName),
			VehicleReg:            deref(vehicleReg),
			TrackingRef:           deref(trackingRef),
			PickupAt:              pickupAt,
			CompletedAt:           completedAt,
			ActualKmDriven:        actualKm,
			ActualDurationMinutes: actualMinutes,
			DriverPos:             toPoint(driverLat, driverLng),
			OverrideRequested:     override,
		}
		if journeyUpdatedAt != nil {
			j.UpdatedAt = *journeyUpdatedAt
		}
		b.Journey = j
	}
	return &b, nil
}

func toPoint(lat, lng *float64) *types.Point {
	if lat == nil || lng == nil {
		return nil
	}
	return &types.Point{Lat: *lat, Lng: *lng}
}

func pointLat(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lat
}

func pointLng(p *types.Point) *float64 {
	if p == nil {
		return nil
	}
	return &p.Lng
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
