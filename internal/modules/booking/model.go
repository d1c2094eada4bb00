// README: Booking aggregate, business status and the operational journey state.
package booking

import (
	"time"

	"chauffeur/internal/modules/pricing"
	"chauffeur/internal/types"
)

// Status is the commercial workflow status of a booking.
type Status string

const (
	StatusRequested Status = "Requested"
	StatusQuoted    Status = "Quoted"
	StatusConfirmed Status = "Confirmed"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

// JourneyStatus is the operational dispatch state of the assigned vehicle.
type JourneyStatus string

const (
	JourneyIdle      JourneyStatus = "idle"
	JourneyEnRoute   JourneyStatus = "en-route"
	JourneyOnBoard   JourneyStatus = "on-board"
	JourneyCompleted JourneyStatus = "completed"
)

// Active reports whether the driver is moving and position tracking applies.
func (s JourneyStatus) Active() bool {
	return s == JourneyEnRoute || s == JourneyOnBoard
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Route struct {
	PickupPostcode      string       `json:"pickup_postcode"`
	PickupAddress       string       `json:"pickup_address"`
	DestinationPostcode string       `json:"destination_postcode"`
	DestinationAddress  string       `json:"destination_address"`
	Pickup              *types.Point `json:"pickup,omitempty"`
	Destination         *types.Point `json:"destination,omitempty"`
	DistanceKm          float64      `json:"distance_km"`
	DurationMinutes     int          `json:"duration_minutes"`
}

// DestinationQuery is the string handed to the geocoder: the full address when
// known, otherwise the Eircode.
func (r Route) DestinationQuery() string {
	if r.DestinationAddress != "" {
		return r.DestinationAddress
	}
	return r.DestinationPostcode
}

// Journey is created at Idle when a driver is assigned.
// DriverPos is only set while Status is en-route or on-board.
type Journey struct {
	Status                JourneyStatus `json:"status"`
	DriverName            string        `json:"driver_name"`
	VehicleReg            string        `json:"vehicle_reg"`
	TrackingRef           string        `json:"tracking_ref,omitempty"`
	PickupAt              *time.Time    `json:"pickup_at,omitempty"`
	CompletedAt           *time.Time    `json:"completed_at,omitempty"`
	ActualKmDriven        *float64      `json:"actual_km_driven,omitempty"`
	ActualDurationMinutes *int          `json:"actual_duration_minutes,omitempty"`
	DriverPos             *types.Point  `json:"driver_pos,omitempty"`
	OverrideRequested     bool          `json:"override_requested"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

type Booking struct {
	RequestID      types.ID               `json:"request_id"`
	Customer       Contact                `json:"customer"`
	Route          Route                  `json:"route"`
	VehicleType    string                 `json:"vehicle_type"`
	PassengerCount int                    `json:"passenger_count"`
	ScheduledDate  string                 `json:"scheduled_date"`
	ScheduledTime  string                 `json:"scheduled_time"`
	Fare           *pricing.FareBreakdown `json:"fare,omitempty"`
	Status         Status                 `json:"status"`
	Journey        *Journey               `json:"journey,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	// Version counts saves; Save rejects a booking read before the latest one.
	Version int `json:"version"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Route.Pickup = clonePoint(b.Route.Pickup)
	cp.Route.Destination = clonePoint(b.Route.Destination)
	if b.Fare != nil {
		f := *b.Fare
		cp.Fare = &f
	}
	if b.Journey != nil {
		j := *b.Journey
		j.PickupAt = cloneTime(b.Journey.PickupAt)
		j.CompletedAt = cloneTime(b.Journey.CompletedAt)
		j.DriverPos = clonePoint(b.Journey.DriverPos)
		if b.Journey.ActualKmDriven != nil {
			v := *b.Journey.ActualKmDriven
			j.ActualKmDriven = &v
		}
		if b.Journey.ActualDurationMinutes != nil {
			v := *b.Journey.ActualDurationMinutes
			j.ActualDurationMinutes = &v
		}
		cp.Journey = &j
	}
	return &cp
}

// Transition is an audit record of one journey or business status change.
type Transition struct {
	RequestID  types.ID
	FromStatus string
	ToStatus   string
	Actor      string
	CreatedAt  time.Time
}

func clonePoint(p *types.Point) *types.Point {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
