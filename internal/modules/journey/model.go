// README: Journey commands and the notification events emitted on transitions.
package journey

import (
	"time"

	"chauffeur/internal/modules/booking"
	"chauffeur/internal/types"
)

type EventType string

const (
	EventDriverDeparted   EventType = "driver_departed"
	EventJourneyCompleted EventType = "journey_completed"
)

// Event is handed to the notification layer, which owns formatting and delivery.
type Event struct {
	ID                    string          `json:"id"`
	Type                  EventType       `json:"type"`
	RequestID             types.ID        `json:"request_id"`
	TrackingRef           string          `json:"tracking_ref"`
	Customer              booking.Contact `json:"customer"`
	DriverName            string          `json:"driver_name"`
	VehicleReg            string          `json:"vehicle_reg"`
	Destination           string          `json:"destination"`
	OccurredAt            time.Time       `json:"occurred_at"`
	PickupAt              *time.Time      `json:"pickup_at,omitempty"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
	ActualDurationMinutes *int            `json:"actual_duration_minutes,omitempty"`
	ActualKmDriven        *float64        `json:"actual_km_driven,omitempty"`
	FareTotal             *float64        `json:"fare_total,omitempty"`
}

type AssignCommand struct {
	RequestID  types.ID
	DriverName string
	VehicleReg string
}
