package journey

import (
	"errors"
	"fmt"

	"chauffeur/internal/modules/booking"
)

var (
	ErrNotFound     = errors.New("journey not found")
	ErrInvalidState = errors.New("invalid journey state transition")
	ErrNotReady     = errors.New("journey not ready")
)

// NotReadyError is returned when completion or an override is requested too
// early. It carries what the driver needs to see: how far is left and when
// the override unlocks.
type NotReadyError struct {
	Reason               GateReason `json:"reason"`
	DistanceM            *float64   `json:"distance_m,omitempty"`
	RemainingM           *float64   `json:"remaining_m,omitempty"`
	OverrideAvailable    bool       `json:"override_available"`
	MinutesUntilOverride int        `json:"minutes_until_override"`
}

func newNotReady(d GateDecision) *NotReadyError {
	return &NotReadyError{
		Reason:               d.Reason,
		DistanceM:            d.DistanceM,
		RemainingM:           d.RemainingM,
		OverrideAvailable:    d.OverrideAvailable,
		MinutesUntilOverride: d.MinutesUntilOverride,
	}
}

func (e *NotReadyError) Error() string {
	switch {
	case e.Reason == reasonOverrideLocked:
		return fmt.Sprintf("override available in %d min", e.MinutesUntilOverride)
	case e.RemainingM != nil:
		return fmt.Sprintf("destination is %.0f m beyond the completion radius", *e.RemainingM)
	default:
		return "driver position unknown"
	}
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

// reasonOverrideLocked marks an override request made before it is available.
const reasonOverrideLocked GateReason = "override_locked"

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, booking.ErrNotFound)
}
