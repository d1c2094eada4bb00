// README: Proximity gate deciding whether a journey may be completed.
package journey

import (
	"math"

	"chauffeur/internal/modules/location"
	"chauffeur/internal/types"
)

const (
	// CompletionRadiusM is the maximum driver-to-destination distance for completion.
	CompletionRadiusM = 500.0
	// OverrideAfterMinutes is the time on board before the driver may override the gate.
	OverrideAfterMinutes = 5
)

type GateReason string

const (
	ReasonWithinRadius       GateReason = "within_radius"
	ReasonDestinationUnknown GateReason = "destination_unknown"
	ReasonOverride           GateReason = "override"
	ReasonDriverUnknown      GateReason = "driver_position_unknown"
	ReasonTooFar             GateReason = "too_far"
)

// GateDecision explains the gate outcome. DistanceM and RemainingM are set
// whenever both positions are known.
type GateDecision struct {
	Allowed              bool       `json:"allowed"`
	Reason               GateReason `json:"reason"`
	DistanceM            *float64   `json:"distance_m,omitempty"`
	RemainingM           *float64   `json:"remaining_m,omitempty"`
	OverrideAvailable    bool       `json:"override_available"`
	MinutesUntilOverride int        `json:"minutes_until_override"`
}

// OverrideAvailable reports whether the driver may latch the override.
func OverrideAvailable(elapsedOnBoard int) bool {
	return elapsedOnBoard >= OverrideAfterMinutes
}

// CanComplete is the boolean form of EvaluateGate.
func CanComplete(driver, dest *types.Point, override bool, elapsedOnBoard int) bool {
	return EvaluateGate(driver, dest, override, elapsedOnBoard).Allowed
}

// EvaluateGate fails open when the destination is unknown, stays closed while
// the driver position is unknown, and otherwise passes within
// CompletionRadiusM. An override is honoured only once it is available.
func EvaluateGate(driver, dest *types.Point, override bool, elapsedOnBoard int) GateDecision {
	d := GateDecision{
		OverrideAvailable:    OverrideAvailable(elapsedOnBoard),
		MinutesUntilOverride: max(0, OverrideAfterMinutes-elapsedOnBoard),
	}
	overridden := override && d.OverrideAvailable

	if dest == nil {
		d.Allowed, d.Reason = true, ReasonDestinationUnknown
		return d
	}
	if driver == nil {
		d.Reason = ReasonDriverUnknown
		if overridden {
			d.Allowed, d.Reason = true, ReasonOverride
		}
		return d
	}

	dist := location.DistanceMeters(*driver, *dest)
	remaining := math.Max(0, dist-CompletionRadiusM)
	d.DistanceM, d.RemainingM = &dist, &remaining
	switch {
	case withinRadius(dist):
		d.Allowed, d.Reason = true, ReasonWithinRadius
	case overridden:
		d.Allowed, d.Reason = true, ReasonOverride
	default:
		d.Reason = ReasonTooFar
	}
	return d
}

func withinRadius(distanceM float64) bool {
	return distanceM <= CompletionRadiusM
}
