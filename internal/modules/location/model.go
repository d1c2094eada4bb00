// README: Position fixes and the progress snapshot served to tracking clients.
package location

import (
	"time"

	"chauffeur/internal/types"
)

// Fix is one position report from the driver's device.
type Fix struct {
	Position   types.Point `json:"position"`
	RecordedAt time.Time   `json:"recorded_at"`
	AccuracyM  float64     `json:"accuracy_m,omitempty"`
}

// Progress is the live view of one journey. DriverPos and DistanceRemainingM are
// only present while the journey is en-route or on-board.
type Progress struct {
	RequestID          types.ID     `json:"request_id"`
	Status             string       `json:"status"`
	TrackingRef        string       `json:"tracking_ref,omitempty"`
	ElapsedMinutes     int          `json:"elapsed_minutes"`
	OverrideAvailable  bool         `json:"override_available"`
	OverrideRequested  bool         `json:"override_requested"`
	CanComplete        bool         `json:"can_complete"`
	DistanceRemainingM *float64     `json:"distance_remaining_m,omitempty"`
	DriverPos          *types.Point `json:"driver_pos,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
