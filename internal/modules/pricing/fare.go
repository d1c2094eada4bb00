package pricing

import (
	"math"

	"chauffeur/internal/types"
)

// ComputeFare prices a journey of distanceKm and durationMin under rate.
// It is total: negative inputs are treated as zero, unknown tiers as Standard.
func ComputeFare(distanceKm float64, durationMin int, rate RateTier) FareBreakdown {
	t := TierFor(rate)
	if distanceKm < 0 || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		distanceKm = 0
	}
	if durationMin < 0 {
		durationMin = 0
	}

	chargeable := math.Max(0, distanceKm-includedKm)

	var tariffA, tariffB float64
	switch {
	case t.SkipsTariffA:
		tariffB = chargeable * t.TariffBPerKm
	case distanceKm <= includedKm+tariffACeilingKm:
		tariffA = chargeable * t.TariffAPerKm
	default:
		tariffA = tariffACeilingKm * t.TariffAPerKm
		tariffB = (distanceKm - includedKm - tariffACeilingKm) * t.TariffBPerKm
	}

	// Total is rounded once from unrounded components to avoid double-rounding drift.
	total := t.InitialCharge + tariffA + tariffB

	return FareBreakdown{
		InitialCharge:   types.RoundMoney(t.InitialCharge),
		TariffA:         types.RoundMoney(tariffA),
		TariffB:         types.RoundMoney(tariffB),
		TotalFare:       types.RoundMoney(total),
		RateType:        t.Tier,
		RateName:        t.Name,
		DistanceKm:      distanceKm,
		DurationMinutes: durationMin,
	}
}
