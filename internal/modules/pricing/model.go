// README: Rate tiers, the regulated tariff table and the fare breakdown value object.
package pricing

type RateTier string

const (
	RateStandard RateTier = "standard"
	RatePremium  RateTier = "premium"
	RateSpecial  RateTier = "special"
)

// Tier is one row of the maximum-fare schedule.
type Tier struct {
	Tier          RateTier
	Name          string
	InitialCharge float64
	// SkipsTariffA marks tiers where every chargeable kilometre is billed at Tariff B.
	SkipsTariffA bool
	TariffAPerKm float64
	TariffBPerKm float64
	// Per-minute rates are part of the published schedule but the breakdown
	// is distance-only for now.
	TariffAPerMin float64
	TariffBPerMin float64
}

const (
	// includedKm is folded into the initial charge.
	includedKm = 0.5
	// tariffACeilingKm is the chargeable distance billed at Tariff A before Tariff B applies.
	tariffACeilingKm = 15.0
)

var tiers = map[RateTier]Tier{
	RateStandard: {
		Tier:          RateStandard,
		Name:          "Standard Rate",
		InitialCharge: 4.40,
		TariffAPerKm:  1.32,
		TariffBPerKm:  1.72,
		TariffAPerMin: 0.47,
		TariffBPerMin: 0.61,
	},
	RatePremium: {
		Tier:          RatePremium,
		Name:          "Premium Rate",
		InitialCharge: 5.40,
		TariffAPerKm:  1.81,
		TariffBPerKm:  2.20,
		TariffAPerMin: 0.64,
		TariffBPerMin: 0.78,
	},
	RateSpecial: {
		Tier:          RateSpecial,
		Name:          "Special Rate",
		InitialCharge: 5.40,
		SkipsTariffA:  true,
		TariffBPerKm:  2.20,
		TariffBPerMin: 0.78,
	},
}

// TierFor returns the schedule row for rate, defaulting to Standard for unknown values.
func TierFor(rate RateTier) Tier {
	if t, ok := tiers[rate]; ok {
		return t
	}
	return tiers[RateStandard]
}

// FareBreakdown is immutable once computed. All money fields are euros rounded to 2 dp.
type FareBreakdown struct {
	InitialCharge   float64  `json:"initial_charge"`
	TariffA         float64  `json:"tariff_a"`
	TariffB         float64  `json:"tariff_b"`
	TotalFare       float64  `json:"total_fare"`
	RateType        RateTier `json:"rate_type"`
	RateName        string   `json:"rate_name"`
	DistanceKm      float64  `json:"distance_km"`
	DurationMinutes int      `json:"duration_minutes"`
}
