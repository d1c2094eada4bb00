package pricing

import (
	"testing"
	"time"
)

func TestSelectRate(t *testing.T) {
	tests := []struct {
		name string
		date string
		time string
		want RateTier
	}{
		{"saturday 03:59 special", "2026-10-17", "03:59", RateSpecial},
		{"saturday 04:00 leaves special", "2026-10-17", "04:00", RatePremium},
		{"saturday 07:59 premium", "2026-10-17", "07:59", RatePremium},
		{"saturday 08:00 standard", "2026-10-17", "08:00", RateStandard},
		{"saturday 19:59 standard", "2026-10-17", "19:59", RateStandard},
		{"saturday 20:00 premium", "2026-10-17", "20:00", RatePremium},
		{"sunday 00:00 special", "2026-10-18", "00:00", RateSpecial},
		{"sunday 04:00 premium", "2026-10-18", "04:00", RatePremium},
		{"sunday noon premium", "2026-10-18", "12:00", RatePremium},
		{"monday noon standard", "2026-10-19", "12:00", RateStandard},
		{"friday 02:00 night premium, not weekend special", "2026-10-16", "02:00", RatePremium},
		{"christmas eve 19:59", "2026-12-24", "19:59", RateStandard},
		{"christmas eve 20:00", "2026-12-24", "20:00", RateSpecial},
		{"christmas day noon", "2026-12-25", "12:00", RateSpecial},
		{"christmas day 23:59", "2026-12-25", "23:59", RateSpecial},
		{"st stephens 07:59", "2026-12-26", "07:59", RateSpecial},
		{"st stephens 08:00 holiday premium", "2026-12-26", "08:00", RatePremium},
		{"new years eve 19:59", "2026-12-31", "19:59", RateStandard},
		{"new years eve 20:00", "2026-12-31", "20:00", RateSpecial},
		{"new years day 07:59", "2027-01-01", "07:59", RateSpecial},
		{"new years day 08:00", "2027-01-01", "08:00", RatePremium},
		{"easter monday daytime", "2026-04-06", "12:00", RatePremium},
		{"substitute bank holiday", "2026-12-28", "12:00", RatePremium},
		{"seconds accepted", "2026-10-18", "12:00:00", RatePremium},
		{"missing date", "", "12:00", RateStandard},
		{"missing time", "2026-10-18", "", RateStandard},
		{"garbage date", "18/10/2026", "12:00", RateStandard},
		{"garbage time", "2026-10-18", "noonish", RateStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectRate(tt.date, tt.time); got != tt.want {
				t.Errorf("SelectRate(%q, %q) = %v, want %v", tt.date, tt.time, got, tt.want)
			}
		})
	}
}

// TestSelectRateAt_WeekGrid walks every hour of an ordinary week and checks
// the three bands against the plain weekday rules.
func TestSelectRateAt_WeekGrid(t *testing.T) {
	// Monday 2026-10-19 .. Sunday 2026-10-25: no holidays.
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7*24; i++ {
		at := start.Add(time.Duration(i) * time.Hour)
		weekend := at.Weekday() == time.Saturday || at.Weekday() == time.Sunday
		h := at.Hour()

		want := RateStandard
		switch {
		case weekend && h < 4:
			want = RateSpecial
		case at.Weekday() == time.Sunday || h >= 20 || h < 8:
			want = RatePremium
		}
		if got := SelectRateAt(at); got != want {
			t.Errorf("SelectRateAt(%s) = %v, want %v", at.Format("Mon 15:04"), got, want)
		}
	}
}
