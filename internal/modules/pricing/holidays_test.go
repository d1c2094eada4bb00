package pricing

import (
	"testing"
	"time"
)

func TestIsPublicHoliday(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"new years day", day(2027, time.January, 1), true},
		{"st brigids first monday", day(2026, time.February, 2), true},
		{"feb 1 on a sunday is not the holiday", day(2026, time.February, 1), false},
		{"st patricks", day(2026, time.March, 17), true},
		{"easter monday 2026", day(2026, time.April, 6), true},
		{"easter monday 2025", day(2025, time.April, 21), true},
		{"may bank holiday", day(2026, time.May, 4), true},
		{"june bank holiday", day(2026, time.June, 1), true},
		{"august bank holiday", day(2026, time.August, 3), true},
		{"october bank holiday", day(2026, time.October, 26), true},
		{"christmas", day(2026, time.December, 25), true},
		{"st stephens", day(2026, time.December, 26), true},
		{"st stephens on saturday substitutes monday", day(2026, time.December, 28), true},
		{"christmas on saturday substitutes monday", day(2021, time.December, 27), true},
		{"st stephens on sunday substitutes tuesday", day(2021, time.December, 28), true},
		{"ordinary tuesday", day(2026, time.October, 20), false},
		{"christmas eve", day(2026, time.December, 24), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPublicHoliday(tt.at); got != tt.want {
				t.Errorf("IsPublicHoliday(%s) = %v, want %v", tt.at.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestEasterSunday(t *testing.T) {
	cases := map[int]string{
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
		2027: "2027-03-28",
	}
	for year, want := range cases {
		if got := easterSunday(year).Format("2006-01-02"); got != want {
			t.Errorf("easterSunday(%d) = %s, want %s", year, got, want)
		}
	}
}
