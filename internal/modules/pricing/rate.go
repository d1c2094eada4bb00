// README: Rate selector maps a scheduled pickup moment to a tariff tier.
package pricing

import (
	"strings"
	"time"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// SelectRate picks the tier for a pickup given as a local calendar date
// ("2006-01-02") and wall-clock time ("15:04" or "15:04:05").
// Missing or unparseable input yields RateStandard.
func SelectRate(date, clock string) RateTier {
	day, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return RateStandard
	}
	hour, minute, ok := parseClock(clock)
	if !ok {
		return RateStandard
	}
	return SelectRateAt(time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC))
}

// SelectRateAt picks the tier for t read as wall-clock time in t's own location.
// Callers convert to the tariff zone first.
func SelectRateAt(t time.Time) RateTier {
	if isSpecial(t) {
		return RateSpecial
	}
	if isPremium(t) {
		return RatePremium
	}
	return RateStandard
}

func isSpecial(t time.Time) bool {
	h := t.Hour()
	wd := t.Weekday()
	if (wd == time.Saturday || wd == time.Sunday) && h < 4 {
		return true
	}
	switch m, d := t.Month(), t.Day(); {
	case m == time.December && d == 24 && h >= 20:
		return true
	case m == time.December && d == 25:
		return true
	case m == time.December && d == 26 && h < 8:
		return true
	case m == time.December && d == 31 && h >= 20:
		return true
	case m == time.January && d == 1 && h < 8:
		return true
	}
	return false
}

func isPremium(t time.Time) bool {
	if t.Weekday() == time.Sunday {
		return true
	}
	if h := t.Hour(); h >= 20 || h < 8 {
		return true
	}
	return IsPublicHoliday(t)
}

func parseClock(v string) (hour, minute int, ok bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, 0, false
	}
	for _, layout := range []string{clockLayout, "15:04:05", "3:04 PM", "3:04PM"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour(), t.Minute(), true
		}
	}
	return 0, 0, false
}
