package pricing

import "time"

// IsPublicHoliday reports whether t's calendar date is an Irish public holiday,
// including the weekday substituted for a fixed-date holiday falling on a weekend.
func IsPublicHoliday(t time.Time) bool {
	y, m, d := t.Date()
	for _, h := range publicHolidays(y) {
		if h.Month() == m && h.Day() == d {
			return true
		}
	}
	return false
}

func publicHolidays(year int) []time.Time {
	date := func(m time.Month, d int) time.Time { return time.Date(year, m, d, 0, 0, 0, 0, time.UTC) }

	out := []time.Time{
		stBrigidsDay(year),
		easterSunday(year).AddDate(0, 0, 1),
		nthWeekday(year, time.May, time.Monday, 1),
		nthWeekday(year, time.June, time.Monday, 1),
		nthWeekday(year, time.August, time.Monday, 1),
		lastWeekday(year, time.October, time.Monday),
	}

	// Fixed dates that roll to the next free weekday when they land on a weekend.
	fixed := []time.Time{
		date(time.January, 1),
		date(time.March, 17),
		date(time.December, 25),
		date(time.December, 26),
	}
	taken := map[time.Time]bool{}
	for _, h := range fixed {
		out = append(out, h)
		taken[h] = true
	}
	for _, h := range fixed {
		if wd := h.Weekday(); wd != time.Saturday && wd != time.Sunday {
			continue
		}
		sub := h.AddDate(0, 0, 1)
		for sub.Weekday() == time.Saturday || sub.Weekday() == time.Sunday || taken[sub] {
			sub = sub.AddDate(0, 0, 1)
		}
		taken[sub] = true
		out = append(out, sub)
	}
	return out
}

// stBrigidsDay is the first Monday of February, or 1 February when that is a Friday.
func stBrigidsDay(year int) time.Time {
	feb1 := time.Date(year, time.February, 1, 0, 0, 0, 0, time.UTC)
	if feb1.Weekday() == time.Friday {
		return feb1
	}
	return nthWeekday(year, time.February, time.Monday, 1)
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(t.Weekday()) - int(wd) + 7) % 7
	return t.AddDate(0, 0, -offset)
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
