package recurrence

import "time"

// DateLayout is the calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// DateOf drops the time of day and returns the calendar date of t as UTC
// midnight. The calendar date is taken in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addMonths moves t forward n months, clamping the day to the length of
// the target month (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	y += total / 12
	m = time.Month(total%12 + 1)
	if dim := daysIn(y, m); d > dim {
		d = dim
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func advance(t time.Time, unit Unit, n int) time.Time {
	switch unit {
	case Week:
		return t.AddDate(0, 0, 7*n)
	case Month:
		return addMonths(t, n)
	default:
		return addMonths(t, 12*n)
	}
}

// nthWeekday returns the nth given weekday of a month, or false when the
// month has fewer than n of them.
func nthWeekday(year int, m time.Month, n int, wd time.Weekday) (time.Time, bool) {
	first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + (n-1)*7
	if day > daysIn(year, m) {
		return time.Time{}, false
	}
	return time.Date(year, m, day, 0, 0, 0, 0, time.UTC), true
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
