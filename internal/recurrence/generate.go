package recurrence

import (
	"iter"
	"slices"
	"time"
)

// Generate expands r from anchor into at most maxCount ascending due dates.
//
// The sequence is lazy and restartable: every range over it starts again
// from anchor, so the same arguments always yield the same dates. Invalid
// rules and maxCount <= 0 yield nothing.
func Generate(r Rule, anchor time.Time, maxCount int) iter.Seq[time.Time] {
	start := DateOf(anchor)

	return func(yield func(time.Time) bool) {
		if maxCount <= 0 || r.Validate() != nil {
			return
		}

		emitted := 0
		emit := func(d time.Time) bool {
			emitted++
			return yield(d) && emitted < maxCount
		}

		switch r.Kind {
		case NoRepeat:
			emit(start)
		case Daily:
			daily(start, emit)
		case WeeklyOnDay:
			weekly(start, r.Weekday, emit)
		case MonthlyOnNthWeekday:
			monthly(start, r.Nth, r.Weekday, emit)
		case AnnuallyOnDate:
			annually(start, r.Month, r.Day, emit)
		case EveryWeekday:
			weekdays(start, emit)
		case Custom:
			custom(start, r, emit)
		}
	}
}

// Occurrences collects Generate into a slice.
func Occurrences(r Rule, anchor time.Time, maxCount int) []time.Time {
	return slices.Collect(Generate(r, anchor, maxCount))
}

func daily(start time.Time, emit func(time.Time) bool) {
	for d := start; ; d = d.AddDate(0, 0, 1) {
		if !emit(d) {
			return
		}
	}
}

func weekly(start time.Time, wd time.Weekday, emit func(time.Time) bool) {
	first := start.AddDate(0, 0, (int(wd)-int(start.Weekday())+7)%7)
	for d := first; ; d = d.AddDate(0, 0, 7) {
		if !emit(d) {
			return
		}
	}
}

func monthly(start time.Time, nth int, wd time.Weekday, emit func(time.Time) bool) {
	y, m := start.Year(), start.Month()
	for {
		if d, ok := nthWeekday(y, m, nth, wd); ok && !d.Before(start) {
			if !emit(d) {
				return
			}
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}
}

func annually(start time.Time, month time.Month, day int, emit func(time.Time) bool) {
	for y := start.Year(); ; y++ {
		d := time.Date(y, month, day, 0, 0, 0, 0, time.UTC)
		// Feb 29 normalizes into March outside leap years.
		if d.Month() != month || d.Before(start) {
			continue
		}
		if !emit(d) {
			return
		}
	}
}

func weekdays(start time.Time, emit func(time.Time) bool) {
	for d := start; ; d = d.AddDate(0, 0, 1) {
		if isWeekend(d) {
			continue
		}
		if !emit(d) {
			return
		}
	}
}

// custom always offsets from start instead of from the previous date so
// month clamping never drifts (Jan 31, Feb 29, Mar 31, ...).
func custom(start time.Time, r Rule, emit func(time.Time) bool) {
	bounded := r.EndDate != nil
	var end time.Time
	if bounded {
		end = DateOf(*r.EndDate)
	}

	for k := 0; ; k++ {
		if r.Occurrences > 0 && k >= r.Occurrences {
			return
		}
		d := advance(start, r.Unit, k*r.Interval)
		if bounded && d.After(end) {
			return
		}
		if !emit(d) {
			return
		}
	}
}
