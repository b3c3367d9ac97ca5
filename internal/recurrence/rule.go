// Package recurrence models how often a company should be contacted and
// expands that policy into concrete due dates.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/emilianohg/touchbase/internal/errs"
)

type Kind string

const (
	NoRepeat            Kind = "none"
	Daily               Kind = "daily"
	WeeklyOnDay         Kind = "weekly"
	MonthlyOnNthWeekday Kind = "monthly_nth"
	AnnuallyOnDate      Kind = "annually"
	EveryWeekday        Kind = "weekdays"
	Custom              Kind = "custom"
)

type Unit string

const (
	Week  Unit = "week"
	Month Unit = "month"
	Year  Unit = "year"
)

var (
	ErrMissingTerminator   = errors.New("custom recurrence needs an end date or an occurrence count")
	ErrAmbiguousTerminator = errors.New("custom recurrence has both an end date and an occurrence count")
	ErrInvalidInterval     = errors.New("interval must be at least 1")
	ErrInvalidUnit         = errors.New("unit must be week, month or year")
	ErrInvalidOccurrences  = errors.New("occurrence count must be positive")
	ErrUnknownKind         = errors.New("unknown recurrence kind")
	ErrInvalidWeekday      = errors.New("weekday out of range")
	ErrInvalidNth          = errors.New("week of month must be between 1 and 5")
	ErrInvalidMonthDay     = errors.New("month/day is not a calendar date")
)

// Rule is the repetition policy of one company. Only the fields relevant
// to Kind are meaningful; Custom uses Interval, Unit and exactly one of
// EndDate or Occurrences.
type Rule struct {
	Kind        Kind         `json:"kind"`
	Weekday     time.Weekday `json:"weekday,omitempty"`
	Nth         int          `json:"nth,omitempty"`
	Month       time.Month   `json:"month,omitempty"`
	Day         int          `json:"day,omitempty"`
	Interval    int          `json:"interval,omitempty"`
	Unit        Unit         `json:"unit,omitempty"`
	EndDate     *time.Time   `json:"endDate,omitempty"`
	Occurrences int          `json:"occurrences,omitempty"`
}

func None() Rule {
	return Rule{Kind: NoRepeat}
}

func EveryDay() Rule {
	return Rule{Kind: Daily}
}

func WeeklyOn(day time.Weekday) Rule {
	return Rule{Kind: WeeklyOnDay, Weekday: day}
}

// MonthlyOn repeats on the nth (1-5) given weekday of every month.
func MonthlyOn(nth int, day time.Weekday) Rule {
	return Rule{Kind: MonthlyOnNthWeekday, Nth: nth, Weekday: day}
}

func AnnuallyOn(month time.Month, day int) Rule {
	return Rule{Kind: AnnuallyOnDate, Month: month, Day: day}
}

func Weekdays() Rule {
	return Rule{Kind: EveryWeekday}
}

// Every starts a custom rule. It still needs Until or Times before it
// passes validation.
func Every(interval int, unit Unit) Rule {
	return Rule{Kind: Custom, Interval: interval, Unit: unit}
}

func (r Rule) Until(end time.Time) Rule {
	d := DateOf(end)
	r.EndDate = &d
	return r
}

func (r Rule) Times(n int) Rule {
	r.Occurrences = n
	return r
}

// Validate rejects malformed rules. The returned error is an
// *errs.ValidationError wrapping one of the sentinels above.
func (r Rule) Validate() error {
	switch r.Kind {
	case NoRepeat, Daily, EveryWeekday:
		return nil
	case WeeklyOnDay:
		return validWeekday(r.Weekday)
	case MonthlyOnNthWeekday:
		if r.Nth < 1 || r.Nth > 5 {
			return errs.Invalid("nth", ErrInvalidNth)
		}
		return validWeekday(r.Weekday)
	case AnnuallyOnDate:
		// 2024 is a leap year so Feb 29 is accepted.
		if r.Month < time.January || r.Month > time.December || r.Day < 1 || r.Day > daysIn(2024, r.Month) {
			return errs.Invalid("day", fmt.Errorf("%w: %d/%d", ErrInvalidMonthDay, r.Month, r.Day))
		}
		return nil
	case Custom:
		return r.validateCustom()
	default:
		return errs.Invalid("kind", fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind))
	}
}

func (r Rule) validateCustom() error {
	hasEnd := r.EndDate != nil
	hasCount := r.Occurrences != 0

	if !hasEnd && !hasCount {
		return errs.Invalid("terminator", ErrMissingTerminator)
	}
	if r.Interval < 1 {
		return errs.Invalid("interval", ErrInvalidInterval)
	}
	if hasEnd && hasCount {
		return errs.Invalid("terminator", ErrAmbiguousTerminator)
	}
	switch r.Unit {
	case Week, Month, Year:
	default:
		return errs.Invalid("unit", fmt.Errorf("%w: %q", ErrInvalidUnit, r.Unit))
	}
	if r.Occurrences < 0 {
		return errs.Invalid("occurrences", ErrInvalidOccurrences)
	}
	return nil
}

func validWeekday(d time.Weekday) error {
	if d < time.Sunday || d > time.Saturday {
		return errs.Invalid("weekday", ErrInvalidWeekday)
	}
	return nil
}

// IsRecurring reports whether the rule can produce more than one date.
func (r Rule) IsRecurring() bool {
	if r.Kind == NoRepeat {
		return false
	}
	return !(r.Kind == Custom && r.Occurrences == 1)
}
