package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/emilianohg/touchbase/internal/errs"
)

var ErrUnknownLabel = errors.New("unrecognized periodicity")

var ordinals = []string{"first", "second", "third", "fourth", "fifth"}

// String renders the rule the way the company forms display it, e.g.
// "Monthly on the first Friday" or "Every 2 weeks for 3 occurrences".
// ParseLabel accepts everything String produces.
func (r Rule) String() string {
	switch r.Kind {
	case NoRepeat:
		return "Does not repeat"
	case Daily:
		return "Daily"
	case WeeklyOnDay:
		return "Weekly on " + r.Weekday.String()
	case MonthlyOnNthWeekday:
		if r.Nth >= 1 && r.Nth <= len(ordinals) {
			return fmt.Sprintf("Monthly on the %s %s", ordinals[r.Nth-1], r.Weekday)
		}
		return fmt.Sprintf("Monthly on weekday #%d %s", r.Nth, r.Weekday)
	case AnnuallyOnDate:
		return fmt.Sprintf("Annually on %s %d", r.Month, r.Day)
	case EveryWeekday:
		return "Every weekday (Monday to Friday)"
	case Custom:
		s := "Every " + string(r.Unit)
		if r.Interval != 1 {
			s = fmt.Sprintf("Every %d %ss", r.Interval, r.Unit)
		}
		if r.EndDate != nil {
			s += " until " + r.EndDate.Format(DateLayout)
		}
		if r.Occurrences != 0 {
			s += fmt.Sprintf(" for %d occurrences", r.Occurrences)
		}
		return s
	}
	return string(r.Kind)
}

// ParseLabel turns a periodicity label back into a rule. Matching is case
// insensitive and accepts the older "Repeat every ..." wording. Custom
// labels are validated, so "Every 2 weeks" without a terminator fails with
// ErrMissingTerminator.
func ParseLabel(label string) (Rule, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimPrefix(s, "repeat ")

	switch {
	case s == "does not repeat" || s == "none":
		return None(), nil
	case s == "daily":
		return EveryDay(), nil
	case strings.HasPrefix(s, "every weekday"):
		return Weekdays(), nil
	case strings.HasPrefix(s, "weekly on "):
		if wd, ok := parseWeekday(strings.TrimPrefix(s, "weekly on ")); ok {
			return WeeklyOn(wd), nil
		}
	case strings.HasPrefix(s, "monthly on the "):
		f := strings.Fields(strings.TrimPrefix(s, "monthly on the "))
		if len(f) == 2 {
			nth := ordinalIndex(f[0])
			wd, ok := parseWeekday(f[1])
			if nth > 0 && ok {
				r := MonthlyOn(nth, wd)
				return r, r.Validate()
			}
		}
	case strings.HasPrefix(s, "annually on "):
		f := strings.Fields(strings.TrimPrefix(s, "annually on "))
		if len(f) == 2 {
			m, okMonth := parseMonth(f[0])
			day, err := strconv.Atoi(f[1])
			if okMonth && err == nil {
				r := AnnuallyOn(m, day)
				return r, r.Validate()
			}
		}
	case strings.HasPrefix(s, "every "):
		return parseCustom(strings.Fields(strings.TrimPrefix(s, "every ")))
	}

	return Rule{}, errs.Invalid("communicationPeriodicity", fmt.Errorf("%w: %q", ErrUnknownLabel, label))
}

func parseCustom(words []string) (Rule, error) {
	unknown := errs.Invalid("communicationPeriodicity", fmt.Errorf("%w: %q", ErrUnknownLabel, "every "+strings.Join(words, " ")))
	if len(words) == 0 {
		return Rule{}, unknown
	}

	interval := 1
	if n, err := strconv.Atoi(words[0]); err == nil {
		interval = n
		words = words[1:]
	}
	if len(words) == 0 {
		return Rule{}, unknown
	}

	unit, ok := parseUnit(words[0])
	if !ok {
		return Rule{}, unknown
	}
	r := Every(interval, unit)

	rest := words[1:]
	switch {
	case len(rest) == 0:
	case len(rest) == 2 && rest[0] == "until":
		end, err := ParseDate(rest[1])
		if err != nil {
			return Rule{}, errs.Invalid("endDate", err)
		}
		r = r.Until(end)
	case len(rest) >= 2 && rest[0] == "for":
		n, err := strconv.Atoi(rest[1])
		if err != nil {
			return Rule{}, errs.Invalid("occurrences", err)
		}
		r = r.Times(n)
	default:
		return Rule{}, unknown
	}

	return r, r.Validate()
}

func parseUnit(s string) (Unit, bool) {
	switch strings.TrimSuffix(s, "s") {
	case "week":
		return Week, true
	case "month":
		return Month, true
	case "year":
		return Year, true
	}
	return "", false
}

func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.TrimSpace(s)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == s {
			return d, true
		}
	}
	return 0, false
}

func parseMonth(s string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		if strings.ToLower(m.String()) == s {
			return m, true
		}
	}
	return 0, false
}

func ordinalIndex(s string) int {
	for i, o := range ordinals {
		if o == s {
			return i + 1
		}
	}
	return 0
}
