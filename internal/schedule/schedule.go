// Package schedule merges a company's ledger with the dates its rule
// generates into the views shown on the dashboard: the next due date, the
// most recent communications, the upcoming due dates and report counts.
//
// Every function is pure and takes today explicitly.
package schedule

import (
	"cmp"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

// scanLimit bounds how many generated dates are examined for one company.
// Custom rules are generated from the anchor, which may lie years behind
// today.
const scanLimit = 10000

// anchor is the date of the latest logged record, or the company's
// creation date when nothing has been logged.
func anchor(c models.Company) time.Time {
	if len(c.Communications) == 0 {
		return recurrence.DateOf(c.CreatedAt)
	}
	latest := c.Communications[0].Date
	for _, r := range c.Communications[1:] {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return recurrence.DateOf(latest)
}

func loggedDates(c models.Company) map[time.Time]bool {
	out := make(map[time.Time]bool, len(c.Communications))
	for _, r := range c.Communications {
		out[recurrence.DateOf(r.Date)] = true
	}
	return out
}

// upcoming yields the generated dates that are on or after today and have
// no record logged on them yet, in ascending order.
func upcoming(c models.Company, today time.Time) iter.Seq[time.Time] {
	today = recurrence.DateOf(today)
	from := anchor(c)

	// Presets repeat on a fixed calendar pattern, so generation can start
	// at today. Custom and one-off rules count from their anchor.
	if c.Rule.IsRecurring() && c.Rule.Kind != recurrence.Custom && from.Before(today) {
		from = today
	}

	logged := loggedDates(c)
	return func(yield func(time.Time) bool) {
		for d := range recurrence.Generate(c.Rule, from, scanLimit) {
			if d.Before(today) || logged[d] {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// NextDue returns the earliest generated date on or after today that no
// logged record already covers. It reports false when the rule has nothing
// left to generate, e.g. a one-off that already happened.
func NextDue(c models.Company, today time.Time) (time.Time, bool) {
	for d := range upcoming(c, today) {
		return d, true
	}
	return time.Time{}, false
}

// NextN returns the first n due dates starting at NextDue. It continues
// the sequence NextDue was taken from, so a rule limited to a number of
// occurrences keeps counting from its anchor instead of restarting.
func NextN(c models.Company, n int, today time.Time) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	for d := range upcoming(c, today) {
		out = append(out, d)
		if len(out) == n {
			break
		}
	}
	return out
}

// LastN returns the n most recently dated records, newest first. Records
// on the same date keep their logging order reversed, so the last logged
// comes first.
func LastN(c models.Company, n int) []models.CommunicationRecord {
	if n <= 0 || len(c.Communications) == 0 {
		return nil
	}

	sorted := slices.Clone(c.Communications)
	slices.Reverse(sorted)
	slices.SortStableFunc(sorted, func(a, b models.CommunicationRecord) int {
		return b.Date.Compare(a.Date)
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// FrequencyHistogram counts logged records per type across companies.
// Types outside known, compared case-insensitively, are counted as
// models.OtherType. Without known types the defaults are used.
func FrequencyHistogram(companies []models.Company, known ...string) map[string]int {
	if len(known) == 0 {
		known = models.DefaultCommunicationTypes
	}

	canonical := make(map[string]string, len(known))
	for _, k := range known {
		canonical[strings.ToLower(strings.TrimSpace(k))] = k
	}

	counts := make(map[string]int)
	for _, c := range companies {
		for _, r := range c.Communications {
			name, ok := canonical[strings.ToLower(strings.TrimSpace(r.Type))]
			if !ok {
				name = models.OtherType
			}
			counts[name]++
		}
	}
	return counts
}

// Bucket is one histogram row.
type Bucket struct {
	Type  string `json:"type" yaml:"type"`
	Count int    `json:"count" yaml:"count"`
}

// SortedHistogram orders a histogram by count, then type name.
func SortedHistogram(h map[string]int) []Bucket {
	out := make([]Bucket, 0, len(h))
	for t, n := range h {
		out = append(out, Bucket{Type: t, Count: n})
	}
	slices.SortFunc(out, func(a, b Bucket) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Type, b.Type)
	})
	return out
}
