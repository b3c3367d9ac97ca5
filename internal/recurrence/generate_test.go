package recurrence

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerate_Presets(t *testing.T) {
	monday := date(2024, time.January, 1)

	tests := []struct {
		name   string
		rule   Rule
		anchor time.Time
		count  int
		want   []time.Time
	}{
		{
			name:   "no repeat yields the anchor once",
			rule:   None(),
			anchor: monday,
			count:  5,
			want:   []time.Time{monday},
		},
		{
			name:   "daily",
			rule:   EveryDay(),
			anchor: monday,
			count:  3,
			want:   []time.Time{monday, date(2024, 1, 2), date(2024, 1, 3)},
		},
		{
			name:   "weekly on friday from a monday",
			rule:   WeeklyOn(time.Friday),
			anchor: monday,
			count:  2,
			want:   []time.Time{date(2024, 1, 5), date(2024, 1, 12)},
		},
		{
			name:   "weekly includes a matching anchor",
			rule:   WeeklyOn(time.Monday),
			anchor: monday,
			count:  2,
			want:   []time.Time{monday, date(2024, 1, 8)},
		},
		{
			name:   "first friday of each month",
			rule:   MonthlyOn(1, time.Friday),
			anchor: monday,
			count:  3,
			want:   []time.Time{date(2024, 1, 5), date(2024, 2, 2), date(2024, 3, 1)},
		},
		{
			name:   "monthly skips an nth weekday already passed",
			rule:   MonthlyOn(1, time.Friday),
			anchor: date(2024, 1, 10),
			count:  1,
			want:   []time.Time{date(2024, 2, 2)},
		},
		{
			name:   "fifth friday skips months without one",
			rule:   MonthlyOn(5, time.Friday),
			anchor: monday,
			count:  2,
			want:   []time.Time{date(2024, 3, 29), date(2024, 5, 31)},
		},
		{
			name:   "annually before the date in the anchor year",
			rule:   AnnuallyOn(time.January, 3),
			anchor: monday,
			count:  2,
			want:   []time.Time{date(2024, 1, 3), date(2025, 1, 3)},
		},
		{
			name:   "annually after the date moves to next year",
			rule:   AnnuallyOn(time.January, 3),
			anchor: date(2024, 6, 1),
			count:  1,
			want:   []time.Time{date(2025, 1, 3)},
		},
		{
			name:   "annually on feb 29 only hits leap years",
			rule:   AnnuallyOn(time.February, 29),
			anchor: date(2024, 3, 1),
			count:  1,
			want:   []time.Time{date(2028, 2, 29)},
		},
		{
			name:   "every weekday skips the weekend",
			rule:   Weekdays(),
			anchor: date(2024, 1, 5),
			count:  3,
			want:   []time.Time{date(2024, 1, 5), date(2024, 1, 8), date(2024, 1, 9)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Occurrences(tt.rule, tt.anchor, tt.count)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerate_Custom(t *testing.T) {
	t.Run("every two weeks for three occurrences", func(t *testing.T) {
		got := Occurrences(Every(2, Week).Times(3), date(2024, 1, 1), 10)
		assert.Equal(t, []time.Time{date(2024, 1, 1), date(2024, 1, 15), date(2024, 1, 29)}, got)
	})

	t.Run("monthly clamps to short months without drifting", func(t *testing.T) {
		got := Occurrences(Every(1, Month).Times(4), date(2024, 1, 31), 10)
		assert.Equal(t, []time.Time{
			date(2024, 1, 31), date(2024, 2, 29), date(2024, 3, 31), date(2024, 4, 30),
		}, got)
	})

	t.Run("yearly from a leap day", func(t *testing.T) {
		got := Occurrences(Every(1, Year).Times(2), date(2024, 2, 29), 10)
		assert.Equal(t, []time.Time{date(2024, 2, 29), date(2025, 2, 28)}, got)
	})

	t.Run("end date is inclusive", func(t *testing.T) {
		got := Occurrences(Every(1, Week).Until(date(2024, 1, 15)), date(2024, 1, 1), 10)
		assert.Equal(t, []time.Time{date(2024, 1, 1), date(2024, 1, 8), date(2024, 1, 15)}, got)
	})

	t.Run("anchor after the end date yields nothing", func(t *testing.T) {
		got := Occurrences(Every(1, Week).Until(date(2023, 12, 1)), date(2024, 1, 1), 10)
		assert.Empty(t, got)
	})

	t.Run("zero end date still bounds the rule", func(t *testing.T) {
		r := Every(1, Week).Until(time.Time{})
		require.NoError(t, r.Validate())
		assert.Empty(t, Occurrences(r, date(2024, 1, 1), 5))
	})

	t.Run("max count caps the terminator", func(t *testing.T) {
		got := Occurrences(Every(1, Month).Times(12), date(2024, 1, 1), 2)
		assert.Len(t, got, 2)
	})
}

func TestGenerate_EdgeCases(t *testing.T) {
	t.Run("zero max count is empty", func(t *testing.T) {
		assert.Empty(t, Occurrences(EveryDay(), date(2024, 1, 1), 0))
	})

	t.Run("invalid rule is empty", func(t *testing.T) {
		assert.Empty(t, Occurrences(Every(2, Week), date(2024, 1, 1), 5))
		assert.Empty(t, Occurrences(MonthlyOn(9, time.Friday), date(2024, 1, 1), 5))
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		anchor := time.Date(2024, 1, 1, 23, 45, 0, 0, time.UTC)
		got := Occurrences(None(), anchor, 1)
		require.Len(t, got, 1)
		assert.Equal(t, date(2024, 1, 1), got[0])
	})

	t.Run("early break stops the sequence", func(t *testing.T) {
		var seen []time.Time
		for d := range Generate(EveryDay(), date(2024, 1, 1), 100) {
			seen = append(seen, d)
			if len(seen) == 2 {
				break
			}
		}
		assert.Len(t, seen, 2)
	})
}

func genCustomRule(t *rapid.T) Rule {
	unit := rapid.SampledFrom([]Unit{Week, Month, Year}).Draw(t, "unit")
	r := Every(rapid.IntRange(1, 6).Draw(t, "interval"), unit)
	if rapid.Bool().Draw(t, "useCount") {
		return r.Times(rapid.IntRange(1, 30).Draw(t, "occurrences"))
	}
	end := date(2024, 1, 1).AddDate(0, 0, rapid.IntRange(0, 3000).Draw(t, "endOffset"))
	return r.Until(end)
}

func genAnchor(t *rapid.T) time.Time {
	return date(2020, 1, 1).AddDate(0, 0, rapid.IntRange(0, 2000).Draw(t, "anchorOffset"))
}

func TestProperty_CustomStrictlyAscending(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := genCustomRule(rt)
		got := Occurrences(r, genAnchor(rt), 500)

		for i := 1; i < len(got); i++ {
			if !got[i].After(got[i-1]) {
				rt.Fatalf("dates not strictly ascending at %d: %v then %v", i, got[i-1], got[i])
			}
		}
	})
}

func TestProperty_GenerateIsDeterministic(t *testing.T) {
	rules := []Rule{None(), EveryDay(), WeeklyOn(time.Wednesday), MonthlyOn(2, time.Tuesday), AnnuallyOn(time.March, 15), Weekdays()}

	rapid.Check(t, func(rt *rapid.T) {
		r := rapid.SampledFrom(rules).Draw(rt, "rule")
		if rapid.Bool().Draw(rt, "custom") {
			r = genCustomRule(rt)
		}
		anchor := genAnchor(rt)
		n := rapid.IntRange(0, 40).Draw(rt, "n")

		seq := Generate(r, anchor, n)
		first := slices.Collect(seq)
		second := slices.Collect(seq)
		if !slices.Equal(first, second) {
			rt.Fatalf("ranging twice differed: %v vs %v", first, second)
		}
		if third := Occurrences(r, anchor, n); !slices.Equal(first, third) {
			rt.Fatalf("regenerating differed: %v vs %v", first, third)
		}
		if len(first) > n {
			rt.Fatalf("got %d dates, max %d", len(first), n)
		}
	})
}

func TestProperty_OccurrenceCountIsExact(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(rt, "occurrences")
		unit := rapid.SampledFrom([]Unit{Week, Month, Year}).Draw(rt, "unit")
		r := Every(rapid.IntRange(1, 4).Draw(rt, "interval"), unit).Times(n)
		maxCount := n + rapid.IntRange(0, 10).Draw(rt, "extra")

		got := Occurrences(r, genAnchor(rt), maxCount)
		if len(got) != n {
			rt.Fatalf("got %d dates, want %d", len(got), n)
		}
	})
}

func TestProperty_EndDateBoundsOutput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		anchor := genAnchor(rt)
		end := anchor.AddDate(0, 0, rapid.IntRange(0, 1500).Draw(rt, "span"))
		unit := rapid.SampledFrom([]Unit{Week, Month, Year}).Draw(rt, "unit")
		interval := rapid.IntRange(1, 4).Draw(rt, "interval")
		r := Every(interval, unit).Until(end)

		got := Occurrences(r, anchor, 10000)
		if len(got) == 0 {
			rt.Fatalf("anchor %v <= end %v must be emitted", anchor, end)
		}
		for _, d := range got {
			if d.After(end) {
				rt.Fatalf("%v is after end %v", d, end)
			}
		}
		next := advance(anchor, unit, len(got)*interval)
		if !next.After(end) {
			rt.Fatalf("next date %v should exceed end %v", next, end)
		}
	})
}

func TestProperty_EndDateBeforeAnchorYieldsNothing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		anchor := genAnchor(rt)
		end := time.Time{}
		if !rapid.Bool().Draw(rt, "zero") {
			end = anchor.AddDate(0, 0, -rapid.IntRange(1, 5000).Draw(rt, "before"))
		}
		unit := rapid.SampledFrom([]Unit{Week, Month, Year}).Draw(rt, "unit")
		interval := rapid.IntRange(1, 4).Draw(rt, "interval")

		if got := Occurrences(Every(interval, unit).Until(end), anchor, 50); len(got) != 0 {
			rt.Fatalf("end %v before anchor %v emitted %v", end, anchor, got)
		}
	})
}
