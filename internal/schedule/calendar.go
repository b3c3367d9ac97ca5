package schedule

import (
	"cmp"
	"slices"
	"time"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
	"github.com/emilianohg/touchbase/internal/status"
)

type EventKind string

const (
	// EventLogged is a communication recorded in the ledger.
	EventLogged EventKind = "logged"
	// EventProjected is a due date generated from the company's rule.
	EventProjected EventKind = "projected"
)

type Event struct {
	CompanyID   int64        `json:"companyId"`
	CompanyName string       `json:"companyName"`
	Date        time.Time    `json:"date"`
	Kind        EventKind    `json:"kind"`
	Type        string       `json:"type,omitempty"`
	RecordID    string       `json:"recordId,omitempty"`
	Status      status.Label `json:"status"`
}

// Calendar lists the events between from and to inclusive: every logged
// record with its effective status and every projected due date. Events are
// ordered by date, then company name, logged before projected.
func Calendar(companies []models.Company, today, from, to time.Time) []Event {
	from, to = recurrence.DateOf(from), recurrence.DateOf(to)
	if to.Before(from) {
		return nil
	}
	inRange := func(d time.Time) bool {
		return !d.Before(from) && !d.After(to)
	}

	var events []Event
	for _, c := range companies {
		for _, r := range c.Communications {
			if !inRange(r.Date) {
				continue
			}
			events = append(events, Event{
				CompanyID:   c.ID,
				CompanyName: c.Name,
				Date:        r.Date,
				Kind:        EventLogged,
				Type:        r.Type,
				RecordID:    r.ID,
				Status:      status.EffectiveStatus(r, today),
			})
		}

		for d := range upcoming(c, today) {
			if d.After(to) {
				break
			}
			if !inRange(d) {
				continue
			}
			events = append(events, Event{
				CompanyID:   c.ID,
				CompanyName: c.Name,
				Date:        d,
				Kind:        EventProjected,
				Status:      status.Classify(d, today),
			})
		}
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(a.CompanyName, b.CompanyName); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return events
}

// Overview bundles the schedule views of one company.
type Overview struct {
	CompanyID     int64
	CompanyName   string
	Rule          string
	NextDue       *time.Time
	NextDueStatus status.Label
	Recent        []models.CommunicationRecord
	Upcoming      []time.Time
}

func CompanyOverview(c models.Company, today time.Time, historyCount, upcomingCount int) Overview {
	o := Overview{
		CompanyID:   c.ID,
		CompanyName: c.Name,
		Rule:        c.Rule.String(),
		Recent:      LastN(c, historyCount),
		Upcoming:    NextN(c, upcomingCount, today),
	}
	if next, ok := NextDue(c, today); ok {
		o.NextDue = &next
		o.NextDueStatus = status.Classify(next, today)
	}
	return o
}
