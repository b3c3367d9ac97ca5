// Package status labels due dates and communication records relative to a
// given day and collects the overdue and due-today notification sets.
//
// Nothing here is stored: labels are recomputed from the current date on
// every read, so a pending record moves Upcoming -> DueToday -> Overdue
// simply because time passes, until it is marked completed.
package status

import (
	"time"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

type Label string

const (
	Upcoming  Label = "upcoming"
	DueToday  Label = "dueToday"
	Overdue   Label = "overdue"
	Completed Label = "completed"
)

// Classify compares calendar dates only; the time of day is ignored.
func Classify(date, today time.Time) Label {
	d, t := recurrence.DateOf(date), recurrence.DateOf(today)
	switch {
	case d.Before(t):
		return Overdue
	case d.Equal(t):
		return DueToday
	default:
		return Upcoming
	}
}

// EffectiveStatus is Completed for completed records and the date label
// otherwise.
func EffectiveStatus(r models.CommunicationRecord, today time.Time) Label {
	if r.IsCompleted() {
		return Completed
	}
	return Classify(r.Date, today)
}

type Notification struct {
	CompanyID   int64
	CompanyName string
	Record      models.CommunicationRecord
}

type Notifications struct {
	Overdue  []Notification
	DueToday []Notification
}

func (n Notifications) Empty() bool {
	return len(n.Overdue) == 0 && len(n.DueToday) == 0
}

type recordKey struct {
	companyID int64
	recordID  string
}

// AggregateNotifications collects every pending record that is overdue or
// due today. Each (company, record) pair appears at most once even when
// the same company is passed in more than once.
func AggregateNotifications(companies []models.Company, today time.Time) Notifications {
	var out Notifications
	seen := make(map[recordKey]bool)

	for _, c := range companies {
		for _, r := range c.Communications {
			if r.IsCompleted() {
				continue
			}
			key := recordKey{companyID: c.ID, recordID: r.ID}
			if seen[key] {
				continue
			}

			n := Notification{CompanyID: c.ID, CompanyName: c.Name, Record: r}
			switch EffectiveStatus(r, today) {
			case Overdue:
				out.Overdue = append(out.Overdue, n)
			case DueToday:
				out.DueToday = append(out.DueToday, n)
			default:
				continue
			}
			seen[key] = true
		}
	}

	return out
}
