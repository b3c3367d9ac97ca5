package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
	"github.com/emilianohg/touchbase/internal/status"
)

func TestCalendar(t *testing.T) {
	today := date(2024, 1, 10)
	acme := models.Company{
		ID:        1,
		Name:      "Acme",
		Rule:      recurrence.WeeklyOn(time.Friday),
		CreatedAt: date(2024, 1, 1),
		Communications: []models.CommunicationRecord{
			logged("a1", date(2024, 1, 5), models.StatusCompleted),
			logged("a2", date(2024, 1, 8), models.StatusPending),
			logged("a3", date(2023, 12, 1), models.StatusPending),
		},
	}
	beta := models.Company{
		ID:        2,
		Name:      "Beta",
		Rule:      recurrence.None(),
		CreatedAt: date(2024, 1, 12),
	}

	events := Calendar([]models.Company{beta, acme}, today, date(2024, 1, 1), date(2024, 1, 19))

	require.Len(t, events, 5)

	assert.Equal(t, Event{CompanyID: 1, CompanyName: "Acme", Date: date(2024, 1, 5), Kind: EventLogged,
		Type: "Email", RecordID: "a1", Status: status.Completed}, events[0])
	assert.Equal(t, "a2", events[1].RecordID)
	assert.Equal(t, status.Overdue, events[1].Status)

	// Next Friday after the latest record.
	assert.Equal(t, date(2024, 1, 12), events[2].Date)
	assert.Equal(t, EventProjected, events[2].Kind)
	assert.Equal(t, "Acme", events[2].CompanyName)
	assert.Equal(t, status.Upcoming, events[2].Status)

	assert.Equal(t, date(2024, 1, 12), events[3].Date)
	assert.Equal(t, "Beta", events[3].CompanyName)

	assert.Equal(t, date(2024, 1, 19), events[4].Date)

	assert.Empty(t, Calendar([]models.Company{acme}, today, date(2024, 2, 1), date(2024, 1, 1)))
}

func TestCompanyOverview(t *testing.T) {
	today := date(2024, 1, 1)
	c := models.Company{
		ID:        7,
		Name:      "Initech",
		Rule:      recurrence.Every(2, recurrence.Week).Times(3),
		CreatedAt: today,
	}

	o := CompanyOverview(c, today, 5, 2)
	assert.Equal(t, int64(7), o.CompanyID)
	assert.Equal(t, "Every 2 weeks for 3 occurrences", o.Rule)
	require.NotNil(t, o.NextDue)
	assert.Equal(t, today, *o.NextDue)
	assert.Equal(t, status.DueToday, o.NextDueStatus)
	assert.Equal(t, []time.Time{date(2024, 1, 1), date(2024, 1, 15)}, o.Upcoming)
	assert.Empty(t, o.Recent)

	done := CompanyOverview(models.Company{Name: "Old", Rule: recurrence.None(), CreatedAt: date(2020, 1, 1)}, today, 5, 5)
	assert.Nil(t, done.NextDue)
	assert.Empty(t, done.Upcoming)
}
