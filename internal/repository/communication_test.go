package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/ledger"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

var _ ledger.Store = (*CommunicationRepo)(nil)

func TestCommunicationRepo_ThroughLedger(t *testing.T) {
	conn := setupDB(t)
	company, err := NewCompanyRepo(conn).Create(&models.Company{Name: "Acme", Rule: recurrence.None()})
	require.NoError(t, err)

	l := ledger.New(NewCommunicationRepo(conn), nil)

	later, err := l.Append(company.ID, models.CommunicationRecord{Type: "Email", Date: day(2024, 3, 1), Notes: "follow up"})
	require.NoError(t, err)
	earlier, err := l.Append(company.ID, models.CommunicationRecord{Type: "Phone Call", Date: day(2024, 2, 1)})
	require.NoError(t, err)

	list, err := l.ListFor(company.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, later.ID, list[0].ID)
	assert.Equal(t, earlier.ID, list[1].ID)
	assert.Equal(t, day(2024, 3, 1), list[0].Date)
	assert.Equal(t, "follow up", list[0].Notes)
	assert.Equal(t, models.StatusPending, list[0].Status)

	done, err := l.MarkCompleted(company.ID, later.ID)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted())

	stored, err := NewCommunicationRepo(conn).Get(company.ID, later.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	require.NoError(t, l.Remove(company.ID, earlier.ID))
	assert.ErrorIs(t, l.Remove(company.ID, earlier.ID), errs.ErrNotFound)

	_, err = l.Append(company.ID+100, models.CommunicationRecord{Type: "Email", Date: day(2024, 3, 1)})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestCommunicationRepo_GetMissing(t *testing.T) {
	repo := NewCommunicationRepo(setupDB(t))

	rec, err := repo.Get(1, "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCommunicationRepo_BadDate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	rows := sqlmock.NewRows([]string{"id", "company_id", "type", "date", "notes", "status", "created_at"}).
		AddRow("r1", 1, "Email", "01/02/2024", "", "pending", time.Now())
	mock.ExpectQuery(`SELECT id, company_id`).WithArgs(int64(1)).WillReturnRows(rows)

	_, err = NewCommunicationRepo(conn).ListByCompany(1)
	assert.ErrorContains(t, err, "communication r1 date")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommunicationRepo_InsertError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	boom := errors.New("constraint failed")
	mock.ExpectExec(`INSERT INTO communications`).WillReturnError(boom)

	err = NewCommunicationRepo(conn).Insert(&models.CommunicationRecord{
		ID: "r1", CompanyID: 1, Type: "Email", Date: day(2024, 1, 1), Status: models.StatusPending,
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
