package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

// CommunicationRepo is the SQLite store behind the ledger.
type CommunicationRepo struct {
	db *sql.DB
}

func NewCommunicationRepo(db *sql.DB) *CommunicationRepo {
	return &CommunicationRepo{db: db}
}

const communicationColumns = `id, company_id, type, date, notes, status, created_at`

func scanCommunication(row rowScanner) (*models.CommunicationRecord, error) {
	var c models.CommunicationRecord
	var date, status string

	if err := row.Scan(&c.ID, &c.CompanyID, &c.Type, &date, &c.Notes, &status, &c.CreatedAt); err != nil {
		return nil, err
	}

	d, err := recurrence.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("communication %s date: %w", c.ID, err)
	}
	c.Date = d
	c.Status = models.RecordStatus(status)
	c.CreatedAt = c.CreatedAt.UTC()

	return &c, nil
}

func (r *CommunicationRepo) CompanyExists(companyID int64) (bool, error) {
	return NewCompanyRepo(r.db).Exists(companyID)
}

// Insert appends rec to the end of its company's ledger.
func (r *CommunicationRepo) Insert(rec *models.CommunicationRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO communications (id, company_id, seq, type, date, notes, status, created_at)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM communications WHERE company_id = ?), ?, ?, ?, ?, ?)
	`, rec.ID, rec.CompanyID, rec.CompanyID, rec.Type, rec.Date.Format(recurrence.DateLayout),
		rec.Notes, string(rec.Status), createdAt.UTC())
	return err
}

func (r *CommunicationRepo) Get(companyID int64, recordID string) (*models.CommunicationRecord, error) {
	c, err := scanCommunication(r.db.QueryRow(
		"SELECT "+communicationColumns+" FROM communications WHERE company_id = ? AND id = ?",
		companyID, recordID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CommunicationRepo) SetStatus(companyID int64, recordID string, status models.RecordStatus) error {
	_, err := r.db.Exec(
		"UPDATE communications SET status = ? WHERE company_id = ? AND id = ?",
		string(status), companyID, recordID,
	)
	return err
}

func (r *CommunicationRepo) Delete(companyID int64, recordID string) (bool, error) {
	result, err := r.db.Exec(
		"DELETE FROM communications WHERE company_id = ? AND id = ?",
		companyID, recordID,
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByCompany returns the company's records in logging order.
func (r *CommunicationRepo) ListByCompany(companyID int64) ([]models.CommunicationRecord, error) {
	return r.list("WHERE company_id = ? ORDER BY seq", companyID)
}

func (r *CommunicationRepo) ListAll() ([]models.CommunicationRecord, error) {
	return r.list("ORDER BY company_id, seq")
}

func (r *CommunicationRepo) list(filter string, args ...any) ([]models.CommunicationRecord, error) {
	rows, err := r.db.Query("SELECT "+communicationColumns+" FROM communications "+filter, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.CommunicationRecord
	for rows.Next() {
		c, err := scanCommunication(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *c)
	}
	return records, rows.Err()
}
