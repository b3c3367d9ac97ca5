package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

type CompanyRepo struct {
	db *sql.DB
}

func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

const companyColumns = `id, name, location, linkedin_profile, emails, phone_numbers, comments, rule, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var c models.Company
	var emailsJSON, phonesJSON, ruleJSON string

	if err := row.Scan(
		&c.ID, &c.Name, &c.Location, &c.LinkedInProfile,
		&emailsJSON, &phonesJSON, &c.Comments, &ruleJSON, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(emailsJSON), &c.Emails); err != nil {
		return nil, fmt.Errorf("company %d emails: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(phonesJSON), &c.PhoneNumbers); err != nil {
		return nil, fmt.Errorf("company %d phone numbers: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(ruleJSON), &c.Rule); err != nil {
		return nil, fmt.Errorf("company %d rule: %w", c.ID, err)
	}
	if c.Rule.Kind == "" {
		c.Rule = recurrence.None()
	}
	c.CreatedAt = c.CreatedAt.UTC()

	return &c, nil
}

type companyJSON struct {
	emails, phones, rule string
}

func marshalCompany(c *models.Company) (companyJSON, error) {
	var out companyJSON

	emails := c.Emails
	if emails == nil {
		emails = []string{}
	}
	phones := c.PhoneNumbers
	if phones == nil {
		phones = []string{}
	}

	b, err := json.Marshal(emails)
	if err != nil {
		return out, err
	}
	out.emails = string(b)

	if b, err = json.Marshal(phones); err != nil {
		return out, err
	}
	out.phones = string(b)

	if b, err = json.Marshal(c.Rule); err != nil {
		return out, err
	}
	out.rule = string(b)

	return out, nil
}

// Create inserts c and returns the stored row. A zero CreatedAt is filled by
// the database.
func (r *CompanyRepo) Create(c *models.Company) (*models.Company, error) {
	cols, err := marshalCompany(c)
	if err != nil {
		return nil, err
	}

	var result sql.Result
	if c.CreatedAt.IsZero() {
		result, err = r.db.Exec(`
			INSERT INTO companies (name, location, linkedin_profile, emails, phone_numbers, comments, rule)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, c.Name, c.Location, c.LinkedInProfile, cols.emails, cols.phones, c.Comments, cols.rule)
	} else {
		result, err = r.db.Exec(`
			INSERT INTO companies (name, location, linkedin_profile, emails, phone_numbers, comments, rule, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, c.Name, c.Location, c.LinkedInProfile, cols.emails, cols.phones, c.Comments, cols.rule, c.CreatedAt.UTC())
	}
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

func (r *CompanyRepo) GetByID(id int64) (*models.Company, error) {
	c, err := scanCompany(r.db.QueryRow(
		"SELECT "+companyColumns+" FROM companies WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CompanyRepo) GetAll() ([]models.Company, error) {
	rows, err := r.db.Query("SELECT " + companyColumns + " FROM companies ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *c)
	}
	return companies, rows.Err()
}

// GetAllWithCommunications loads every company together with its ledger.
func (r *CompanyRepo) GetAllWithCommunications() ([]models.Company, error) {
	companies, err := r.GetAll()
	if err != nil {
		return nil, err
	}

	records, err := NewCommunicationRepo(r.db).ListAll()
	if err != nil {
		return nil, err
	}

	byCompany := make(map[int64][]models.CommunicationRecord)
	for _, rec := range records {
		byCompany[rec.CompanyID] = append(byCompany[rec.CompanyID], rec)
	}
	for i := range companies {
		companies[i].Communications = byCompany[companies[i].ID]
	}
	return companies, nil
}

// Update rewrites the company's own fields. Logged communications are left
// alone, even when the rule changes.
func (r *CompanyRepo) Update(c *models.Company) error {
	cols, err := marshalCompany(c)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		UPDATE companies
		SET name = ?, location = ?, linkedin_profile = ?, emails = ?, phone_numbers = ?, comments = ?, rule = ?
		WHERE id = ?
	`, c.Name, c.Location, c.LinkedInProfile, cols.emails, cols.phones, c.Comments, cols.rule, c.ID)
	return err
}

// Delete removes the company and, through the foreign key, its
// communications. It reports whether the company existed.
func (r *CompanyRepo) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM companies WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *CompanyRepo) Exists(id int64) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM companies WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
