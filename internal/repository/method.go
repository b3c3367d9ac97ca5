package repository

import (
	"database/sql"

	"github.com/emilianohg/touchbase/internal/models"
)

type MethodRepo struct {
	db *sql.DB
}

func NewMethodRepo(db *sql.DB) *MethodRepo {
	return &MethodRepo{db: db}
}

func (r *MethodRepo) Create(m *models.CommunicationMethod) (*models.CommunicationMethod, error) {
	result, err := r.db.Exec(
		"INSERT INTO communication_methods (name, description, sequence, mandatory) VALUES (?, ?, ?, ?)",
		m.Name, m.Description, m.Sequence, m.Mandatory,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

func (r *MethodRepo) GetByID(id int64) (*models.CommunicationMethod, error) {
	var m models.CommunicationMethod
	err := r.db.QueryRow(
		"SELECT id, name, description, sequence, mandatory FROM communication_methods WHERE id = ?",
		id,
	).Scan(&m.ID, &m.Name, &m.Description, &m.Sequence, &m.Mandatory)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetAll returns methods in their configured sequence.
func (r *MethodRepo) GetAll() ([]models.CommunicationMethod, error) {
	rows, err := r.db.Query(
		"SELECT id, name, description, sequence, mandatory FROM communication_methods ORDER BY sequence, name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []models.CommunicationMethod
	for rows.Next() {
		var m models.CommunicationMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Sequence, &m.Mandatory); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (r *MethodRepo) Update(m *models.CommunicationMethod) (bool, error) {
	result, err := r.db.Exec(
		"UPDATE communication_methods SET name = ?, description = ?, sequence = ?, mandatory = ? WHERE id = ?",
		m.Name, m.Description, m.Sequence, m.Mandatory, m.ID,
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

func (r *MethodRepo) Delete(id int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM communication_methods WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
