package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/models"
)

func (t *Tracker) Methods(ctx context.Context) ([]models.CommunicationMethod, error) {
	methods, err := t.methods.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load communication methods: %w", err)
	}
	return methods, nil
}

// SaveMethod creates the method when ID is zero and updates it otherwise.
func (t *Tracker) SaveMethod(ctx context.Context, m models.CommunicationMethod) (*models.CommunicationMethod, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, errs.Invalid("name", errors.New("name is required"))
	}
	if m.Sequence < 0 {
		return nil, errs.Invalid("sequence", errors.New("sequence must not be negative"))
	}

	if m.ID == 0 {
		created, err := t.methods.Create(&m)
		if err != nil {
			return nil, fmt.Errorf("failed to create communication method: %w", err)
		}
		t.logger.Info("communication method created", zap.String("name", created.Name))
		return created, nil
	}

	updated, err := t.methods.Update(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to update communication method %d: %w", m.ID, err)
	}
	if !updated {
		return nil, errs.NotFound("communication method %d", m.ID)
	}
	return &m, nil
}

func (t *Tracker) DeleteMethod(ctx context.Context, id int64) error {
	deleted, err := t.methods.Delete(id)
	if err != nil {
		return fmt.Errorf("failed to delete communication method %d: %w", id, err)
	}
	if !deleted {
		return errs.NotFound("communication method %d", id)
	}
	return nil
}
