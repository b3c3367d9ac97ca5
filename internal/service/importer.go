package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emilianohg/touchbase/internal/models"
)

// Import stores companies read from a legacy export together with their
// communications. Records flagged completed are completed after logging.
// It stops at the first failure and reports how many companies were saved.
func (t *Tracker) Import(ctx context.Context, companies []models.Company) (int, error) {
	defer t.invalidate(ctx)

	for i, c := range companies {
		records := c.Communications
		c.ID = 0
		c.Communications = nil

		if err := validateCompany(&c); err != nil {
			return i, fmt.Errorf("company %q: %w", c.Name, err)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = t.Now().UTC()
		}
		created, err := t.companies.Create(&c)
		if err != nil {
			return i, fmt.Errorf("failed to create company %q: %w", c.Name, err)
		}

		for _, rec := range records {
			stored, err := t.ledger.Append(created.ID, rec)
			if err != nil {
				return i, fmt.Errorf("company %q: %w", c.Name, err)
			}
			if rec.IsCompleted() {
				if _, err := t.ledger.MarkCompleted(created.ID, stored.ID); err != nil {
					return i, fmt.Errorf("company %q: %w", c.Name, err)
				}
			}
		}

		t.logger.Info("company imported",
			zap.Int64("company_id", created.ID),
			zap.String("name", created.Name),
			zap.Int("communications", len(records)),
		)
	}
	return len(companies), nil
}
