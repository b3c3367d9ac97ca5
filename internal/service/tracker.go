// Package service composes persistence, the ledger, the schedule views and
// the company cache into the operations used by the CLI, the TUI and the
// HTTP API.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emilianohg/touchbase/internal/cache"
	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/ledger"
	"github.com/emilianohg/touchbase/internal/metrics"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
	"github.com/emilianohg/touchbase/internal/repository"
	"github.com/emilianohg/touchbase/internal/schedule"
	"github.com/emilianohg/touchbase/internal/status"
)

type Options struct {
	HistoryCount  int
	UpcomingCount int
	CacheTTL      time.Duration
}

func DefaultOptions() Options {
	return Options{HistoryCount: 5, UpcomingCount: 5}
}

type Tracker struct {
	companies *repository.CompanyRepo
	records   *repository.CommunicationRepo
	methods   *repository.MethodRepo
	ledger    *ledger.Ledger
	cache     *cache.CompanyCache
	opts      Options
	logger    *zap.Logger

	// Now is swapped out by tests.
	Now func() time.Time
}

// New builds a tracker over a migrated database. kv may be nil, in which
// case the snapshot cache lives in memory.
func New(conn *sql.DB, kv cache.KVStore, opts Options, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if kv == nil {
		kv = cache.NewMemoryKVStore()
	}

	records := repository.NewCommunicationRepo(conn)
	return &Tracker{
		companies: repository.NewCompanyRepo(conn),
		records:   records,
		methods:   repository.NewMethodRepo(conn),
		ledger:    ledger.New(records, logger.Named("ledger")),
		cache:     cache.NewCompanyCache(kv, opts.CacheTTL, logger.Named("cache")),
		opts:      opts,
		logger:    logger,
		Now:       time.Now,
	}
}

// Today is the current calendar date.
func (t *Tracker) Today() time.Time {
	return recurrence.DateOf(t.Now())
}

func (t *Tracker) invalidate(ctx context.Context) {
	// The write already happened; a stale snapshot expires with its TTL.
	if err := t.cache.Invalidate(ctx); err != nil {
		t.logger.Error("company cache not invalidated", zap.Error(err))
	}
}

// Companies returns every company with its communications.
func (t *Tracker) Companies(ctx context.Context) ([]models.Company, error) {
	companies, err := t.cache.Companies(ctx, t.companies.GetAllWithCommunications)
	if err != nil {
		return nil, fmt.Errorf("failed to load companies: %w", err)
	}
	return companies, nil
}

func (t *Tracker) Company(ctx context.Context, id int64) (*models.Company, error) {
	companies, err := t.Companies(ctx)
	if err != nil {
		return nil, err
	}
	for i := range companies {
		if companies[i].ID == id {
			return &companies[i], nil
		}
	}
	return nil, errs.NotFound("company %d", id)
}

func validateCompany(c *models.Company) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return errs.Invalid("name", errors.New("name is required"))
	}
	if c.Rule.Kind == "" {
		c.Rule = recurrence.None()
	}
	return c.Rule.Validate()
}

// SaveCompany creates the company when ID is zero and updates it
// otherwise. An invalid rule is rejected before anything is written.
func (t *Tracker) SaveCompany(ctx context.Context, c models.Company) (*models.Company, error) {
	if err := validateCompany(&c); err != nil {
		return nil, err
	}

	if c.ID == 0 {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = t.Now().UTC()
		}
		created, err := t.companies.Create(&c)
		if err != nil {
			return nil, fmt.Errorf("failed to create company: %w", err)
		}
		t.invalidate(ctx)
		t.logger.Info("company created", zap.Int64("company_id", created.ID), zap.String("name", created.Name))
		return created, nil
	}

	exists, err := t.companies.Exists(c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up company %d: %w", c.ID, err)
	}
	if !exists {
		return nil, errs.NotFound("company %d", c.ID)
	}
	if err := t.companies.Update(&c); err != nil {
		return nil, fmt.Errorf("failed to update company %d: %w", c.ID, err)
	}
	t.invalidate(ctx)

	t.logger.Info("company updated", zap.Int64("company_id", c.ID))
	return t.companies.GetByID(c.ID)
}

// DeleteCompany removes the company and all of its communications.
func (t *Tracker) DeleteCompany(ctx context.Context, id int64) error {
	err := t.ledger.Exclusive(id, func() error {
		deleted, err := t.companies.Delete(id)
		if err != nil {
			return fmt.Errorf("failed to delete company %d: %w", id, err)
		}
		if !deleted {
			return errs.NotFound("company %d", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.invalidate(ctx)

	t.logger.Info("company deleted", zap.Int64("company_id", id))
	return nil
}

func (t *Tracker) LogCommunication(ctx context.Context, companyID int64, rec models.CommunicationRecord) (*models.CommunicationRecord, error) {
	stored, err := t.ledger.Append(companyID, rec)
	metrics.LedgerOperations.WithLabelValues("append", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	t.invalidate(ctx)
	return stored, nil
}

// LogCommunications logs the same communication for several companies.
func (t *Tracker) LogCommunications(ctx context.Context, companyIDs []int64, rec models.CommunicationRecord) ([]models.CommunicationRecord, error) {
	stored, err := t.ledger.AppendMany(companyIDs, rec)
	metrics.LedgerOperations.WithLabelValues("append", metrics.Result(err)).Add(float64(max(len(stored), 1)))
	if len(stored) > 0 {
		t.invalidate(ctx)
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (t *Tracker) MarkCompleted(ctx context.Context, companyID int64, recordID string) (*models.CommunicationRecord, error) {
	rec, err := t.ledger.MarkCompleted(companyID, recordID)
	metrics.LedgerOperations.WithLabelValues("complete", metrics.Result(err)).Inc()
	if err != nil {
		return nil, err
	}
	t.invalidate(ctx)
	return rec, nil
}

func (t *Tracker) RemoveCommunication(ctx context.Context, companyID int64, recordID string) error {
	err := t.ledger.Remove(companyID, recordID)
	metrics.LedgerOperations.WithLabelValues("remove", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}
	t.invalidate(ctx)
	return nil
}

// Communications returns the company's ledger in logging order.
func (t *Tracker) Communications(ctx context.Context, companyID int64) ([]models.CommunicationRecord, error) {
	return t.ledger.ListFor(companyID)
}

// Notifications collects overdue and due-today communications as of today.
func (t *Tracker) Notifications(ctx context.Context, today time.Time) (status.Notifications, error) {
	companies, err := t.Companies(ctx)
	if err != nil {
		return status.Notifications{}, err
	}

	n := status.AggregateNotifications(companies, today)
	metrics.Notifications.WithLabelValues("overdue").Set(float64(len(n.Overdue)))
	metrics.Notifications.WithLabelValues("due_today").Set(float64(len(n.DueToday)))
	return n, nil
}

func (t *Tracker) Overview(ctx context.Context, companyID int64, today time.Time) (schedule.Overview, error) {
	c, err := t.Company(ctx, companyID)
	if err != nil {
		return schedule.Overview{}, err
	}
	return schedule.CompanyOverview(*c, today, t.opts.HistoryCount, t.opts.UpcomingCount), nil
}

// Overviews returns the schedule of every company, in name order.
func (t *Tracker) Overviews(ctx context.Context, today time.Time) ([]schedule.Overview, error) {
	companies, err := t.Companies(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]schedule.Overview, 0, len(companies))
	for _, c := range companies {
		out = append(out, schedule.CompanyOverview(c, today, t.opts.HistoryCount, t.opts.UpcomingCount))
	}
	return out, nil
}

func (t *Tracker) Calendar(ctx context.Context, today, from, to time.Time) ([]schedule.Event, error) {
	companies, err := t.Companies(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.Calendar(companies, today, from, to), nil
}

// Histogram counts communications per registered method. Types that match
// no method are counted as "Other".
func (t *Tracker) Histogram(ctx context.Context) (map[string]int, error) {
	companies, err := t.Companies(ctx)
	if err != nil {
		return nil, err
	}

	methods, err := t.methods.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load communication methods: %w", err)
	}
	known := make([]string, 0, len(methods))
	for _, m := range methods {
		known = append(known, m.Name)
	}

	return schedule.FrequencyHistogram(companies, known...), nil
}
