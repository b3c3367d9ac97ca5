// Package ledger owns the communications logged for each company. All
// mutations for one company are serialized; reads go straight to the store.
package ledger

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emilianohg/touchbase/internal/errs"
	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

var ErrInvalidRecord = errors.New("communication record is incomplete")

// Store persists communication records. Get returns (nil, nil) when the
// record does not exist; Delete reports whether a row was removed.
type Store interface {
	CompanyExists(companyID int64) (bool, error)
	Insert(rec *models.CommunicationRecord) error
	Get(companyID int64, recordID string) (*models.CommunicationRecord, error)
	SetStatus(companyID int64, recordID string, status models.RecordStatus) error
	Delete(companyID int64, recordID string) (bool, error)
	ListByCompany(companyID int64) ([]models.CommunicationRecord, error)
}

type Ledger struct {
	store  Store
	logger *zap.Logger

	// Now and NewID are swapped out by tests.
	Now   func() time.Time
	NewID func() string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func New(store Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		store:  store,
		logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (l *Ledger) lock(companyID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[companyID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[companyID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// lockAll takes the locks of every company in ascending id order.
func (l *Ledger) lockAll(companyIDs []int64) func() {
	ids := slices.Clone(companyIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	unlocks := make([]func(), 0, len(ids))
	for _, id := range ids {
		unlocks = append(unlocks, l.lock(id))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

func validateRecord(rec models.CommunicationRecord) error {
	if strings.TrimSpace(rec.Type) == "" {
		return errs.Invalid("type", ErrInvalidRecord)
	}
	if rec.Date.IsZero() {
		return errs.Invalid("date", ErrInvalidRecord)
	}
	return nil
}

func (l *Ledger) requireCompany(companyID int64) error {
	ok, err := l.store.CompanyExists(companyID)
	if err != nil {
		return fmt.Errorf("failed to look up company %d: %w", companyID, err)
	}
	if !ok {
		return errs.NotFound("company %d", companyID)
	}
	return nil
}

// Append stores a new pending record for the company. A missing ID is
// generated; Status and CreatedAt are always set here.
func (l *Ledger) Append(companyID int64, rec models.CommunicationRecord) (*models.CommunicationRecord, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}

	unlock := l.lock(companyID)
	defer unlock()

	if err := l.requireCompany(companyID); err != nil {
		return nil, err
	}
	return l.insert(companyID, rec)
}

func (l *Ledger) insert(companyID int64, rec models.CommunicationRecord) (*models.CommunicationRecord, error) {
	if rec.ID == "" {
		rec.ID = l.NewID()
	}
	rec.CompanyID = companyID
	rec.Type = strings.TrimSpace(rec.Type)
	rec.Date = recurrence.DateOf(rec.Date)
	rec.Status = models.StatusPending
	rec.CreatedAt = l.Now().UTC()

	if err := l.store.Insert(&rec); err != nil {
		return nil, fmt.Errorf("failed to store communication: %w", err)
	}

	l.logger.Debug("communication logged",
		zap.Int64("company_id", companyID),
		zap.String("record_id", rec.ID),
		zap.String("type", rec.Type),
		zap.Time("date", rec.Date),
	)
	return &rec, nil
}

// AppendMany logs the same communication for several companies. Nothing is
// written unless the record is valid and every company exists. The locks of
// all companies are held from the existence check to the last insert.
func (l *Ledger) AppendMany(companyIDs []int64, rec models.CommunicationRecord) ([]models.CommunicationRecord, error) {
	if err := validateRecord(rec); err != nil {
		return nil, err
	}
	if len(companyIDs) == 0 {
		return nil, errs.Invalid("companyIds", errors.New("at least one company is required"))
	}

	unlock := l.lockAll(companyIDs)
	defer unlock()

	for _, id := range companyIDs {
		if err := l.requireCompany(id); err != nil {
			return nil, err
		}
	}

	// Each company gets its own record, so a caller supplied ID can't be shared.
	rec.ID = ""

	out := make([]models.CommunicationRecord, 0, len(companyIDs))
	for _, id := range companyIDs {
		stored, err := l.insert(id, rec)
		if err != nil {
			return out, err
		}
		out = append(out, *stored)
	}
	return out, nil
}

// Exclusive runs fn while no ledger mutation of the company is in flight.
// Deleting a company goes through it.
func (l *Ledger) Exclusive(companyID int64, fn func() error) error {
	unlock := l.lock(companyID)
	defer unlock()
	return fn()
}

// MarkCompleted completes a pending record. Completing an already
// completed record succeeds without writing.
func (l *Ledger) MarkCompleted(companyID int64, recordID string) (*models.CommunicationRecord, error) {
	unlock := l.lock(companyID)
	defer unlock()

	rec, err := l.store.Get(companyID, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load communication %s: %w", recordID, err)
	}
	if rec == nil {
		return nil, errs.NotFound("communication %s of company %d", recordID, companyID)
	}
	if rec.IsCompleted() {
		return rec, nil
	}

	if err := l.store.SetStatus(companyID, recordID, models.StatusCompleted); err != nil {
		return nil, fmt.Errorf("failed to complete communication %s: %w", recordID, err)
	}
	rec.Status = models.StatusCompleted

	l.logger.Debug("communication completed",
		zap.Int64("company_id", companyID),
		zap.String("record_id", recordID),
	)
	return rec, nil
}

func (l *Ledger) Remove(companyID int64, recordID string) error {
	unlock := l.lock(companyID)
	defer unlock()

	deleted, err := l.store.Delete(companyID, recordID)
	if err != nil {
		return fmt.Errorf("failed to delete communication %s: %w", recordID, err)
	}
	if !deleted {
		return errs.NotFound("communication %s of company %d", recordID, companyID)
	}

	l.logger.Debug("communication removed",
		zap.Int64("company_id", companyID),
		zap.String("record_id", recordID),
	)
	return nil
}

// ListFor returns the company's records in the order they were logged.
func (l *Ledger) ListFor(companyID int64) ([]models.CommunicationRecord, error) {
	if err := l.requireCompany(companyID); err != nil {
		return nil, err
	}
	return l.store.ListByCompany(companyID)
}
