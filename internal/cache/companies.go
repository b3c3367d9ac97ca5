// Package cache is an invalidatable read-through cache of the company
// snapshot. The database stays the only authority: a failing cache is
// logged and bypassed, never trusted over the loader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/emilianohg/touchbase/internal/metrics"
	"github.com/emilianohg/touchbase/internal/models"
)

const (
	companiesKey  = "touchbase:companies"
	generationKey = companiesKey + ":generation"
)

// Snapshots are stored per generation. Invalidate moves to the next
// generation, so a snapshot loaded before a write can only land under a
// key that readers no longer look at.
func snapshotKey(generation int64) string {
	return fmt.Sprintf("%s:%d", companiesKey, generation)
}

// Loader reads the authoritative company list.
type Loader func() ([]models.Company, error)

type CompanyCache struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewCompanyCache(kv KVStore, ttl time.Duration, logger *zap.Logger) *CompanyCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyCache{kv: kv, ttl: ttl, logger: logger}
}

func (c *CompanyCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.kv.Get(ctx, generationKey)
	if errors.Is(err, ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache generation %q: %w", raw, err)
	}
	return gen, nil
}

// Companies returns the cached snapshot or, on a miss, loads and stores a
// fresh one.
func (c *CompanyCache) Companies(ctx context.Context, load Loader) ([]models.Company, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("company cache unavailable", zap.Error(err))
		metrics.CacheRequests.WithLabelValues("error").Inc()
		return load()
	}
	key := snapshotKey(gen)

	raw, err := c.kv.Get(ctx, key)
	switch {
	case err == nil:
		var companies []models.Company
		decodeErr := json.Unmarshal([]byte(raw), &companies)
		if decodeErr == nil {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return companies, nil
		}
		c.logger.Warn("discarding unreadable company snapshot", zap.Error(decodeErr))
		metrics.CacheRequests.WithLabelValues("error").Inc()
	case errors.Is(err, ErrCacheMiss):
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("company cache unavailable", zap.Error(err))
		metrics.CacheRequests.WithLabelValues("error").Inc()
	}

	companies, err := load()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(companies)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal company snapshot: %w", err)
	}
	if err := c.kv.Set(ctx, key, string(data), c.ttl); err != nil {
		c.logger.Warn("failed to store company snapshot", zap.Error(err))
		return companies, nil
	}

	// An invalidation may have landed while loading; drop what we stored
	// under the old generation so it does not linger without a TTL.
	if now, err := c.generation(ctx); err != nil || now != gen {
		if err := c.kv.Delete(ctx, key); err != nil {
			c.logger.Warn("failed to drop outdated company snapshot", zap.Error(err))
		}
		return companies, nil
	}

	c.logger.Debug("company snapshot refreshed", zap.Int("companies", len(companies)), zap.Int64("generation", gen))
	return companies, nil
}

// Invalidate moves to a new generation and drops the previous snapshot.
// Every mutation calls it before returning.
func (c *CompanyCache) Invalidate(ctx context.Context) error {
	gen, err := c.kv.Incr(ctx, generationKey)
	if err != nil {
		return fmt.Errorf("failed to invalidate company cache: %w", err)
	}
	if err := c.kv.Delete(ctx, snapshotKey(gen-1)); err != nil {
		return fmt.Errorf("failed to invalidate company cache: %w", err)
	}
	return nil
}
