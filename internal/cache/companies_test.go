package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/emilianohg/touchbase/internal/models"
	"github.com/emilianohg/touchbase/internal/recurrence"
)

type countingLoader struct {
	calls     int
	companies []models.Company
	err       error
}

func (l *countingLoader) load() ([]models.Company, error) {
	l.calls++
	return l.companies, l.err
}

func sampleCompanies() []models.Company {
	return []models.Company{{
		ID:        1,
		Name:      "Acme",
		Emails:    []string{"a@acme.test"},
		Rule:      recurrence.Every(2, recurrence.Week).Until(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		CreatedAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Communications: []models.CommunicationRecord{{
			ID: "r1", CompanyID: 1, Type: "Email",
			Date:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			Status: models.StatusCompleted,
		}},
	}}
}

func TestCompanyCache_ReadThrough(t *testing.T) {
	_, kv := setupTestRedis(t)
	cache := NewCompanyCache(kv, time.Minute, nil)
	loader := &countingLoader{companies: sampleCompanies()}
	ctx := context.Background()

	first, err := cache.Companies(ctx, loader.load)
	require.NoError(t, err)
	second, err := cache.Companies(ctx, loader.load)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, sampleCompanies(), second)

	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.Companies(ctx, loader.load)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestCompanyCache_LoaderError(t *testing.T) {
	cache := NewCompanyCache(NewMemoryKVStore(), 0, nil)
	boom := errors.New("database is locked")

	_, err := cache.Companies(context.Background(), (&countingLoader{err: boom}).load)
	assert.ErrorIs(t, err, boom)

	// Nothing was cached, so the next call loads again.
	loader := &countingLoader{companies: sampleCompanies()}
	_, err = cache.Companies(context.Background(), loader.load)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
}

func TestCompanyCache_RedisDown(t *testing.T) {
	mr, kv := setupTestRedis(t)
	cache := NewCompanyCache(kv, time.Minute, nil)
	loader := &countingLoader{companies: sampleCompanies()}
	mr.Close()

	got, err := cache.Companies(context.Background(), loader.load)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, loader.calls)
}

func TestCompanyCache_CorruptSnapshot(t *testing.T) {
	kv := NewMemoryKVStore()
	require.NoError(t, kv.Set(context.Background(), snapshotKey(0), "{broken", 0))

	core, logs := observer.New(zap.WarnLevel)
	cache := NewCompanyCache(kv, 0, zap.New(core))
	loader := &countingLoader{companies: sampleCompanies()}

	got, err := cache.Companies(context.Background(), loader.load)
	require.NoError(t, err)
	assert.Equal(t, sampleCompanies(), got)
	assert.Equal(t, 1, loader.calls)

	warnings := logs.FilterMessage("discarding unreadable company snapshot").All()
	require.Len(t, warnings, 1)
	logged, ok := warnings[0].ContextMap()["error"].(string)
	require.True(t, ok, "decode error is logged")
	assert.NotEmpty(t, logged)
}

// blockingLoader reads its companies, then waits for release before
// returning them, so a write can land in between.
type blockingLoader struct {
	companies func() []models.Company
	loaded    chan struct{}
	release   chan struct{}
}

func (l *blockingLoader) load() ([]models.Company, error) {
	companies := l.companies()
	close(l.loaded)
	<-l.release
	return companies, nil
}

func TestCompanyCache_InvalidateDuringLoad(t *testing.T) {
	for name, newKV := range map[string]func(t *testing.T) KVStore{
		"memory": func(t *testing.T) KVStore { return NewMemoryKVStore() },
		"redis": func(t *testing.T) KVStore {
			_, kv := setupTestRedis(t)
			return kv
		},
	} {
		t.Run(name, func(t *testing.T) {
			kv := newKV(t)
			cache := NewCompanyCache(kv, 0, nil)
			ctx := context.Background()

			var mu sync.Mutex
			current := "old"
			read := func() []models.Company {
				mu.Lock()
				defer mu.Unlock()
				return []models.Company{{ID: 1, Name: current}}
			}

			slow := &blockingLoader{companies: read, loaded: make(chan struct{}), release: make(chan struct{})}
			done := make(chan []models.Company)
			go func() {
				got, err := cache.Companies(ctx, slow.load)
				assert.NoError(t, err)
				done <- got
			}()

			<-slow.loaded
			mu.Lock()
			current = "new"
			mu.Unlock()
			require.NoError(t, cache.Invalidate(ctx))
			close(slow.release)

			stale := <-done
			assert.Equal(t, "old", stale[0].Name, "the racing reader sees what it loaded")

			got, err := cache.Companies(ctx, func() ([]models.Company, error) { return read(), nil })
			require.NoError(t, err)
			assert.Equal(t, "new", got[0].Name)

			_, err = kv.Get(ctx, snapshotKey(0))
			assert.ErrorIs(t, err, ErrCacheMiss, "outdated snapshot is dropped")
		})
	}
}
