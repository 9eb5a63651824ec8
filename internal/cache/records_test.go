package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/service/reporting"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]models.Record
	getErr  error
}

func (m *memoryCache) Get(_ context.Context, d models.Dataset, q models.Query) ([]models.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	records, ok := m.entries[RecordsKey(d, q)]
	return records, ok, nil
}

func (m *memoryCache) Set(_ context.Context, d models.Dataset, q models.Query, records []models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string][]models.Record)
	}
	m.entries[RecordsKey(d, q)] = records
	return nil
}

func (m *memoryCache) Invalidate(_ context.Context, d models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := recordsKeyPrefix + ":" + string(d) + ":"
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCache) Close() error { return nil }

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) Fetch(context.Context, models.Dataset, models.Query) ([]models.Record, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []models.Record{{"branch": models.Text("Tema"), "net_sales": models.Number(100)}}, nil
}

func TestRecordsKey(t *testing.T) {
	assert.Equal(t, "stationdash:sales:2025:03:", RecordsKey(models.DatasetSales, models.Query{Year: "2025", Month: "03"}))
	assert.Equal(t, "stationdash:stock:2024::", RecordsKey(models.DatasetStock, models.Query{Year: "2024"}))
}

func TestSourceReadsThrough(t *testing.T) {
	next := &countingSource{}
	src := NewSource(next, &memoryCache{}, nil)
	ctx := context.Background()
	q := models.Query{Year: "2025"}

	first, err := src.Fetch(ctx, models.DatasetSales, q)
	require.NoError(t, err)
	second, err := src.Fetch(ctx, models.DatasetSales, q)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)

	_, err = src.Fetch(ctx, models.DatasetSales, models.Query{Year: "2024"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestSourceForcedFetchSkipsCache(t *testing.T) {
	next := &countingSource{}
	src := NewSource(next, &memoryCache{}, nil)
	q := models.Query{Year: "2025"}

	_, err := src.Fetch(context.Background(), models.DatasetTrucks, q)
	require.NoError(t, err)
	_, err = src.Fetch(reporting.ForceFetch(context.Background()), models.DatasetTrucks, q)
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestSourceCacheErrorFallsBack(t *testing.T) {
	next := &countingSource{}
	src := NewSource(next, &memoryCache{getErr: errors.New("connection refused")}, nil)

	records, err := src.Fetch(context.Background(), models.DatasetSales, models.Query{Year: "2025"})

	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, next.calls)
}

func TestSourceDoesNotCacheFailures(t *testing.T) {
	cache := &memoryCache{}
	src := NewSource(&countingSource{err: errors.New("boom")}, cache, nil)

	_, err := src.Fetch(context.Background(), models.DatasetSales, models.Query{Year: "2025"})

	require.Error(t, err)
	assert.Empty(t, cache.entries)
}

func TestNewRecordCacheDisabled(t *testing.T) {
	c, err := NewRecordCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	_, ok, err := c.Get(context.Background(), models.DatasetSales, models.Query{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Close())
}

func TestRedisRecordCacheRoundTrip(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	c, err := NewRecordCache(config.CacheConfig{Enabled: true, RedisURL: redisURL, TTL: time.Minute})
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	q := models.Query{Year: "1999"}
	require.NoError(t, c.Invalidate(ctx, models.DatasetStock))

	records := []models.Record{{"branch": models.Text("Wa"), "total_ago": models.Number(12.5)}}
	require.NoError(t, c.Set(ctx, models.DatasetStock, q, records))

	got, ok, err := c.Get(ctx, models.DatasetStock, q)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, records, got)

	require.NoError(t, c.Invalidate(ctx, models.DatasetStock))
	_, ok, err = c.Get(ctx, models.DatasetStock, q)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForcedFetchInvalidatesDataset(t *testing.T) {
	next := &countingSource{}
	mc := &memoryCache{}
	src := NewSource(next, mc, nil)
	ctx := context.Background()

	_, err := src.Fetch(ctx, models.DatasetSales, models.Query{Year: "2025", Month: "3"})
	require.NoError(t, err)
	_, err = src.Fetch(ctx, models.DatasetStock, models.Query{Year: "2025"})
	require.NoError(t, err)

	_, err = src.Fetch(reporting.ForceFetch(ctx), models.DatasetSales, models.Query{Year: "2025"})
	require.NoError(t, err)

	assert.NotContains(t, mc.entries, RecordsKey(models.DatasetSales, models.Query{Year: "2025", Month: "3"}))
	assert.Contains(t, mc.entries, RecordsKey(models.DatasetSales, models.Query{Year: "2025"}))
	assert.Contains(t, mc.entries, RecordsKey(models.DatasetStock, models.Query{Year: "2025"}))
	assert.Equal(t, 3, next.calls)
}
