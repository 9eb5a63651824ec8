package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/service/reporting"
)

const (
	recordsKeyPrefix = "stationdash"
	scanBatchSize    = 100
)

// RecordCache stores fetched record sets per dataset and query.
type RecordCache interface {
	Get(ctx context.Context, dataset models.Dataset, q models.Query) ([]models.Record, bool, error)
	Set(ctx context.Context, dataset models.Dataset, q models.Query, records []models.Record) error
	Invalidate(ctx context.Context, dataset models.Dataset) error
	Close() error
}

type redisRecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecordCache struct{}

// NewRecordCache connects to redis when caching is enabled and returns a
// no-op cache otherwise.
func NewRecordCache(cfg config.CacheConfig) (RecordCache, error) {
	if !cfg.Enabled {
		return NewNoopRecordCache(), nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	return &redisRecordCache{client: client, ttl: ttl}, nil
}

// NewNoopRecordCache returns a cache that never hits.
func NewNoopRecordCache() RecordCache {
	return &noopRecordCache{}
}

// RecordsKey is the redis key of one record set.
func RecordsKey(dataset models.Dataset, q models.Query) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s", recordsKeyPrefix, dataset, q.Year, q.Month, q.Day)
}

func (c *redisRecordCache) Get(ctx context.Context, dataset models.Dataset, q models.Query) ([]models.Record, bool, error) {
	payload, err := c.client.Get(ctx, RecordsKey(dataset, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var records []models.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, false, fmt.Errorf("decode cached records: %w", err)
	}
	return records, true, nil
}

func (c *redisRecordCache) Set(ctx context.Context, dataset models.Dataset, q models.Query, records []models.Record) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := c.client.Set(ctx, RecordsKey(dataset, q), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRecordCache) Invalidate(ctx context.Context, dataset models.Dataset) error {
	return deleteKeysWithPrefix(ctx, c.client, fmt.Sprintf("%s:%s:", recordsKeyPrefix, dataset), scanBatchSize)
}

func (c *redisRecordCache) Close() error {
	return c.client.Close()
}

func (c *noopRecordCache) Get(context.Context, models.Dataset, models.Query) ([]models.Record, bool, error) {
	return nil, false, nil
}

func (c *noopRecordCache) Set(context.Context, models.Dataset, models.Query, []models.Record) error {
	return nil
}

func (c *noopRecordCache) Invalidate(context.Context, models.Dataset) error { return nil }

func (c *noopRecordCache) Close() error { return nil }

// Source is a read-through cache in front of another reporting source.
// Cache failures are logged and fall back to the wrapped source.
type Source struct {
	next   reporting.Source
	cache  RecordCache
	logger *zap.Logger
}

var _ reporting.Source = (*Source)(nil)

// NewSource wraps next with cache.
func NewSource(next reporting.Source, cache RecordCache, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewNoopRecordCache()
	}
	return &Source{next: next, cache: cache, logger: logger}
}

// Fetch serves from the cache unless ctx forces a fetch, then stores
// successful fetches. A forced fetch first drops every cached query of the
// dataset.
func (s *Source) Fetch(ctx context.Context, dataset models.Dataset, q models.Query) ([]models.Record, error) {
	if reporting.IsForced(ctx) {
		if err := s.cache.Invalidate(ctx, dataset); err != nil {
			s.logger.Warn("record cache invalidation failed", zap.String("dataset", string(dataset)), zap.Error(err))
		}
	} else {
		records, ok, err := s.cache.Get(ctx, dataset, q)
		switch {
		case err != nil:
			s.logger.Warn("record cache read failed", zap.String("key", RecordsKey(dataset, q)), zap.Error(err))
		case ok:
			s.logger.Debug("record cache hit", zap.String("key", RecordsKey(dataset, q)), zap.Int("records", len(records)))
			return records, nil
		}
	}

	records, err := s.next.Fetch(ctx, dataset, q)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dataset, q, records); err != nil {
		s.logger.Warn("record cache write failed", zap.String("key", RecordsKey(dataset, q)), zap.Error(err))
	}
	return records, nil
}
