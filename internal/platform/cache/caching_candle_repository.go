// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"crypto_backend/internal/feature/candles/domain/entity"
	"crypto_backend/internal/feature/candles/usecase"
)

// CachingCandleRepository decorates a CandleRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository. Only Find results are cached; range
// scans and watermark queries always hit the database because the aggregator
// depends on their freshness.
type CachingCandleRepository struct {
	inner     usecase.CandleRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.CandleRepository = (*CachingCandleRepository)(nil)

// NewCachingCandleRepository decorates a CandleRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "candles".
func NewCachingCandleRepository(rdb *redis.Client, ttl time.Duration, inner usecase.CandleRepository, namespace string) *CachingCandleRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "candles"
	}
	return &CachingCandleRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertBatch inserts or updates candles and invalidates related cache entries.
func (c *CachingCandleRepository) UpsertBatch(ctx context.Context, res entity.Resolution, candles []entity.Candle) error {
	if err := c.inner.UpsertBatch(ctx, res, candles); err != nil {
		return err
	}
	c.invalidate(ctx, res, candles)
	return nil
}

// InsertSkipExisting inserts candles keeping existing rows and invalidates
// related cache entries.
func (c *CachingCandleRepository) InsertSkipExisting(ctx context.Context, res entity.Resolution, candles []entity.Candle) error {
	if err := c.inner.InsertSkipExisting(ctx, res, candles); err != nil {
		return err
	}
	c.invalidate(ctx, res, candles)
	return nil
}

// Find retrieves candles, checking cache first then falling back to the database.
func (c *CachingCandleRepository) Find(ctx context.Context, symbol string, res entity.Resolution, limit int) ([]entity.Candle, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Find(ctx, symbol, res, limit)
	}

	key := c.cacheKey(symbol, res, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Candle
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := c.inner.Find(ctx, symbol, res, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// FindRange always reads from the underlying repository.
func (c *CachingCandleRepository) FindRange(ctx context.Context, symbol string, res entity.Resolution, from, to time.Time) ([]entity.Candle, error) {
	return c.inner.FindRange(ctx, symbol, res, from, to)
}

// LatestPeriodStart always reads from the underlying repository.
func (c *CachingCandleRepository) LatestPeriodStart(ctx context.Context, symbol string, res entity.Resolution) (time.Time, bool, error) {
	return c.inner.LatestPeriodStart(ctx, symbol, res)
}

// ListPeriodStarts always reads from the underlying repository.
func (c *CachingCandleRepository) ListPeriodStarts(ctx context.Context, symbol string, res entity.Resolution, from, to time.Time) ([]time.Time, error) {
	return c.inner.ListPeriodStarts(ctx, symbol, res, from, to)
}

// invalidate removes cached Find results touched by a write (best effort).
func (c *CachingCandleRepository) invalidate(ctx context.Context, res entity.Resolution, candles []entity.Candle) {
	if c.rdb == nil || len(candles) == 0 {
		return
	}
	seen := map[string]struct{}{}
	for _, cd := range candles {
		prefix := c.cacheKeyPrefix(cd.Symbol, res)
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		_ = c.deleteByPattern(ctx, prefix+"*")
	}
}

// cacheKey generates a cache key for a specific query.
func (c *CachingCandleRepository) cacheKey(symbol string, res entity.Resolution, limit int) string {
	return fmt.Sprintf("%s:%s:%s:%d",
		c.namespace,
		safe(symbol),
		res,
		limit,
	)
}

// cacheKeyPrefix generates a prefix for invalidating related cache entries.
func (c *CachingCandleRepository) cacheKeyPrefix(symbol string, res entity.Resolution) string {
	return fmt.Sprintf("%s:%s:%s:",
		c.namespace,
		safe(symbol),
		res,
	)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingCandleRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
