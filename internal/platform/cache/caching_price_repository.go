package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market_dashboard/internal/feature/prices/domain/entity"
	"market_dashboard/internal/feature/prices/usecase"
)

// CachingPriceRepository decorates a MarketRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository.
type CachingPriceRepository struct {
	inner     usecase.MarketRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var _ usecase.MarketRepository = (*CachingPriceRepository)(nil)

// NewCachingPriceRepository decorates a MarketRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "prices".
// A nil rdb disables caching.
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.MarketRepository, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// GetDailyHistory retrieves closes, checking cache first then falling back to the upstream API.
func (c *CachingPriceRepository) GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.GetDailyHistory(ctx, symbol, start, end)
	}
	return getOrLoad(ctx, c.rdb, c.cacheKey(symbol, start, end), capTTL(c.now(), c.ttl),
		func(ctx context.Context) ([]entity.PricePoint, error) {
			return c.inner.GetDailyHistory(ctx, symbol, start, end)
		})
}

// Purge removes every cached series in the namespace.
func (c *CachingPriceRepository) Purge(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return deleteByPattern(ctx, c.rdb, c.namespace+":*")
}

// cacheKey generates a cache key for a specific query.
func (c *CachingPriceRepository) cacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s",
		c.namespace,
		safe(symbol),
		start.Format(time.DateOnly),
		end.Format(time.DateOnly),
	)
}
