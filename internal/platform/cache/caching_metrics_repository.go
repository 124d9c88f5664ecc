package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market_dashboard/internal/feature/metrics/domain/entity"
	"market_dashboard/internal/feature/metrics/usecase"
)

// CachingMetricsRepository decorates a MetricsRepository with Redis caching.
type CachingMetricsRepository struct {
	inner     usecase.MetricsRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	now       func() time.Time
}

var _ usecase.MetricsRepository = (*CachingMetricsRepository)(nil)

// NewCachingMetricsRepository decorates a MetricsRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "metrics".
func NewCachingMetricsRepository(rdb *redis.Client, ttl time.Duration, inner usecase.MetricsRepository, namespace string) *CachingMetricsRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = "metrics"
	}
	return &CachingMetricsRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		now:       time.Now,
	}
}

// GetStatistics retrieves metrics, checking cache first then falling back to the upstream API.
func (c *CachingMetricsRepository) GetStatistics(ctx context.Context, symbol string) (entity.Snapshot, error) {
	if c.rdb == nil {
		return c.inner.GetStatistics(ctx, symbol)
	}
	return getOrLoad(ctx, c.rdb, c.cacheKey(symbol), capTTL(c.now(), c.ttl),
		func(ctx context.Context) (entity.Snapshot, error) {
			return c.inner.GetStatistics(ctx, symbol)
		})
}

// Purge removes every cached snapshot in the namespace.
func (c *CachingMetricsRepository) Purge(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return deleteByPattern(ctx, c.rdb, c.namespace+":*")
}

func (c *CachingMetricsRepository) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(symbol))
}
