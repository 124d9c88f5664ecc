// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"market_dashboard/internal/app/config"
	metricsusecase "market_dashboard/internal/feature/metrics/usecase"
	pricesusecase "market_dashboard/internal/feature/prices/usecase"
	"market_dashboard/internal/platform/cache"
	"market_dashboard/internal/platform/externalapi/twelvedata"
	"market_dashboard/internal/platform/externalapi/yahoo"
	infrahttp "market_dashboard/internal/platform/http"
	"market_dashboard/internal/shared/ratelimiter"
)

// MarketSource はマーケットデータ取得元が提供する2つのリポジトリをまとめたものです。
type MarketSource interface {
	pricesusecase.MarketRepository
	metricsusecase.MetricsRepository
}

// NewMarket creates the configured market data source with its HTTP client and rate limiter.
func NewMarket(cfg config.MarketConfig) (MarketSource, error) {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout, cfg.UserAgent)

	switch cfg.Provider {
	case config.ProviderTwelveData:
		tdCfg := twelvedata.DefaultConfig()
		tdCfg.APIKey = cfg.TwelveDataAPIKey
		tdCfg.Timeout = cfg.Timeout
		tdCfg.RequestsPerMin = cfg.TwelveDataRPM
		if cfg.TwelveDataBaseURL != "" {
			tdCfg.BaseURL = cfg.TwelveDataBaseURL
		}
		limiter := ratelimiter.NewRateLimiter("twelvedata", tdCfg.RequestsPerMin, time.Minute)
		return twelvedata.NewTwelveDataMarket(tdCfg, httpClient, limiter), nil

	case config.ProviderYahoo:
		yCfg := yahoo.DefaultConfig()
		yCfg.Timeout = cfg.Timeout
		yCfg.RequestsPerMin = cfg.YahooRPM
		if cfg.YahooBaseURL != "" {
			yCfg.BaseURL = cfg.YahooBaseURL
		}
		limiter := ratelimiter.NewRateLimiter("yahoo", yCfg.RequestsPerMin, time.Minute)
		return yahoo.NewYahooMarket(yCfg, httpClient, limiter), nil

	default:
		return nil, fmt.Errorf("unknown market provider %q", cfg.Provider)
	}
}

// CachedMarket は価格と指標のリポジトリをRedisキャッシュで包んだものです。
// rdb がnilの場合、キャッシュは素通しになります。
type CachedMarket struct {
	Prices  *cache.CachingPriceRepository
	Metrics *cache.CachingMetricsRepository
}

// NewCachedMarket wraps source with Redis caching decorators.
func NewCachedMarket(source MarketSource, rdb *redis.Client, ttl time.Duration) CachedMarket {
	return CachedMarket{
		Prices:  cache.NewCachingPriceRepository(rdb, ttl, source, "prices"),
		Metrics: cache.NewCachingMetricsRepository(rdb, ttl, source, "metrics"),
	}
}
