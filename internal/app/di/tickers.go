package di

import (
	"gorm.io/gorm"

	"market_dashboard/internal/app/config"
	tickeradapters "market_dashboard/internal/feature/tickers/adapters"
	tickerusecase "market_dashboard/internal/feature/tickers/usecase"
	"market_dashboard/internal/platform/externalapi/wikipedia"
	infrahttp "market_dashboard/internal/platform/http"
	"market_dashboard/internal/shared/retry"
)

// RetryPolicy converts the retry configuration.
func RetryPolicy(cfg config.RetryConfig) retry.Policy {
	return retry.Policy{MaxAttempts: cfg.MaxAttempts, Backoff: cfg.Backoff}
}

// NewDirectory creates the ticker directory backed by the Wikipedia constituents table.
// If db is nil, searches run against the in-memory snapshot.
func NewDirectory(cfg *config.Config, db *gorm.DB) *tickerusecase.Directory {
	wcfg := wikipedia.DefaultConfig()
	if cfg.Wikipedia.URL != "" {
		wcfg.URL = cfg.Wikipedia.URL
	}
	if cfg.Wikipedia.Timeout > 0 {
		wcfg.Timeout = cfg.Wikipedia.Timeout
	}
	source := wikipedia.NewWikipediaSource(wcfg, infrahttp.NewHTTPClient(wcfg.Timeout, cfg.Market.UserAgent))

	var index tickerusecase.TickerIndex
	if db != nil {
		index = tickeradapters.NewTickerIndex(db)
	}
	return tickerusecase.NewDirectory(source, index, RetryPolicy(cfg.Retry))
}
