// Package router はHTTPルーティングを構成します。
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	metricshandler "market_dashboard/internal/feature/metrics/transport/handler"
	pricehandler "market_dashboard/internal/feature/prices/transport/handler"
	tickerhandler "market_dashboard/internal/feature/tickers/transport/handler"
	"market_dashboard/internal/platform/http/handler"
	"market_dashboard/internal/platform/http/middleware"
)

// Handlers はルーターに登録するハンドラーです。
type Handlers struct {
	Tickers *tickerhandler.TickerHandler
	Prices  *pricehandler.PriceHandler
	Metrics *metricshandler.MetricsHandler
	Probes  map[string]handler.Probe
}

// Options はルーター全体に適用するミドルウェアの設定です。
type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(h Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())

	// ブラウザのダッシュボードから呼ばれる場合のみCORSを有効化
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(corsConfig(opts.AllowedOrigins)))
	}

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(h.Probes))

	api := r.Group("/")
	api.Use(middleware.Timeout(opts.RequestTimeout))
	{
		api.GET("/tickers", h.Tickers.List)
		api.GET("/tickers/search", h.Tickers.Search)

		// S&P 500構成銘柄のみ受け付ける
		listed := api.Group("/")
		listed.Use(h.Tickers.RequireListed())
		listed.GET("/prices/:symbol", h.Prices.GetPrices)
		listed.GET("/metrics/:symbol", h.Metrics.GetMetrics)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
