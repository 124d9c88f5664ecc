package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"market_dashboard/internal/app/config"
	"market_dashboard/internal/app/di"
	"market_dashboard/internal/app/router"
	metricshandler "market_dashboard/internal/feature/metrics/transport/handler"
	metricsusecase "market_dashboard/internal/feature/metrics/usecase"
	pricehandler "market_dashboard/internal/feature/prices/transport/handler"
	priceusecase "market_dashboard/internal/feature/prices/usecase"
	tickerhandler "market_dashboard/internal/feature/tickers/transport/handler"
	"market_dashboard/internal/platform/db"
	"market_dashboard/internal/platform/http/handler"
	"market_dashboard/internal/platform/logger"
	infraredis "market_dashboard/internal/platform/redis"
	"market_dashboard/internal/platform/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis（未設定または接続失敗時はキャッシュなしで起動）
	var rdb *redisv9.Client
	if tmp, err := infraredis.NewRedisClient(ctx, infraredis.Config{
		Addr:     cfg.Redis.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}); err != nil {
		log.Warn("redis unavailable, running without cache", "error", err)
	} else {
		rdb = tmp
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 銘柄検索インデックス（SQLite）
	indexDB, err := db.OpenIndexDB(db.Config{Path: cfg.Index.Path})
	if err != nil {
		log.Warn("ticker index unavailable, searching in memory", "error", err)
		indexDB = nil
	}

	// ticker directory
	dir := di.NewDirectory(cfg, indexDB)

	// market data
	source, err := di.NewMarket(cfg.Market)
	if err != nil {
		log.Error("failed to build market source", "error", err)
		os.Exit(1)
	}
	cached := di.NewCachedMarket(source, rdb, cfg.Redis.TTL)
	policy := di.RetryPolicy(cfg.Retry)

	pricesUC := priceusecase.NewPricesUsecase(cached.Prices, policy)
	metricsUC := metricsusecase.NewMetricsUsecase(cached.Metrics, policy)

	probes := map[string]handler.Probe{
		"tickers": func(ctx context.Context) error {
			_, err := dir.Fetch(ctx)
			return err
		},
	}
	if rdb != nil {
		probes["redis"] = infraredis.Probe(rdb)
	}

	r := router.NewRouter(router.Handlers{
		Tickers: tickerhandler.NewTickerHandler(dir),
		Prices:  pricehandler.NewPriceHandler(pricesUC),
		Metrics: metricshandler.NewMetricsHandler(metricsUC),
		Probes:  probes,
	}, router.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	// 日次リフレッシュ
	var sched *scheduler.Scheduler
	if cfg.Refresh.Cron != "" {
		loc, err := cfg.Refresh.Location()
		if err != nil {
			log.Error("invalid refresh timezone", "error", err)
			os.Exit(1)
		}
		sched = scheduler.New(ctx, loc)
		if err := sched.Register("refresh", cfg.Refresh.Cron, di.NewRefreshJob(dir, cached.Prices, cached.Metrics)); err != nil {
			log.Error("invalid refresh schedule", "cron", cfg.Refresh.Cron, "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr, "provider", cfg.Market.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	cancel()
	log.Info("shutdown complete")
}
