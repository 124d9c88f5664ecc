// Package db はティッカー検索インデックス用のSQLiteデータベースを開きます。
package db

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	tickeradapters "market_dashboard/internal/feature/tickers/adapters"
)

// Config はインデックスDBの設定です。Path が空の場合はプロセス内のインメモリDBを使います。
type Config struct {
	Path           string
	ConnectTimeout time.Duration
	LogQueries     bool
}

// Opener はDSNからgorm.DBを開く関数です。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は設定からSQLiteのDSNを生成します。
// インメモリDBは接続ごとに別DBにならないよう、一意な名前の共有キャッシュにします。
func BuildDSN(cfg Config) string {
	if cfg.Path == "" {
		return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}
	return fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", cfg.Path)
}

// OpenIndexDB はインデックスDBを開き、テーブルをマイグレーションします。
func OpenIndexDB(cfg Config) (*gorm.DB, error) {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	level := logger.Silent
	if cfg.LogQueries {
		level = logger.Info
	}
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(level)}

	db, err := ConnectWithRetry(BuildDSN(cfg), cfg.ConnectTimeout, time.Second, func(dsn string) (*gorm.DB, error) {
		return gorm.Open(sqlite.Open(dsn), gcfg)
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&tickeradapters.TickerModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return db, nil
}

// ConnectWithRetry は timeout が経過するまで interval 間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout, interval time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err)
		time.Sleep(interval)
	}
}
