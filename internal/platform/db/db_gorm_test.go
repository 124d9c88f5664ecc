package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	tickeradapters "market_dashboard/internal/feature/tickers/adapters"
	"market_dashboard/internal/feature/tickers/domain/entity"
)

// TestBuildDSN_InMemory はインメモリDBのDSNが呼び出しごとに一意になることを検証します。
func TestBuildDSN_InMemory(t *testing.T) {
	t.Parallel()

	a := BuildDSN(Config{})
	b := BuildDSN(Config{})

	if !strings.HasPrefix(a, "file:") || !strings.HasSuffix(a, "?mode=memory&cache=shared") {
		t.Errorf("unexpected in-memory DSN %q", a)
	}
	if a == b {
		t.Error("expected distinct in-memory databases")
	}
}

// TestBuildDSN_File はファイルパス指定時のDSNを検証します。
func TestBuildDSN_File(t *testing.T) {
	t.Parallel()

	dsn := BuildDSN(Config{Path: "/var/lib/dashboard/index.db"})

	expected := "file:/var/lib/dashboard/index.db?cache=shared&_busy_timeout=5000"
	if dsn != expected {
		t.Errorf("expected DSN %q, got %q", expected, dsn)
	}
}

// TestOpenIndexDB はマイグレーション済みのインメモリDBが使えることを検証します。
func TestOpenIndexDB(t *testing.T) {
	t.Parallel()

	db, err := OpenIndexDB(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	if !db.Migrator().HasTable(&tickeradapters.TickerModel{}) {
		t.Fatal("expected tickers table")
	}

	idx := tickeradapters.NewTickerIndex(db)
	if err := idx.Replace(context.Background(), []entity.Ticker{{Symbol: "AAPL", Name: "Apple Inc."}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := idx.Search(context.Background(), "app", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "AAPL" {
		t.Errorf("unexpected search result %+v", got)
	}
}

// TestConnectWithRetry_SuccessOnFirstTry は初回接続成功時にリトライせずDBを返すことを検証します。
func TestConnectWithRetry_SuccessOnFirstTry(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	opener := func(dsn string) (*gorm.DB, error) {
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, time.Millisecond, opener)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
}

// TestConnectWithRetry_RetriesOnFailure は接続失敗時にリトライして最終的に成功することを検証します。
func TestConnectWithRetry_RetriesOnFailure(t *testing.T) {
	t.Parallel()

	mockDB := &gorm.DB{}
	attemptCount := 0

	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		if attemptCount < 3 {
			return nil, errors.New("database is locked")
		}
		return mockDB, nil
	}

	db, err := ConnectWithRetry("test-dsn", 5*time.Second, time.Millisecond, opener)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != mockDB {
		t.Error("expected mock DB to be returned")
	}
	if attemptCount != 3 {
		t.Errorf("expected 3 attempts, got %d", attemptCount)
	}
}

// TestConnectWithRetry_TimeoutAfterRetries はタイムアウト後にエラーが返されることを検証します。
func TestConnectWithRetry_TimeoutAfterRetries(t *testing.T) {
	t.Parallel()

	attemptCount := 0
	opener := func(dsn string) (*gorm.DB, error) {
		attemptCount++
		return nil, errors.New("database is locked")
	}

	_, err := ConnectWithRetry("test-dsn", 50*time.Millisecond, 10*time.Millisecond, opener)

	if err == nil {
		t.Fatal("expected error after timeout, got nil")
	}
	if attemptCount < 2 {
		t.Errorf("expected retries before timeout, got %d attempts", attemptCount)
	}
}
