package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_dashboard/internal/domain/marketdata"
	"market_dashboard/internal/feature/tickers/domain/entity"
	"market_dashboard/internal/feature/tickers/usecase"
	"market_dashboard/internal/shared/retry"
)

// mockTickerSource はTickerSourceインターフェースのモック実装です。呼び出し回数を数えます。
type mockTickerSource struct {
	FetchTickersFunc func(ctx context.Context) ([]entity.Ticker, error)
	calls            atomic.Int32
}

func (m *mockTickerSource) FetchTickers(ctx context.Context) ([]entity.Ticker, error) {
	m.calls.Add(1)
	if m.FetchTickersFunc != nil {
		return m.FetchTickersFunc(ctx)
	}
	return nil, errors.New("FetchTickersFunc is not implemented")
}

// mockTickerIndex はTickerIndexインターフェースのモック実装です。
type mockTickerIndex struct {
	ReplaceFunc func(ctx context.Context, tickers []entity.Ticker) error
	SearchFunc  func(ctx context.Context, query string, limit int) ([]entity.Ticker, error)
}

func (m *mockTickerIndex) Replace(ctx context.Context, tickers []entity.Ticker) error {
	if m.ReplaceFunc != nil {
		return m.ReplaceFunc(ctx, tickers)
	}
	return nil
}

func (m *mockTickerIndex) Search(ctx context.Context, query string, limit int) ([]entity.Ticker, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit)
	}
	return nil, nil
}

// tableOrder は参照テーブルの並び（アルファベット順ではない）を模したデータです。
func tableOrder() []entity.Ticker {
	return []entity.Ticker{
		{Symbol: "MMM", Name: "3M"},
		{Symbol: "AOS", Name: "A. O. Smith"},
		{Symbol: "ABT", Name: "Abbott Laboratories"},
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft"},
	}
}

func staticSource(tickers []entity.Ticker) *mockTickerSource {
	return &mockTickerSource{
		FetchTickersFunc: func(ctx context.Context) ([]entity.Ticker, error) {
			return tickers, nil
		},
	}
}

// TestDirectory_Fetch_MemoizesWithinEpoch は同一エポック内の2回の呼び出しが同じ結果を返し、取得が1回だけであることを検証します。
func TestDirectory_Fetch_MemoizesWithinEpoch(t *testing.T) {
	t.Parallel()

	src := staticSource(tableOrder())
	dir := usecase.NewDirectory(src, nil, retry.NoRetry)

	first, err := dir.Fetch(context.Background())
	require.NoError(t, err)
	second, err := dir.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, []string{"AAPL", "ABT", "AOS", "MMM", "MSFT"}, first.Symbols(), "snapshot should be alphabetical")
}

// TestDirectory_Fetch_ConcurrentCallersShareOneRetrieval は同時に呼ばれても参照テーブルの取得が1回にまとめられることを検証します。
func TestDirectory_Fetch_ConcurrentCallersShareOneRetrieval(t *testing.T) {
	t.Parallel()

	src := &mockTickerSource{
		FetchTickersFunc: func(ctx context.Context) ([]entity.Ticker, error) {
			time.Sleep(20 * time.Millisecond)
			return tableOrder(), nil
		},
	}
	dir := usecase.NewDirectory(src, nil, retry.NoRetry)

	const callers = 32
	var wg sync.WaitGroup
	results := make([]entity.Snapshot, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = dir.Fetch(context.Background())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].Tickers, results[i].Tickers)
	}
}

// TestDirectory_Fetch_CallerTimeoutDoesNotFailOthers は最初の呼び出し元がタイムアウトしても、
// 取得は続行され、後から合流した呼び出し元が結果を受け取れることを検証します。
func TestDirectory_Fetch_CallerTimeoutDoesNotFailOthers(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var loadCtxErr atomic.Value
	src := &mockTickerSource{
		FetchTickersFunc: func(ctx context.Context) ([]entity.Ticker, error) {
			close(started)
			<-release
			loadCtxErr.Store(fmt.Sprint(ctx.Err()))
			return tableOrder(), nil
		},
	}
	dir := usecase.NewDirectory(src, nil, retry.NoRetry)

	shortCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, err := dir.Fetch(shortCtx)
		firstErr <- err
	}()
	<-started

	type result struct {
		snap entity.Snapshot
		err  error
	}
	second := make(chan result, 1)
	go func() {
		snap, err := dir.Fetch(context.Background())
		second <- result{snap, err}
	}()

	err := <-firstErr
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Len(t, got.snap.Tickers, 5)
	assert.Equal(t, "<nil>", loadCtxErr.Load(), "load context must outlive the first caller")

	// 完了した取得はキャッシュされている
	_, err = dir.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
}

// TestDirectory_Fetch_FailureIsNotCached は取得失敗がキャッシュされず、次の呼び出しで再取得されることを検証します。
func TestDirectory_Fetch_FailureIsNotCached(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	fail.Store(true)
	src := &mockTickerSource{
		FetchTickersFunc: func(ctx context.Context) ([]entity.Ticker, error) {
			if fail.Load() {
				return nil, fmt.Errorf("wikipedia http 503: %w", marketdata.ErrSourceUnavailable)
			}
			return tableOrder(), nil
		},
	}
	dir := usecase.NewDirectory(src, nil, retry.NoRetry)

	_, err := dir.Fetch(context.Background())
	assert.ErrorIs(t, err, marketdata.ErrSourceUnavailable)

	fail.Store(false)
	snap, err := dir.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Tickers, 5)
	assert.Equal(t, int32(2), src.calls.Load())
}

// TestDirectory_Fetch_RetriesTransientFailure は一時的な障害がリトライポリシーに従って再試行されることを検証します。
func TestDirectory_Fetch_RetriesTransientFailure(t *testing.T) {
	t.Parallel()

	var n atomic.Int32
	src := &mockTickerSource{
		FetchTickersFunc: func(ctx context.Context) ([]entity.Ticker, error) {
			if n.Add(1) == 1 {
				return nil, marketdata.ErrSourceUnavailable
			}
			return tableOrder(), nil
		},
	}
	dir := usecase.NewDirectory(src, nil, retry.Policy{MaxAttempts: 2, Backoff: time.Millisecond})

	snap, err := dir.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Tickers, 5)
	assert.Equal(t, int32(2), src.calls.Load())
}

// TestDirectory_Fetch_FormatChangedIsNotRetried はスキーマ変更エラーが再試行されずそのまま返されることを検証します。
func TestDirectory_Fetch_FormatChangedIsNotRetried(t *testing.T) {
	t.Parallel()

	src := &mockTickerSource{
		FetchTickersFunc: func(ctx context.Context) ([]entity.Ticker, error) {
			return nil, fmt.Errorf("column %q not found: %w", "Symbol", marketdata.ErrSourceFormatChanged)
		},
	}
	dir := usecase.NewDirectory(src, nil, retry.Policy{MaxAttempts: 3, Backoff: time.Millisecond})

	_, err := dir.Fetch(context.Background())
	assert.ErrorIs(t, err, marketdata.ErrSourceFormatChanged)
	assert.Equal(t, int32(1), src.calls.Load())
}

// TestDirectory_Fetch_EmptyTableIsFormatChange は銘柄が1件もない場合にSourceFormatChangedになることを検証します。
func TestDirectory_Fetch_EmptyTableIsFormatChange(t *testing.T) {
	t.Parallel()

	dir := usecase.NewDirectory(staticSource([]entity.Ticker{{Symbol: "  "}}), nil, retry.NoRetry)

	_, err := dir.Fetch(context.Background())
	assert.ErrorIs(t, err, marketdata.ErrSourceFormatChanged)
}

// TestDirectory_Fetch_Normalizes は前後の空白除去、空シンボルの除外、重複の除去（最初を優先）を検証します。
func TestDirectory_Fetch_Normalizes(t *testing.T) {
	t.Parallel()

	dir := usecase.NewDirectory(staticSource([]entity.Ticker{
		{Symbol: " MSFT ", Name: " Microsoft "},
		{Symbol: "", Name: "Blank Row"},
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft (duplicate)"},
	}), nil, retry.NoRetry)

	snap, err := dir.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.Ticker{
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "MSFT", Name: "Microsoft"},
	}, snap.Tickers)
}

// TestDirectory_Invalidate は Invalidate 後に参照テーブルが再取得され、エポックが進むことを検証します。
func TestDirectory_Invalidate(t *testing.T) {
	t.Parallel()

	src := staticSource(tableOrder())
	dir := usecase.NewDirectory(src, nil, retry.NoRetry)

	first, err := dir.Fetch(context.Background())
	require.NoError(t, err)

	dir.Invalidate()

	second, err := dir.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.calls.Load())
	assert.Equal(t, first.Epoch+1, second.Epoch)
	assert.Equal(t, first.Tickers, second.Tickers)
}

// TestDirectory_Fetch_RebuildsIndex はスナップショット作成時に正規化済みの銘柄でインデックスが再構築されることを検証します。
func TestDirectory_Fetch_RebuildsIndex(t *testing.T) {
	t.Parallel()

	var replaced []entity.Ticker
	idx := &mockTickerIndex{
		ReplaceFunc: func(ctx context.Context, tickers []entity.Ticker) error {
			replaced = tickers
			return nil
		},
	}
	dir := usecase.NewDirectory(staticSource(tableOrder()), idx, retry.NoRetry)

	snap, err := dir.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Tickers, replaced)
}

// TestDirectory_Fetch_IndexFailureDoesNotFail はインデックス再構築の失敗がFetchの失敗にならないことを検証します。
func TestDirectory_Fetch_IndexFailureDoesNotFail(t *testing.T) {
	t.Parallel()

	idx := &mockTickerIndex{
		ReplaceFunc: func(ctx context.Context, tickers []entity.Ticker) error {
			return errors.New("sqlite: disk I/O error")
		},
	}
	dir := usecase.NewDirectory(staticSource(tableOrder()), idx, retry.NoRetry)

	_, err := dir.Fetch(context.Background())
	assert.NoError(t, err)
}

// TestDirectory_Lookup はLookupのシンボル照合をテーブル駆動テストで検証します。
func TestDirectory_Lookup(t *testing.T) {
	t.Parallel()

	dir := usecase.NewDirectory(staticSource(tableOrder()), nil, retry.NoRetry)

	tests := []struct {
		name    string
		symbol  string
		want    entity.Ticker
		wantErr error
	}{
		{"exact symbol", "AAPL", entity.Ticker{Symbol: "AAPL", Name: "Apple Inc."}, nil},
		{"lower case with spaces", " msft ", entity.Ticker{Symbol: "MSFT", Name: "Microsoft"}, nil},
		{"not listed", "ZZZZ", entity.Ticker{}, marketdata.ErrTickerNotListed},
		{"empty", "", entity.Ticker{}, marketdata.ErrTickerNotListed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := dir.Lookup(context.Background(), tt.symbol)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDirectory_Lookup_SourceError はディレクトリの取得失敗がそのまま伝播されることを検証します。
func TestDirectory_Lookup_SourceError(t *testing.T) {
	t.Parallel()

	src := &mockTickerSource{
		FetchTickersFunc: func(ctx context.Context) ([]entity.Ticker, error) {
			return nil, marketdata.ErrSourceUnavailable
		},
	}
	dir := usecase.NewDirectory(src, nil, retry.NoRetry)

	_, err := dir.Lookup(context.Background(), "AAPL")
	assert.ErrorIs(t, err, marketdata.ErrSourceUnavailable)
	assert.NotErrorIs(t, err, marketdata.ErrTickerNotListed)
}

// TestDirectory_Search_InMemory はインデックスなしの場合のメモリ上の検索を検証します。
func TestDirectory_Search_InMemory(t *testing.T) {
	t.Parallel()

	dir := usecase.NewDirectory(staticSource(tableOrder()), nil, retry.NoRetry)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"symbol prefix", "a", 10, []string{"AAPL", "ABT", "AOS"}},
		{"name substring", "soft", 10, []string{"MSFT"}},
		{"symbol prefix or name", "m", 10, []string{"AOS", "MMM", "MSFT"}},
		{"limit applied", "a", 2, []string{"AAPL", "ABT"}},
		{"empty query lists first entries", "", 2, []string{"AAPL", "ABT"}},
		{"no match", "xyz", 10, []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := dir.Search(context.Background(), tt.query, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, entity.Snapshot{Tickers: got}.Symbols())
		})
	}
}

// TestDirectory_Search_UsesIndex はインデックスがある場合に検索がインデックスに委譲され、limitが丸められることを検証します。
func TestDirectory_Search_UsesIndex(t *testing.T) {
	t.Parallel()

	var gotLimit int
	idx := &mockTickerIndex{
		SearchFunc: func(ctx context.Context, query string, limit int) ([]entity.Ticker, error) {
			gotLimit = limit
			return []entity.Ticker{{Symbol: "AAPL", Name: "Apple Inc."}}, nil
		},
	}
	dir := usecase.NewDirectory(staticSource(tableOrder()), idx, retry.NoRetry)

	got, err := dir.Search(context.Background(), "apple", 1000)
	require.NoError(t, err)
	assert.Equal(t, []entity.Ticker{{Symbol: "AAPL", Name: "Apple Inc."}}, got)
	assert.Equal(t, usecase.MaxSearchLimit, gotLimit)
}

// TestDirectory_Search_IndexErrorFallsBack はインデックス検索の失敗時にメモリ上の検索にフォールバックすることを検証します。
func TestDirectory_Search_IndexErrorFallsBack(t *testing.T) {
	t.Parallel()

	idx := &mockTickerIndex{
		SearchFunc: func(ctx context.Context, query string, limit int) ([]entity.Ticker, error) {
			return nil, errors.New("no such table: tickers")
		},
	}
	dir := usecase.NewDirectory(staticSource(tableOrder()), idx, retry.NoRetry)

	got, err := dir.Search(context.Background(), "abbott", 0)
	require.NoError(t, err)
	assert.Equal(t, []entity.Ticker{{Symbol: "ABT", Name: "Abbott Laboratories"}}, got)
}
