// Package usecase はS&P 500構成銘柄ディレクトリのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"market_dashboard/internal/domain/marketdata"
	"market_dashboard/internal/feature/tickers/domain/entity"
	"market_dashboard/internal/shared/retry"
)

const (
	// DefaultSymbol は銘柄選択の初期値です。
	DefaultSymbol = "AAPL"
	// DefaultSearchLimit は検索結果のデフォルト件数です。
	DefaultSearchLimit = 20
	// MaxSearchLimit は検索結果の最大件数です。
	MaxSearchLimit = 100
	// LoadTimeout は参照テーブル取得1回あたりの上限です。呼び出し元のキャンセルとは独立しています。
	LoadTimeout = time.Minute
)

// TickerSource は参照テーブル（Wikipediaの構成銘柄一覧）から銘柄を取得します。
// 返す順序はテーブル順で、重複や空文字を含む可能性があります。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type TickerSource interface {
	FetchTickers(ctx context.Context) ([]entity.Ticker, error)
}

// TickerIndex は銘柄検索用のインデックスです。スナップショットが更新されるたびに置き換えられます。
type TickerIndex interface {
	Replace(ctx context.Context, tickers []entity.Ticker) error
	Search(ctx context.Context, query string, limit int) ([]entity.Ticker, error)
}

// Directory はティッカー一覧をキャッシュエポック単位でメモ化します。
// 最初の呼び出し元が取得を行い、以降の呼び出し元は同じ不変スナップショットを共有します。
// 同時に来た最初の呼び出しは1回の取得にまとめられます。取得に失敗した場合はキャッシュされません。
// 取得は呼び出し元のコンテキストから切り離して実行され、各呼び出し元は自分のコンテキストが終わった時点で待つのをやめます。
type Directory struct {
	source TickerSource
	index  TickerIndex
	retry  retry.Policy
	now    func() time.Time

	loadTimeout time.Duration

	mu    sync.RWMutex
	snap  *entity.Snapshot
	epoch uint64

	group singleflight.Group
}

// NewDirectory は新しいDirectoryを生成します。index はnilでも構いません（検索はメモリ上で行われます）。
func NewDirectory(source TickerSource, index TickerIndex, policy retry.Policy) *Directory {
	return &Directory{
		source: source,
		index:  index,
		retry:  policy,
		now:    time.Now,

		loadTimeout: LoadTimeout,
	}
}

// Fetch は現在のエポックのスナップショットを返します。未取得の場合は参照テーブルから取得します。
func (d *Directory) Fetch(ctx context.Context) (entity.Snapshot, error) {
	if s, ok := d.cached(); ok {
		return s, nil
	}
	ch := d.group.DoChan("snapshot", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.loadTimeout)
		defer cancel()
		return d.load(loadCtx)
	})
	select {
	case <-ctx.Done():
		return entity.Snapshot{}, fmt.Errorf("wait for ticker directory: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return entity.Snapshot{}, res.Err
		}
		return res.Val.(entity.Snapshot), nil
	}
}

// Invalidate はキャッシュエポックを進めます。次のFetchで参照テーブルを再取得します。
func (d *Directory) Invalidate() {
	d.mu.Lock()
	d.epoch++
	d.snap = nil
	epoch := d.epoch
	d.mu.Unlock()

	// 進行中の古いエポックの取得に新しい呼び出し元が合流しないようにする
	d.group.Forget("snapshot")
	slog.Info("ticker directory invalidated", "epoch", epoch)
}

// Lookup はシンボル（大文字小文字を区別しない）に一致する銘柄を返します。
// ディレクトリに存在しない場合は marketdata.ErrTickerNotListed を返します。
func (d *Directory) Lookup(ctx context.Context, symbol string) (entity.Ticker, error) {
	snap, err := d.Fetch(ctx)
	if err != nil {
		return entity.Ticker{}, err
	}
	t, ok := snap.Find(NormalizeSymbol(symbol))
	if !ok {
		return entity.Ticker{}, fmt.Errorf("%q: %w", symbol, marketdata.ErrTickerNotListed)
	}
	return t, nil
}

// Search はシンボルの前方一致または社名の部分一致で銘柄を検索します。
// query が空の場合は先頭から limit 件を返します。
func (d *Directory) Search(ctx context.Context, query string, limit int) ([]entity.Ticker, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	snap, err := d.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		n := min(limit, len(snap.Tickers))
		return append([]entity.Ticker(nil), snap.Tickers[:n]...), nil
	}

	if d.index != nil {
		found, err := d.index.Search(ctx, query, limit)
		if err == nil {
			return found, nil
		}
		slog.Warn("ticker index search failed; falling back to in-memory scan", "query", query, "error", err)
	}
	return searchSnapshot(snap, query, limit), nil
}

// NormalizeSymbol はユーザー入力のシンボルを比較用に整形します。
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (d *Directory) cached() (entity.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.snap == nil {
		return entity.Snapshot{}, false
	}
	return *d.snap, true
}

// load は参照テーブルを取得してスナップショットを作成します。singleflight内で実行されます。
func (d *Directory) load(ctx context.Context) (entity.Snapshot, error) {
	d.mu.RLock()
	if d.snap != nil {
		s := *d.snap
		d.mu.RUnlock()
		return s, nil
	}
	epoch := d.epoch
	d.mu.RUnlock()

	raw, err := retry.Do(ctx, d.retry, "tickers.fetch", d.source.FetchTickers)
	if err != nil {
		slog.Error("failed to fetch ticker directory", "epoch", epoch, "error", err)
		return entity.Snapshot{}, err
	}

	tickers := normalize(raw)
	if len(tickers) == 0 {
		return entity.Snapshot{}, fmt.Errorf("reference table has no tickers: %w", marketdata.ErrSourceFormatChanged)
	}

	snap := entity.Snapshot{Tickers: tickers, FetchedAt: d.now(), Epoch: epoch}

	d.mu.Lock()
	// 取得中にInvalidateされた場合、結果は呼び出し元に返すがキャッシュはしない
	stale := d.epoch != epoch
	if !stale {
		d.snap = &snap
	}
	d.mu.Unlock()

	if d.index != nil && !stale {
		if err := d.index.Replace(ctx, tickers); err != nil {
			slog.Warn("failed to rebuild ticker index", "error", err)
		}
	}

	slog.Info("ticker directory loaded", "count", len(tickers), "epoch", epoch)
	return snap, nil
}

// normalize は空のシンボルを除き、重複は最初の出現を残して、シンボルのアルファベット順に並べます。
func normalize(raw []entity.Ticker) []entity.Ticker {
	seen := make(map[string]struct{}, len(raw))
	out := make([]entity.Ticker, 0, len(raw))
	for _, t := range raw {
		sym := strings.TrimSpace(t.Symbol)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, entity.Ticker{Symbol: sym, Name: strings.TrimSpace(t.Name)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func searchSnapshot(snap entity.Snapshot, query string, limit int) []entity.Ticker {
	q := strings.ToLower(query)
	out := make([]entity.Ticker, 0, limit)
	for _, t := range snap.Tickers {
		if strings.HasPrefix(strings.ToLower(t.Symbol), q) || strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
