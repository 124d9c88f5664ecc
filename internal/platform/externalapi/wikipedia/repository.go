package wikipedia

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"market_dashboard/internal/domain/marketdata"
	"market_dashboard/internal/feature/tickers/domain/entity"
	"market_dashboard/internal/feature/tickers/usecase"
)

// maxDocumentSize bounds how much of the page is read.
const maxDocumentSize = 16 << 20

// WikipediaSource はWikipediaの構成銘柄テーブルからティッカーを取得するTickerSource実装です。
type WikipediaSource struct {
	cfg    Config
	client *http.Client
}

// WikipediaSourceがTickerSourceを実装していることをコンパイル時に検証します。
var _ usecase.TickerSource = (*WikipediaSource)(nil)

// NewWikipediaSource は指定された設定とHTTPクライアントでWikipediaSourceを生成します。
func NewWikipediaSource(cfg Config, client *http.Client) *WikipediaSource {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.SymbolColumn == "" {
		cfg.SymbolColumn = def.SymbolColumn
	}
	if cfg.NameColumn == "" {
		cfg.NameColumn = def.NameColumn
	}
	return &WikipediaSource{cfg: cfg, client: client}
}

// FetchTickers はページを取得し、最初のテーブルから銘柄をテーブル順で返します。
func (w *WikipediaSource) FetchTickers(ctx context.Context) ([]entity.Ticker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	res, err := w.client.Do(req)
	if err != nil {
		return nil, marketdata.Unavailable(ctx, "wikipedia fetch", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("wikipedia http %d: %w", res.StatusCode, marketdata.ErrSourceUnavailable)
	}

	tickers, err := parseFirstTable(io.LimitReader(res.Body, maxDocumentSize), w.cfg.SymbolColumn, w.cfg.NameColumn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, marketdata.Unavailable(ctx, "wikipedia read body", err)
		}
		return nil, fmt.Errorf("wikipedia: %w", err)
	}
	return tickers, nil
}
