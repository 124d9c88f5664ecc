package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"market_dashboard/internal/domain/marketdata"
	metricsentity "market_dashboard/internal/feature/metrics/domain/entity"
	metricsusecase "market_dashboard/internal/feature/metrics/usecase"
	"market_dashboard/internal/feature/prices/domain/entity"
	"market_dashboard/internal/feature/prices/usecase"
	"market_dashboard/internal/shared/ratelimiter"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 8 << 20

// YahooMarket はYahoo Financeのチャートから株価を、quoteSummaryから財務指標を取得するリポジトリ実装です。
type YahooMarket struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

var (
	_ usecase.MarketRepository         = (*YahooMarket)(nil)
	_ metricsusecase.MetricsRepository = (*YahooMarket)(nil)
)

// NewYahooMarket は新しい YahooMarket を生成します。limiter がnilの場合は制限なしになります。
func NewYahooMarket(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *YahooMarket {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = ratelimiter.Unlimited()
	}
	return &YahooMarket{cfg: cfg, client: client, limiter: limiter}
}

// GetDailyHistory は [start, end) の日足終値を取得します。終値が null の日は除外します。
func (y *YahooMarket) GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")

	res, err := y.chart(ctx, symbol, q)
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Timestamp) == 0 || len(res.Indicators.Quote) == 0 {
		return []entity.PricePoint{}, nil
	}

	closes := res.Indicators.Quote[0].Close
	points := make([]entity.PricePoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || !closes[i].Valid {
			continue
		}
		// 取引所の現地日付に揃える
		local := time.Unix(ts+res.Meta.GMTOffset, 0).UTC()
		points = append(points, entity.PricePoint{Date: entity.DateOf(local), Close: closes[i].Decimal})
	}
	return points, nil
}

// GetStatistics はquoteSummaryの summaryDetail / defaultKeyStatistics から財務指標を取得します。
// quoteSummaryが使えない場合はチャートのメタ情報から52週高値・安値のみを返します。
func (y *YahooMarket) GetStatistics(ctx context.Context, symbol string) (metricsentity.Snapshot, error) {
	snap, err := y.quoteSummary(ctx, symbol)
	switch {
	case err == nil:
		return snap, nil
	case errors.Is(err, marketdata.ErrUnknownSymbol), ctx.Err() != nil:
		return metricsentity.Snapshot{}, err
	}
	slog.Warn("yahoo quoteSummary failed, falling back to chart meta", "symbol", symbol, "error", err)
	return y.chartStatistics(ctx, symbol)
}

func (y *YahooMarket) quoteSummary(ctx context.Context, symbol string) (metricsentity.Snapshot, error) {
	q := url.Values{}
	q.Set("modules", "summaryDetail,defaultKeyStatistics")

	var body quoteSummaryResponse
	if err := y.getJSON(ctx, symbol, "/v10/finance/quoteSummary/", q, &body, func() *apiError { return body.QuoteSummary.Error }); err != nil {
		return metricsentity.Snapshot{}, err
	}

	snap := metricsentity.NewSnapshot(symbol)
	if len(body.QuoteSummary.Result) == 0 {
		return snap, nil
	}
	sd := body.QuoteSummary.Result[0].SummaryDetail
	ks := body.QuoteSummary.Result[0].DefaultKeyStatistics

	snap.Set(metricsentity.MarketCap, sd.MarketCap.Raw)
	snap.Set(metricsentity.PERatio, sd.TrailingPE.Raw)
	snap.Set(metricsentity.DividendYield, firstValid(sd.DividendYield.Raw, sd.TrailingAnnualDividendYield.Raw))
	snap.Set(metricsentity.Beta, firstValid(sd.Beta.Raw, ks.Beta.Raw))
	snap.Set(metricsentity.FiftyTwoWeekHigh, sd.FiftyTwoWeekHigh.Raw)
	snap.Set(metricsentity.FiftyTwoWeekLow, sd.FiftyTwoWeekLow.Raw)
	return snap, nil
}

func (y *YahooMarket) chartStatistics(ctx context.Context, symbol string) (metricsentity.Snapshot, error) {
	q := url.Values{}
	q.Set("range", "1d")
	q.Set("interval", "1d")

	snap := metricsentity.NewSnapshot(symbol)
	res, err := y.chart(ctx, symbol, q)
	if err != nil {
		return metricsentity.Snapshot{}, err
	}
	if res != nil {
		snap.Set(metricsentity.FiftyTwoWeekHigh, res.Meta.FiftyTwoWeekHigh)
		snap.Set(metricsentity.FiftyTwoWeekLow, res.Meta.FiftyTwoWeekLow)
	}
	return snap, nil
}

// chart はチャートAPIを呼び出し、最初の結果を返します。結果が無い場合は nil を返します。
func (y *YahooMarket) chart(ctx context.Context, symbol string, q url.Values) (*chartResult, error) {
	var body chartResponse
	if err := y.getJSON(ctx, symbol, "/v8/finance/chart/", q, &body, func() *apiError { return body.Chart.Error }); err != nil {
		return nil, err
	}
	if len(body.Chart.Result) == 0 {
		return nil, nil
	}
	return &body.Chart.Result[0], nil
}

// getJSON はレートリミットを待ってから path+symbol を呼び出し、ボディを out にデコードします。
// errOf はデコード後のボディからAPIエラーを取り出します。
func (y *YahooMarket) getJSON(ctx context.Context, symbol, path string, q url.Values, out any, errOf func() *apiError) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return marketdata.Unavailable(ctx, "yahoo rate limit", err)
	}

	u := fmt.Sprintf("%s%s%s?%s",
		strings.TrimRight(y.cfg.BaseURL, "/"), path, url.PathEscape(yahooSymbol(symbol)), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return marketdata.Unavailable(ctx, "yahoo fetch", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return marketdata.Unavailable(ctx, "yahoo read body", err)
	}

	decodeErr := json.Unmarshal(body, out)

	if decodeErr == nil {
		if e := errOf(); e != nil {
			if resp.StatusCode == http.StatusNotFound || strings.EqualFold(e.Code, "Not Found") {
				return fmt.Errorf("yahoo %s: %s: %w", symbol, e.Description, marketdata.ErrUnknownSymbol)
			}
			return fmt.Errorf("yahoo api error: %s: %w", e.Description, marketdata.ErrSourceUnavailable)
		}
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("yahoo %s: http 404: %w", symbol, marketdata.ErrUnknownSymbol)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("yahoo http %d: %w", resp.StatusCode, marketdata.ErrSourceUnavailable)
	}
	if decodeErr != nil {
		return fmt.Errorf("yahoo decode: %v: %w", decodeErr, marketdata.ErrSourceFormatChanged)
	}
	return nil
}

func firstValid(vs ...decimal.NullDecimal) decimal.NullDecimal {
	for _, v := range vs {
		if v.Valid {
			return v
		}
	}
	return decimal.NullDecimal{}
}

// yahooSymbol はクラス株の区切りをYahooの表記に変換します（BRK.B → BRK-B）。
func yahooSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "-")
}
