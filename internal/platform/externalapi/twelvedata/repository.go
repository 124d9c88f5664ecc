package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"market_dashboard/internal/domain/marketdata"
	metricsentity "market_dashboard/internal/feature/metrics/domain/entity"
	metricsusecase "market_dashboard/internal/feature/metrics/usecase"
	"market_dashboard/internal/feature/prices/domain/entity"
	"market_dashboard/internal/feature/prices/usecase"
	"market_dashboard/internal/platform/externalapi/twelvedata/dto"
	"market_dashboard/internal/shared/ratelimiter"
)

// maxOutputSize is the largest page the time_series endpoint returns.
const maxOutputSize = 5000

// errNoData marks an API error that means "recognized symbol, nothing in range".
var errNoData = errors.New("twelvedata: no data")

// TwelveDataMarket はTwelve Data外部APIから株価と財務指標を取得するリポジトリ実装です。
type TwelveDataMarket struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// TwelveDataMarketがMarketRepositoryとMetricsRepositoryを実装していることをコンパイル時に検証します。
var (
	_ usecase.MarketRepository         = (*TwelveDataMarket)(nil)
	_ metricsusecase.MetricsRepository = (*TwelveDataMarket)(nil)
)

// NewTwelveDataMarket は指定された設定とHTTPクライアントでTwelveDataMarketの新しいインスタンスを生成します。
// limiter がnilの場合は制限なしになります。
func NewTwelveDataMarket(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *TwelveDataMarket {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = ratelimiter.Unlimited()
	}
	return &TwelveDataMarket{cfg: cfg, client: client, limiter: limiter}
}

// GetDailyHistory はTwelve Data APIから [start, end) の日足終値を取得します。
// 期間内にデータが無い場合は空のスライスを返します。
func (t *TwelveDataMarket) GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", "1day")
	q.Set("start_date", start.Format(time.DateOnly))
	q.Set("end_date", end.Format(time.DateOnly))
	q.Set("order", "ASC")
	q.Set("outputsize", fmt.Sprint(maxOutputSize))

	var body dto.TimeSeriesResponse
	if err := t.get(ctx, "/time_series", q, &body); err != nil {
		return nil, err
	}
	if err := apiError(symbol, body.ErrorFields); err != nil {
		if errors.Is(err, errNoData) {
			return []entity.PricePoint{}, nil
		}
		return nil, err
	}

	points := make([]entity.PricePoint, 0, len(body.Values))
	for _, v := range body.Values {
		// タイムスタンプをパース
		tm, err := time.Parse(time.DateTime, v.Datetime)
		if err != nil {
			tm, err = time.Parse(time.DateOnly, v.Datetime)
			if err != nil {
				return nil, fmt.Errorf("twelvedata: parse time %q: %v: %w", v.Datetime, err, marketdata.ErrSourceFormatChanged)
			}
		}
		// 終値をパース
		c, err := decimal.NewFromString(v.Close)
		if err != nil {
			return nil, fmt.Errorf("twelvedata: parse close %q: %v: %w", v.Close, err, marketdata.ErrSourceFormatChanged)
		}
		points = append(points, entity.PricePoint{Date: entity.DateOf(tm), Close: c})
	}
	return points, nil
}

// GetStatistics はTwelve Data statisticsエンドポイントから財務指標を取得します。
// 配当利回りは直近12ヶ月の実績値を優先し、無い場合は予想値を使います。
func (t *TwelveDataMarket) GetStatistics(ctx context.Context, symbol string) (metricsentity.Snapshot, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var body dto.StatisticsResponse
	if err := t.get(ctx, "/statistics", q, &body); err != nil {
		return metricsentity.Snapshot{}, err
	}
	if err := apiError(symbol, body.ErrorFields); err != nil {
		if errors.Is(err, errNoData) {
			return metricsentity.NewSnapshot(symbol), nil
		}
		return metricsentity.Snapshot{}, err
	}

	st := body.Statistics
	snap := metricsentity.NewSnapshot(symbol)
	snap.Set(metricsentity.MarketCap, st.ValuationsMetrics.MarketCapitalization)
	snap.Set(metricsentity.PERatio, st.ValuationsMetrics.TrailingPE)
	snap.Set(metricsentity.Beta, st.StockPriceSummary.Beta)
	snap.Set(metricsentity.FiftyTwoWeekHigh, st.StockPriceSummary.FiftyTwoWeekHigh)
	snap.Set(metricsentity.FiftyTwoWeekLow, st.StockPriceSummary.FiftyTwoWeekLow)
	dy := st.DividendsAndSplits.TrailingAnnualDividendYield
	if !dy.Valid {
		dy = st.DividendsAndSplits.ForwardAnnualDividendYield
	}
	snap.Set(metricsentity.DividendYield, dy)
	return snap, nil
}

// get はレートリミットを待ってからGETリクエストを送り、JSONを out にデコードします。
func (t *TwelveDataMarket) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return marketdata.Unavailable(ctx, "twelvedata rate limit", err)
	}

	q.Set("apikey", t.cfg.APIKey)
	u := fmt.Sprintf("%s%s?%s", strings.TrimRight(t.cfg.BaseURL, "/"), path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return redactURLError(err)
	}

	res, err := t.client.Do(req)
	if err != nil {
		return marketdata.Unavailable(ctx, "twelvedata "+path, redactURLError(err))
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("twelvedata http %d: %w", res.StatusCode, marketdata.ErrSourceUnavailable)
	}

	// JSONレスポンスをDTOにデコード
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		// 読み込み中の期限切れは形式の変化ではない
		if ctx.Err() != nil {
			return marketdata.Unavailable(ctx, "twelvedata "+path+": read body", err)
		}
		return fmt.Errorf("twelvedata %s: decode: %v: %w", path, err, marketdata.ErrSourceFormatChanged)
	}
	return nil
}

// apiError はHTTP 200で返るエラーボディを分類します。
func apiError(symbol string, f dto.ErrorFields) error {
	if f.Status != "error" {
		return nil
	}
	msg := strings.ToLower(f.Message)
	switch {
	case strings.Contains(msg, "no data is available"):
		return errNoData
	case f.Code == http.StatusNotFound || strings.Contains(msg, "not found"):
		return fmt.Errorf("twelvedata %s: %s: %w", symbol, f.Message, marketdata.ErrUnknownSymbol)
	default:
		return fmt.Errorf("twelvedata: %s: %w", f.Message, marketdata.ErrSourceUnavailable)
	}
}

// redactURLError は *url.Error のURLに含まれる apikey パラメータを伏せ字にします。
func redactURLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable url>"
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
