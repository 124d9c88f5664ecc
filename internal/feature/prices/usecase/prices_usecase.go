// Package usecase は終値系列の取得と移動平均計算のビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"market_dashboard/internal/domain/marketdata"
	"market_dashboard/internal/feature/prices/domain/entity"
	"market_dashboard/internal/feature/prices/domain/indicator"
	"market_dashboard/internal/shared/retry"
)

// DefaultWindow は移動平均のデフォルト窓幅です。
const DefaultWindow = 50

// MarketRepository は外部の市場データAPIから日足終値を取得します。
// start は含み、end は含みません。未知の銘柄は marketdata.ErrUnknownSymbol を返し、
// 期間内にデータが無い場合はエラーではなく空のスライスを返します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type MarketRepository interface {
	GetDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error)
}

// PricesUsecase は日足終値系列の取得と移動平均の計算を提供します。
type PricesUsecase struct {
	market MarketRepository
	retry  retry.Policy
}

// NewPricesUsecase はPricesUsecaseの新しいインスタンスを生成します。
func NewPricesUsecase(market MarketRepository, policy retry.Policy) *PricesUsecase {
	return &PricesUsecase{market: market, retry: policy}
}

// FetchHistory は [start, end) の日足終値を日付昇順で返します。
// 日付は重複せず、取引が無い期間の場合は空のスライスを返します。
func (u *PricesUsecase) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error) {
	start, end = entity.DateOf(start), entity.DateOf(end)
	if start.After(end) {
		return nil, fmt.Errorf("start %s after end %s: %w",
			start.Format(time.DateOnly), end.Format(time.DateOnly), marketdata.ErrInvalidRange)
	}
	if start.Equal(end) {
		return []entity.PricePoint{}, nil
	}

	points, err := retry.Do(ctx, u.retry, "prices.history", func(ctx context.Context) ([]entity.PricePoint, error) {
		return u.market.GetDailyHistory(ctx, symbol, start, end)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", symbol, err)
	}
	return normalizeSeries(points, start, end), nil
}

// MovingAverage は series の単純移動平均を返します。
func (u *PricesUsecase) MovingAverage(series []entity.PricePoint, window int) ([]entity.MovingAveragePoint, error) {
	return indicator.SimpleMovingAverage(series, window)
}

// normalizeSeries は日付をUTCの暦日に揃え、範囲外を除き、昇順に並べ、同一日付は後勝ちで1件にします。
func normalizeSeries(points []entity.PricePoint, start, end time.Time) []entity.PricePoint {
	out := make([]entity.PricePoint, 0, len(points))
	for _, p := range points {
		d := entity.DateOf(p.Date)
		if d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, entity.PricePoint{Date: d, Close: p.Close})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	deduped := out[:0]
	for _, p := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}
