// Package usecase は銘柄の主要財務指標を取得するビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"

	"market_dashboard/internal/feature/metrics/domain/entity"
	"market_dashboard/internal/shared/retry"
)

// MetricsRepository は外部APIから財務指標を取得します。
// 返すスナップショットは一部の指標を欠いていても構いません。
// 未知の銘柄は marketdata.ErrUnknownSymbol を返します。
type MetricsRepository interface {
	GetStatistics(ctx context.Context, symbol string) (entity.Snapshot, error)
}

// MetricsUsecase は財務指標の取得を提供します。
type MetricsUsecase struct {
	repo  MetricsRepository
	retry retry.Policy
}

// NewMetricsUsecase はMetricsUsecaseの新しいインスタンスを生成します。
func NewMetricsUsecase(repo MetricsRepository, policy retry.Policy) *MetricsUsecase {
	return &MetricsUsecase{repo: repo, retry: policy}
}

// FetchMetrics は6つの指標すべてを含むスナップショットを返します。
// 取得できなかった指標は値なしになります。
func (u *MetricsUsecase) FetchMetrics(ctx context.Context, symbol string) (entity.Snapshot, error) {
	got, err := retry.Do(ctx, u.retry, "metrics.statistics", func(ctx context.Context) (entity.Snapshot, error) {
		return u.repo.GetStatistics(ctx, symbol)
	})
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("fetch metrics %s: %w", symbol, err)
	}

	out := entity.NewSnapshot(symbol)
	for _, name := range entity.MetricNames {
		if v, ok := got.Values[name]; ok {
			out.Set(name, v)
		}
	}
	return out, nil
}
