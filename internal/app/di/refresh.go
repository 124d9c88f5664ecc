package di

import (
	"context"
	"log/slog"

	"market_dashboard/internal/feature/tickers/domain/entity"
	"market_dashboard/internal/platform/scheduler"
)

// RefreshableDirectory はエポックを進めて再取得できるティッカー一覧です。
type RefreshableDirectory interface {
	Invalidate()
	Fetch(ctx context.Context) (entity.Snapshot, error)
}

// Purger はキャッシュ済みのエントリを削除します。
type Purger interface {
	Purge(ctx context.Context) error
}

// NewRefreshJob はティッカー一覧のエポックを進め、価格・指標のキャッシュを削除するジョブを返します。
// キャッシュの削除に失敗しても処理は続行し、最後に新しいエポックの一覧を取得します。
func NewRefreshJob(dir RefreshableDirectory, caches ...Purger) scheduler.Job {
	return func(ctx context.Context) error {
		dir.Invalidate()
		for _, c := range caches {
			if err := c.Purge(ctx); err != nil {
				slog.Warn("cache purge failed", "error", err)
			}
		}
		snap, err := dir.Fetch(ctx)
		if err != nil {
			return err
		}
		slog.Info("ticker directory refreshed", "epoch", snap.Epoch, "count", len(snap.Tickers))
		return nil
	}
}
