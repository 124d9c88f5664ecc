// Package handler はmetricsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"market_dashboard/internal/api"
	"market_dashboard/internal/feature/metrics/domain/entity"
	"market_dashboard/internal/feature/metrics/transport/http/dto"
)

// MetricsUsecase は財務指標のユースケースインターフェースです。
type MetricsUsecase interface {
	FetchMetrics(ctx context.Context, symbol string) (entity.Snapshot, error)
}

// MetricsHandler は財務指標のHTTPリクエストを処理します。
type MetricsHandler struct {
	uc MetricsUsecase
}

// NewMetricsHandler は新しい MetricsHandler を作成します。
func NewMetricsHandler(uc MetricsUsecase) *MetricsHandler {
	return &MetricsHandler{uc: uc}
}

// GetMetrics は6つの財務指標を固定の順序で返します。
//
// エンドポイント例:
// GET /metrics/:symbol
func (h *MetricsHandler) GetMetrics(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	snap, err := h.uc.FetchMetrics(c.Request.Context(), symbol)
	if err != nil {
		api.WriteError(c, err)
		return
	}

	res := dto.MetricsResponse{Symbol: symbol, Metrics: make([]dto.MetricItem, 0, len(entity.MetricNames))}
	for _, name := range entity.MetricNames {
		item := dto.MetricItem{Name: string(name)}
		if v, ok := snap.Value(name); ok {
			f := v.InexactFloat64()
			item.Value = &f
			item.Available = true
		}
		res.Metrics = append(res.Metrics, item)
	}
	c.JSON(http.StatusOK, res)
}
