// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"market_dashboard/internal/api"
	"market_dashboard/internal/feature/prices/domain/entity"
	"market_dashboard/internal/feature/prices/domain/indicator"
	"market_dashboard/internal/feature/prices/transport/http/dto"
	"market_dashboard/internal/feature/prices/usecase"
)

// DefaultStart は start 未指定時の開始日です。
var DefaultStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

// PricesUsecase は終値系列に関するユースケースのインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PricesUsecase interface {
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]entity.PricePoint, error)
	MovingAverage(series []entity.PricePoint, window int) ([]entity.MovingAveragePoint, error)
}

// PriceHandler は終値系列のHTTPリクエストを処理します。
type PriceHandler struct {
	uc  PricesUsecase
	now func() time.Time
}

// NewPriceHandler は新しい PriceHandler を作成します。
func NewPriceHandler(uc PricesUsecase) *PriceHandler {
	return &PriceHandler{uc: uc, now: time.Now}
}

// GetPrices は日足終値と（指定時は）移動平均をJSONで返します。
// 期間内にデータが無い場合も200で no_data=true を返します。
//
// エンドポイント例:
// GET /prices/:symbol?start=2023-01-01&end=2024-01-01&ma=true&window=50
func (h *PriceHandler) GetPrices(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))

	var q dateRangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		api.WriteBadRequest(c, err.Error())
		return
	}
	start := q.Start.or(DefaultStart)
	end := q.End.or(entity.DateOf(h.now()))

	var err error

	showMA := true
	if s := c.Query("ma"); s != "" {
		if showMA, err = strconv.ParseBool(s); err != nil {
			api.WriteBadRequest(c, "ma must be a boolean")
			return
		}
	}
	window := usecase.DefaultWindow
	if s := c.Query("window"); s != "" {
		if window, err = strconv.Atoi(s); err != nil {
			api.WriteBadRequest(c, "window must be an integer")
			return
		}
	}
	if showMA {
		if err := indicator.ValidateWindow(window); err != nil {
			api.WriteError(c, err)
			return
		}
	}

	series, err := h.uc.FetchHistory(c.Request.Context(), symbol, start, end)
	if err != nil {
		api.WriteError(c, err)
		return
	}

	res := dto.PriceSeriesResponse{
		Symbol: symbol,
		Start:  start.Format(openapi_types.DateFormat),
		End:    end.Format(openapi_types.DateFormat),
		Points: make([]dto.PricePointResponse, 0, len(series)),
	}
	for _, p := range series {
		res.Points = append(res.Points, dto.PricePointResponse{
			Date:  p.Date.Format(openapi_types.DateFormat),
			Close: p.Close.InexactFloat64(),
		})
	}

	if len(series) == 0 {
		res.NoData = true
		res.Message = fmt.Sprintf("No data found for %s", symbol)
		c.JSON(http.StatusOK, res)
		return
	}

	if showMA {
		ma, err := h.uc.MovingAverage(series, window)
		if err != nil {
			api.WriteError(c, err)
			return
		}
		res.MovingAverage = &dto.MovingAverageResponse{
			Window: window,
			Points: make([]dto.MovingAveragePointResponse, 0, len(ma)),
		}
		for _, p := range ma {
			mp := dto.MovingAveragePointResponse{Date: p.Date.Format(openapi_types.DateFormat)}
			if p.Value.Valid {
				v := p.Value.Decimal.InexactFloat64()
				mp.Value = &v
			}
			res.MovingAverage.Points = append(res.MovingAverage.Points, mp)
		}
	}

	c.JSON(http.StatusOK, res)
}

// dateRangeQuery は start / end クエリのバインド先です。
type dateRangeQuery struct {
	Start queryDate `form:"start"`
	End   queryDate `form:"end"`
}

// queryDate は YYYY-MM-DD 形式のクエリ値です。未指定の場合はゼロ値のままです。
type queryDate struct {
	openapi_types.Date
}

// UnmarshalParam は gin の binding.BindUnmarshaler を実装します。
func (d *queryDate) UnmarshalParam(param string) error {
	if param == "" {
		return nil
	}
	t, err := time.Parse(openapi_types.DateFormat, param)
	if err != nil {
		return fmt.Errorf("dates must be YYYY-MM-DD: %q", param)
	}
	d.Date = openapi_types.Date{Time: t}
	return nil
}

func (d queryDate) or(def time.Time) time.Time {
	if d.Time.IsZero() {
		return def
	}
	return d.Time
}
