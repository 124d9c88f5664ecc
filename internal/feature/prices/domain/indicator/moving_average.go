// Package indicator computes derived series from closing prices.
package indicator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"market_dashboard/internal/domain/marketdata"
	"market_dashboard/internal/feature/prices/domain/entity"
)

// SimpleMovingAverage returns the trailing arithmetic mean of closes over window points,
// aligned to series. The first window-1 values are absent. The input is not modified.
func SimpleMovingAverage(series []entity.PricePoint, window int) ([]entity.MovingAveragePoint, error) {
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}

	out := make([]entity.MovingAveragePoint, len(series))
	n := decimal.NewFromInt(int64(window))
	sum := decimal.Zero
	for i, p := range series {
		sum = sum.Add(p.Close)
		if i >= window {
			sum = sum.Sub(series[i-window].Close)
		}
		out[i].Date = p.Date
		if i >= window-1 {
			out[i].Value = decimal.NewNullDecimal(sum.Div(n))
		}
	}
	return out, nil
}

// ValidateWindow reports ErrInvalidWindow for windows smaller than one.
func ValidateWindow(window int) error {
	if window < 1 {
		return fmt.Errorf("window %d: %w", window, marketdata.ErrInvalidWindow)
	}
	return nil
}
