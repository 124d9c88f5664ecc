// Package dto はpricesフィーチャーのレスポンスDTOを定義します。
package dto

// PricePointResponse は1営業日分の終値です。
type PricePointResponse struct {
	Date  string  `json:"date"`  // YYYY-MM-DD
	Close float64 `json:"close"` // 終値
}

// MovingAveragePointResponse は移動平均の1点です。窓が満たない間は value が null になります。
type MovingAveragePointResponse struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// MovingAverageResponse は移動平均系列です。
type MovingAverageResponse struct {
	Window int                          `json:"window"`
	Points []MovingAveragePointResponse `json:"points"`
}

// PriceSeriesResponse は GET /prices/:symbol のレスポンスDTOです。
type PriceSeriesResponse struct {
	Symbol        string                 `json:"symbol"`
	Start         string                 `json:"start"`
	End           string                 `json:"end"`
	Points        []PricePointResponse   `json:"points"`
	MovingAverage *MovingAverageResponse `json:"moving_average,omitempty"`
	NoData        bool                   `json:"no_data"`
	Message       string                 `json:"message,omitempty"`
}
