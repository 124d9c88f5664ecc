// Package dto はmetricsフィーチャーのレスポンスDTOを定義します。
package dto

// MetricItem は1つの財務指標です。取得できなかった場合は value が null、available が false になります。
type MetricItem struct {
	Name      string   `json:"name"`
	Value     *float64 `json:"value"`
	Available bool     `json:"available"`
}

// MetricsResponse は GET /metrics/:symbol のレスポンスDTOです。
type MetricsResponse struct {
	Symbol  string       `json:"symbol"`
	Metrics []MetricItem `json:"metrics"`
}
