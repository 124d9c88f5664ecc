// Package dto はTwelve Data APIレスポンスのデータ転送オブジェクトを定義します。
package dto

// ErrorFields はエラー時に全エンドポイント共通で返されるフィールドです。
// 成功時は status が "ok" で、code と message は空です。
type ErrorFields struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// TimeSeriesResponse はTwelve Data time_seriesエンドポイントからのJSONレスポンスを表します。
type TimeSeriesResponse struct {
	ErrorFields
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
		Exchange string `json:"exchange"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
}
