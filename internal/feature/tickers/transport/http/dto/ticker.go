// Package dto defines data transfer objects for the tickers HTTP API.
package dto

// TickerItem represents a ticker in API responses.
// Label is the "SYMBOL - Company" text used by the selection list.
type TickerItem struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Label  string `json:"label"`
}

// TickerListResponse is the body of GET /tickers.
type TickerListResponse struct {
	Default   string       `json:"default,omitempty"`
	FetchedAt string       `json:"fetched_at"`
	Count     int          `json:"count"`
	Tickers   []TickerItem `json:"tickers"`
}

// TickerSearchResponse is the body of GET /tickers/search.
type TickerSearchResponse struct {
	Query   string       `json:"query"`
	Tickers []TickerItem `json:"tickers"`
}
