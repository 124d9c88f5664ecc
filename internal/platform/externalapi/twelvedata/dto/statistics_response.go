package dto

import "github.com/shopspring/decimal"

// StatisticsResponse はTwelve Data statisticsエンドポイントのうち、使用する項目だけを表します。
// 値が無い項目は null で返されるため NullDecimal で受けます。
type StatisticsResponse struct {
	ErrorFields
	Meta struct {
		Symbol string `json:"symbol"`
	} `json:"meta"`
	Statistics struct {
		ValuationsMetrics struct {
			MarketCapitalization decimal.NullDecimal `json:"market_capitalization"`
			TrailingPE           decimal.NullDecimal `json:"trailing_pe"`
		} `json:"valuations_metrics"`
		StockPriceSummary struct {
			FiftyTwoWeekHigh decimal.NullDecimal `json:"fifty_two_week_high"`
			FiftyTwoWeekLow  decimal.NullDecimal `json:"fifty_two_week_low"`
			Beta             decimal.NullDecimal `json:"beta"`
		} `json:"stock_price_summary"`
		DividendsAndSplits struct {
			TrailingAnnualDividendYield decimal.NullDecimal `json:"trailing_annual_dividend_yield"`
			ForwardAnnualDividendYield  decimal.NullDecimal `json:"forward_annual_dividend_yield"`
		} `json:"dividends_and_splits"`
	} `json:"statistics"`
}
