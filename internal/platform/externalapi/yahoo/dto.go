package yahoo

import "github.com/shopspring/decimal"

// chartResponse is the subset of the chart API response the client reads.
// Quote arrays carry null for days without a print.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol           string              `json:"symbol"`
		GMTOffset        int64               `json:"gmtoffset"`
		FiftyTwoWeekHigh decimal.NullDecimal `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  decimal.NullDecimal `json:"fiftyTwoWeekLow"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []decimal.NullDecimal `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// quoteSummaryResponse is the subset of the quoteSummary API response the client reads.
// Missing values are sent as empty objects, so Raw stays invalid.
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				MarketCap                   rawValue `json:"marketCap"`
				TrailingPE                  rawValue `json:"trailingPE"`
				DividendYield               rawValue `json:"dividendYield"`
				TrailingAnnualDividendYield rawValue `json:"trailingAnnualDividendYield"`
				Beta                        rawValue `json:"beta"`
				FiftyTwoWeekHigh            rawValue `json:"fiftyTwoWeekHigh"`
				FiftyTwoWeekLow             rawValue `json:"fiftyTwoWeekLow"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				Beta rawValue `json:"beta"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type rawValue struct {
	Raw decimal.NullDecimal `json:"raw"`
}
