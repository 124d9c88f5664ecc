// Package entity defines the domain models for the metrics feature.
package entity

import (
	"github.com/shopspring/decimal"
)

// MetricName is the display name of a key financial metric.
type MetricName string

const (
	MarketCap        MetricName = "Market Cap"
	PERatio          MetricName = "P/E Ratio"
	DividendYield    MetricName = "Dividend Yield"
	Beta             MetricName = "Beta"
	FiftyTwoWeekHigh MetricName = "52-Week High"
	FiftyTwoWeekLow  MetricName = "52-Week Low"
)

// MetricNames lists every metric in display order.
var MetricNames = []MetricName{MarketCap, PERatio, DividendYield, Beta, FiftyTwoWeekHigh, FiftyTwoWeekLow}

// Snapshot holds the metrics of one symbol. Values has an entry for every name in
// MetricNames; a metric the source does not report is an invalid NullDecimal.
type Snapshot struct {
	Symbol string                             `json:"symbol"`
	Values map[MetricName]decimal.NullDecimal `json:"values"`
}

// NewSnapshot returns a snapshot with every metric absent.
func NewSnapshot(symbol string) Snapshot {
	values := make(map[MetricName]decimal.NullDecimal, len(MetricNames))
	for _, n := range MetricNames {
		values[n] = decimal.NullDecimal{}
	}
	return Snapshot{Symbol: symbol, Values: values}
}

// Set records v for name. Invalid values leave the metric absent.
func (s Snapshot) Set(name MetricName, v decimal.NullDecimal) {
	s.Values[name] = v
}

// Value returns the metric and whether it is available.
func (s Snapshot) Value(name MetricName) (decimal.Decimal, bool) {
	v, ok := s.Values[name]
	if !ok || !v.Valid {
		return decimal.Decimal{}, false
	}
	return v.Decimal, true
}

// Available counts the metrics that have a value.
func (s Snapshot) Available() int {
	n := 0
	for _, name := range MetricNames {
		if _, ok := s.Value(name); ok {
			n++
		}
	}
	return n
}
