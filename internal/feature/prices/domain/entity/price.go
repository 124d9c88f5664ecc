// Package entity defines the domain models for the prices feature.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one trading day's closing price.
// Date is the calendar date at UTC midnight.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// MovingAveragePoint is aligned one-to-one with a PricePoint.
// Value is invalid (absent) until the window has filled.
type MovingAveragePoint struct {
	Date  time.Time           `json:"date"`
	Value decimal.NullDecimal `json:"value"`
}

// DateOf returns the calendar date of t (in t's own location) as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
