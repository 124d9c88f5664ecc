// Package entity defines the domain models for the tickers feature.
package entity

import (
	"strings"
	"time"
)

// Ticker is one constituent of the index: an exchange ticker symbol and,
// when the reference table provides it, the company name.
type Ticker struct {
	Symbol string // e.g. "AAPL", "BRK.B"
	Name   string // e.g. "Apple Inc."; empty when unknown
}

// DisplayLabel renders the ticker the way the selection list shows it: "AAPL - Apple Inc.".
func (t Ticker) DisplayLabel() string {
	if t.Name == "" {
		return t.Symbol
	}
	return t.Symbol + " - " + t.Name
}

// SymbolFromLabel extracts the symbol from a label produced by DisplayLabel.
func SymbolFromLabel(label string) string {
	sym, _, _ := strings.Cut(label, " - ")
	return strings.TrimSpace(sym)
}

// Snapshot is an immutable, alphabetically ordered view of the directory taken at FetchedAt.
// Callers must not modify Tickers.
type Snapshot struct {
	Tickers   []Ticker
	FetchedAt time.Time
	Epoch     uint64
}

// Symbols returns the symbols in snapshot order.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s.Tickers))
	for _, t := range s.Tickers {
		out = append(out, t.Symbol)
	}
	return out
}

// Find looks a symbol up by exact match.
func (s Snapshot) Find(symbol string) (Ticker, bool) {
	for _, t := range s.Tickers {
		if t.Symbol == symbol {
			return t, true
		}
	}
	return Ticker{}, false
}
