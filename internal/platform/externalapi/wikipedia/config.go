// Package wikipedia fetches the S&P 500 constituents table from Wikipedia.
package wikipedia

import "time"

// DefaultURL is the page listing the S&P 500 constituents.
const DefaultURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Config holds configuration for the reference-table source.
type Config struct {
	URL          string        // Page containing the constituents table
	SymbolColumn string        // Header text of the ticker column (required)
	NameColumn   string        // Header text of the company name column (optional)
	Timeout      time.Duration // HTTP request timeout
}

// DefaultConfig returns the configuration matching the current page layout.
func DefaultConfig() Config {
	return Config{
		URL:          DefaultURL,
		SymbolColumn: "Symbol",
		NameColumn:   "Security",
		Timeout:      10 * time.Second,
	}
}
