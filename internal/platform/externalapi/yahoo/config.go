// Package yahoo provides a client for the Yahoo Finance chart and quoteSummary APIs.
package yahoo

import "time"

// DefaultBaseURL is the public chart API host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds configuration for the Yahoo Finance client.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerMin int // 0 disables client-side limiting
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        10 * time.Second,
		RequestsPerMin: 60,
	}
}
