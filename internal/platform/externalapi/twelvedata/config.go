// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import "time"

// DefaultBaseURL is the public Twelve Data endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

// Config holds configuration for the Twelve Data API client.
type Config struct {
	APIKey         string        // API key for authentication
	BaseURL        string        // Base URL for the API (e.g., "https://api.twelvedata.com")
	Timeout        time.Duration // HTTP request timeout
	RequestsPerMin int           // Plan quota; 0 disables client-side limiting
}

// DefaultConfig returns the free-plan defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        10 * time.Second,
		RequestsPerMin: 8,
	}
}
