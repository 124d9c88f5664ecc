// Package marketdata defines errors shared by the market data features.
package marketdata

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned by the ticker directory, price series and metrics features.
// Upper layers match them with errors.Is; adapters wrap them with context.
var (
	// ErrSourceUnavailable indicates that an upstream source could not be reached
	// or refused the request.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrSourceFormatChanged indicates that an upstream document or response no longer
	// has the expected shape (for example a missing table column).
	ErrSourceFormatChanged = errors.New("data source format changed")

	// ErrInvalidRange is returned when the start date is after the end date.
	ErrInvalidRange = errors.New("invalid date range: start must not be after end")

	// ErrInvalidWindow is returned when a moving average window is smaller than 1.
	ErrInvalidWindow = errors.New("invalid moving average window: must be at least 1")

	// ErrTickerNotListed is returned when a symbol is not part of the ticker directory.
	ErrTickerNotListed = errors.New("ticker is not listed in the directory")

	// ErrUnknownSymbol indicates that the source does not recognize the symbol at all.
	// It wraps ErrSourceUnavailable, so it also matches that error.
	ErrUnknownSymbol = fmt.Errorf("unknown symbol: %w", ErrSourceUnavailable)
)

// IsRetryable reports whether err is a transient upstream failure worth retrying.
// Unknown symbols and expired or canceled contexts are never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrSourceUnavailable) && !errors.Is(err, ErrUnknownSymbol)
}

// Unavailable wraps a transport failure of op as ErrSourceUnavailable.
// When ctx has already ended, ctx.Err() is wrapped too so callers can tell
// a timeout apart from an unreachable source.
func Unavailable(ctx context.Context, op string, err error) error {
	if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
		return fmt.Errorf("%s: %w: %w: %w", op, err, cerr, ErrSourceUnavailable)
	}
	return fmt.Errorf("%s: %w: %w", op, err, ErrSourceUnavailable)
}
