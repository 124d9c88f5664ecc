package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"market_dashboard/internal/domain/marketdata"
)

func TestDo(t *testing.T) {
	t.Parallel()

	transient := fmt.Errorf("http 503: %w", marketdata.ErrSourceUnavailable)

	tests := []struct {
		name      string
		policy    Policy
		errs      []error // error returned on each call; nil means success
		wantCalls int
		wantErr   error
	}{
		{
			name:      "success on first attempt",
			policy:    Policy{MaxAttempts: 3, Backoff: time.Millisecond},
			errs:      []error{nil},
			wantCalls: 1,
		},
		{
			name:      "retries transient failure then succeeds",
			policy:    Policy{MaxAttempts: 3, Backoff: time.Millisecond},
			errs:      []error{transient, transient, nil},
			wantCalls: 3,
		},
		{
			name:      "gives up after max attempts",
			policy:    Policy{MaxAttempts: 2, Backoff: time.Millisecond},
			errs:      []error{transient, transient, nil},
			wantCalls: 2,
			wantErr:   marketdata.ErrSourceUnavailable,
		},
		{
			name:      "unknown symbol is not retried",
			policy:    Policy{MaxAttempts: 3, Backoff: time.Millisecond},
			errs:      []error{marketdata.ErrUnknownSymbol, nil},
			wantCalls: 1,
			wantErr:   marketdata.ErrUnknownSymbol,
		},
		{
			name:      "format change is not retried",
			policy:    Policy{MaxAttempts: 3, Backoff: time.Millisecond},
			errs:      []error{marketdata.ErrSourceFormatChanged, nil},
			wantCalls: 1,
			wantErr:   marketdata.ErrSourceFormatChanged,
		},
		{
			name:      "zero attempts behaves as one",
			policy:    Policy{},
			errs:      []error{transient, nil},
			wantCalls: 1,
			wantErr:   marketdata.ErrSourceUnavailable,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			got, err := Do(context.Background(), tt.policy, "test", func(ctx context.Context) (int, error) {
				e := tt.errs[calls]
				calls++
				if e != nil {
					return 0, e
				}
				return 42, nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, 42, got)
		})
	}
}

func TestDo_StopsWaitingWhenContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 5, Backoff: time.Hour}, "test", func(ctx context.Context) (struct{}, error) {
		calls++
		cancel()
		return struct{}{}, marketdata.ErrSourceUnavailable
	})

	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, marketdata.ErrSourceUnavailable))
}
