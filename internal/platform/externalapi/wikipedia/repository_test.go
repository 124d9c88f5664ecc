package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_dashboard/internal/domain/marketdata"
)

func TestNewWikipediaSource_Defaults(t *testing.T) {
	t.Parallel()

	src := NewWikipediaSource(Config{}, &http.Client{})

	assert.Equal(t, DefaultURL, src.cfg.URL)
	assert.Equal(t, "Symbol", src.cfg.SymbolColumn)
	assert.Equal(t, "Security", src.cfg.NameColumn)
}

func TestWikipediaSource_FetchTickers_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wiki/List_of_S%26P_500_companies", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		_, _ = w.Write([]byte(constituentsPage))
	}))
	defer server.Close()

	src := NewWikipediaSource(Config{
		URL:     server.URL + "/wiki/List_of_S%26P_500_companies",
		Timeout: 5 * time.Second,
	}, server.Client())

	got, err := src.FetchTickers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "MMM", got[0].Symbol)
	assert.Equal(t, "3M", got[0].Name)
}

func TestWikipediaSource_FetchTickers_HTTPError(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusNotFound, http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		code := code
		t.Run(http.StatusText(code), func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
			}))
			defer server.Close()

			src := NewWikipediaSource(Config{URL: server.URL}, server.Client())
			_, err := src.FetchTickers(context.Background())
			assert.ErrorIs(t, err, marketdata.ErrSourceUnavailable)
			assert.Contains(t, err.Error(), "wikipedia http")
		})
	}
}

func TestWikipediaSource_FetchTickers_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	src := NewWikipediaSource(Config{URL: url}, &http.Client{Timeout: time.Second})
	_, err := src.FetchTickers(context.Background())
	assert.ErrorIs(t, err, marketdata.ErrSourceUnavailable)
}

func TestWikipediaSource_FetchTickers_FormatChanged(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<table><tr><th>Ticker symbol</th></tr><tr><td>AAPL</td></tr></table>`))
	}))
	defer server.Close()

	src := NewWikipediaSource(Config{URL: server.URL}, server.Client())
	_, err := src.FetchTickers(context.Background())
	assert.ErrorIs(t, err, marketdata.ErrSourceFormatChanged)
	assert.NotErrorIs(t, err, marketdata.ErrSourceUnavailable)
}

func TestWikipediaSource_FetchTickers_DeadlineExceeded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	src := NewWikipediaSource(Config{URL: server.URL}, server.Client())
	_, err := src.FetchTickers(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, marketdata.ErrSourceUnavailable)
	assert.False(t, marketdata.IsRetryable(err))
}
