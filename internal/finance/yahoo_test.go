package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBot/internal/cache"
)

func chartBody(t *testing.T, closes []any) []byte {
	t.Helper()
	ts := make([]int64, len(closes))
	for i := range ts {
		ts[i] = 1700000000 + int64(i)*86400
	}
	body := map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"meta":      map[string]any{"symbol": "BTC-USD", "currency": "USD"},
				"timestamp": ts,
				"indicators": map[string]any{
					"quote": []any{map[string]any{"close": closes}},
				},
			}},
			"error": nil,
		},
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return b
}

func linearCloses(n int, start float64) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

func newTestYahoo(srv *httptest.Server, opts ...YahooOption) *Yahoo {
	base := []YahooOption{
		WithBaseURLs(srv.URL, srv.URL),
		WithBackoffs(),
		WithRateLimit(1000, 1000),
	}
	return NewYahoo(zerolog.Nop(), append(base, opts...)...)
}

func TestYahoo_History(t *testing.T) {
	var gotPath, gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		w.Write(chartBody(t, linearCloses(40, 100)))
	}))
	defer srv.Close()

	closes, err := newTestYahoo(srv).History(context.Background(), "btc", 30)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/BTC-USD", gotPath)
	assert.Equal(t, "1mo", gotRange)
	require.Len(t, closes, 31)
	assert.Equal(t, 109.0, closes[0])
	assert.Equal(t, 139.0, closes[30])
}

func TestYahoo_History_DropsNullCloses(t *testing.T) {
	closes := linearCloses(5, 100)
	closes[2] = nil
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chartBody(t, closes))
	}))
	defer srv.Close()

	got, err := newTestYahoo(srv).History(context.Background(), "ETH", 30)
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 103, 104}, got)
}

func TestYahoo_History_FallsBackToSpark(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v8/") {
			w.Write([]byte("<html>consent</html>"))
			return
		}
		assert.Equal(t, "SOL-USD", r.URL.Query().Get("symbols"))
		fmt.Fprint(w, `{"spark":{"result":[{"symbol":"SOL-USD","response":[{"timestamp":[1,2,3],"close":[150,151,149]}]}],"error":null}}`)
	}))
	defer srv.Close()

	got, err := newTestYahoo(srv).History(context.Background(), "SOL", 30)
	require.NoError(t, err)
	assert.Equal(t, []float64{150, 151, 149}, got)
}

func TestYahoo_History_RateLimitedEverywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("Edge: Too Many Requests"))
	}))
	defer srv.Close()

	_, err := newTestYahoo(srv).History(context.Background(), "BTC", 30)
	require.Error(t, err)
	assert.ErrorIs(t, err, errRateLimited)
}

func TestYahoo_History_UsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(chartBody(t, linearCloses(10, 100)))
	}))
	defer srv.Close()

	y := newTestYahoo(srv, WithHistoryCache(cache.NewMemory()))
	first, err := y.History(context.Background(), "BTC", 30)
	require.NoError(t, err)
	second, err := y.History(context.Background(), "BTC", 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestYahoo_History_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	y := newTestYahoo(srv)
	for i := 0; i < 5; i++ {
		_, err := y.History(context.Background(), "BTC", 30)
		require.Error(t, err)
	}
	before := hits.Load()

	_, err := y.History(context.Background(), "BTC", 30)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, before, hits.Load(), "open breaker must not reach upstream")
}

func TestYahoo_History_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chartBody(t, linearCloses(10, 100)))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestYahoo(srv).History(ctx, "BTC", 30)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestYahooSymbol(t *testing.T) {
	assert.Equal(t, "BTC-USD", yahooSymbol("btc"))
	assert.Equal(t, "ETH-USD", yahooSymbol(" ETH-USD "))
	assert.Equal(t, "^GSPC", yahooSymbol("^gspc"))
}
