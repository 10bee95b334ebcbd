package finance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"

	"portfolioBot/internal/cache"
)

// Yahoo serves daily USD closes from Yahoo Finance.
type Yahoo struct {
	client   *http.Client
	baseURLs []string
	backoffs []time.Duration
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	cache    cache.Store
	log      zerolog.Logger
}

type YahooOption func(*Yahoo)

// WithBaseURLs replaces the query1/query2 hosts, scheme included.
func WithBaseURLs(urls ...string) YahooOption {
	return func(y *Yahoo) { y.baseURLs = urls }
}

func WithBackoffs(backoffs ...time.Duration) YahooOption {
	return func(y *Yahoo) { y.backoffs = backoffs }
}

func WithHTTPClient(c *http.Client) YahooOption {
	return func(y *Yahoo) { y.client = c }
}

func WithRateLimit(rps float64, burst int) YahooOption {
	return func(y *Yahoo) { y.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithHistoryCache keeps fetched closes for a minute so quoting and
// series building for the same request share one fetch.
func WithHistoryCache(store cache.Store) YahooOption {
	return func(y *Yahoo) { y.cache = store }
}

func NewYahoo(log zerolog.Logger, opts ...YahooOption) *Yahoo {
	y := &Yahoo{
		client:   &http.Client{Timeout: 15 * time.Second},
		baseURLs: []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"},
		backoffs: []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(4), 4),
		log:      log.With().Str("component", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(y)
	}
	y.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			y.log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return y
}

// History returns up to days+1 daily closes for symbol, oldest first,
// so the series yields days returns.
func (y *Yahoo) History(ctx context.Context, symbol string, days int) ([]float64, error) {
	if days <= 0 {
		days = defaultHistoryDays
	}
	sym := yahooSymbol(symbol)
	key := fmt.Sprintf("history:%s:%d", sym, days)
	if closes, ok := y.cachedHistory(ctx, key); ok {
		return closes, nil
	}

	res, err := y.breaker.Execute(func() (interface{}, error) {
		_, cl, err := y.fetchSeries(ctx, sym, "1d", rangeForDays(days))
		if err != nil {
			return nil, err
		}
		if len(cl) == 0 {
			return nil, errNoData
		}
		return cl, nil
	})
	if err != nil {
		return nil, fmt.Errorf("yahoo history %s: %w", sym, err)
	}
	closes := res.([]float64)
	if len(closes) > days+1 {
		closes = closes[len(closes)-days-1:]
	}

	if y.cache != nil {
		if b, err := msgpack.Marshal(closes); err == nil {
			if err := y.cache.Set(ctx, key, b, historyCacheTTL); err != nil {
				y.log.Debug().Err(err).Str("key", key).Msg("history cache set failed")
			}
		}
	}
	return closes, nil
}

func (y *Yahoo) cachedHistory(ctx context.Context, key string) ([]float64, bool) {
	if y.cache == nil {
		return nil, false
	}
	b, ok, err := y.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var closes []float64
	if err := msgpack.Unmarshal(b, &closes); err != nil {
		return nil, false
	}
	return closes, true
}

// yahooSymbol maps a crypto ticker to its Yahoo USD pair. Symbols that
// already carry a Yahoo suffix or index prefix pass through.
func yahooSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.ContainsAny(s, "-^=.") {
		return s
	}
	return s + "-USD"
}
