// Package portfolio computes a user's advanced metrics bundle from their
// holdings and price history, and keeps it in a cache for a short TTL.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"portfolioBot/internal/cache"
	"portfolioBot/internal/finance"
	"portfolioBot/internal/metrics"
	"portfolioBot/internal/series"
	"portfolioBot/internal/stats"
	"portfolioBot/internal/storage"
	"portfolioBot/internal/taxlots"
)

const (
	DefaultTTL         = 600 * time.Second
	DefaultHistoryDays = 30
	DefaultBenchmark   = "BTC"
)

var (
	ErrNoHoldings = errors.New("no holdings")
	ErrNoHistory  = errors.New("no usable price history")
)

type TransactionStore interface {
	Transactions(ctx context.Context, userID int64) ([]storage.Transaction, error)
}

// Deps are the collaborators of a Service. Transactions and Charter are
// only needed by TaxReport and ValueChart.
type Deps struct {
	Holdings     HoldingsProvider
	History      HistoryProvider
	Cache        cache.Store
	Engine       *metrics.Engine
	Transactions TransactionStore
	Charter      *finance.Charter
}

type Options struct {
	TTL         time.Duration
	HistoryDays int
	Benchmark   string
}

type Service struct {
	deps Deps
	opts Options
	now  func() time.Time
	log  zerolog.Logger
}

func NewService(deps Deps, opts Options, log zerolog.Logger) *Service {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.HistoryDays < 2 {
		opts.HistoryDays = DefaultHistoryDays
	}
	if opts.Benchmark == "" {
		opts.Benchmark = DefaultBenchmark
	}
	log = log.With().Str("component", "portfolio_service").Logger()
	if deps.Engine == nil {
		deps.Engine = metrics.NewEngine(log)
	}
	return &Service{deps: deps, opts: opts, now: time.Now, log: log}
}

// CacheKey is the cache key of a user's bundle.
func CacheKey(userID int64) string {
	return fmt.Sprintf("advanced_metrics_%d", userID)
}

// ComputeAdvancedMetrics returns the cached bundle when one is fresh and
// computes and stores it otherwise. It never fails: cache problems are
// treated as misses and an unavailable upstream yields the default bundle.
// Concurrent misses may compute twice; the last write wins.
func (s *Service) ComputeAdvancedMetrics(ctx context.Context, userID int64) metrics.Bundle {
	if b, ok := s.cached(ctx, userID); ok {
		return b
	}
	return s.store(ctx, userID, s.compute(ctx, userID))
}

func (s *Service) cached(ctx context.Context, userID int64) (metrics.Bundle, bool) {
	data, ok, err := s.deps.Cache.Get(ctx, CacheKey(userID))
	switch {
	case err != nil:
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("metrics cache read failed")
	case ok:
		b, err := DecodeBundle(data)
		if err == nil {
			return b, true
		}
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("discarding unreadable cached bundle")
	}
	return metrics.Bundle{}, false
}

func (s *Service) store(ctx context.Context, userID int64, b metrics.Bundle) metrics.Bundle {
	data, err := EncodeBundle(b)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("bundle not cached")
		return b
	}
	if err := s.deps.Cache.Set(ctx, CacheKey(userID), data, s.opts.TTL); err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("metrics cache write failed")
	}
	return b
}

func (s *Service) compute(ctx context.Context, userID int64) metrics.Bundle {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("upstream unavailable, using default metrics")
		return s.stamp(metrics.Defaults(), userID)
	}
	return s.fromSnapshot(ctx, userID, snap)
}

func (s *Service) fromSnapshot(ctx context.Context, userID int64, snap snapshot) metrics.Bundle {
	log := s.log.With().Int64("user_id", userID).Logger()
	var benchmark []float64
	if closes, err := s.deps.History.History(ctx, s.opts.Benchmark, s.opts.HistoryDays); err != nil {
		log.Warn().Err(err).Str("benchmark", s.opts.Benchmark).Msg("benchmark history unavailable")
	} else {
		benchmark = stats.Returns(closes)
	}

	b := s.deps.Engine.Compute(metrics.Input{
		Holdings:         snap.metricHoldings(),
		Values:           snap.series.Values,
		Returns:          snap.series.Returns,
		BenchmarkReturns: benchmark,
	})
	log.Debug().Int("holdings", len(snap.holdings)).Int("points", len(snap.series.Values)).Msg("metrics computed")
	return s.stamp(b, userID)
}

func (s *Service) stamp(b metrics.Bundle, userID int64) metrics.Bundle {
	b.UserID = userID
	b.ComputedAt = s.now().UTC()
	return b
}

type snapshot struct {
	holdings []Holding
	series   series.Result
}

func (sn snapshot) metricHoldings() []metrics.Holding {
	out := make([]metrics.Holding, 0, len(sn.holdings))
	for _, h := range sn.holdings {
		out = append(out, metrics.Holding{
			Symbol:    h.Symbol,
			Value:     h.Value().InexactFloat64(),
			Change24h: h.PriceChange24h.InexactFloat64(),
		})
	}
	return out
}

// snapshot loads holdings and builds the value series. It fails when there
// is nothing to compute from.
func (s *Service) snapshot(ctx context.Context, userID int64) (snapshot, error) {
	holdings, err := s.deps.Holdings.Holdings(ctx, userID)
	if err != nil {
		return snapshot{}, err
	}
	if len(holdings) == 0 {
		return snapshot{}, fmt.Errorf("user %d: %w", userID, ErrNoHoldings)
	}

	history := make(map[string][]float64, len(holdings))
	positions := make([]series.Position, 0, len(holdings))
	for _, h := range holdings {
		closes, err := s.deps.History.History(ctx, h.Symbol, s.opts.HistoryDays)
		if err != nil || len(closes) == 0 {
			s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("history unavailable")
			continue
		}
		history[strings.ToUpper(h.Symbol)] = closes
		positions = append(positions, series.Position{Symbol: h.Symbol, Quantity: h.Quantity.InexactFloat64()})
	}
	if len(history) == 0 {
		return snapshot{}, ErrNoHistory
	}
	return snapshot{holdings: holdings, series: series.Build(positions, history)}, nil
}

// Holdings lists the user's priced holdings.
func (s *Service) Holdings(ctx context.Context, userID int64) ([]Holding, error) {
	return s.deps.Holdings.Holdings(ctx, userID)
}

// TaxReport builds the FIFO report, pricing open lots at the last close.
func (s *Service) TaxReport(ctx context.Context, userID int64) (taxlots.Report, error) {
	if s.deps.Transactions == nil {
		return taxlots.Report{}, errors.New("tax report: no transaction store")
	}
	txs, err := s.deps.Transactions.Transactions(ctx, userID)
	if err != nil {
		return taxlots.Report{}, err
	}

	prices := map[string]decimal.Decimal{}
	for _, tx := range txs {
		sym := strings.ToUpper(tx.Symbol)
		if _, done := prices[sym]; done {
			continue
		}
		closes, err := s.deps.History.History(ctx, sym, s.opts.HistoryDays)
		if err != nil || len(closes) == 0 {
			s.log.Warn().Err(err).Str("symbol", sym).Msg("open lots left unpriced")
			continue
		}
		prices[sym] = decimal.NewFromFloat(closes[len(closes)-1])
	}
	return taxlots.Build(txs, prices, s.now())
}

// ValueChart renders the user's portfolio value series with the headline metrics.
func (s *Service) ValueChart(ctx context.Context, userID int64) ([]byte, error) {
	if s.deps.Charter == nil {
		return nil, errors.New("value chart: no charter")
	}
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	b, ok := s.cached(ctx, userID)
	if !ok {
		b = s.store(ctx, userID, s.fromSnapshot(ctx, userID, snap))
	}

	symbols := make([]string, 0, len(snap.holdings))
	for _, h := range snap.holdings {
		symbols = append(symbols, h.Symbol)
	}
	return s.deps.Charter.Render(ctx, finance.ValueChart{
		Key:      fmt.Sprintf("%d-%s", userID, strings.Join(symbols, ",")),
		Title:    fmt.Sprintf("Portfolio value (%s)", strings.Join(symbols, ", ")),
		Subtitle: fmt.Sprintf("Sharpe: %.2f | Vol: %.2f%% | MaxDD: %.2f%% | VaR: %.2f%%", b.SharpeRatio, b.Volatility, b.MaxDrawdown, b.ValueAtRisk),
		Values:   snap.series.Values,
		End:      s.now(),
	})
}
