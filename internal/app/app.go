// Package app wires configuration into the storage, cache, price and
// portfolio components shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"portfolioBot/internal/cache"
	"portfolioBot/internal/config"
	"portfolioBot/internal/finance"
	"portfolioBot/internal/portfolio"
	"portfolioBot/internal/storage"
)

// RandomWalkSeed seeds the mock price source.
const RandomWalkSeed = 1

type App struct {
	DB       storage.DB
	Store    *storage.Store
	Service  *portfolio.Service
	Registry *prometheus.Registry

	closers []func() error
	log     zerolog.Logger
}

func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Registry: prometheus.NewRegistry(), log: log}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if err := a.openDB(ctx, cfg.DBPath); err != nil {
		a.Close()
		return nil, err
	}

	counters := cache.NewCounters(a.Registry)
	metricsStore, err := a.metricsCache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	metricsStore = cache.NewInstrumented(metricsStore, "metrics", counters)
	local := cache.NewInstrumented(cache.NewMemory(), "local", counters)

	var history portfolio.HistoryProvider
	switch cfg.PriceSource {
	case "mock":
		history = finance.NewRandomWalk(RandomWalkSeed)
	default:
		history = finance.NewYahoo(log, finance.WithHistoryCache(local))
	}
	log.Info().Str("source", cfg.PriceSource).Str("benchmark", cfg.BenchmarkSymbol).Int("days", cfg.HistoryDays).Msg("prices: provider ready")

	a.Service = portfolio.NewService(portfolio.Deps{
		Holdings:     portfolio.NewQuotedHoldings(a.Store, history, cfg.HistoryDays, log),
		History:      history,
		Cache:        metricsStore,
		Transactions: a.Store,
		Charter:      finance.NewCharter(local, "UTC", log),
	}, portfolio.Options{
		TTL:         cfg.MetricsTTL,
		HistoryDays: cfg.HistoryDays,
		Benchmark:   cfg.BenchmarkSymbol,
	}, log)
	return a, nil
}

func (a *App) openDB(ctx context.Context, path string) error {
	if path != ":memory:" {
		// Ensure parent directory for the DB exists
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.OpenSQLite("file:" + path + "?_fk=1")
	if err != nil {
		return err
	}
	a.closers = append(a.closers, db.Close)
	if err := storage.InitSchema(ctx, db); err != nil {
		return err
	}
	a.DB = db
	a.Store = storage.NewStore(db)
	a.log.Info().Str("path", path).Msg("db: opened sqlite, schema ensured")
	return nil
}

func (a *App) metricsCache(ctx context.Context, cfg config.Config) (cache.Store, error) {
	if cfg.CacheBackend != "redis" {
		a.log.Info().Msg("cache: in-memory")
		return cache.NewMemory(), nil
	}
	r := cache.NewRedis(cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
	a.closers = append(a.closers, r.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
	}
	a.log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("cache: redis connected")
	return r, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
