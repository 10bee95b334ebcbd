package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBot/internal/config"
	"portfolioBot/internal/metrics"
	"portfolioBot/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	return config.Config{
		DBPath:          filepath.Join(t.TempDir(), "data", "portfolio.db"),
		CacheBackend:    "memory",
		MetricsTTL:      10 * time.Minute,
		HistoryDays:     30,
		BenchmarkSymbol: "BTC",
		PriceSource:     "mock",
	}
}

func TestNew_EndToEnd(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Store.SetPosition(ctx, 11, "BTC", decimal.RequireFromString("0.5")))
	_, err = a.Store.RecordTransaction(ctx, storage.Transaction{
		UserID: 11, Symbol: "ETH", Side: storage.Buy,
		Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(2500),
	})
	require.NoError(t, err)

	b := a.Service.ComputeAdvancedMetrics(ctx, 11)
	assert.Equal(t, int64(11), b.UserID)
	assert.Equal(t, metrics.RiskDistribution{Medium: 100}, b.RiskDistribution)
	assert.Len(t, b.PerformanceAttribution, 2)
	assert.Equal(t, b, a.Service.ComputeAdvancedMetrics(ctx, 11))

	report, err := a.Service.TaxReport(ctx, 11)
	require.NoError(t, err)
	require.Len(t, report.OpenLots, 1)
	assert.True(t, report.OpenLots[0].Priced)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["portfoliobot_cache_hits_total"])
	assert.True(t, names["portfoliobot_cache_misses_total"])
}

func TestNew_DefaultsForUnknownUser(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	b := a.Service.ComputeAdvancedMetrics(context.Background(), 999)
	assert.Equal(t, metrics.FallbackConcentration, b.ConcentrationIndex)
	assert.Equal(t, metrics.DefaultRiskDistribution, b.RiskDistribution)
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheBackend = "redis"
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "redis 127.0.0.1:1")
}
