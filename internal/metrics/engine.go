// Package metrics computes the advanced risk and performance bundle shown on
// the portfolio dashboard. Every metric has a documented fallback; the
// engine never fails, it substitutes fallbacks and logs.
package metrics

import (
	"fmt"

	"github.com/rs/zerolog"

	"portfolioBot/internal/stats"
)

// Input is everything one bundle is computed from.
type Input struct {
	Holdings         []Holding
	Values           []float64 // portfolio value series
	Returns          []float64 // portfolio returns
	BenchmarkReturns []float64
}

type Engine struct {
	log zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "metrics_engine").Logger()}
}

// Compute builds the bundle. Without holdings the full default bundle is
// returned. A failing metric falls back alone; the others are unaffected.
func (e *Engine) Compute(in Input) Bundle {
	if len(in.Holdings) == 0 {
		return Defaults()
	}

	b := Bundle{
		Volatility: e.guard("volatility", FallbackVolatility, func() (float64, error) {
			return Volatility(in.Returns), nil
		}),
		SharpeRatio: e.guard("sharpe_ratio", FallbackSharpe, func() (float64, error) {
			return SharpeRatio(in.Returns)
		}),
		SortinoRatio: e.guard("sortino_ratio", FallbackSortino, func() (float64, error) {
			return SortinoRatio(in.Returns)
		}),
		BetaCoefficient: e.guard("beta", FallbackBeta, func() (float64, error) {
			return Beta(in.Returns, in.BenchmarkReturns)
		}),
		MaxDrawdown: e.guard("max_drawdown", FallbackMaxDrawdown, func() (float64, error) {
			return MaxDrawdown(in.Values)
		}),
		ValueAtRisk: e.guard("value_at_risk", FallbackVaR, func() (float64, error) {
			return ValueAtRisk(in.Returns), nil
		}),
		DiversificationRatio: e.guard("diversification_ratio", FallbackDiversification, func() (float64, error) {
			return DiversificationRatio(in.Holdings)
		}),
		ConcentrationIndex: e.guard("concentration_index", FallbackConcentration, func() (float64, error) {
			return ConcentrationIndex(in.Holdings)
		}),
	}
	b.RiskDistribution = e.distribution(in.Holdings)
	b.PerformanceAttribution = e.attribution(in.Holdings)

	b.SharpeRatio = stats.Round(b.SharpeRatio, 2)
	b.SortinoRatio = stats.Round(b.SortinoRatio, 2)
	b.BetaCoefficient = stats.Round(b.BetaCoefficient, 2)
	b.Volatility = stats.Round(b.Volatility, 2)
	b.MaxDrawdown = stats.Round(b.MaxDrawdown, 2)
	b.ValueAtRisk = stats.Round(b.ValueAtRisk, 2)
	b.ConcentrationIndex = stats.Round(b.ConcentrationIndex, 2)
	b.DiversificationRatio = stats.Round(b.DiversificationRatio, 4)
	return b
}

// guard runs one metric, turning errors, panics and non-finite results
// into the metric's fallback.
func (e *Engine) guard(name string, fallback float64, fn func() (float64, error)) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("metric", name).Str("panic", fmt.Sprint(r)).Msg("metric failed, using fallback")
			v = fallback
		}
	}()

	v, err := fn()
	if err != nil {
		e.log.Warn().Err(err).Str("metric", name).Msg("metric failed, using fallback")
		return fallback
	}
	if !stats.Finite(v) {
		e.log.Warn().Str("metric", name).Float64("value", v).Msg("metric not finite, using fallback")
		return fallback
	}
	return v
}

func (e *Engine) distribution(holdings []Holding) (d RiskDistribution) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("metric", "risk_distribution").Str("panic", fmt.Sprint(r)).Msg("metric failed, using fallback")
			d = DefaultRiskDistribution
		}
	}()

	d, err := Distribution(holdings)
	if err != nil {
		e.log.Warn().Err(err).Str("metric", "risk_distribution").Msg("metric failed, using fallback")
		return DefaultRiskDistribution
	}
	return RiskDistribution{
		Low:    stats.Round(d.Low, 2),
		Medium: stats.Round(d.Medium, 2),
		High:   stats.Round(d.High, 2),
	}
}

func (e *Engine) attribution(holdings []Holding) (out []Attribution) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn().Str("metric", "performance_attribution").Str("panic", fmt.Sprint(r)).Msg("metric failed, using fallback")
			out = []Attribution{}
		}
	}()
	return PerformanceAttribution(holdings)
}
