package metrics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"portfolioBot/internal/series"
	"portfolioBot/internal/stats"
)

const (
	TradingDays   = 365 // crypto trades every day
	RiskFreeRate  = 0.05
	VaRConfidence = 0.05
	MinVaRPoints  = 10

	// benchmark variance below this is treated as zero
	varianceEpsilon = 1e-15
)

var (
	ErrDivideByZero = errors.New("division by zero")
	ErrNonPositive  = errors.New("non-positive value")
)

// Volatility is the annualised standard deviation of returns, in percent.
func Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return FallbackVolatility
	}
	return stats.StdDev(returns) * math.Sqrt(TradingDays) * 100
}

func annualizedMean(returns []float64) float64 {
	return stats.Mean(returns) * TradingDays
}

// SharpeRatio is (annualised mean return - risk free rate) / annualised volatility.
func SharpeRatio(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return FallbackSharpe, nil
	}
	vol := Volatility(returns) / 100
	if vol == 0 {
		return FallbackSharpe, fmt.Errorf("sharpe: zero volatility: %w", ErrDivideByZero)
	}
	return (annualizedMean(returns) - RiskFreeRate) / vol, nil
}

// SortinoRatio divides excess return by the annualised deviation of the
// negative returns only. Without losses the ratio is reported as 2.0.
// Fewer than two returns count as no data. Losses that do not deviate
// (a single loss, or identical ones) leave nothing to divide by.
func SortinoRatio(returns []float64) (float64, error) {
	if len(returns) < 2 {
		return FallbackSortino, nil
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return FallbackSortinoNoLosses, nil
	}
	dd := stats.StdDev(downside) * math.Sqrt(TradingDays)
	if dd == 0 {
		return FallbackSortino, fmt.Errorf("sortino: %d losses without deviation: %w", len(downside), ErrDivideByZero)
	}
	return (annualizedMean(returns) - RiskFreeRate) / dd, nil
}

// Beta is cov(portfolio, benchmark) / var(benchmark) over the common
// trailing window of both series.
func Beta(portfolio, benchmark []float64) (float64, error) {
	p, b := series.Align(portfolio, benchmark)
	if len(p) < 2 {
		return FallbackBeta, nil
	}
	v := stats.Variance(b)
	if v < varianceEpsilon {
		return FallbackBeta, fmt.Errorf("beta: benchmark variance %g: %w", v, ErrDivideByZero)
	}
	return stats.Covariance(p, b) / v, nil
}

// MaxDrawdown is the largest peak-to-trough decline of a value series, in percent.
func MaxDrawdown(values []float64) (float64, error) {
	if len(values) < 2 {
		return FallbackMaxDrawdown, nil
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			return FallbackMaxDrawdown, fmt.Errorf("max drawdown: peak %g: %w", peak, ErrNonPositive)
		}
		if dd := (peak - v) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst, nil
}

// ValueAtRisk is the historical 5% VaR: the absolute return at index
// floor(0.05*n) of the ascending returns, in percent.
func ValueAtRisk(returns []float64) float64 {
	if len(returns) < MinVaRPoints {
		return FallbackVaR
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	return math.Abs(stats.PercentileAt(sorted, VaRConfidence)) * 100
}
