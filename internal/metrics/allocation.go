package metrics

import (
	"errors"
	"sort"
	"strings"

	"portfolioBot/internal/stats"
)

// TopAttributions bounds the performance attribution list.
const TopAttributions = 5

var ErrNoValue = errors.New("portfolio has no positive value")

// Holding is a priced position as the engine sees it.
type Holding struct {
	Symbol    string
	Value     float64 // quantity * current price
	Change24h float64 // percent
}

var stablecoins = map[string]bool{
	"USDT": true, "USDC": true, "DAI": true, "BUSD": true, "TUSD": true,
	"USDP": true, "FDUSD": true, "PYUSD": true, "USDD": true, "GUSD": true,
}

// Risk buckets.
const (
	BucketLow    = "low"
	BucketMedium = "medium"
	BucketHigh   = "high"
)

// NormalizeSymbol upper-cases a symbol and strips a quote suffix like -USD.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.TrimSuffix(s, "-USD")
}

// RiskBucket classifies a symbol: stablecoins are low risk, BTC and ETH
// medium, everything else high.
func RiskBucket(symbol string) string {
	s := NormalizeSymbol(symbol)
	switch {
	case stablecoins[s]:
		return BucketLow
	case s == "BTC" || s == "ETH":
		return BucketMedium
	default:
		return BucketHigh
	}
}

func totalValue(holdings []Holding) float64 {
	total := 0.0
	for _, h := range holdings {
		total += h.Value
	}
	return total
}

// Weights returns each holding's share of total value, in input order.
func Weights(holdings []Holding) ([]float64, error) {
	total := totalValue(holdings)
	if total <= 0 || !stats.Finite(total) {
		return nil, ErrNoValue
	}
	w := make([]float64, len(holdings))
	for i, h := range holdings {
		w[i] = h.Value / total
	}
	return w, nil
}

// HHI is the Herfindahl-Hirschman index of fractional weights (0..1].
func HHI(weights []float64) float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w * w
	}
	return sum
}

// ConcentrationIndex is sum((w*100)^2) scaled back to 0..100, i.e. HHI*100.
// A single-asset portfolio scores 100.
func ConcentrationIndex(holdings []Holding) (float64, error) {
	w, err := Weights(holdings)
	if err != nil {
		return FallbackConcentration, err
	}
	return HHI(w) * 100, nil
}

// DiversificationRatio is 1 - HHI. A lone holding reports 0.3.
func DiversificationRatio(holdings []Holding) (float64, error) {
	if len(holdings) == 1 {
		return SingleHoldingDivRatio, nil
	}
	if len(holdings) == 0 {
		return FallbackDiversification, ErrNoValue
	}
	w, err := Weights(holdings)
	if err != nil {
		return FallbackDiversification, err
	}
	return 1 - HHI(w), nil
}

// Distribution buckets holding value into low/medium/high risk, in percent.
func Distribution(holdings []Holding) (RiskDistribution, error) {
	total := totalValue(holdings)
	if total <= 0 || !stats.Finite(total) {
		return DefaultRiskDistribution, ErrNoValue
	}
	var d RiskDistribution
	for _, h := range holdings {
		pct := h.Value / total * 100
		switch RiskBucket(h.Symbol) {
		case BucketLow:
			d.Low += pct
		case BucketMedium:
			d.Medium += pct
		default:
			d.High += pct
		}
	}
	return d, nil
}

// PerformanceAttribution weights each holding's 24h change by its share of
// the portfolio and keeps the top contributors, largest first.
func PerformanceAttribution(holdings []Holding) []Attribution {
	total := totalValue(holdings)
	if total <= 0 || !stats.Finite(total) {
		return []Attribution{}
	}
	out := make([]Attribution, 0, len(holdings))
	for _, h := range holdings {
		weight := h.Value / total * 100
		out = append(out, Attribution{
			Symbol:       NormalizeSymbol(h.Symbol),
			Weight:       stats.Round(weight, 2),
			Return:       stats.Round(h.Change24h, 2),
			Contribution: stats.Round(weight*h.Change24h/100, 4),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Contribution > out[j].Contribution })
	if len(out) > TopAttributions {
		out = out[:TopAttributions]
	}
	return out
}
