// Package series turns holdings and their price histories into the return
// sequences the metrics engine consumes.
package series

import (
	"sort"
	"strings"

	"portfolioBot/internal/stats"
)

// Position is a fixed quantity of one asset.
type Position struct {
	Symbol   string
	Quantity float64
}

// Result holds the built series. Any field may be empty.
type Result struct {
	AssetReturns map[string][]float64
	Values       []float64 // portfolio value per aligned index
	Returns      []float64 // portfolio returns derived from Values
}

// Build computes per-asset returns, the portfolio value series and the
// portfolio returns. history maps upper-case symbol to time-ordered closes.
// Histories of different lengths are aligned on the shortest trailing
// window; assets without history do not take part in the alignment.
func Build(positions []Position, history map[string][]float64) Result {
	res := Result{
		AssetReturns: map[string][]float64{},
		Values:       []float64{},
		Returns:      []float64{},
	}
	if len(positions) == 0 {
		return res
	}

	window := 0
	for _, p := range positions {
		prices := history[strings.ToUpper(p.Symbol)]
		res.AssetReturns[strings.ToUpper(p.Symbol)] = stats.Returns(prices)
		if len(prices) == 0 {
			continue
		}
		if window == 0 || len(prices) < window {
			window = len(prices)
		}
	}
	if window == 0 {
		return res
	}

	// stable order so float summation is deterministic
	ordered := make([]Position, len(positions))
	copy(ordered, positions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Symbol < ordered[j].Symbol })

	values := make([]float64, window)
	for _, p := range ordered {
		prices := Tail(history[strings.ToUpper(p.Symbol)], window)
		if len(prices) != window {
			continue
		}
		for i, price := range prices {
			if price <= 0 || !stats.Finite(price) {
				continue
			}
			values[i] += p.Quantity * price
		}
	}
	res.Values = values
	res.Returns = stats.Returns(values)
	return res
}

// Tail returns the last n elements of x (all of x when shorter).
func Tail(x []float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	if len(x) <= n {
		return x
	}
	return x[len(x)-n:]
}

// Align trims two series to their common trailing window.
func Align(a, b []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return Tail(a, n), Tail(b, n)
}
