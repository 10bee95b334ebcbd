// Package stats holds the numeric primitives the metrics engine is built
// from. All functions accept empty input and return 0 rather than NaN.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean is the arithmetic mean.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Variance is the population variance (divides by n).
func Variance(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.PopVariance(x, nil)
}

// StdDev is the population standard deviation.
func StdDev(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.PopStdDev(x, nil)
}

// Covariance is the population covariance of two equal-length series.
// Mismatched or empty input yields 0.
func Covariance(x, y []float64) float64 {
	n := len(x)
	if n == 0 || n != len(y) {
		return 0
	}
	if n == 1 {
		return 0
	}
	// gonum normalises by n-1
	return stat.Covariance(x, y, nil) * float64(n-1) / float64(n)
}

// PercentileAt returns sorted[floor(p*n)] clamped to the slice bounds.
// sorted must be in ascending order.
func PercentileAt(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(p * float64(n)))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Returns converts a price series into simple period returns,
// r[i] = (p[i] - p[i-1]) / p[i-1]. Points whose prior price is zero or
// whose return is not finite are skipped.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			continue
		}
		r := (prices[i] - prev) / prev
		if !Finite(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Finite reports whether v is neither NaN nor ±Inf.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
