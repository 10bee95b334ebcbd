package finance

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// IQR fence applied to every fetched series.
const (
	iqrFence     = 1.5
	iqrMinPoints = 20
)

// cleanSeries drops missing bars and then price spikes.
func cleanSeries(ts []int64, cl []float64) ([]int64, []float64) {
	ts, cl = filterPositive(ts, cl)
	return filterIQR(ts, cl, iqrFence, iqrMinPoints)
}

// filterPositive drops points whose close is zero, negative or not finite.
// Yahoo reports missing bars as null, which decodes to 0.
func filterPositive(ts []int64, cl []float64) ([]int64, []float64) {
	return keepWhere(ts, cl, func(v float64) bool {
		return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
	})
}

// filterIQR keeps closes inside [Q1 - k*IQR, Q3 + k*IQR]. Series shorter
// than minPoints, flat series, and filters that would discard more than
// half of minPoints leave the input unchanged.
func filterIQR(ts []int64, cl []float64, k float64, minPoints int) ([]int64, []float64) {
	ts, cl = alignLengths(ts, cl)
	if len(cl) < minPoints {
		return ts, cl
	}
	sorted := append([]float64(nil), cl...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	spread := q3 - q1
	if spread <= 0 {
		return ts, cl
	}
	lo, hi := q1-k*spread, q3+k*spread

	outTs, outCl := keepWhere(ts, cl, func(v float64) bool { return v >= lo && v <= hi })
	if len(outCl) < minPoints/2 {
		return ts, cl
	}
	return outTs, outCl
}

func keepWhere(ts []int64, cl []float64, keep func(float64) bool) ([]int64, []float64) {
	ts, cl = alignLengths(ts, cl)
	outTs := make([]int64, 0, len(ts))
	outCl := make([]float64, 0, len(cl))
	for i, v := range cl {
		if keep(v) {
			outTs = append(outTs, ts[i])
			outCl = append(outCl, v)
		}
	}
	return outTs, outCl
}

func alignLengths(ts []int64, cl []float64) ([]int64, []float64) {
	n := min(len(ts), len(cl))
	return ts[:n], cl[:n]
}
