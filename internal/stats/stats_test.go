package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanVarianceStdDev(t *testing.T) {
	x := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, Mean(x), 1e-12)
	assert.InDelta(t, 4.0, Variance(x), 1e-12)
	assert.InDelta(t, 2.0, StdDev(x), 1e-12)
}

func TestEmptyInputs(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Variance(nil))
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, Covariance(nil, nil))
	assert.Equal(t, 0.0, PercentileAt(nil, 0.05))
	assert.Empty(t, Returns(nil))
	assert.Empty(t, Returns([]float64{100}))
}

func TestCovariance(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	y := []float64{2, 4, 6, 8}

	// sum((x-2.5)(y-5)) = 10, divided by n=4
	assert.InDelta(t, 2.5, Covariance(x, y), 1e-12)
	assert.InDelta(t, Variance(x), Covariance(x, x), 1e-12)
	assert.Equal(t, 0.0, Covariance(x, y[:3]))
	assert.Equal(t, 0.0, Covariance([]float64{1}, []float64{1}))
}

func TestPercentileAt(t *testing.T) {
	sorted := make([]float64, 20)
	for i := range sorted {
		sorted[i] = float64(i)
	}
	assert.Equal(t, 1.0, PercentileAt(sorted, 0.05))
	assert.Equal(t, 0.0, PercentileAt(sorted, 0))
	assert.Equal(t, 19.0, PercentileAt(sorted, 1))
	assert.Equal(t, 0.0, PercentileAt(sorted[:10], 0.05))
}

func TestReturns(t *testing.T) {
	r := Returns([]float64{100, 110, 99})
	assert.Len(t, r, 2)
	assert.InDelta(t, 0.10, r[0], 1e-12)
	assert.InDelta(t, -0.10, r[1], 1e-12)

	// zero prior price cannot produce a return
	r = Returns([]float64{0, 10, 20})
	assert.Equal(t, []float64{1.0}, r)
}

func TestFiniteAndRound(t *testing.T) {
	assert.True(t, Finite(1.5))
	assert.False(t, Finite(math.NaN()))
	assert.False(t, Finite(math.Inf(-1)))
	assert.Equal(t, 1.23, Round(1.234, 2))
	assert.Equal(t, 0.4800, Round(0.47999999, 4))
}
