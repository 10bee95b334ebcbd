package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterPositive(t *testing.T) {
	ts, cl := filterPositive([]int64{1, 2, 3, 4, 5}, []float64{10, 0, -1, math.NaN(), 12})
	assert.Equal(t, []int64{1, 5}, ts)
	assert.Equal(t, []float64{10, 12}, cl)
}

func TestFilterPositive_MismatchedLengths(t *testing.T) {
	ts, cl := filterPositive([]int64{1, 2, 3}, []float64{10, 11})
	assert.Equal(t, []int64{1, 2}, ts)
	assert.Equal(t, []float64{10, 11}, cl)
}

func TestFilterIQR_DropsSpike(t *testing.T) {
	n := 25
	ts := make([]int64, n)
	cl := make([]float64, n)
	for i := range cl {
		ts[i] = int64(i)
		cl[i] = 100 + float64(i%5)
	}
	cl[12] = 10000

	outTs, outCl := filterIQR(ts, cl, 1.5, 20)
	assert.Len(t, outCl, n-1)
	assert.NotContains(t, outCl, 10000.0)
	assert.NotContains(t, outTs, int64(12))
}

func TestFilterIQR_ShortSeriesUntouched(t *testing.T) {
	cl := []float64{1, 2, 1000}
	_, out := filterIQR([]int64{1, 2, 3}, cl, 1.5, 20)
	assert.Equal(t, cl, out)
}
