package algo

import (
	"testing"

	"github.com/ctessum/gdx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i32Raster(t *testing.T, rows, cols int32, data []int32) *gdx.Raster[int32] {
	t.Helper()
	md := gdx.NewMetadata(rows, cols, 0, 0, 100, 100)
	r, err := gdx.RasterFromData[int32](md, data)
	require.NoError(t, err)
	return r
}

// WeightedDistribution literal scenario.
func TestWeightedDistributionScenario(t *testing.T) {
	zones := i32Raster(t, 1, 5, []int32{1, 1, 1, 2, 2})
	weights := f64Raster(t, 1, 5, []float64{1, 2, 3, 4, 5})
	amounts := map[int32]float64{1: 60, 2: 90}

	out, err := WeightedDistribution(zones, weights, amounts, false)
	require.NoError(t, err)

	want := []float64{10, 20, 30, 40, 50}
	for i, w := range want {
		assert.InDelta(t, w, out.GetIndex(int64(i)), 1e-9, "cell %d", i)
	}
}

// Property 9: weighted_distribution conservation -- the sum redistributed
// within each zone equals that zone's input amount, within 1e-5 relative
// error.
func TestWeightedDistributionConservesPerZoneTotal(t *testing.T) {
	zones := i32Raster(t, 2, 3, []int32{
		1, 1, 2,
		2, 2, 3,
	})
	weights := f64Raster(t, 2, 3, []float64{
		1, 3, 2,
		0, 5, 1,
	})
	amounts := map[int32]float64{1: 40, 2: 100, 3: 7}

	out, err := WeightedDistribution(zones, weights, amounts, false)
	require.NoError(t, err)

	totals := map[int32]float64{}
	for i := int64(0); i < zones.Size(); i++ {
		z := zones.GetIndex(i)
		totals[z] += out.GetIndex(i)
	}
	for z, want := range amounts {
		got := totals[z]
		rel := (got - want) / want
		if rel < 0 {
			rel = -rel
		}
		assert.LessOrEqual(t, rel, 1e-5, "zone %d: want %v got %v", z, want, got)
	}
}

func TestWeightedDistributionZeroWeightFallsBackToEqualSplit(t *testing.T) {
	zones := i32Raster(t, 1, 3, []int32{1, 1, 1})
	weights := f64Raster(t, 1, 3, []float64{0, 0, 0})
	amounts := map[int32]float64{1: 9}

	out, err := WeightedDistribution(zones, weights, amounts, false)
	require.NoError(t, err)
	for i := int64(0); i < out.Size(); i++ {
		assert.InDelta(t, 3.0, out.GetIndex(i), 1e-9)
	}
}

func TestInflateAndDeflateEqualSumRoundTrip(t *testing.T) {
	r := f64Raster(t, 2, 2, []float64{4, 8, 12, 16})
	inflated, err := InflateEqualSum[float64](r, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 4, inflated.Rows)
	assert.EqualValues(t, 4, inflated.Cols)

	deflated, err := DeflateEqualSum[float64](inflated, 2)
	require.NoError(t, err)
	for i := int64(0); i < r.Size(); i++ {
		assert.InDelta(t, r.GetIndex(i), deflated.GetIndex(i), 1e-9)
	}
}

func TestInflateReplicatesValue(t *testing.T) {
	r := i32Raster(t, 1, 1, []int32{7})
	out, err := Inflate[int32](r, 3)
	require.NoError(t, err)
	for i := int64(0); i < out.Size(); i++ {
		assert.EqualValues(t, 7, out.GetIndex(i))
	}
}
