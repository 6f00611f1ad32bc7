package algo

import (
	"testing"

	"github.com/ctessum/gdx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lddRaster(t *testing.T, rows, cols int32, data []uint8) *gdx.Raster[uint8] {
	t.Helper()
	md := gdx.NewMetadata(rows, cols, 0, 0, 100, 100)
	r, err := gdx.RasterFromData[uint8](md, data)
	require.NoError(t, err)
	return r
}

// Accuflux literal scenario.
func TestAccufluxScenario(t *testing.T) {
	freight := f64Raster(t, 4, 4, []float64{
		1, 1, 1, 1,
		2, 3, 4, 5,
		1, 1, 1, 1,
		1, 1, 1, 1,
	})
	ldd := lddRaster(t, 4, 4, []uint8{
		2, 2, 2, 2,
		2, 2, 2, 2,
		3, 2, 1, 4,
		6, 5, 4, 4,
	})

	want := []float64{
		1, 1, 1, 1,
		3, 4, 5, 6,
		4, 5, 13, 7,
		1, 26, 2, 1,
	}

	out, err := Accuflux(ldd, freight)
	require.NoError(t, err)
	for i, w := range want {
		assert.InDelta(t, w, out.GetIndex(int64(i)), 1e-9, "cell %d", i)
	}
}

// Property 8: accuflux totals -- the output values at the pit cells sum
// to the total of the input amounts, since every cell drains into a pit
// and flux only moves mass downstream, it never creates or destroys it.
func TestAccufluxConservesTotal(t *testing.T) {
	freight := f64Raster(t, 4, 4, []float64{
		1, 1, 1, 1,
		2, 3, 4, 5,
		1, 1, 1, 1,
		1, 1, 1, 1,
	})
	ldd := lddRaster(t, 4, 4, []uint8{
		2, 2, 2, 2,
		2, 2, 2, 2,
		3, 2, 1, 4,
		6, 5, 4, 4,
	})

	out, err := Accuflux(ldd, freight)
	require.NoError(t, err)

	var inTotal, outTotal float64
	for i := int64(0); i < freight.Size(); i++ {
		inTotal += freight.GetIndex(i)
	}

	clean, err := ValidateLDD(ldd, LDDValidation{})
	require.NoError(t, err)
	require.True(t, clean)

	pits := 0
	for i := int64(0); i < ldd.Size(); i++ {
		if ldd.GetIndex(i) == LDDPit {
			pits++
			outTotal += out.GetIndex(i)
		}
	}
	assert.InDelta(t, inTotal, outTotal, 1e-9, "total freight must be conserved at the pit cells")
}

func TestValidateLDDDetectsFlowsOffMap(t *testing.T) {
	ldd := lddRaster(t, 1, 2, []uint8{1, 5}) // cell 0 flows SW, off the map
	var reported []gdx.Cell
	clean, err := ValidateLDD(ldd, LDDValidation{
		FlowsOffMap: func(c gdx.Cell) { reported = append(reported, c) },
	})
	require.NoError(t, err)
	assert.False(t, clean)
	assert.NotEmpty(t, reported)
}

func TestCatchmentAndFluxOrigin(t *testing.T) {
	ldd := lddRaster(t, 1, 3, []uint8{6, 5, 4}) // cell0 -> cell1(pit) <- cell2
	amount := f64Raster(t, 1, 3, []float64{1, 1, 1})

	catchment, err := Catchment(ldd, gdx.NewCell(0, 1))
	require.NoError(t, err)
	for i := int64(0); i < catchment.Size(); i++ {
		assert.EqualValues(t, 1, catchment.GetIndex(i), "every cell drains into the single pit")
	}

	origin, err := FluxOrigin(ldd, amount, gdx.NewCell(0, 1))
	require.NoError(t, err)
	var total float64
	for i := int64(0); i < origin.Size(); i++ {
		total += origin.GetIndex(i)
	}
	assert.InDelta(t, 3.0, total, 1e-9, "every catchment cell keeps its own amount; their sum is the target's accumulated flux")
}

func i32RasterNoNodata(t *testing.T, rows, cols int32, data []int32) *gdx.Raster[int32] {
	t.Helper()
	md := gdx.NewMetadata(rows, cols, 0, 0, 100, 100)
	r, err := gdx.RasterFromData[int32](md, data)
	require.NoError(t, err)
	return r
}

// Every cell carries the id of the first station met along its own
// downstream chain; cells whose chain never meets a station carry 0.
func TestLDDClusterFirstStationAlongDownstreamPath(t *testing.T) {
	ldd := lddRaster(t, 1, 4, []uint8{6, 6, 6, 5}) // 0 -> 1 -> 2 -> 3 (pit)
	stationID := i32RasterNoNodata(t, 1, 4, []int32{0, 0, 7, 0})

	out, err := LDDCluster(ldd, stationID)
	require.NoError(t, err)

	assert.EqualValues(t, 7, out.GetIndex(0), "cell 0 reaches the station at cell 2 first")
	assert.EqualValues(t, 7, out.GetIndex(1))
	assert.EqualValues(t, 7, out.GetIndex(2), "a station cell carries its own id")
	assert.EqualValues(t, 0, out.GetIndex(3), "the pit never reaches a station")
}

func TestLDDClusterNoStationReachedIsZero(t *testing.T) {
	ldd := lddRaster(t, 1, 2, []uint8{6, 5})
	stationID := i32RasterNoNodata(t, 1, 2, []int32{0, 0})

	out, err := LDDCluster(ldd, stationID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, out.GetIndex(0))
	assert.EqualValues(t, 0, out.GetIndex(1))
}

func TestMaxUpstreamDistAndSlopeLength(t *testing.T) {
	// 0 -> 1 -> 2 (pit), a straight 1x3 chain.
	ldd := lddRaster(t, 1, 3, []uint8{6, 6, 5})

	dist, err := MaxUpstreamDist(ldd)
	require.NoError(t, err)
	assert.Equal(t, 0.0, dist.GetIndex(0))
	assert.Equal(t, 1.0, dist.GetIndex(1))
	assert.Equal(t, 2.0, dist.GetIndex(2), "two unit orthogonal steps with no friction raster")

	friction := f64Raster(t, 1, 3, []float64{1, 10, 1})
	slope, err := SlopeLength(ldd, friction)
	require.NoError(t, err)
	assert.Equal(t, 0.0, slope.GetIndex(0))
	assert.Equal(t, 1.0, slope.GetIndex(1), "cost of entering cell 1 is friction[0]=1")
	assert.Equal(t, 11.0, slope.GetIndex(2), "cost of entering cell 2 is friction[1]=10, added to the 1 already accumulated")
}
