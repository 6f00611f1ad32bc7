package algo

import (
	"testing"

	"github.com/ctessum/gdx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMax(t *testing.T) {
	a := i32Raster(t, 1, 3, []int32{1, 5, 3})
	b := i32Raster(t, 1, 3, []int32{4, 2, 3})

	min, err := Min[int32](a, b)
	require.NoError(t, err)
	assert.EqualValues(t, []int32{1, 2, 3}, min.Data())

	max, err := Max[int32](a, b)
	require.NoError(t, err)
	assert.EqualValues(t, []int32{4, 5, 3}, max.Data())
}

func TestSum(t *testing.T) {
	r := f64Raster(t, 1, 4, []float64{1, 2, 3, 4})
	assert.Equal(t, 10.0, Sum[float64](r))
}

func TestNormaliseClipsOutOfRange(t *testing.T) {
	r := i32Raster(t, 1, 3, []int32{-5, 50, 150})
	out, err := Normalise[int32](r, 0, 100, 0, 255)
	require.NoError(t, err)
	assert.EqualValues(t, 0, out.GetIndex(0), "below inMin clips to 0")
	assert.EqualValues(t, 128, out.GetIndex(1))
	assert.EqualValues(t, 0, out.GetIndex(2), "above inMax clips to 0, not clamped to outMax")
}

func TestReclassDefaultAndNodataFallback(t *testing.T) {
	r := i32Raster(t, 1, 3, []int32{1, 2, 3})
	table := map[int32]int32{1: 100, 2: 200}

	withDefault, err := Reclass(r, table, -1, true)
	require.NoError(t, err)
	assert.EqualValues(t, 100, withDefault.GetIndex(0))
	assert.EqualValues(t, -1, withDefault.GetIndex(2))

	withoutDefault, err := Reclass(r, table, 0, false)
	require.NoError(t, err)
	assert.True(t, withoutDefault.IsNodataIndex(2))
}

func TestMask(t *testing.T) {
	r := i32Raster(t, 1, 3, []int32{10, 20, 30})
	mask := rawU8Raster(t, 1, 3, []uint8{1, 0, 1})

	out, err := Mask(r, mask)
	require.NoError(t, err)
	assert.EqualValues(t, 10, out.GetIndex(0))
	assert.True(t, out.IsNodataIndex(1))
	assert.EqualValues(t, 30, out.GetIndex(2))
}

func TestConditional(t *testing.T) {
	a := f64Raster(t, 1, 3, []float64{1, 2, 3})
	b := f64Raster(t, 1, 3, []float64{10, 20, 30})
	out, err := Conditional("a + b", map[string]*gdx.Raster[float64]{"a": a, "b": b})
	require.NoError(t, err)
	assert.Equal(t, 11.0, out.GetIndex(0))
	assert.Equal(t, 22.0, out.GetIndex(1))
	assert.Equal(t, 33.0, out.GetIndex(2))
}

func TestConditionalRejectsNoInputs(t *testing.T) {
	_, err := Conditional("1 + 1", map[string]*gdx.Raster[float64]{})
	assert.Error(t, err)
}

func TestMajorityTieKeepsCentre(t *testing.T) {
	r := i32Raster(t, 1, 3, []int32{1, 2, 3})
	out, err := Majority[int32](r, Exclude)
	require.NoError(t, err)
	// centre cell (index 1) has neighbours 1 and 3, each appearing once,
	// plus its own value 2 once -- a three-way tie keeps the centre's value.
	assert.EqualValues(t, 2, out.GetIndex(1))
}

func TestBlurAveragesNeighbourhood(t *testing.T) {
	r := f64Raster(t, 3, 3, []float64{
		1, 1, 1,
		1, 1, 1,
		1, 1, 1,
	})
	out, err := Blur[float64](r, 100)
	require.NoError(t, err)
	for i := int64(0); i < out.Size(); i++ {
		assert.InDelta(t, 1.0, out.GetIndex(i), 1e-9, "blurring a uniform raster must reproduce its own value")
	}
}

func TestStats(t *testing.T) {
	r := f64Raster(t, 1, 4, []float64{1, 2, 3, 4})
	s := Stats[float64](r)
	assert.EqualValues(t, 4, s.Count)
	assert.Equal(t, 10.0, s.Sum)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
}
