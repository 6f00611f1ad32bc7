package gdx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRaster[T Number](t *testing.T, md Metadata, data []T) *Raster[T] {
	t.Helper()
	r, err := RasterFromData[T](md, data)
	require.NoError(t, err)
	return r
}

func TestAddPropagatesNodata(t *testing.T) {
	md := NewMetadata(1, 3, 0, 0, 1, 1).WithNodata(-9999)
	a := mustRaster[int32](t, md, []int32{1, 2, -9999})
	b := mustRaster[int32](t, md, []int32{10, -9999, 30})

	out, err := Add(a, b)
	require.NoError(t, err)
	assert.EqualValues(t, 11, out.GetIndex(0))
	assert.True(t, out.IsNodataIndex(1))
	assert.True(t, out.IsNodataIndex(2))
}

func TestSubAndMul(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1)
	a := mustRaster[int32](t, md, []int32{5, 6})
	b := mustRaster[int32](t, md, []int32{2, 3})

	sub, err := Sub(a, b)
	require.NoError(t, err)
	assert.EqualValues(t, 3, sub.GetIndex(0))
	assert.EqualValues(t, 3, sub.GetIndex(1))

	mul, err := Mul(a, b)
	require.NoError(t, err)
	assert.EqualValues(t, 10, mul.GetIndex(0))
	assert.EqualValues(t, 18, mul.GetIndex(1))
}

func TestDivByZeroIsNodata(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1)
	a := mustRaster[int32](t, md, []int32{10, 5})
	b := mustRaster[int32](t, md, []int32{2, 0})

	out, err := Div(a, b)
	require.NoError(t, err)
	assert.Equal(t, 5.0, out.GetIndex(0))
	assert.True(t, out.IsNodataIndex(1))
	assert.True(t, out.HasNodata)
}

func TestShapeMismatchIsInvalidArgument(t *testing.T) {
	a := mustRaster[int32](t, NewMetadata(1, 2, 0, 0, 1, 1), []int32{1, 2})
	b := mustRaster[int32](t, NewMetadata(1, 3, 0, 0, 1, 1), []int32{1, 2, 3})

	_, err := Add(a, b)
	assert.Error(t, err)
}

func TestCompareProducesU8WithNodataSentinel(t *testing.T) {
	md := NewMetadata(1, 3, 0, 0, 1, 1).WithNodata(-9999)
	a := mustRaster[int32](t, md, []int32{1, 2, -9999})
	b := mustRaster[int32](t, md, []int32{0, 2, 5})

	out, err := Compare(a, b, func(x, y int32) bool { return x > y })
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.GetIndex(0))
	assert.EqualValues(t, 0, out.GetIndex(1))
	assert.EqualValues(t, 255, out.GetIndex(2))
	assert.EqualValues(t, 255, out.Nodata)
}

func TestAddAssign(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1)
	a := mustRaster[int32](t, md, []int32{1, 2})
	b := mustRaster[int32](t, md, []int32{10, 20})

	require.NoError(t, a.AddAssign(b))
	assert.EqualValues(t, 11, a.GetIndex(0))
	assert.EqualValues(t, 22, a.GetIndex(1))
}

func TestAddOrAssignSeedsFromNodata(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1).WithNodata(-9999)
	acc, err := NewNodataRaster[int32](md)
	require.NoError(t, err)
	b := mustRaster[int32](t, md, []int32{5, -9999})

	require.NoError(t, acc.AddOrAssign(b))
	assert.EqualValues(t, 5, acc.GetIndex(0))
	assert.True(t, acc.IsNodataIndex(1), "AddOrAssign must leave a cell nodata when b is nodata there too")

	require.NoError(t, acc.AddOrAssign(b))
	assert.EqualValues(t, 10, acc.GetIndex(0), "second AddOrAssign should add into existing data")
}

func TestNegate(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1).WithNodata(-9999)
	r := mustRaster[int32](t, md, []int32{5, -9999})

	require.NoError(t, r.Negate())
	assert.EqualValues(t, -5, r.GetIndex(0))
	assert.True(t, r.IsNodataIndex(1), "Negate must not touch nodata cells")
}

func TestNegateUnsignedIsRuntimeError(t *testing.T) {
	r := mustRaster[uint8](t, NewMetadata(1, 1, 0, 0, 1, 1), []uint8{3})
	err := r.Negate()
	assert.Error(t, err)
}

func TestDivResultIsAlwaysFloat(t *testing.T) {
	md := NewMetadata(1, 1, 0, 0, 1, 1)
	a := mustRaster[uint8](t, md, []uint8{7})
	b := mustRaster[uint8](t, md, []uint8{2})
	out, err := Div(a, b)
	require.NoError(t, err)
	assert.Equal(t, 3.5, out.GetIndex(0))
	assert.False(t, math.IsNaN(out.GetIndex(0)))
}
