package gdx

import (
	"testing"

	"github.com/ctessum/gdx/gdxerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleAsRoundTrip(t *testing.T) {
	r := mustRaster[int32](t, NewMetadata(1, 2, 0, 0, 1, 1), []int32{1, 2})
	h := NewHandle(r)
	assert.Equal(t, KindI32, h.Kind())

	got, ok := As[int32](h)
	require.True(t, ok)
	assert.Same(t, r, got)

	_, ok = As[float64](h)
	assert.False(t, ok)
}

func TestHandleAsF64PreservesNodata(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1).WithNodata(-9999)
	r := mustRaster[int32](t, md, []int32{7, -9999})
	h := NewHandle(r)

	f := h.AsF64()
	assert.Equal(t, 7.0, f.GetIndex(0))
	assert.True(t, f.IsNodataIndex(1))
}

func TestHandleSameKindArith(t *testing.T) {
	a := NewHandle(mustRaster[int32](t, NewMetadata(1, 2, 0, 0, 1, 1), []int32{1, 2}))
	b := NewHandle(mustRaster[int32](t, NewMetadata(1, 2, 0, 0, 1, 1), []int32{10, 20}))

	out, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, KindI32, out.Kind())
	got, ok := As[int32](out)
	require.True(t, ok)
	assert.EqualValues(t, 11, got.GetIndex(0))
	assert.EqualValues(t, 22, got.GetIndex(1))
}

// A Kind mismatch between a Handle's operands is a fatal argument
// error (spec §6), never an implicit promotion.
func TestHandleCrossKindArithIsInvalidArgument(t *testing.T) {
	a := NewHandle(mustRaster[uint8](t, NewMetadata(1, 1, 0, 0, 1, 1), []uint8{1}))
	b := NewHandle(mustRaster[int32](t, NewMetadata(1, 1, 0, 0, 1, 1), []int32{2}))

	_, err := a.Add(b)
	assert.ErrorIs(t, err, gdxerr.InvalidArgument)

	_, err = a.Sub(b)
	assert.ErrorIs(t, err, gdxerr.InvalidArgument)

	_, err = a.Mul(b)
	assert.ErrorIs(t, err, gdxerr.InvalidArgument)

	_, err = a.Div(b)
	assert.ErrorIs(t, err, gdxerr.InvalidArgument)

	_, err = a.Compare(b, func(x, y float64) bool { return x < y })
	assert.ErrorIs(t, err, gdxerr.InvalidArgument)
}

func TestHandleDivAlwaysF64(t *testing.T) {
	a := NewHandle(mustRaster[int32](t, NewMetadata(1, 1, 0, 0, 1, 1), []int32{7}))
	b := NewHandle(mustRaster[int32](t, NewMetadata(1, 1, 0, 0, 1, 1), []int32{2}))

	out, err := a.Div(b)
	require.NoError(t, err)
	assert.Equal(t, KindF64, out.Kind())
	assert.Equal(t, 3.5, out.AsF64().GetIndex(0))
}

// Cast idempotence (spec property 4): casting to the same Kind is a
// no-op, and casting away and back through a wider Kind recovers the
// original values for a value that fits exactly in both kinds.
func TestHandleCastIdempotence(t *testing.T) {
	r := mustRaster[int32](t, NewMetadata(1, 3, 0, 0, 1, 1), []int32{1, 2, 3})
	h := NewHandle(r)

	same := h.Cast(KindI32)
	assert.Equal(t, KindI32, same.Kind())
	got, ok := As[int32](same)
	require.True(t, ok)
	for i := int64(0); i < got.Size(); i++ {
		assert.Equal(t, r.GetIndex(i), got.GetIndex(i))
	}

	widened := h.Cast(KindF64)
	narrowed := widened.Cast(KindI32)
	backTo, ok := As[int32](narrowed)
	require.True(t, ok)
	for i := int64(0); i < backTo.Size(); i++ {
		assert.Equal(t, r.GetIndex(i), backTo.GetIndex(i))
	}
}

func TestHandleCastPreservesNodata(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1).WithNodata(-9999)
	r := mustRaster[int32](t, md, []int32{5, -9999})
	h := NewHandle(r)

	f64 := h.Cast(KindF64)
	got, ok := As[float64](f64)
	require.True(t, ok)
	assert.True(t, got.IsNodataIndex(1))
}

func TestHandleCompare(t *testing.T) {
	a := NewHandle(mustRaster[int32](t, NewMetadata(1, 2, 0, 0, 1, 1), []int32{1, 5}))
	b := NewHandle(mustRaster[int32](t, NewMetadata(1, 2, 0, 0, 1, 1), []int32{2, 3}))

	out, err := a.Compare(b, func(x, y float64) bool { return x < y })
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.GetIndex(0))
	assert.EqualValues(t, 0, out.GetIndex(1))
}
