package gdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDenseWritesZeroForNodata(t *testing.T) {
	md := NewMetadata(1, 3, 0, 0, 1, 1).WithNodata(-9999)
	r := mustRaster[int32](t, md, []int32{1, -9999, 3})

	d := r.ToDense()
	assert.Equal(t, 1.0, d.Get(0, 0))
	assert.Equal(t, 0.0, d.Get(0, 1))
	assert.Equal(t, 3.0, d.Get(0, 2))
}

func TestFromDenseRoundTrip(t *testing.T) {
	md := NewMetadata(1, 3, 0, 0, 1, 1).WithNodata(-9999)
	r := mustRaster[int32](t, md, []int32{1, 2, 3})

	d := r.ToDense()
	back, err := FromDense(d, md)
	require.NoError(t, err)
	assert.EqualValues(t, 1, back.Rows)
	assert.EqualValues(t, 3, back.Cols)
	assert.Equal(t, 1.0, back.GetIndex(0))
	assert.Equal(t, 2.0, back.GetIndex(1))
	assert.Equal(t, 3.0, back.GetIndex(2))
}
