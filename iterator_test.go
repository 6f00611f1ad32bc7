package gdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllVisitsEveryCellAndMutates(t *testing.T) {
	r := mustRaster[int32](t, NewMetadata(2, 2, 0, 0, 1, 1), []int32{1, 2, 3, 4})
	count := 0
	r.All(func(c Cell, v *int32) {
		count++
		*v *= 10
	})
	assert.Equal(t, 4, count)
	assert.EqualValues(t, 10, r.GetIndex(0))
	assert.EqualValues(t, 40, r.GetIndex(3))
}

func TestDataSkipsNodata(t *testing.T) {
	md := NewMetadata(1, 3, 0, 0, 1, 1).WithNodata(-9999)
	r := mustRaster[int32](t, md, []int32{1, -9999, 3})
	var seen []int32
	r.Data(func(c Cell, v int32) { seen = append(seen, v) })
	assert.Equal(t, []int32{1, 3}, seen)
}

func TestOptionalSetAndReset(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1).WithNodata(-9999)
	r := mustRaster[int32](t, md, []int32{1, -9999})
	r.Optional(func(p ValueProxy[int32]) {
		switch p.Cell().Col {
		case 0:
			assert.True(t, p.HasValue())
			p.Reset()
		case 1:
			assert.True(t, p.IsNodata())
			p.Set(7)
		}
	})
	assert.True(t, r.IsNodataIndex(0))
	assert.EqualValues(t, 7, r.GetIndex(1))
}

func TestCellsVisitsRowMajor(t *testing.T) {
	var got []Cell
	Cells(2, 2, func(c Cell) { got = append(got, c) })
	assert.Equal(t, []Cell{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, got)
}

func TestSubAreaClipsToBounds(t *testing.T) {
	r := mustRaster[int32](t, NewMetadata(3, 3, 0, 0, 1, 1), make([]int32, 9))
	var got []Cell
	r.SubArea(NewCell(2, 2), 5, 5, func(c Cell) { got = append(got, c) })
	assert.Equal(t, []Cell{{2, 2}}, got)
}

func TestSubAreaNegativeTopLeftClips(t *testing.T) {
	r := mustRaster[int32](t, NewMetadata(3, 3, 0, 0, 1, 1), make([]int32, 9))
	var got []Cell
	r.SubArea(NewCell(-1, -1), 2, 2, func(c Cell) { got = append(got, c) })
	assert.Equal(t, []Cell{{0, 0}}, got)
}
