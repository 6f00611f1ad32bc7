package gdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanGetSet(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1)
	buf := []int32{1, 2}
	s := NewSpan(md, buf, true)
	assert.EqualValues(t, 1, s.Get(NewCell(0, 0)))
	s.Set(NewCell(0, 1), 9)
	assert.EqualValues(t, 9, buf[1], "Set must write through to the backing buffer")
}

func TestSpanImmutableSetPanics(t *testing.T) {
	md := NewMetadata(1, 1, 0, 0, 1, 1)
	s := NewSpan(md, []int32{1}, false)
	assert.Panics(t, func() { s.Set(NewCell(0, 0), 2) })
}

func TestSpanIsNodata(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1).WithNodata(-9999)
	s := NewSpan(md, []int32{1, -9999}, false)
	assert.False(t, s.IsNodata(NewCell(0, 0)))
	assert.True(t, s.IsNodata(NewCell(0, 1)))
}

func TestSpanAsRasterIsACopy(t *testing.T) {
	md := NewMetadata(1, 2, 0, 0, 1, 1)
	buf := []int32{1, 2}
	s := NewSpan(md, buf, true)
	r := s.AsRaster()
	r.SetIndex(0, 100)
	assert.EqualValues(t, 1, buf[0], "AsRaster must copy, not alias, the span's buffer")
}

func TestRasterAsSpanAliasesData(t *testing.T) {
	r := mustRaster[int32](t, NewMetadata(1, 2, 0, 0, 1, 1), []int32{1, 2})
	s := r.AsSpan()
	assert.True(t, s.Mutable)
	s.Set(NewCell(0, 0), 77)
	assert.EqualValues(t, 77, r.GetIndex(0), "AsSpan must view the raster's own buffer")
}
