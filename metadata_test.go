package gdx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataEqual(t *testing.T) {
	a := NewMetadata(3, 4, 0, 0, 100, 100).WithNodata(-9999)
	b := NewMetadata(3, 4, 0, 0, 100, 100).WithNodata(-9999)
	assert.True(t, a.Equal(b))

	c := b
	c.Nodata = -1
	assert.False(t, a.Equal(c))

	d := b
	d.Rows = 4
	assert.False(t, a.Equal(d))

	e := b
	e.Projection = "EPSG:4326"
	assert.True(t, a.Equal(e), "Projection is not part of Equal")
}

func TestMetadataSize(t *testing.T) {
	md := NewMetadata(5, 10, 0, 0, 1, 1)
	assert.EqualValues(t, 50, md.Size())
}

func TestMetadataCellSize(t *testing.T) {
	md := NewMetadata(1, 1, 0, 0, 100, -100)
	sx, sy := md.CellSize()
	assert.Equal(t, 100.0, sx.Value())
	assert.Equal(t, -100.0, sy.Value())
}
