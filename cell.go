// Package gdx implements a two-dimensional raster value model: a dense,
// row-major grid of numeric cells carrying georeferencing metadata and
// nodata semantics, with element-wise arithmetic, comparison, and
// assignment operators over it. Spatial-analysis kernels (clustering,
// distance transforms, local-drain-direction hydrology, buffer
// aggregation, zonal distribution) live in the gdx/algo subpackage.
package gdx

import "fmt"

// Cell names a single row/column position in a raster. Row 0 is the top
// row, column 0 is the leftmost column.
type Cell struct {
	Row, Col int32
}

// NewCell is a convenience constructor for Cell.
func NewCell(row, col int32) Cell {
	return Cell{Row: row, Col: col}
}

// Index returns the flat row-major offset of c within a raster of the
// given column count.
func (c Cell) Index(cols int32) int64 {
	return int64(c.Row)*int64(cols) + int64(c.Col)
}

// CellAt converts a flat row-major offset back into a Cell, given the
// column count of the raster it indexes into.
func CellAt(index int64, cols int32) Cell {
	return Cell{
		Row: int32(index / int64(cols)),
		Col: int32(index % int64(cols)),
	}
}

// InBounds reports whether c names a valid cell in a raster of the given
// row and column count.
func (c Cell) InBounds(rows, cols int32) bool {
	return c.Row >= 0 && c.Row < rows && c.Col >= 0 && c.Col < cols
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Orthogonal returns the four 4-connected neighbours of c in N, E, S, W
// order. Callers are responsible for discarding neighbours that fall
// outside the raster bounds.
func (c Cell) Orthogonal() [4]Cell {
	return [4]Cell{
		{c.Row - 1, c.Col}, // N
		{c.Row, c.Col + 1}, // E
		{c.Row + 1, c.Col}, // S
		{c.Row, c.Col - 1}, // W
	}
}

// Diagonal returns the four diagonal neighbours of c in NE, SE, SW, NW
// order. Callers are responsible for discarding neighbours that fall
// outside the raster bounds.
func (c Cell) Diagonal() [4]Cell {
	return [4]Cell{
		{c.Row - 1, c.Col + 1}, // NE
		{c.Row + 1, c.Col + 1}, // SE
		{c.Row + 1, c.Col - 1}, // SW
		{c.Row - 1, c.Col - 1}, // NW
	}
}

// Neighbours8 returns all eight neighbours of c, orthogonal first, then
// diagonal, in the order N, E, S, W, NE, SE, SW, NW.
func (c Cell) Neighbours8() [8]Cell {
	o := c.Orthogonal()
	d := c.Diagonal()
	return [8]Cell{o[0], o[1], o[2], o[3], d[0], d[1], d[2], d[3]}
}

// IsDiagonalStep reports whether moving from c to other is a diagonal
// step (as opposed to orthogonal or non-adjacent).
func (c Cell) IsDiagonalStep(other Cell) bool {
	dr := c.Row - other.Row
	dc := c.Col - other.Col
	if dr < 0 {
		dr = -dr
	}
	if dc < 0 {
		dc = -dc
	}
	return dr == 1 && dc == 1
}
