package gdx

import "github.com/ctessum/sparse"

// ToDense copies r into a freshly allocated sparse.DenseArray (spec §3):
// the interop point for callers that want to hand a Raster's data to
// gonum or any other dense-matrix-oriented library in the ecosystem.
// Nodata cells are written as 0, matching sparse.DenseArray's lack of
// its own nodata concept.
func (r *Raster[T]) ToDense() *sparse.DenseArray {
	d := sparse.ZerosDense(int(r.Rows), int(r.Cols))
	for row := int32(0); row < r.Rows; row++ {
		for col := int32(0); col < r.Cols; col++ {
			c := NewCell(row, col)
			if r.HasNodata && r.IsNodata(c) {
				continue
			}
			d.Set(float64(r.Get(c)), int(row), int(col))
		}
	}
	return d
}

// FromDense builds a Raster[float64] from a sparse.DenseArray, which
// must be exactly 2-dimensional and shaped rows x cols. The result
// carries md's nodata/projection metadata but none of md's own shape,
// which is instead read off d.
func FromDense(d *sparse.DenseArray, md Metadata) (*Raster[float64], error) {
	shape := d.GetShape()
	md.Rows = int32(shape[0])
	md.Cols = int32(shape[1])
	out, err := NewRaster[float64](md, 0)
	if err != nil {
		return nil, err
	}
	for row := int32(0); row < md.Rows; row++ {
		for col := int32(0); col < md.Cols; col++ {
			out.Set(NewCell(row, col), d.Get(int(row), int(col)))
		}
	}
	return out, nil
}
