package gdx

// ValueProxy is the handle yielded by optional-value iteration (spec
// §4.2): a view onto a single cell that exposes whether it currently
// carries data, returns its stored T through Value, and can transition
// the cell between data and nodata.
type ValueProxy[T Number] struct {
	r   *Raster[T]
	idx int64
}

// HasValue reports whether the proxy's cell currently carries data (the
// negation of IsNodata).
func (p ValueProxy[T]) HasValue() bool {
	return !p.r.isNodataIndex(p.idx)
}

// IsNodata reports whether the proxy's cell is nodata.
func (p ValueProxy[T]) IsNodata() bool {
	return p.r.isNodataIndex(p.idx)
}

// Value returns the proxy's raw stored value (the implicit-conversion
// role of the original C++ proxy type).
func (p ValueProxy[T]) Value() T {
	return p.r.data[p.idx]
}

// Set assigns value to the proxy's cell and marks it as data.
func (p ValueProxy[T]) Set(value T) {
	p.r.data[p.idx] = value
}

// Reset marks the proxy's cell as nodata.
func (p ValueProxy[T]) Reset() {
	p.r.data[p.idx] = p.r.nodataValue()
}

// Cell returns the cell coordinate the proxy refers to.
func (p ValueProxy[T]) Cell() Cell {
	return CellAt(p.idx, p.r.Cols)
}
