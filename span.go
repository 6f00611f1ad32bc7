package gdx

// Span is a non-owning view binding an external buffer to a Metadata,
// with the same element-access contract as Raster but without
// ownership: the caller that owns buf is responsible for its lifetime.
// Writing through a Span is allowed iff Mutable is true.
type Span[T Number] struct {
	Metadata
	buf     []T
	Mutable bool
	kind    Kind
}

// NewSpan binds buf (length rows*cols) to md. Mutable controls whether
// Set is permitted.
func NewSpan[T Number](md Metadata, buf []T, mutable bool) *Span[T] {
	return &Span[T]{Metadata: md, buf: buf, Mutable: mutable, kind: kindOf[T]()}
}

// Get returns the raw stored value at c.
func (s *Span[T]) Get(c Cell) T {
	return s.buf[c.Index(s.Cols)]
}

// Set writes value at c. Panics if the span is not Mutable, matching the
// original library's hard "writing through an immutable span is a
// programmer error" contract.
func (s *Span[T]) Set(c Cell, value T) {
	if !s.Mutable {
		panic("gdx: write through immutable span")
	}
	s.buf[c.Index(s.Cols)] = value
}

// IsNodata reports whether the cell at c is nodata, per the same rule as
// Raster.IsNodata.
func (s *Span[T]) IsNodata(c Cell) bool {
	if !s.HasNodata {
		return false
	}
	v := s.buf[c.Index(s.Cols)]
	if s.kind.isFloat() {
		f := float64(v)
		return f != f
	}
	return float64(v) == s.Nodata
}

// AsRaster copies the span's viewed data into a freshly owned Raster.
func (s *Span[T]) AsRaster() *Raster[T] {
	data := make([]T, len(s.buf))
	copy(data, s.buf)
	return &Raster[T]{Metadata: s.Metadata, kind: s.kind, data: data}
}

// AsSpan returns a mutable Span viewing r's own buffer. Writes through
// the span mutate r in place.
func (r *Raster[T]) AsSpan() *Span[T] {
	return &Span[T]{Metadata: r.Metadata, buf: r.data, Mutable: true, kind: r.kind}
}
