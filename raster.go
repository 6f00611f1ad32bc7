package gdx

import (
	"fmt"
	"math"

	"github.com/ctessum/gdx/gdxerr"
)

// Raster owns a dense, row-major buffer of rows*cols cells of element
// type T plus its Metadata. It is the core value type of this package;
// every kernel in gdx/algo consumes one or more Rasters and a parameter
// struct and returns a freshly allocated Raster.
//
// Nodata representation: if T is floating and Metadata.HasNodata is
// set, nodata cells are stored as the IEEE quiet NaN in memory,
// regardless of Metadata.Nodata's user-facing value — IsNodata and
// every iterator honour this normalization. If T is integral, the
// sentinel in Metadata.Nodata is stored directly and must be exactly
// representable in T; NewRaster returns gdxerr.InvalidArgument
// otherwise.
type Raster[T Number] struct {
	Metadata
	data []T
	kind Kind
}

// NewRaster allocates a Raster of the given shape, filled with value,
// and records md's nodata sentinel. If md.HasNodata and T is integral,
// the sentinel must be exactly representable in T.
func NewRaster[T Number](md Metadata, value T) (*Raster[T], error) {
	r, err := newEmptyRaster[T](md)
	if err != nil {
		return nil, err
	}
	r.Fill(value)
	return r, nil
}

// NewNodataRaster allocates a Raster of the given shape with every cell
// initialized to nodata. md.HasNodata must be set.
func NewNodataRaster[T Number](md Metadata) (*Raster[T], error) {
	r, err := newEmptyRaster[T](md)
	if err != nil {
		return nil, err
	}
	if !md.HasNodata {
		return nil, fmt.Errorf("gdx: NewNodataRaster: %w: metadata has no nodata value set", gdxerr.InvalidArgument)
	}
	for i := range r.data {
		r.data[i] = r.nodataValue()
	}
	return r, nil
}

func newEmptyRaster[T Number](md Metadata) (*Raster[T], error) {
	if md.Rows < 0 || md.Cols < 0 {
		return nil, fmt.Errorf("gdx: NewRaster: %w: negative shape %dx%d", gdxerr.InvalidArgument, md.Rows, md.Cols)
	}
	r := &Raster[T]{Metadata: md, kind: kindOf[T]()}
	if md.HasNodata && !r.kind.isFloat() {
		if !fitsInteger(md.Nodata, r.kind) {
			return nil, fmt.Errorf("gdx: NewRaster: %w: nodata value %v does not fit element type %s", gdxerr.InvalidArgument, md.Nodata, r.kind)
		}
	}
	n := md.Size()
	data := make([]T, n)
	if data == nil && n > 0 {
		return nil, fmt.Errorf("gdx: NewRaster: %w", gdxerr.OutOfMemory)
	}
	r.data = data
	return r, nil
}

// RasterFromData builds a Raster directly from an already-populated
// row-major buffer, validating it the same way NewRaster validates a
// freshly allocated one (shape, nodata-fits-type) plus checking data's
// length matches md's shape. Used by gdxio drivers that decode a raw
// buffer off disk rather than filling cell-by-cell.
func RasterFromData[T Number](md Metadata, data []T) (*Raster[T], error) {
	r, err := newEmptyRaster[T](md)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != md.Size() {
		return nil, fmt.Errorf("gdx: RasterFromData: %w: data has %d elements, shape wants %d", gdxerr.InvalidArgument, len(data), md.Size())
	}
	r.data = data
	return r, nil
}

// kindOf returns the Kind tag of T, determined once via a zero-value
// type switch rather than reflection on every call.
func kindOf[T Number]() Kind {
	var z T
	switch any(z).(type) {
	case uint8:
		return KindU8
	case uint16:
		return KindU16
	case uint32:
		return KindU32
	case int16:
		return KindI16
	case int32:
		return KindI32
	case int64:
		return KindI64
	case float32:
		return KindF32
	default:
		return KindF64
	}
}

// Kind returns r's runtime element-type tag.
func (r *Raster[T]) Kind() Kind { return r.kind }

// nodataValue returns the in-memory sentinel for nodata cells: NaN for
// floating T, the user-facing sentinel cast to T for integral T.
func (r *Raster[T]) nodataValue() T {
	if r.kind.isFloat() {
		return T(math.NaN())
	}
	return T(r.Nodata)
}

// Data returns the underlying row-major buffer. Mutating it writes the
// raster's cells directly, exactly as Set does; callers that want to
// mark nodata should use SetNodata, and FillValues to skip nodata cells.
func (r *Raster[T]) Data() []T { return r.data }

// Len returns the number of cells in the raster (rows*cols).
func (r *Raster[T]) Len() int { return len(r.data) }

// Get returns the raw stored value at c without any nodata translation.
func (r *Raster[T]) Get(c Cell) T {
	return r.data[c.Index(r.Cols)]
}

// GetIndex returns the raw stored value at flat offset i.
func (r *Raster[T]) GetIndex(i int64) T {
	return r.data[i]
}

// Set writes value at c as-is, with no nodata translation: for integral
// T, writing the sentinel value makes the cell nodata; to explicitly
// mark a cell nodata in a floating raster, use SetNodata.
func (r *Raster[T]) Set(c Cell, value T) {
	r.data[c.Index(r.Cols)] = value
}

// SetIndex writes value at flat offset i.
func (r *Raster[T]) SetIndex(i int64, value T) {
	r.data[i] = value
}

// SetNodata marks the cell at c as nodata.
func (r *Raster[T]) SetNodata(c Cell) {
	r.data[c.Index(r.Cols)] = r.nodataValue()
}

// SetNodataIndex is SetNodata addressed by flat offset.
func (r *Raster[T]) SetNodataIndex(i int64) {
	r.data[i] = r.nodataValue()
}

// IsNodata reports whether the cell at c is nodata per spec §3: nodata
// is set AND (T integral and stored value equals the sentinel, OR T
// floating and the stored value is NaN).
func (r *Raster[T]) IsNodata(c Cell) bool {
	return r.isNodataIndex(c.Index(r.Cols))
}

// IsNodataIndex is IsNodata addressed by flat offset.
func (r *Raster[T]) IsNodataIndex(i int64) bool {
	return r.isNodataIndex(i)
}

func (r *Raster[T]) isNodataIndex(i int64) bool {
	if !r.HasNodata {
		return false
	}
	v := r.data[i]
	if r.kind.isFloat() {
		f := float64(v)
		return f != f // NaN check without importing math twice per call
	}
	return float64(v) == r.Nodata
}

// Fill writes value into every cell, including cells that are currently
// nodata (spec §4.1).
func (r *Raster[T]) Fill(value T) {
	for i := range r.data {
		r.data[i] = value
	}
}

// FillValues writes value only into cells that are not currently nodata
// (spec §4.1).
func (r *Raster[T]) FillValues(value T) {
	for i := range r.data {
		if !r.isNodataIndex(int64(i)) {
			r.data[i] = value
		}
	}
}

// CollapseData rewrites in-memory NaN nodata cells to the user-facing
// nodata sentinel, in place. Used before serialization (spec §4.1); a
// no-op for integral T, which already stores the sentinel directly.
func (r *Raster[T]) CollapseData() {
	if !r.HasNodata || !r.kind.isFloat() {
		return
	}
	sentinel := T(r.Nodata)
	for i, v := range r.data {
		f := float64(v)
		if f != f {
			r.data[i] = sentinel
		}
	}
}

// RestoreNaN is the inverse of CollapseData: rewrites cells holding the
// user-facing sentinel back to in-memory NaN. Used after loading raw
// data from a file (spec §3: "any ingestion of raw data must replace
// the user-facing nodata bit-pattern by NaN on load").
func (r *Raster[T]) RestoreNaN() {
	if !r.HasNodata || !r.kind.isFloat() {
		return
	}
	for i, v := range r.data {
		if float64(v) == r.Nodata {
			r.data[i] = T(math.NaN())
		}
	}
}

// Clone returns a deep copy of r.
func (r *Raster[T]) Clone() *Raster[T] {
	out := &Raster[T]{Metadata: r.Metadata, kind: r.kind, data: make([]T, len(r.data))}
	copy(out.data, r.data)
	return out
}

// CloneEmpty returns a new Raster with r's metadata and shape, allocated
// but not initialized (every cell zero-valued).
func (r *Raster[T]) CloneEmpty() *Raster[T] {
	return &Raster[T]{Metadata: r.Metadata, kind: r.kind, data: make([]T, len(r.data))}
}
