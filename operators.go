package gdx

import (
	"fmt"
	"math"

	"github.com/ctessum/gdx/gdxerr"
	"github.com/ctessum/gdx/internal/workerpool"
)

// deriveMetadata implements the derived-metadata rules of spec §3 for a
// binary element-wise kernel whose inputs share element type T (the
// case every kernel in this package and gdx/algo hits directly; Handle
// in handle.go also requires equal Kinds and returns InvalidArgument
// on a mismatch, so no cross-type promotion reaches this function).
// Geographic fields come from left; a shape mismatch is
// InvalidArgument.
func deriveMetadata(left, right Metadata) (Metadata, error) {
	if left.Rows != right.Rows || left.Cols != right.Cols {
		return Metadata{}, fmt.Errorf("gdx: %w: shape mismatch %dx%d vs %dx%d", gdxerr.InvalidArgument, left.Rows, left.Cols, right.Rows, right.Cols)
	}
	out := left
	switch {
	case left.HasNodata && right.HasNodata:
		out.HasNodata = true
		out.Nodata = left.Nodata
	case left.HasNodata:
		out.HasNodata = true
		out.Nodata = left.Nodata
	case right.HasNodata:
		out.HasNodata = true
		out.Nodata = right.Nodata
	default:
		out.HasNodata = false
	}
	return out, nil
}

func combine2[T Number](a, b *Raster[T], op func(x, y T) T) (*Raster[T], error) {
	md, err := deriveMetadata(a.Metadata, b.Metadata)
	if err != nil {
		return nil, err
	}
	out, err := newEmptyRaster[T](md)
	if err != nil {
		return nil, err
	}
	nodataOut := out.nodataValue()
	workerpool.Run(len(a.data), func(i int) {
		switch {
		case a.isNodataIndex(int64(i)) || b.isNodataIndex(int64(i)):
			out.data[i] = nodataOut
		default:
			out.data[i] = op(a.data[i], b.data[i])
		}
	})
	return out, nil
}

// Add returns the element-wise sum a+b (spec §4.1 binary arithmetic):
// nodata if either input is nodata at that cell, otherwise a+b.
//
// SIMD contract: this loop may be vectorised for any T whose width
// divides the machine's vector width; the observable result must equal
// this scalar definition exactly.
func Add[T Number](a, b *Raster[T]) (*Raster[T], error) {
	return combine2(a, b, func(x, y T) T { return x + y })
}

// Sub returns the element-wise difference a-b.
func Sub[T Number](a, b *Raster[T]) (*Raster[T], error) {
	return combine2(a, b, func(x, y T) T { return x - y })
}

// Mul returns the element-wise product a*b.
func Mul[T Number](a, b *Raster[T]) (*Raster[T], error) {
	return combine2(a, b, func(x, y T) T { return x * y })
}

// Div returns the element-wise quotient a/b as a float64 raster (spec
// §3 rule 3: divisions always produce a float result). A zero divisor
// yields nodata at that cell (NaN), independent of whether nodata is
// otherwise tracked for the output; the SIMD contract requires
// divide-by-zero lanes to be masked to nodata identically to the
// scalar path.
func Div[T Number](a, b *Raster[T]) (*Raster[float64], error) {
	md, err := deriveMetadata(a.Metadata, b.Metadata)
	if err != nil {
		return nil, err
	}
	md.HasNodata = true
	md.Nodata = math.NaN()
	out, err := newEmptyRaster[float64](md)
	if err != nil {
		return nil, err
	}
	workerpool.Run(len(a.data), func(i int) {
		switch {
		case a.isNodataIndex(int64(i)) || b.isNodataIndex(int64(i)):
			out.data[i] = math.NaN()
		case float64(b.data[i]) == 0:
			out.data[i] = math.NaN()
		default:
			out.data[i] = float64(a.data[i]) / float64(b.data[i])
		}
	})
	return out, nil
}

// Compare applies cmp element-wise and returns a u8 raster of 0/1,
// using 255 as the output nodata sentinel wherever either input is
// nodata at that cell (spec §4.1).
func Compare[T Number](a, b *Raster[T], cmp func(x, y T) bool) (*Raster[uint8], error) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("gdx: Compare: %w: shape mismatch %dx%d vs %dx%d", gdxerr.InvalidArgument, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	md := a.Metadata
	md.HasNodata = true
	md.Nodata = 255
	out, err := newEmptyRaster[uint8](md)
	if err != nil {
		return nil, err
	}
	workerpool.Run(len(a.data), func(i int) {
		switch {
		case a.isNodataIndex(int64(i)) || b.isNodataIndex(int64(i)):
			out.data[i] = 255
		case cmp(a.data[i], b.data[i]):
			out.data[i] = 1
		default:
			out.data[i] = 0
		}
	})
	return out, nil
}

// AddAssign implements a += b in place (spec §4.1 compound assignment):
// if a is nodata and b is data at a cell, the result stays nodata; if
// either is nodata the result is nodata.
func (r *Raster[T]) AddAssign(b *Raster[T]) error {
	return r.compoundAssign(b, func(x, y T) T { return x + y })
}

// SubAssign implements a -= b in place, with the same nodata rule as
// AddAssign.
func (r *Raster[T]) SubAssign(b *Raster[T]) error {
	return r.compoundAssign(b, func(x, y T) T { return x - y })
}

// MulAssign implements a *= b in place, with the same nodata rule as
// AddAssign.
func (r *Raster[T]) MulAssign(b *Raster[T]) error {
	return r.compoundAssign(b, func(x, y T) T { return x * y })
}

func (r *Raster[T]) compoundAssign(b *Raster[T], op func(x, y T) T) error {
	if r.Rows != b.Rows || r.Cols != b.Cols {
		return fmt.Errorf("gdx: compound assignment: %w: shape mismatch %dx%d vs %dx%d", gdxerr.InvalidArgument, r.Rows, r.Cols, b.Rows, b.Cols)
	}
	workerpool.Run(len(r.data), func(i int) {
		if r.isNodataIndex(int64(i)) || b.isNodataIndex(int64(i)) {
			if r.HasNodata {
				r.data[i] = r.nodataValue()
			}
			return
		}
		r.data[i] = op(r.data[i], b.data[i])
	})
	return nil
}

// AddOrAssign implements the accumulator-building variant named in spec
// §4.1: where the left side is nodata, the cell becomes b's value
// (rather than staying nodata); where both sides are data, it adds as
// usual. Used to build up sums from an initially-all-nodata raster.
func (r *Raster[T]) AddOrAssign(b *Raster[T]) error {
	if r.Rows != b.Rows || r.Cols != b.Cols {
		return fmt.Errorf("gdx: AddOrAssign: %w: shape mismatch %dx%d vs %dx%d", gdxerr.InvalidArgument, r.Rows, r.Cols, b.Rows, b.Cols)
	}
	workerpool.Run(len(r.data), func(i int) {
		if b.isNodataIndex(int64(i)) {
			return
		}
		if r.isNodataIndex(int64(i)) {
			r.data[i] = b.data[i]
		} else {
			r.data[i] += b.data[i]
		}
	})
	return nil
}

// Negate negates every cell in place, preserving nodata cells. It is a
// RuntimeError to call Negate on an unsigned element type (spec §4.1).
func (r *Raster[T]) Negate() error {
	if r.kind == KindU8 || r.kind == KindU16 || r.kind == KindU32 {
		return fmt.Errorf("gdx: Negate: %w: cannot negate unsigned element type %s", gdxerr.RuntimeError, r.kind)
	}
	workerpool.Run(len(r.data), func(i int) {
		if r.isNodataIndex(int64(i)) {
			return
		}
		r.data[i] = -r.data[i]
	})
	return nil
}
