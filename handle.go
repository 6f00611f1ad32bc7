package gdx

import (
	"fmt"

	"github.com/ctessum/gdx/gdxerr"
)

// Handle is a type-erased raster: a closed sum type over the eight
// Raster[T] instantiations (spec §6). Go has no variant/union type, so
// this follows the teacher's own preference for a closed switch over a
// type tag rather than an interface{} bag (see the pollutant-index
// dispatch in the teacher's science/chem package) — a plain interface
// would let any type satisfy it, where Handle's tag is exhaustively
// matched in every method below.
type Handle struct {
	kind Kind
	u8   *Raster[uint8]
	u16  *Raster[uint16]
	u32  *Raster[uint32]
	i16  *Raster[int16]
	i32  *Raster[int32]
	i64  *Raster[int64]
	f32  *Raster[float32]
	f64  *Raster[float64]
}

// NewHandle wraps r as a Handle.
func NewHandle[T Number](r *Raster[T]) Handle {
	h := Handle{kind: r.kind}
	switch v := any(r).(type) {
	case *Raster[uint8]:
		h.u8 = v
	case *Raster[uint16]:
		h.u16 = v
	case *Raster[uint32]:
		h.u32 = v
	case *Raster[int16]:
		h.i16 = v
	case *Raster[int32]:
		h.i32 = v
	case *Raster[int64]:
		h.i64 = v
	case *Raster[float32]:
		h.f32 = v
	case *Raster[float64]:
		h.f64 = v
	}
	return h
}

// Kind returns the Handle's dynamic element-type tag.
func (h Handle) Kind() Kind { return h.kind }

// Metadata returns the wrapped raster's metadata.
func (h Handle) Metadata() Metadata {
	switch h.kind {
	case KindU8:
		return h.u8.Metadata
	case KindU16:
		return h.u16.Metadata
	case KindU32:
		return h.u32.Metadata
	case KindI16:
		return h.i16.Metadata
	case KindI32:
		return h.i32.Metadata
	case KindI64:
		return h.i64.Metadata
	case KindF32:
		return h.f32.Metadata
	default:
		return h.f64.Metadata
	}
}

// As returns the Raster[T] wrapped by h, and false if h's dynamic Kind
// is not T's. Used by gdxio drivers and any other caller that needs to
// recover a concrete Raster after a round trip through Handle.
func As[T Number](h Handle) (*Raster[T], bool) {
	var v any
	switch h.kind {
	case KindU8:
		v = h.u8
	case KindU16:
		v = h.u16
	case KindU32:
		v = h.u32
	case KindI16:
		v = h.i16
	case KindI32:
		v = h.i32
	case KindI64:
		v = h.i64
	case KindF32:
		v = h.f32
	default:
		v = h.f64
	}
	r, ok := v.(*Raster[T])
	return r, ok
}

// AsF64 returns the wrapped raster converted to float64, casting every
// data cell and preserving nodata. Used internally by Div, Compare and
// Cast, which work on a float64 copy of same-Kind operands.
func (h Handle) AsF64() *Raster[float64] {
	if h.kind == KindF64 {
		return h.f64
	}
	out := &Raster[float64]{Metadata: h.Metadata(), kind: KindF64}
	out.data = make([]float64, out.Size())
	switch h.kind {
	case KindU8:
		castInto(h.u8, out)
	case KindU16:
		castInto(h.u16, out)
	case KindU32:
		castInto(h.u32, out)
	case KindI16:
		castInto(h.i16, out)
	case KindI32:
		castInto(h.i32, out)
	case KindI64:
		castInto(h.i64, out)
	case KindF32:
		castInto(h.f32, out)
	}
	return out
}

func castInto[S, D Number](src *Raster[S], dst *Raster[D]) {
	for i := range src.data {
		if src.isNodataIndex(int64(i)) {
			dst.data[i] = dst.nodataValue()
			continue
		}
		dst.data[i] = D(src.data[i])
	}
}

// Add dispatches element-wise addition over the dynamic element types of
// h and other. h and other must share a Kind; a mismatch is reported as
// InvalidArgument rather than silently promoted (spec §6).
func (h Handle) Add(other Handle) (Handle, error) {
	return h.arith(other, "Add")
}

// Sub dispatches element-wise subtraction, same Kind requirement as Add.
func (h Handle) Sub(other Handle) (Handle, error) {
	return h.arith(other, "Sub")
}

// Mul dispatches element-wise multiplication, same Kind requirement as Add.
func (h Handle) Mul(other Handle) (Handle, error) {
	return h.arith(other, "Mul")
}

// Div dispatches element-wise division; per spec §3 rule 3 this always
// produces a float result, so the returned Handle is always KindF64.
// Both operands must share the same dynamic Kind (spec §6: a Kind
// mismatch between a Handle's operands is a fatal argument error, not
// something to paper over by widening).
func (h Handle) Div(other Handle) (Handle, error) {
	if h.kind != other.kind {
		return Handle{}, fmt.Errorf("gdx: Handle.Div: %w: kind mismatch %s vs %s", gdxerr.InvalidArgument, h.kind, other.kind)
	}
	a := h.AsF64()
	b := other.AsF64()
	out, err := Div(a, b)
	if err != nil {
		return Handle{}, err
	}
	return NewHandle(out), nil
}

// arith requires h and other to share a Kind; a mismatch is a fatal
// argument error per spec §6, not an implicit promotion.
func (h Handle) arith(other Handle, op string) (Handle, error) {
	if h.kind != other.kind {
		return Handle{}, fmt.Errorf("gdx: Handle.%s: %w: kind mismatch %s vs %s", op, gdxerr.InvalidArgument, h.kind, other.kind)
	}
	return h.sameKindArith(other, op)
}

func (h Handle) sameKindArith(other Handle, op string) (Handle, error) {
	switch h.kind {
	case KindU8:
		r, err := combine2(h.u8, other.u8, opFor[uint8](op))
		return wrapOrErr(r, err)
	case KindU16:
		r, err := combine2(h.u16, other.u16, opFor[uint16](op))
		return wrapOrErr(r, err)
	case KindU32:
		r, err := combine2(h.u32, other.u32, opFor[uint32](op))
		return wrapOrErr(r, err)
	case KindI16:
		r, err := combine2(h.i16, other.i16, opFor[int16](op))
		return wrapOrErr(r, err)
	case KindI32:
		r, err := combine2(h.i32, other.i32, opFor[int32](op))
		return wrapOrErr(r, err)
	case KindI64:
		r, err := combine2(h.i64, other.i64, opFor[int64](op))
		return wrapOrErr(r, err)
	case KindF32:
		r, err := combine2(h.f32, other.f32, opFor[float32](op))
		return wrapOrErr(r, err)
	default:
		r, err := combine2(h.f64, other.f64, opFor[float64](op))
		return wrapOrErr(r, err)
	}
}

func wrapOrErr[T Number](r *Raster[T], err error) (Handle, error) {
	if err != nil {
		return Handle{}, err
	}
	return NewHandle(r), nil
}

func opFor[T Number](name string) func(x, y T) T {
	switch name {
	case "Add":
		return func(x, y T) T { return x + y }
	case "Sub":
		return func(x, y T) T { return x - y }
	default:
		return func(x, y T) T { return x * y }
	}
}

// Cast returns h converted to the given element Kind (spec §8 property
// 4, cast idempotence), rounding toward zero for integral targets and
// preserving nodata cells.
func (h Handle) Cast(target Kind) Handle {
	if h.kind == target {
		return h
	}
	return narrow(h.AsF64(), target)
}

// narrow casts a float64 result down to the target element kind,
// rounding toward zero for integral targets. Used by Cast to produce
// the caller-requested result Kind.
func narrow(r *Raster[float64], target Kind) Handle {
	switch target {
	case KindU8:
		return NewHandle(narrowTo[uint8](r))
	case KindU16:
		return NewHandle(narrowTo[uint16](r))
	case KindU32:
		return NewHandle(narrowTo[uint32](r))
	case KindI16:
		return NewHandle(narrowTo[int16](r))
	case KindI32:
		return NewHandle(narrowTo[int32](r))
	case KindI64:
		return NewHandle(narrowTo[int64](r))
	case KindF32:
		return NewHandle(narrowTo[float32](r))
	default:
		return NewHandle(r)
	}
}

func narrowTo[T Number](r *Raster[float64]) *Raster[T] {
	out := &Raster[T]{Metadata: r.Metadata, kind: kindOf[T](), data: make([]T, r.Size())}
	castInto(r, out)
	return out
}

// Compare dispatches an element-wise comparison, returning a u8 raster
// per spec §4.1. h and other must share a Kind (spec §6); a mismatch is
// reported as InvalidArgument rather than silently promoted.
func (h Handle) Compare(other Handle, cmp func(x, y float64) bool) (*Raster[uint8], error) {
	if h.kind != other.kind {
		return nil, fmt.Errorf("gdx: Handle.Compare: %w: kind mismatch %s vs %s", gdxerr.InvalidArgument, h.kind, other.kind)
	}
	if h.Metadata().Rows != other.Metadata().Rows || h.Metadata().Cols != other.Metadata().Cols {
		return nil, fmt.Errorf("gdx: Handle.Compare: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	a := h.AsF64()
	b := other.AsF64()
	return Compare(a, b, cmp)
}
