package gdxio

import (
	"encoding/gob"
	"fmt"

	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxerr"
	"github.com/spf13/afero"
)

// envelope is the on-disk gob encoding of a Handle: Metadata plus
// exactly one of the eight typed slices populated, selected by Kind.
// This mirrors the teacher's InMAPdataTemplate convention of one
// struct per file holding shape, metadata, and data together
// (io.go), generalized from InMAP's fixed float64 variable slots to
// gdx's eight numeric kinds.
type envelope struct {
	Kind gdx.Kind
	Meta gdx.Metadata
	U8   []uint8
	U16  []uint16
	U32  []uint32
	I16  []int16
	I32  []int32
	I64  []int64
	F32  []float32
	F64  []float64
}

// GobDriver persists a Handle with encoding/gob, the teacher's own
// serialization choice for intermediate data files (io.go's
// InMAPdataTemplate is itself a gob-encoded struct written by
// output.go's gob.NewEncoder). FS selects the filesystem Write/Read
// operate against; a nil FS uses the real OS filesystem, and a
// memfile-backed afero.Fs lets callers round-trip a Handle entirely
// in memory (spec §6).
type GobDriver struct {
	FS afero.Fs
}

func (d GobDriver) fs() afero.Fs {
	if d.FS != nil {
		return d.FS
	}
	return afero.NewOsFs()
}

func toEnvelope(h gdx.Handle) envelope {
	e := envelope{Kind: h.Kind(), Meta: h.Metadata()}
	switch h.Kind() {
	case gdx.KindU8:
		r, _ := gdx.As[uint8](h)
		e.U8 = r.Data()
	case gdx.KindU16:
		r, _ := gdx.As[uint16](h)
		e.U16 = r.Data()
	case gdx.KindU32:
		r, _ := gdx.As[uint32](h)
		e.U32 = r.Data()
	case gdx.KindI16:
		r, _ := gdx.As[int16](h)
		e.I16 = r.Data()
	case gdx.KindI32:
		r, _ := gdx.As[int32](h)
		e.I32 = r.Data()
	case gdx.KindI64:
		r, _ := gdx.As[int64](h)
		e.I64 = r.Data()
	case gdx.KindF32:
		r, _ := gdx.As[float32](h)
		e.F32 = r.Data()
	default:
		r, _ := gdx.As[float64](h)
		e.F64 = r.Data()
	}
	return e
}

func fromEnvelope(e envelope) (gdx.Handle, error) {
	switch e.Kind {
	case gdx.KindU8:
		r, err := gdx.RasterFromData(e.Meta, e.U8)
		return wrap(r, err)
	case gdx.KindU16:
		r, err := gdx.RasterFromData(e.Meta, e.U16)
		return wrap(r, err)
	case gdx.KindU32:
		r, err := gdx.RasterFromData(e.Meta, e.U32)
		return wrap(r, err)
	case gdx.KindI16:
		r, err := gdx.RasterFromData(e.Meta, e.I16)
		return wrap(r, err)
	case gdx.KindI32:
		r, err := gdx.RasterFromData(e.Meta, e.I32)
		return wrap(r, err)
	case gdx.KindI64:
		r, err := gdx.RasterFromData(e.Meta, e.I64)
		return wrap(r, err)
	case gdx.KindF32:
		r, err := gdx.RasterFromData(e.Meta, e.F32)
		return wrap(r, err)
	default:
		r, err := gdx.RasterFromData(e.Meta, e.F64)
		return wrap(r, err)
	}
}

func wrap[T gdx.Number](r *gdx.Raster[T], err error) (gdx.Handle, error) {
	if err != nil {
		return gdx.Handle{}, err
	}
	return gdx.NewHandle(r), nil
}

// Write gob-encodes h's metadata and typed data buffer to path.
func (d GobDriver) Write(path string, h gdx.Handle) error {
	f, err := d.fs().Create(path)
	if err != nil {
		return fmt.Errorf("gdxio: GobDriver.Write: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(toEnvelope(h)); err != nil {
		return fmt.Errorf("gdxio: GobDriver.Write: %w", err)
	}
	return nil
}

// Read decodes a Handle previously written by Write.
func (d GobDriver) Read(path string) (gdx.Handle, error) {
	f, err := d.fs().Open(path)
	if err != nil {
		return gdx.Handle{}, fmt.Errorf("gdxio: GobDriver.Read: %w: %w", gdxerr.RuntimeError, err)
	}
	defer f.Close()
	var e envelope
	if err := gob.NewDecoder(f).Decode(&e); err != nil {
		return gdx.Handle{}, fmt.Errorf("gdxio: GobDriver.Read: %w", err)
	}
	return fromEnvelope(e)
}

// Warp is not implemented for the gob driver: a gob file carries
// whatever projection its Metadata names, and GobDriver has no
// reprojection machinery of its own.
func (GobDriver) Warp(h gdx.Handle, targetProjection string) (gdx.Handle, error) {
	return gdx.Handle{}, fmt.Errorf("gdxio: GobDriver.Warp: not implemented")
}
