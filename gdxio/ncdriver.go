package gdxio

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxerr"
	"github.com/spf13/afero"
)

// NetCDFDriver stores a Handle as a single-variable netCDF file, with
// Metadata carried as global attributes. This is grounded directly on
// the teacher's own CTMData.Write/LoadCTMData (vargrid.go): a
// cdf.Header built with dims/lengths, global attributes added before
// Define, data written through a cdf.File's Writer/Reader strider. gdx
// generalizes this from InMAP's many named meteorology variables to a
// single "data" variable carrying one Raster's worth of values, always
// as float32 on disk (matching the teacher's own on-disk precision
// choice, see writeNCF in vargrid.go) regardless of the Handle's Kind;
// the Kind is itself recorded as a global attribute so Read can narrow
// the decoded float64 buffer back to it.
type NetCDFDriver struct {
	// FS selects the filesystem Write/Read operate against; nil uses
	// the real OS filesystem.
	FS afero.Fs
}

func (d NetCDFDriver) fs() afero.Fs {
	if d.FS != nil {
		return d.FS
	}
	return afero.NewOsFs()
}

const ncDataVar = "data"

// Write encodes h to path as a netCDF file with one "data" variable.
func (d NetCDFDriver) Write(path string, h gdx.Handle) error {
	md := h.Metadata()
	f64 := h.AsF64()

	header := cdf.NewHeader([]string{"row", "col"}, []int{int(md.Rows), int(md.Cols)})
	header.AddAttribute("", "gdx_kind", int32(h.Kind()))
	header.AddAttribute("", "gdx_xll", []float64{md.Xll})
	header.AddAttribute("", "gdx_yll", []float64{md.Yll})
	header.AddAttribute("", "gdx_sx", []float64{md.Sx})
	header.AddAttribute("", "gdx_sy", []float64{md.Sy})
	header.AddAttribute("", "gdx_has_nodata", boolAttr(md.HasNodata))
	header.AddAttribute("", "gdx_nodata", []float64{md.Nodata})
	header.AddAttribute("", "gdx_projection", md.Projection)
	header.AddVariable(ncDataVar, []string{"row", "col"}, []float32{0})
	header.Define()

	w, err := d.fs().Create(path)
	if err != nil {
		return fmt.Errorf("gdxio: NetCDFDriver.Write: %w", err)
	}
	defer w.Close()

	file, err := cdf.Create(w, header)
	if err != nil {
		return fmt.Errorf("gdxio: NetCDFDriver.Write: %w", err)
	}

	data32 := make([]float32, f64.Size())
	for i := int64(0); i < f64.Size(); i++ {
		data32[i] = float32(f64.GetIndex(i))
	}
	end := header.Lengths(ncDataVar)
	start := make([]int, len(end))
	if _, err := file.Writer(ncDataVar, start, end).Write(data32); err != nil {
		return fmt.Errorf("gdxio: NetCDFDriver.Write: %w", err)
	}
	return syncNumRecs(w)
}

// Read decodes a netCDF file previously written by Write, narrowing the
// stored data back to the recorded gdx_kind.
func (d NetCDFDriver) Read(path string) (gdx.Handle, error) {
	r, err := d.fs().Open(path)
	if err != nil {
		return gdx.Handle{}, fmt.Errorf("gdxio: NetCDFDriver.Read: %w: %w", gdxerr.RuntimeError, err)
	}
	defer r.Close()

	file, err := cdf.Open(r)
	if err != nil {
		return gdx.Handle{}, fmt.Errorf("gdxio: NetCDFDriver.Read: %w", err)
	}
	header := file.Header

	md := gdx.Metadata{
		Rows:       int32(header.Lengths(ncDataVar)[0]),
		Cols:       int32(header.Lengths(ncDataVar)[1]),
		Xll:        header.GetAttribute("", "gdx_xll").([]float64)[0],
		Yll:        header.GetAttribute("", "gdx_yll").([]float64)[0],
		Sx:         header.GetAttribute("", "gdx_sx").([]float64)[0],
		Sy:         header.GetAttribute("", "gdx_sy").([]float64)[0],
		HasNodata:  header.GetAttribute("", "gdx_has_nodata").([]int32)[0] != 0,
		Nodata:     header.GetAttribute("", "gdx_nodata").([]float64)[0],
		Projection: header.GetAttribute("", "gdx_projection").(string),
	}
	kind := gdx.Kind(header.GetAttribute("", "gdx_kind").([]int32)[0])

	n := int(md.Rows) * int(md.Cols)
	tmp := make([]float32, n)
	if _, err := file.Reader(ncDataVar, nil, nil).Read(tmp); err != nil {
		return gdx.Handle{}, fmt.Errorf("gdxio: NetCDFDriver.Read: %w", err)
	}
	f64 := make([]float64, n)
	for i, v := range tmp {
		f64[i] = float64(v)
	}
	raw, err := gdx.RasterFromData(md, f64)
	if err != nil {
		return gdx.Handle{}, err
	}
	return narrowToKind(raw, kind)
}

// Warp is not implemented: reprojecting a netCDF raster needs a grid
// transform library no repo in this pack provides.
func (NetCDFDriver) Warp(h gdx.Handle, targetProjection string) (gdx.Handle, error) {
	return gdx.Handle{}, fmt.Errorf("gdxio: NetCDFDriver.Warp: not implemented")
}

// syncNumRecs patches the netCDF record-dimension count in the file
// header after writing data, the way the teacher's own CTMData.Write
// does via cdf.UpdateNumRecs (vargrid.go). cdf.UpdateNumRecs only
// accepts a concrete *os.File, so on a memfile-backed afero.Fs (where w
// is not one) this is a no-op and the header is left as cdf.Create
// wrote it; Read re-parses that header with cdf.Open. Write gives both
// of the data variable's dimensions a fixed length (the raster's row
// and column counts).
func syncNumRecs(w afero.File) error {
	if f, ok := w.(*os.File); ok {
		return cdf.UpdateNumRecs(f)
	}
	return nil
}

func boolAttr(b bool) []int32 {
	if b {
		return []int32{1}
	}
	return []int32{0}
}

// narrowToKind casts a decoded float64 raster down to kind, reusing
// each element type's own Raster constructor rather than gdx's
// internal narrowing helpers, which are not exported across the
// package boundary.
func narrowToKind(r *gdx.Raster[float64], kind gdx.Kind) (gdx.Handle, error) {
	if kind == gdx.KindF64 {
		return gdx.NewHandle(r), nil
	}
	switch kind {
	case gdx.KindU8:
		return castHandle[uint8](r)
	case gdx.KindU16:
		return castHandle[uint16](r)
	case gdx.KindU32:
		return castHandle[uint32](r)
	case gdx.KindI16:
		return castHandle[int16](r)
	case gdx.KindI32:
		return castHandle[int32](r)
	case gdx.KindI64:
		return castHandle[int64](r)
	case gdx.KindF32:
		return castHandle[float32](r)
	default:
		return gdx.NewHandle(r), nil
	}
}

func castHandle[T gdx.Number](r *gdx.Raster[float64]) (gdx.Handle, error) {
	data := make([]T, r.Size())
	for i := int64(0); i < r.Size(); i++ {
		if r.HasNodata && r.IsNodataIndex(i) {
			continue
		}
		data[i] = T(r.GetIndex(i))
	}
	out, err := gdx.RasterFromData(r.Metadata, data)
	if err != nil {
		return gdx.Handle{}, err
	}
	if out.HasNodata {
		for i := int64(0); i < r.Size(); i++ {
			if r.HasNodata && r.IsNodataIndex(i) {
				out.SetNodataIndex(i)
			}
		}
	}
	return gdx.NewHandle(out), nil
}
