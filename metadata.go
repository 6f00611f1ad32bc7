package gdx

import (
	"fmt"

	"github.com/ctessum/geom/proj"
	"github.com/ctessum/unit"
)

// Metadata carries the georeferencing fields shared by every raster:
// shape, cell size, lower-left origin, an optional nodata sentinel, and
// an optional projection. Two Metadata values are Equal when rows/cols
// match exactly and xll/yll/sx/sy/nodata match within float64 equality.
type Metadata struct {
	Rows, Cols int32

	// Xll, Yll are the map-unit coordinates of the lower-left corner of
	// the lower-left cell.
	Xll, Yll float64

	// Sx, Sy are the cell extents along x and y. Sy may be negative to
	// encode a north-up raster (row 0 at the geographic top).
	Sx, Sy float64

	// HasNodata reports whether Nodata is meaningful. Nodata is the
	// user-facing sentinel value; see Raster's doc comment for how it is
	// represented in memory for floating versus integral element types.
	HasNodata bool
	Nodata    float64

	// Projection is an opaque descriptor (EPSG code, PROJ string, or WKT)
	// of the raster's spatial reference. It is not interpreted by this
	// package; reprojection is the job of an external I/O collaborator
	// (see gdx/gdxio.Warper).
	Projection string
}

// NewMetadata builds Metadata from plain cell-size values, matching the
// spec's "(sx, sy) doubles" contract.
func NewMetadata(rows, cols int32, xll, yll, sx, sy float64) Metadata {
	return Metadata{Rows: rows, Cols: cols, Xll: xll, Yll: yll, Sx: sx, Sy: sy}
}

// CellSize returns Sx and Sy as *unit.Unit lengths, so a caller building
// a radius-in-metres parameter for a kernel doesn't have to track the
// map-unit convention by hand.
func (m Metadata) CellSize() (*unit.Unit, *unit.Unit) {
	return Meters(m.Sx), Meters(m.Sy)
}

// Meters wraps a plain float64 as a length in metres, the unit every
// *_meters kernel parameter in this package is expressed in.
func Meters(v float64) *unit.Unit {
	return unit.New(v, unit.Meter)
}

// WithNodata returns a copy of m with the nodata sentinel set.
func (m Metadata) WithNodata(v float64) Metadata {
	m.HasNodata = true
	m.Nodata = v
	return m
}

// SRef parses Projection as a ctessum/geom spatial reference, when it is
// set and parseable. Kernels never call this; it exists for the I/O and
// shapefile-zoning collaborators that do need to interpret it.
func (m Metadata) SRef() (*proj.SR, error) {
	if m.Projection == "" {
		return nil, fmt.Errorf("gdx: metadata has no projection set")
	}
	return proj.Parse(m.Projection)
}

// Equal reports whether m and other describe the same raster shape and
// georeferencing, per spec: rows/cols exactly, and xll/yll/sx/sy/nodata
// by float64 equality. Projection is not compared, matching the
// original library's looser treatment of the descriptor string.
func (m Metadata) Equal(other Metadata) bool {
	if m.Rows != other.Rows || m.Cols != other.Cols {
		return false
	}
	if m.Xll != other.Xll || m.Yll != other.Yll || m.Sx != other.Sx || m.Sy != other.Sy {
		return false
	}
	if m.HasNodata != other.HasNodata {
		return false
	}
	if m.HasNodata && m.Nodata != other.Nodata {
		return false
	}
	return true
}

// Size returns rows*cols, the number of cells the metadata describes.
func (m Metadata) Size() int64 {
	return int64(m.Rows) * int64(m.Cols)
}
