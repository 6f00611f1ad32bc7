// Package shapezones rasterizes an integer attribute of a shapefile's
// polygon layer into a zones raster, the "shapefile reader" external
// collaborator spec §1 leaves unspecified (SPEC_FULL.md §4.10). It is
// grounded on the teacher's emissions/aep.NewGridIrregular
// (emissions/aep/grid.go) and popgrid.go's loadPopulation/loadMortality:
// decode the shapefile with github.com/ctessum/geom/encoding/shp,
// index its polygons in a github.com/ctessum/geom/index/rtree, and for
// each output cell look up the polygon containing its centroid the
// same way GridDef.GetIndex does.
package shapezones

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxerr"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
)

type zoneFeature struct {
	geom.Polygonal
	zone int32
}

// Rasterize reads the shapefile at path and returns an int32 zones
// raster shaped like template, where each cell holds the integer value
// of attrColumn taken from whichever polygon contains that cell's
// centroid, and gdx's nodata sentinel where no polygon contains it.
//
// attrColumn must name a field that parses as an integer; this mirrors
// the teacher's CensusPopColumns/MortalityRateColumn convention of
// naming shapefile attribute columns by string and parsing them with
// strconv at read time (popgrid.go).
func Rasterize(path, attrColumn string, template gdx.Metadata) (*gdx.Raster[int32], error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("shapezones: Rasterize: %w", err)
	}
	defer dec.Close()

	tree := rtree.NewTree(25, 50)
	for {
		g, fields, more := dec.DecodeRowFields(attrColumn)
		if !more {
			break
		}
		pg, ok := g.(geom.Polygonal)
		if !ok {
			continue
		}
		z, err := strconv.ParseInt(strings.TrimSpace(fields[attrColumn]), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("shapezones: Rasterize: parsing %s: %w", attrColumn, err)
		}
		tree.Insert(&zoneFeature{Polygonal: pg, zone: int32(z)})
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("shapezones: Rasterize: %w", err)
	}

	if !template.HasNodata {
		return nil, fmt.Errorf("shapezones: Rasterize: %w: template metadata needs a nodata value for unmatched cells", gdxerr.InvalidArgument)
	}
	out, err := gdx.NewNodataRaster[int32](template)
	if err != nil {
		return nil, err
	}

	for row := int32(0); row < template.Rows; row++ {
		for col := int32(0); col < template.Cols; col++ {
			c := gdx.Cell{Row: row, Col: col}
			p := geom.Point{X: cellCenterX(template, col), Y: cellCenterY(template, row)}
			zone, found := lookupZone(tree, p)
			if !found {
				out.SetNodata(c)
				continue
			}
			out.Set(c, zone)
		}
	}
	return out, nil
}

// cellCenterX and cellCenterY convert a cell's row/col into a map-unit
// centroid, following Metadata's convention (metadata.go): Xll/Yll are
// the lower-left corner of the lower-left cell, and row 0 is the
// geographic top when Sy is negative.
func cellCenterX(md gdx.Metadata, col int32) float64 {
	return md.Xll + (float64(col)+0.5)*md.Sx
}

func cellCenterY(md gdx.Metadata, row int32) float64 {
	absSy := md.Sy
	if absSy < 0 {
		absSy = -absSy
	}
	return md.Yll + (float64(md.Rows)-float64(row)-0.5)*absSy
}

func lookupZone(tree *rtree.Rtree, p geom.Point) (int32, bool) {
	for _, x := range tree.SearchIntersect(p.Bounds()) {
		f := x.(*zoneFeature)
		if p.Within(f.Polygonal) != geom.Outside {
			return f.zone, true
		}
	}
	return 0, false
}
