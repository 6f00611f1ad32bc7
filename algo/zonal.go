package algo

import (
	"fmt"

	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxerr"
)

// WeightedDistribution spreads each zone's known total amount across
// its member cells in proportion to weights, per a two-tier policy
// (spec §4.8): where a zone's member cells carry a positive total
// weight, each cell receives amounts[zone]*weight[cell]/totalWeight;
// where a zone's total weight is zero (every member weight is zero or
// nodata), the zone's amount is instead spread equally across its data
// member cells, since proportional distribution is undefined there.
// zones cells that are nodata, or that carry a zone id amounts has no
// entry for, are nodata in the output. When zeroIsNodata is set, a
// weight cell holding exactly zero is treated as absent from its zone
// (neither counted toward totalWeight/count nor given a share) rather
// than as a legitimate zero-weight member.
func WeightedDistribution(zones *gdx.Raster[int32], weights *gdx.Raster[float64], amounts map[int32]float64, zeroIsNodata bool) (*gdx.Raster[float64], error) {
	if zones.Rows != weights.Rows || zones.Cols != weights.Cols {
		return nil, fmt.Errorf("gdx/algo: WeightedDistribution: %w: shape mismatch", gdxerr.InvalidArgument)
	}

	type zoneStat struct {
		totalWeight float64
		count       int64
	}
	stats := make(map[int32]*zoneStat)

	member := func(i int64) (int32, bool) {
		if zones.IsNodataIndex(i) {
			return 0, false
		}
		z := zones.GetIndex(i)
		if _, ok := amounts[z]; !ok {
			return 0, false
		}
		if weights.IsNodataIndex(i) {
			return 0, false
		}
		w := weights.GetIndex(i)
		if zeroIsNodata && w == 0 {
			return 0, false
		}
		return z, true
	}

	for i := int64(0); i < zones.Size(); i++ {
		z, ok := member(i)
		if !ok {
			continue
		}
		s := stats[z]
		if s == nil {
			s = &zoneStat{}
			stats[z] = s
		}
		s.totalWeight += weights.GetIndex(i)
		s.count++
	}

	out, err := gdx.NewRaster[float64](zones.Metadata, 0)
	if err != nil {
		return nil, err
	}
	out.HasNodata = true
	for i := int64(0); i < zones.Size(); i++ {
		z, ok := member(i)
		if !ok {
			out.SetNodataIndex(i)
			continue
		}
		s := stats[z]
		total := amounts[z]
		switch {
		case s.totalWeight > 0:
			out.SetIndex(i, total*weights.GetIndex(i)/s.totalWeight)
		case s.count > 0:
			out.SetIndex(i, total/float64(s.count))
		default:
			out.SetNodataIndex(i)
		}
	}
	return out, nil
}

// DasMap is dasymetric mapping (spec §4.8): each zone's amount is
// distributed like WeightedDistribution, but the per-cell weight is
// looked up from likelihood[zone][class[cell]] instead of being given
// directly. A class with no likelihood entry for its zone falls back
// to weight 1, the uniform assumption that class carries no
// disaggregation information for that zone.
func DasMap(zones *gdx.Raster[int32], classes *gdx.Raster[int32], likelihood map[int32]map[int32]float64, amounts map[int32]float64) (*gdx.Raster[float64], error) {
	if zones.Rows != classes.Rows || zones.Cols != classes.Cols {
		return nil, fmt.Errorf("gdx/algo: DasMap: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	weights, err := gdx.NewRaster[float64](classes.Metadata, 1)
	if err != nil {
		return nil, err
	}
	weights.HasNodata = false
	for i := int64(0); i < classes.Size(); i++ {
		if zones.IsNodataIndex(i) || classes.IsNodataIndex(i) {
			continue
		}
		z := zones.GetIndex(i)
		cls := classes.GetIndex(i)
		w := 1.0
		if byZone, ok := likelihood[z]; ok {
			if v, ok := byZone[cls]; ok {
				w = v
			}
		}
		weights.SetIndex(i, w)
	}
	return WeightedDistribution(zones, weights, amounts, false)
}

// Inflate replicates every cell of r into a scale x scale block,
// growing the raster's resolution by scale without changing any value
// (spec §4.8): the nearest-neighbour counterpart to InflateEqualSum,
// used to bring a coarse categorical raster like a zone map up to a
// finer raster's resolution for a per-cell lookup.
func Inflate[T gdx.Number](r *gdx.Raster[T], scale int32) (*gdx.Raster[T], error) {
	if scale < 1 {
		return nil, fmt.Errorf("gdx/algo: Inflate: %w: scale must be >= 1, got %d", gdxerr.InvalidArgument, scale)
	}
	md := r.Metadata
	md.Rows *= scale
	md.Cols *= scale
	md.Sx /= float64(scale)
	md.Sy /= float64(scale)
	out, err := gdx.NewRaster[T](md, 0)
	if err != nil {
		return nil, err
	}
	for row := int32(0); row < r.Rows; row++ {
		for col := int32(0); col < r.Cols; col++ {
			src := gdx.NewCell(row, col)
			v := r.Get(src)
			nodata := r.HasNodata && r.IsNodata(src)
			for dr := int32(0); dr < scale; dr++ {
				for dc := int32(0); dc < scale; dc++ {
					dst := gdx.NewCell(row*scale+dr, col*scale+dc)
					if nodata {
						out.SetNodata(dst)
					} else {
						out.Set(dst, v)
					}
				}
			}
		}
	}
	return out, nil
}

// InflateEqualSum is Inflate for quantities rather than categories
// (spec §4.8): each coarse cell's value is divided by scale*scale
// before being copied to every fine cell it expands into, so summing
// the result over any coarse cell's footprint reproduces that coarse
// cell's original value exactly.
func InflateEqualSum[T gdx.Number](r *gdx.Raster[T], scale int32) (*gdx.Raster[float64], error) {
	if scale < 1 {
		return nil, fmt.Errorf("gdx/algo: InflateEqualSum: %w: scale must be >= 1, got %d", gdxerr.InvalidArgument, scale)
	}
	md := r.Metadata
	md.Rows *= scale
	md.Cols *= scale
	md.Sx /= float64(scale)
	md.Sy /= float64(scale)
	out, err := gdx.NewRaster[float64](md, 0)
	if err != nil {
		return nil, err
	}
	share := 1.0 / float64(scale*scale)
	for row := int32(0); row < r.Rows; row++ {
		for col := int32(0); col < r.Cols; col++ {
			src := gdx.NewCell(row, col)
			nodata := r.HasNodata && r.IsNodata(src)
			v := float64(r.Get(src)) * share
			for dr := int32(0); dr < scale; dr++ {
				for dc := int32(0); dc < scale; dc++ {
					dst := gdx.NewCell(row*scale+dr, col*scale+dc)
					if nodata {
						out.SetNodata(dst)
					} else {
						out.Set(dst, v)
					}
				}
			}
		}
	}
	return out, nil
}

// DeflateEqualSum is InflateEqualSum's inverse (spec §4.8): every
// output coarse cell is the sum of the scale x scale block of fine
// input cells it covers, so the total over the whole raster is
// preserved across the resolution change. r's shape must be an exact
// multiple of scale in both dimensions.
func DeflateEqualSum[T gdx.Number](r *gdx.Raster[T], scale int32) (*gdx.Raster[float64], error) {
	if scale < 1 {
		return nil, fmt.Errorf("gdx/algo: DeflateEqualSum: %w: scale must be >= 1, got %d", gdxerr.InvalidArgument, scale)
	}
	if r.Rows%scale != 0 || r.Cols%scale != 0 {
		return nil, fmt.Errorf("gdx/algo: DeflateEqualSum: %w: shape %dx%d is not a multiple of scale %d", gdxerr.InvalidArgument, r.Rows, r.Cols, scale)
	}
	md := r.Metadata
	md.Rows /= scale
	md.Cols /= scale
	md.Sx *= float64(scale)
	md.Sy *= float64(scale)
	out, err := gdx.NewRaster[float64](md, 0)
	if err != nil {
		return nil, err
	}
	out.HasNodata = true
	for row := int32(0); row < out.Rows; row++ {
		for col := int32(0); col < out.Cols; col++ {
			var sum float64
			var any bool
			for dr := int32(0); dr < scale; dr++ {
				for dc := int32(0); dc < scale; dc++ {
					src := gdx.NewCell(row*scale+dr, col*scale+dc)
					if r.HasNodata && r.IsNodata(src) {
						continue
					}
					sum += float64(r.Get(src))
					any = true
				}
			}
			dst := gdx.NewCell(row, col)
			if any {
				out.Set(dst, sum)
			} else {
				out.SetNodata(dst)
			}
		}
	}
	return out, nil
}

// AggregateAndSpreadMultiResolution composes InflateEqualSum (bring
// coarseAmounts to the zone raster's own resolution), a per-zone total
// of those inflated amounts, and WeightedDistribution (spread each
// zone's total back out at the zone raster's resolution, using weights
// at that same resolution) for the common case where amounts are
// observed at a coarser resolution than zones (spec §4.8). It always passes zeroIsNodata=false to
// WeightedDistribution, since a genuinely absent (aggregated-away)
// weight is a more reliable nodata signal here than an observed zero.
func AggregateAndSpreadMultiResolution(zones *gdx.Raster[int32], weights *gdx.Raster[float64], coarseAmounts *gdx.Raster[float64], scale int32) (*gdx.Raster[float64], error) {
	spread, err := InflateEqualSum(coarseAmounts, scale)
	if err != nil {
		return nil, err
	}
	if spread.Rows != zones.Rows || spread.Cols != zones.Cols {
		return nil, fmt.Errorf("gdx/algo: AggregateAndSpreadMultiResolution: %w: coarseAmounts*scale does not match zones shape", gdxerr.InvalidArgument)
	}
	totals := make(map[int32]float64)
	for i := int64(0); i < zones.Size(); i++ {
		if zones.IsNodataIndex(i) || spread.IsNodataIndex(i) {
			continue
		}
		totals[zones.GetIndex(i)] += spread.GetIndex(i)
	}
	return WeightedDistribution(zones, weights, totals, false)
}
