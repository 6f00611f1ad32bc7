package algo

import (
	"fmt"
	"math"

	stats "github.com/GaryBoone/GoStats/stats"
	"github.com/Knetic/govaluate"
	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxerr"
	"gonum.org/v1/gonum/floats"
)

// Min returns the element-wise minimum of a and b, nodata propagating
// the same way the arithmetic operators do (spec §4.9).
func Min[T gdx.Number](a, b *gdx.Raster[T]) (*gdx.Raster[T], error) {
	return combineUtil(a, b, func(x, y T) T {
		if x < y {
			return x
		}
		return y
	})
}

// Max returns the element-wise maximum of a and b (spec §4.9).
func Max[T gdx.Number](a, b *gdx.Raster[T]) (*gdx.Raster[T], error) {
	return combineUtil(a, b, func(x, y T) T {
		if x > y {
			return x
		}
		return y
	})
}

func combineUtil[T gdx.Number](a, b *gdx.Raster[T], op func(x, y T) T) (*gdx.Raster[T], error) {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("gdx/algo: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	md := a.Metadata
	md.HasNodata = a.HasNodata || b.HasNodata
	out, err := gdx.NewRaster[T](md, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < a.Size(); i++ {
		if (a.HasNodata && a.IsNodataIndex(i)) || (b.HasNodata && b.IsNodataIndex(i)) {
			out.SetNodataIndex(i)
			continue
		}
		out.SetIndex(i, op(a.GetIndex(i), b.GetIndex(i)))
	}
	return out, nil
}

// Sum adds up every data (non-nodata) cell of r.
func Sum[T gdx.Number](r *gdx.Raster[T]) float64 {
	var total float64
	for i := int64(0); i < r.Size(); i++ {
		if !(r.HasNodata && r.IsNodataIndex(i)) {
			total += float64(r.GetIndex(i))
		}
	}
	return total
}

// Normalise linearly rescales every data cell from [inMin,inMax] to
// [outMin,outMax] and rounds to the nearest byte (spec §4.9, §9): a
// cell whose value falls outside [inMin,inMax] is clipped to 0 rather
// than clamped to the nearest output endpoint, preserved from the
// original library's behaviour even though it reads as a surprising
// choice for an out-of-range high value.
func Normalise[T gdx.Number](r *gdx.Raster[T], inMin, inMax T, outMin, outMax uint8) (*gdx.Raster[uint8], error) {
	if inMax <= inMin {
		return nil, fmt.Errorf("gdx/algo: Normalise: %w: inMax must be greater than inMin", gdxerr.InvalidArgument)
	}
	out, err := gdx.NewRaster[uint8](r.Metadata, 0)
	if err != nil {
		return nil, err
	}
	out.HasNodata = r.HasNodata
	outRange := float64(outMax - outMin)
	inRange := float64(inMax - inMin)
	for i := int64(0); i < r.Size(); i++ {
		if r.HasNodata && r.IsNodataIndex(i) {
			out.SetNodataIndex(i)
			continue
		}
		v := r.GetIndex(i)
		if v < inMin || v > inMax {
			out.SetIndex(i, 0)
			continue
		}
		scaled := float64(outMin) + float64(v-inMin)*outRange/inRange
		out.SetIndex(i, uint8(math.Round(scaled)))
	}
	return out, nil
}

// Reclass remaps every data cell's value through table, writing
// defaultValue (and marking the output nodata if hasDefault is false)
// for any value table has no entry for (spec §4.9).
func Reclass[T gdx.Number](r *gdx.Raster[T], table map[T]T, defaultValue T, hasDefault bool) (*gdx.Raster[T], error) {
	md := r.Metadata
	md.HasNodata = r.HasNodata || !hasDefault
	out, err := gdx.NewRaster[T](md, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < r.Size(); i++ {
		if r.HasNodata && r.IsNodataIndex(i) {
			out.SetNodataIndex(i)
			continue
		}
		v, ok := table[r.GetIndex(i)]
		if !ok {
			if hasDefault {
				out.SetIndex(i, defaultValue)
			} else {
				out.SetNodataIndex(i)
			}
			continue
		}
		out.SetIndex(i, v)
	}
	return out, nil
}

// Mask passes r's value through wherever mask is data and non-zero,
// and marks the output nodata everywhere else (spec §4.9).
func Mask[T gdx.Number](r *gdx.Raster[T], mask *gdx.Raster[uint8]) (*gdx.Raster[T], error) {
	if r.Rows != mask.Rows || r.Cols != mask.Cols {
		return nil, fmt.Errorf("gdx/algo: Mask: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	md := r.Metadata
	md.HasNodata = true
	out, err := gdx.NewRaster[T](md, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < r.Size(); i++ {
		if mask.IsNodataIndex(i) || mask.GetIndex(i) == 0 || (r.HasNodata && r.IsNodataIndex(i)) {
			out.SetNodataIndex(i)
			continue
		}
		out.SetIndex(i, r.GetIndex(i))
	}
	return out, nil
}

// Conditional evaluates expr once per cell with each entry of rasters
// bound as a variable of that name holding that raster's value at the
// cell, using govaluate the same way the teacher's scenario reader
// resolves per-row expressions (spec §4.9). A cell where any
// referenced raster is nodata is nodata in the output; all input
// rasters must share one shape.
func Conditional(expr string, rasters map[string]*gdx.Raster[float64]) (*gdx.Raster[float64], error) {
	if len(rasters) == 0 {
		return nil, fmt.Errorf("gdx/algo: Conditional: %w: no input rasters given", gdxerr.InvalidArgument)
	}
	evaluable, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("gdx/algo: Conditional: %w: %v", gdxerr.InvalidArgument, err)
	}

	var rows, cols int32
	var md gdx.Metadata
	first := true
	for _, r := range rasters {
		if first {
			rows, cols, md = r.Rows, r.Cols, r.Metadata
			first = false
			continue
		}
		if r.Rows != rows || r.Cols != cols {
			return nil, fmt.Errorf("gdx/algo: Conditional: %w: shape mismatch across input rasters", gdxerr.InvalidArgument)
		}
	}

	md.HasNodata = true
	out, err := gdx.NewRaster[float64](md, 0)
	if err != nil {
		return nil, err
	}

	params := make(map[string]interface{}, len(rasters))
	n := int64(rows) * int64(cols)
	for i := int64(0); i < n; i++ {
		nodata := false
		for name, r := range rasters {
			if r.IsNodataIndex(i) {
				nodata = true
				break
			}
			params[name] = r.GetIndex(i)
		}
		if nodata {
			out.SetNodataIndex(i)
			continue
		}
		result, err := evaluable.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("gdx/algo: Conditional: %w: %v", gdxerr.RuntimeError, err)
		}
		v, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("gdx/algo: Conditional: %w: expression did not evaluate to a number", gdxerr.RuntimeError)
		}
		out.SetIndex(i, v)
	}
	return out, nil
}

// Majority replaces every data cell's value with the most frequent
// value among its neighbourhood (self included), per diag's
// connectivity (spec §4.9); ties keep the centre cell's own value.
func Majority[T gdx.Number](r *gdx.Raster[T], diag DiagPolicy) (*gdx.Raster[T], error) {
	out := r.Clone()
	for i := int64(0); i < r.Size(); i++ {
		if r.HasNodata && r.IsNodataIndex(i) {
			continue
		}
		c := gdx.CellAt(i, r.Cols)
		counts := make(map[T]int)
		counts[r.GetIndex(i)]++
		for _, n := range neighbours(c, diag) {
			if !n.InBounds(r.Rows, r.Cols) {
				continue
			}
			ni := n.Index(r.Cols)
			if r.HasNodata && r.IsNodataIndex(ni) {
				continue
			}
			counts[r.GetIndex(ni)]++
		}
		self := r.GetIndex(i)
		best, bestCount := self, counts[self]
		for v, count := range counts {
			if count > bestCount {
				best, bestCount = v, count
			}
		}
		out.SetIndex(i, best)
	}
	return out, nil
}

// Blur replaces every data cell's value with the mean of every data
// cell within radiusMeters of it, via SumInBuffer's square window
// divided by the count of data cells contributing (spec §4.9).
func Blur[T gdx.Number](r *gdx.Raster[T], radiusMeters float64) (*gdx.Raster[float64], error) {
	sums, err := SumInBuffer(r, radiusMeters, Square)
	if err != nil {
		return nil, err
	}
	ones, err := gdx.NewRaster[uint8](r.Metadata, 1)
	if err != nil {
		return nil, err
	}
	ones.HasNodata = r.HasNodata
	for i := int64(0); i < r.Size(); i++ {
		if r.HasNodata && r.IsNodataIndex(i) {
			ones.SetNodataIndex(i)
		}
	}
	counts, err := SumInBuffer(ones, radiusMeters, Square)
	if err != nil {
		return nil, err
	}
	out, err := gdx.NewRaster[float64](r.Metadata, 0)
	if err != nil {
		return nil, err
	}
	out.HasNodata = true
	for i := int64(0); i < r.Size(); i++ {
		if (r.HasNodata && r.IsNodataIndex(i)) || counts.GetIndex(i) == 0 {
			out.SetNodataIndex(i)
			continue
		}
		out.SetIndex(i, sums.GetIndex(i)/counts.GetIndex(i))
	}
	return out, nil
}

// Statistics summarises a raster's data cells (spec §4.11). Sum comes
// from gonum/floats and Mean, Min, Max and Variance from GoStats'
// slice functions, each its own pass over the collected values; StdDev
// is the square root of Variance. The two libraries' results are not
// cross-checked against each other.
type Statistics struct {
	Count              int64
	Sum, Mean          float64
	Min, Max           float64
	Variance, StdDev   float64
}

// Stats computes Statistics over every data cell of r. Sum comes from
// gonum/floats; Mean, Min, Max, and Variance come from GoStats, the
// same package the teacher's own evaluation suite uses for its
// regression statistics (eval/obscompare_test.go).
func Stats[T gdx.Number](r *gdx.Raster[T]) Statistics {
	values := make([]float64, 0, r.Size())
	for i := int64(0); i < r.Size(); i++ {
		if r.HasNodata && r.IsNodataIndex(i) {
			continue
		}
		values = append(values, float64(r.GetIndex(i)))
	}
	if len(values) == 0 {
		return Statistics{}
	}
	variance := stats.StatsPopulationVariance(values)
	return Statistics{
		Count:    int64(len(values)),
		Sum:      floats.Sum(values),
		Mean:     stats.StatsMean(values),
		Min:      stats.StatsMin(values),
		Max:      stats.StatsMax(values),
		Variance: variance,
		StdDev:   math.Sqrt(variance),
	}
}
