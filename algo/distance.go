package algo

import (
	"fmt"
	"math"
	"time"

	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxerr"
	"github.com/ctessum/gdx/gdxlog"
)

// cellMark is the Todo/Border/Done state every distance kernel's
// relaxation loop tracks per cell (spec §4.5).
type cellMark uint8

const (
	markTodo cellMark = iota
	markBorder
	markDone
)

// all eight neighbour steps, orthogonal first (N,E,S,W) then diagonal
// (NE,SE,SW,NW), with each step's base cost before cellsize scaling.
func eightSteps(c gdx.Cell) ([8]gdx.Cell, [8]float64) {
	o := c.Orthogonal()
	d := c.Diagonal()
	steps := [8]gdx.Cell{o[0], o[1], o[2], o[3], d[0], d[1], d[2], d[3]}
	costs := [8]float64{1, 1, 1, 1, sqrt2, sqrt2, sqrt2, sqrt2}
	return steps, costs
}

// Distance computes the Euclidean distance transform to the nearest
// non-zero target cell (spec §4.5): distance is seeded at 0 on every
// non-zero, non-nodata target cell, relaxed outward over the 4+4
// neighbours with step cost 1 (orthogonal) or sqrt(2) (diagonal), and
// scaled to map units by the cell's x size at the end. Cells where
// target is nodata report nodata in the output; cells the flood never
// reaches report +Inf.
func Distance[T gdx.Number](target *gdx.Raster[T]) (*gdx.Raster[float64], error) {
	return distanceEngine(target, nil, Include, nil)
}

// DistanceWithBarrier is Distance additionally forbidding relaxation
// into a barrier cell; when diag is Exclude, a diagonal relaxation is
// also forbidden if either of the two right-angle cells across that
// corner is a barrier, so the flood cannot squeeze diagonally between
// two barrier cells (spec §4.5).
func DistanceWithBarrier[T gdx.Number](target *gdx.Raster[T], barrier *gdx.Raster[uint8], diag DiagPolicy) (*gdx.Raster[float64], error) {
	if target.Rows != barrier.Rows || target.Cols != barrier.Cols {
		return nil, fmt.Errorf("gdx/algo: DistanceWithBarrier: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	return distanceEngine(target, barrier, diag, nil)
}

// distanceEngine is the shared flood-fill skeleton every distance
// kernel in this file builds on (spec §4.5): a Dijkstra-style label-
// setting relaxation adapted to a FiLo ring buffer instead of a
// priority queue, which is correct here because every step cost lies in
// {1, sqrt2} and cells may be re-enqueued as shorter paths are found.
// stepCost, when non-nil, overrides the base 1/sqrt2 cost for relaxing
// into a given neighbour (used by TravelDistance); it returns ok=false
// to mark a neighbour permanently unreachable.
func distanceEngine[T gdx.Number](target *gdx.Raster[T], barrier *gdx.Raster[uint8], diag DiagPolicy, stepCost func(from, to gdx.Cell, base float64) (cost float64, ok bool)) (*gdx.Raster[float64], error) {
	rows, cols := target.Rows, target.Cols
	md := target.Metadata
	md.HasNodata = target.HasNodata
	md.Nodata = math.NaN()
	dist, err := gdx.NewRaster[float64](md, math.Inf(1))
	if err != nil {
		return nil, err
	}
	marks := make([]cellMark, target.Size())
	queue := gdx.NewFiLo(rows, cols)

	isBarrier := func(c gdx.Cell) bool {
		if barrier == nil || !c.InBounds(rows, cols) {
			return false
		}
		i := c.Index(cols)
		return !barrier.IsNodataIndex(i) && barrier.GetIndex(i) != 0
	}

	for i := int64(0); i < target.Size(); i++ {
		if target.IsNodataIndex(i) || target.GetIndex(i) == 0 {
			continue
		}
		c := gdx.CellAt(i, cols)
		dist.SetIndex(i, 0)
		marks[i] = markBorder
		if err := queue.PushBack(c); err != nil {
			return nil, err
		}
	}

	for !queue.Empty() {
		cur := queue.PopHead()
		ci := cur.Index(cols)
		marks[ci] = markDone
		curDist := dist.GetIndex(ci)
		steps, baseCosts := eightSteps(cur)
		for k, n := range steps {
			if !n.InBounds(rows, cols) || isBarrier(n) {
				continue
			}
			if k >= 4 && diag == Exclude {
				// diagonal step: forbidden if either right-angle corner
				// cell is a barrier.
				var corner1, corner2 gdx.Cell
				switch k {
				case 4: // NE, blocked by N & E
					corner1, corner2 = steps[0], steps[1]
				case 5: // SE, blocked by E & S
					corner1, corner2 = steps[1], steps[2]
				case 6: // SW, blocked by S & W
					corner1, corner2 = steps[2], steps[3]
				default: // NW, blocked by W & N
					corner1, corner2 = steps[3], steps[0]
				}
				if isBarrier(corner1) || isBarrier(corner2) {
					continue
				}
			}
			cost := baseCosts[k]
			if stepCost != nil {
				c, ok := stepCost(cur, n, cost)
				if !ok {
					continue
				}
				cost = c
			}
			ni := n.Index(cols)
			candidate := curDist + cost
			if candidate < dist.GetIndex(ni) {
				dist.SetIndex(ni, candidate)
				if marks[ni] != markDone {
					marks[ni] = markBorder
				}
				if err := queue.PushBack(n); err != nil {
					return nil, err
				}
			}
		}
	}

	for i := int64(0); i < target.Size(); i++ {
		v := dist.GetIndex(i)
		if !math.IsInf(v, 1) {
			dist.SetIndex(i, v*target.Sx)
		}
		if target.HasNodata && target.IsNodataIndex(i) {
			dist.SetIndex(i, math.NaN())
		}
	}
	return dist, nil
}

// TravelDistance replaces the distance transform's constant step cost
// with step*travelTime[neighbour] (spec §4.5): cells where travelTime
// is nodata are unreachable.
func TravelDistance[T gdx.Number](target *gdx.Raster[T], travelTime *gdx.Raster[float64]) (*gdx.Raster[float64], error) {
	if target.Rows != travelTime.Rows || target.Cols != travelTime.Cols {
		return nil, fmt.Errorf("gdx/algo: TravelDistance: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	cost := func(from, to gdx.Cell, base float64) (float64, bool) {
		ti := to.Index(travelTime.Cols)
		if travelTime.IsNodataIndex(ti) {
			return 0, false
		}
		return base * travelTime.GetIndex(ti), true
	}
	return distanceEngine(target, nil, Include, cost)
}

// ClosestTarget propagates the originating target cell's own stored
// value along with the distance transform, overwriting a neighbour's
// carried id whenever a strictly shorter distance to it is found (spec
// §4.5): the "id" at every cell is whatever value target itself holds
// at the nearest target cell, not a synthesized position.
func ClosestTarget[T gdx.Number](target *gdx.Raster[T]) (*gdx.Raster[int64], error) {
	ids, _, err := closestTargetEngine(target, func(c gdx.Cell, cols int32) float64 {
		return float64(target.GetIndex(c.Index(cols)))
	})
	if err != nil {
		return nil, err
	}
	// A cell the flood-fill never reached (no target cell exists, or the
	// whole raster is one disconnected blob of zeros) stays NaN in ids;
	// that must become a real nodata cell here rather than an
	// implementation-defined NaN->int64 conversion. target's own nodata
	// sentinel is reused when it has one; otherwise fall back to
	// math.MinInt64, which is exactly representable and vanishingly
	// unlikely to collide with a real propagated id.
	md := target.Metadata
	md.HasNodata = true
	if !target.HasNodata {
		md.Nodata = float64(math.MinInt64)
	}
	out, err := gdx.NewRaster[int64](md, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < ids.Size(); i++ {
		v := ids.GetIndex(i)
		if math.IsNaN(v) {
			out.SetNodataIndex(i)
			continue
		}
		out.SetIndex(i, int64(v))
	}
	return out, nil
}

// ValueAtClosestTarget propagates an accompanying value raster's target-
// cell reading along with the distance transform the same way
// ClosestTarget propagates an id (spec §4.5).
func ValueAtClosestTarget[T gdx.Number](target *gdx.Raster[T], value *gdx.Raster[float64]) (*gdx.Raster[float64], error) {
	if target.Rows != value.Rows || target.Cols != value.Cols {
		return nil, fmt.Errorf("gdx/algo: ValueAtClosestTarget: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	out, _, err := closestTargetEngine(target, func(c gdx.Cell, cols int32) float64 {
		return value.GetIndex(c.Index(cols))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// closestTargetEngine is Distance's flood-fill skeleton augmented to
// carry an attribute (originate computes it from the seeding cell)
// alongside the running distance, overwriting it whenever a shorter
// path to a cell is discovered.
func closestTargetEngine[T gdx.Number](target *gdx.Raster[T], originate func(c gdx.Cell, cols int32) float64) (*gdx.Raster[float64], *gdx.Raster[float64], error) {
	rows, cols := target.Rows, target.Cols
	md := target.Metadata
	md.HasNodata = target.HasNodata
	md.Nodata = math.NaN()
	dist, err := gdx.NewRaster[float64](md, math.Inf(1))
	if err != nil {
		return nil, nil, err
	}
	// attr's NaN fill marks a cell the flood-fill never reaches (no
	// target cell exists at all, or this cell is unreachable), which can
	// happen independent of target's own nodata; attr must report that
	// as nodata regardless of target.HasNodata, unlike dist above where
	// an unreached cell's +Inf is itself a meaningful value.
	attrMD := md
	attrMD.HasNodata = true
	attr, err := gdx.NewRaster[float64](attrMD, math.NaN())
	if err != nil {
		return nil, nil, err
	}
	marks := make([]cellMark, target.Size())
	queue := gdx.NewFiLo(rows, cols)

	for i := int64(0); i < target.Size(); i++ {
		if target.IsNodataIndex(i) || target.GetIndex(i) == 0 {
			continue
		}
		c := gdx.CellAt(i, cols)
		dist.SetIndex(i, 0)
		attr.SetIndex(i, originate(c, cols))
		marks[i] = markBorder
		if err := queue.PushBack(c); err != nil {
			return nil, nil, err
		}
	}

	for !queue.Empty() {
		cur := queue.PopHead()
		ci := cur.Index(cols)
		marks[ci] = markDone
		curDist := dist.GetIndex(ci)
		curAttr := attr.GetIndex(ci)
		steps, costs := eightSteps(cur)
		for k, n := range steps {
			if !n.InBounds(rows, cols) {
				continue
			}
			ni := n.Index(cols)
			candidate := curDist + costs[k]
			if candidate < dist.GetIndex(ni) {
				dist.SetIndex(ni, candidate)
				attr.SetIndex(ni, curAttr)
				if marks[ni] != markDone {
					marks[ni] = markBorder
				}
				if err := queue.PushBack(n); err != nil {
					return nil, nil, err
				}
			}
		}
	}

	for i := int64(0); i < target.Size(); i++ {
		v := dist.GetIndex(i)
		if !math.IsInf(v, 1) {
			dist.SetIndex(i, v*target.Sx)
		}
	}
	return attr, dist, nil
}

// SumWithinTravelDistanceParams bundles the parameters of
// SumWithinTravelDistance, mirroring the original library's parameter
// struct convention rather than a five-argument function signature.
type SumWithinTravelDistanceParams struct {
	Mask            *gdx.Raster[uint8]
	Resistance      *gdx.Raster[float64]
	Value           *gdx.Raster[float64]
	MaxResistance   float64
	IncludeAdjacent bool
	Log             gdxlog.Logger
}

// SumWithinTravelDistance runs, for every mask cell that is data and
// non-zero, a travel-distance expansion bounded by MaxResistance and
// sums Value over every cell reached (spec §4.5). A step costs its base
// length (1 orthogonal, sqrt2 diagonal) times the mean of the
// Resistance values of the two cells it joins. When IncludeAdjacent
// is set, it also adds the four orthogonal neighbours of the reached
// set that were themselves out of reach. The scratch distance/mark
// rasters are restored to their pristine state after each mask cell's
// expansion by remembering only the cells touched, which is what keeps
// the kernel's running time proportional to the reachable area per mask
// cell rather than to the whole raster (spec §4.6, §9).
func SumWithinTravelDistance(p SumWithinTravelDistanceParams) (*gdx.Raster[float64], error) {
	mask, resistance, value := p.Mask, p.Resistance, p.Value
	if mask.Rows != resistance.Rows || mask.Cols != resistance.Cols || mask.Rows != value.Rows || mask.Cols != value.Cols {
		return nil, fmt.Errorf("gdx/algo: SumWithinTravelDistance: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	if p.MaxResistance <= 0 {
		return nil, fmt.Errorf("gdx/algo: SumWithinTravelDistance: %w: max resistance must be positive, got %v", gdxerr.InvalidArgument, p.MaxResistance)
	}
	log := p.Log
	if log == nil {
		log = gdxlog.Nop{}
	}
	for i := int64(0); i < resistance.Size(); i++ {
		if !resistance.IsNodataIndex(i) && resistance.GetIndex(i) < 0 {
			return nil, fmt.Errorf("gdx/algo: SumWithinTravelDistance: %w: resistance must be non-negative", gdxerr.InvalidArgument)
		}
	}

	rows, cols := mask.Rows, mask.Cols
	out, err := gdx.NewRaster[float64](mask.Metadata, 0)
	if err != nil {
		return nil, err
	}
	out.HasNodata = false

	dist := make([]float64, mask.Size())
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	marks := make([]cellMark, mask.Size())
	touched := make([]int64, 0, 256)
	queue := gdx.NewFiLo(rows, cols)

	var nMaskCells int64
	for i := int64(0); i < mask.Size(); i++ {
		if !mask.IsNodataIndex(i) && mask.GetIndex(i) != 0 {
			nMaskCells++
		}
	}

	start := time.Now()
	lastReport := start
	var processed int64

	for i := int64(0); i < mask.Size(); i++ {
		if mask.IsNodataIndex(i) || mask.GetIndex(i) == 0 {
			continue
		}
		seed := gdx.CellAt(i, cols)
		touched = touched[:0]
		queue.Clear()
		dist[i] = 0
		marks[i] = markBorder
		touched = append(touched, i)
		if err := queue.PushBack(seed); err != nil {
			return nil, err
		}

		var sum float64
		reached := map[int64]bool{i: true}
		if !value.IsNodataIndex(i) {
			sum += value.GetIndex(i)
		}

		for !queue.Empty() {
			cur := queue.PopHead()
			ci := cur.Index(cols)
			marks[ci] = markDone
			curDist := dist[ci]
			steps, costs := eightSteps(cur)
			for k, n := range steps {
				if !n.InBounds(rows, cols) {
					continue
				}
				ni := n.Index(cols)
				if resistance.IsNodataIndex(ni) {
					continue
				}
				cost := costs[k] * (resistance.GetIndex(ci) + resistance.GetIndex(ni)) / 2
				candidate := curDist + cost
				if candidate > p.MaxResistance {
					continue
				}
				if candidate < dist[ni] {
					if marks[ni] == markTodo {
						touched = append(touched, ni)
					}
					dist[ni] = candidate
					marks[ni] = markBorder
					if err := queue.PushBack(n); err != nil {
						return nil, err
					}
					if !reached[ni] {
						reached[ni] = true
						if !value.IsNodataIndex(ni) {
							sum += value.GetIndex(ni)
						}
					}
				}
			}
		}

		if p.IncludeAdjacent {
			adjacent := map[int64]bool{}
			for ri := range reached {
				rc := gdx.CellAt(ri, cols)
				for _, n := range rc.Orthogonal() {
					if !n.InBounds(rows, cols) {
						continue
					}
					ni := n.Index(cols)
					if reached[ni] || adjacent[ni] {
						continue
					}
					adjacent[ni] = true
					if !value.IsNodataIndex(ni) {
						sum += value.GetIndex(ni)
					}
				}
			}
		}

		out.SetIndex(i, sum)

		// Restore the scratch rasters to pristine state by touching only
		// the cells this expansion actually modified (spec §9): this is
		// what keeps a single mask cell's cost proportional to the area
		// it reaches rather than to the whole raster.
		for _, ti := range touched {
			dist[ti] = math.Inf(1)
			marks[ti] = markTodo
		}

		processed++
		if time.Since(lastReport) >= 3*time.Second {
			pct := float64(processed) / float64(nMaskCells) * 100
			elapsed := time.Since(start)
			var estTotal time.Duration
			if processed > 0 {
				estTotal = time.Duration(float64(elapsed) / float64(processed) * float64(nMaskCells))
			}
			log.Infof("sum_within_travel_distance: %.1f%% complete, estimated total runtime %s", pct, estTotal)
			lastReport = time.Now()
		}
	}

	return out, nil
}
