package algo

import (
	"fmt"
	"math"

	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxerr"
	"github.com/ctessum/gdx/gdxlog"
)

// LDD direction codes follow the numeric-keypad convention (spec §4.6):
// each cell's value names the neighbour its flow drains into, 5 meaning
// the cell is a pit (drains nowhere).
//
//	7 8 9
//	4 5 6
//	1 2 3
const (
	LDDSouthWest uint8 = 1
	LDDSouth     uint8 = 2
	LDDSouthEast uint8 = 3
	LDDWest      uint8 = 4
	LDDPit       uint8 = 5
	LDDEast      uint8 = 6
	LDDNorthWest uint8 = 7
	LDDNorth     uint8 = 8
	LDDNorthEast uint8 = 9
)

// lddOffset maps a direction code to its (dRow, dCol) step and whether
// that step is diagonal (cost sqrt2 rather than 1).
var lddOffset = [10]struct {
	dr, dc   int32
	diagonal bool
}{
	1: {1, -1, true},
	2: {1, 0, false},
	3: {1, 1, true},
	4: {0, -1, false},
	5: {0, 0, false},
	6: {0, 1, false},
	7: {-1, -1, true},
	8: {-1, 0, false},
	9: {-1, 1, true},
}

// downstream returns the cell c's ldd raster points it at, and whether
// c has a valid, in-bounds, non-pit direction.
func downstream(ldd *gdx.Raster[uint8], c gdx.Cell) (gdx.Cell, bool) {
	i := c.Index(ldd.Cols)
	if ldd.IsNodataIndex(i) {
		return gdx.Cell{}, false
	}
	code := ldd.GetIndex(i)
	if code < 1 || code > 9 || code == LDDPit {
		return gdx.Cell{}, false
	}
	off := lddOffset[code]
	n := gdx.NewCell(c.Row+off.dr, c.Col+off.dc)
	if !n.InBounds(ldd.Rows, ldd.Cols) {
		return gdx.Cell{}, false
	}
	return n, true
}

// LDDValidation bundles the callbacks ValidateLDD invokes for each kind
// of defect it finds (spec §4.6): a caller passing a nil callback simply
// does not hear about that defect class.
type LDDValidation struct {
	// InvalidCode fires when a cell's value is not a recognised
	// direction code (1-9) and the cell is not marked nodata.
	InvalidCode func(c gdx.Cell, code uint8)
	// FlowsOffMap fires when a non-pit cell's direction points outside
	// the raster.
	FlowsOffMap func(c gdx.Cell)
	// FlowsIntoNodata fires when a non-pit cell's direction points at a
	// cell the ldd raster marks nodata.
	FlowsIntoNodata func(c gdx.Cell, target gdx.Cell)
	// Loop fires once per cycle found, with every cell on that cycle in
	// flow order.
	Loop func(cells []gdx.Cell)
}

// three-colour DFS marks.
const (
	colorWhite uint8 = iota
	colorGray
	colorBlack
)

// ValidateLDD walks every cell of ldd once, reporting structural
// defects through the callbacks set in cb, and returns whether the
// raster is defect-free. Loop detection uses the standard three-colour
// DFS marking: a cell revisited while still gray (on the current
// recursion stack) closes a cycle (spec §4.6).
func ValidateLDD(ldd *gdx.Raster[uint8], cb LDDValidation) (bool, error) {
	rows, cols := ldd.Rows, ldd.Cols
	color := make([]uint8, ldd.Size())
	clean := true

	for i := int64(0); i < ldd.Size(); i++ {
		if ldd.IsNodataIndex(i) {
			color[i] = colorBlack
			continue
		}
		code := ldd.GetIndex(i)
		if code < 1 || code > 9 {
			clean = false
			if cb.InvalidCode != nil {
				cb.InvalidCode(gdx.CellAt(i, cols), code)
			}
			color[i] = colorBlack
			continue
		}
		if code == LDDPit {
			continue
		}
		off := lddOffset[code]
		c := gdx.CellAt(i, cols)
		n := gdx.NewCell(c.Row+off.dr, c.Col+off.dc)
		if !n.InBounds(rows, cols) {
			clean = false
			if cb.FlowsOffMap != nil {
				cb.FlowsOffMap(c)
			}
		} else if ldd.IsNodataIndex(n.Index(cols)) {
			clean = false
			if cb.FlowsIntoNodata != nil {
				cb.FlowsIntoNodata(c, n)
			}
		}
	}

	var stack []gdx.Cell
	var visit func(c gdx.Cell) bool
	visit = func(c gdx.Cell) bool {
		i := c.Index(cols)
		switch color[i] {
		case colorBlack:
			return true
		case colorGray:
			clean = false
			if cb.Loop != nil {
				start := 0
				for k, sc := range stack {
					if sc == c {
						start = k
						break
					}
				}
				loop := append([]gdx.Cell(nil), stack[start:]...)
				cb.Loop(loop)
			}
			return false
		}
		color[i] = colorGray
		stack = append(stack, c)
		if n, ok := downstream(ldd, c); ok && !ldd.IsNodataIndex(n.Index(cols)) {
			if code := ldd.GetIndex(n.Index(cols)); code >= 1 && code <= 9 {
				visit(n)
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = colorBlack
		return true
	}

	for i := int64(0); i < ldd.Size(); i++ {
		if color[i] == colorWhite {
			visit(gdx.CellAt(i, cols))
		}
	}

	return clean, nil
}

// topologicalOrder returns every non-nodata cell index of ldd (pits and
// cells whose direction leaves the map included) in an order where a
// cell always appears after every cell that flows into it (a
// Kahn's-algorithm topological sort over the flow graph). Cells on an unreported loop are simply omitted, since a
// well-formed ldd raster (one ValidateLDD accepts) is acyclic.
func topologicalOrder(ldd *gdx.Raster[uint8]) []int64 {
	n := ldd.Size()
	indegree := make([]int32, n)
	for i := int64(0); i < n; i++ {
		if ldd.IsNodataIndex(i) {
			continue
		}
		if d, ok := downstream(ldd, gdx.CellAt(i, ldd.Cols)); ok {
			indegree[d.Index(ldd.Cols)]++
		}
	}
	queue := make([]int64, 0, n)
	for i := int64(0); i < n; i++ {
		if !ldd.IsNodataIndex(i) && indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]int64, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		if d, ok := downstream(ldd, gdx.CellAt(i, ldd.Cols)); ok {
			di := d.Index(ldd.Cols)
			indegree[di]--
			if indegree[di] == 0 {
				queue = append(queue, di)
			}
		}
	}
	return order
}

// Accuflux computes flow accumulation (spec §4.6): every cell's output
// value is its own amount plus the accumulated amount of everything
// that flows into it, evaluated in topological order so that a cell is
// only totalled once every one of its upstream contributors has been.
// An ldd containing a cycle is a RuntimeError.
func Accuflux(ldd *gdx.Raster[uint8], amount *gdx.Raster[float64]) (*gdx.Raster[float64], error) {
	if ldd.Rows != amount.Rows || ldd.Cols != amount.Cols {
		return nil, fmt.Errorf("gdx/algo: Accuflux: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	out, err := gdx.NewRaster[float64](amount.Metadata, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < amount.Size(); i++ {
		if amount.IsNodataIndex(i) {
			out.SetNodataIndex(i)
			continue
		}
		out.SetIndex(i, amount.GetIndex(i))
	}
	order := topologicalOrder(ldd)
	var cells int
	for i := int64(0); i < ldd.Size(); i++ {
		if !ldd.IsNodataIndex(i) {
			cells++
		}
	}
	if len(order) != cells {
		return nil, fmt.Errorf("gdx/algo: Accuflux: %w: ldd contains a cycle", gdxerr.RuntimeError)
	}
	for _, i := range order {
		if out.IsNodataIndex(i) {
			continue
		}
		if d, ok := downstream(ldd, gdx.CellAt(i, ldd.Cols)); ok {
			di := d.Index(ldd.Cols)
			if !out.IsNodataIndex(di) {
				out.SetIndex(di, out.GetIndex(di)+out.GetIndex(i))
			}
		}
	}
	return out, nil
}

// AccuFractionFlux is Accuflux with leakage: at every step, only
// fraction[cell] of a cell's accumulated amount continues downstream,
// the remainder is trapped (spec §4.6).
func AccuFractionFlux(ldd *gdx.Raster[uint8], amount, fraction *gdx.Raster[float64]) (*gdx.Raster[float64], error) {
	if ldd.Rows != amount.Rows || ldd.Cols != amount.Cols || ldd.Rows != fraction.Rows || ldd.Cols != fraction.Cols {
		return nil, fmt.Errorf("gdx/algo: AccuFractionFlux: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	out, err := gdx.NewRaster[float64](amount.Metadata, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < amount.Size(); i++ {
		if amount.IsNodataIndex(i) {
			out.SetNodataIndex(i)
			continue
		}
		out.SetIndex(i, amount.GetIndex(i))
	}
	for _, i := range topologicalOrder(ldd) {
		if out.IsNodataIndex(i) {
			continue
		}
		d, ok := downstream(ldd, gdx.CellAt(i, ldd.Cols))
		if !ok {
			continue
		}
		di := d.Index(ldd.Cols)
		if out.IsNodataIndex(di) || fraction.IsNodataIndex(i) {
			continue
		}
		out.SetIndex(di, out.GetIndex(di)+out.GetIndex(i)*fraction.GetIndex(i))
	}
	return out, nil
}

// Catchment marks every cell that drains, directly or indirectly, into
// target with 1, everything else with 0 (spec §4.6): the reverse
// traversal of the flow graph rooted at target.
func Catchment(ldd *gdx.Raster[uint8], target gdx.Cell) (*gdx.Raster[uint8], error) {
	upstream := buildUpstream(ldd)
	out, err := gdx.NewRaster[uint8](ldd.Metadata, 0)
	if err != nil {
		return nil, err
	}
	out.HasNodata = false
	stack := []int64{target.Index(ldd.Cols)}
	out.SetIndex(stack[0], 1)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, u := range upstream[i] {
			if out.GetIndex(u) == 0 {
				out.SetIndex(u, 1)
				stack = append(stack, u)
			}
		}
	}
	return out, nil
}

// buildUpstream inverts the flow graph: upstream[i] lists every cell
// index whose direction drains into cell i.
func buildUpstream(ldd *gdx.Raster[uint8]) map[int64][]int64 {
	upstream := make(map[int64][]int64)
	for i := int64(0); i < ldd.Size(); i++ {
		if ldd.IsNodataIndex(i) {
			continue
		}
		if d, ok := downstream(ldd, gdx.CellAt(i, ldd.Cols)); ok {
			di := d.Index(ldd.Cols)
			upstream[di] = append(upstream[di], i)
		}
	}
	return upstream
}

// FluxOrigin reports each cell's contribution to a single target's
// accumulated flux (spec §4.6): the amount raster restricted to
// target's catchment, zero everywhere else. This is Catchment(target)
// used as a mask over amount rather than a separate traversal, since
// every cell inside the catchment contributes its entire own amount to
// target exactly once by construction of Accuflux.
func FluxOrigin(ldd *gdx.Raster[uint8], amount *gdx.Raster[float64], target gdx.Cell) (*gdx.Raster[float64], error) {
	if ldd.Rows != amount.Rows || ldd.Cols != amount.Cols {
		return nil, fmt.Errorf("gdx/algo: FluxOrigin: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	mask, err := Catchment(ldd, target)
	if err != nil {
		return nil, err
	}
	out, err := gdx.NewRaster[float64](amount.Metadata, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < amount.Size(); i++ {
		if mask.GetIndex(i) == 0 || amount.IsNodataIndex(i) {
			continue
		}
		out.SetIndex(i, amount.GetIndex(i))
	}
	return out, nil
}

// LDDCluster labels every cell with the id of the first station it
// encounters while following its own downstream chain (spec §4.6);
// cells whose chain runs off the map, into nodata, around a cycle, or
// reaches a pit before any station carry 0. A "station" is any cell
// where stationID holds a non-nodata, non-zero value. Each cell's
// result is memoized as soon as it is discovered so no downstream
// chain is walked twice.
func LDDCluster(ldd *gdx.Raster[uint8], stationID *gdx.Raster[int32]) (*gdx.Raster[int32], error) {
	if ldd.Rows != stationID.Rows || ldd.Cols != stationID.Cols {
		return nil, fmt.Errorf("gdx/algo: LDDCluster: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	n := ldd.Size()
	resolved := make([]bool, n)
	result := make([]int32, n)

	station := func(i int64) (int32, bool) {
		if stationID.IsNodataIndex(i) {
			return 0, false
		}
		v := stationID.GetIndex(i)
		return v, v != 0
	}

	var walk func(start int64) int32
	walk = func(start int64) int32 {
		if resolved[start] {
			return result[start]
		}
		var path []int64
		onPath := make(map[int64]bool)
		cur := start
		var final int32
		var foundStation bool
		for {
			if resolved[cur] {
				final = result[cur]
				foundStation = true
				break
			}
			if onPath[cur] {
				break // cycle: every cell on it drains to no station
			}
			onPath[cur] = true
			path = append(path, cur)
			if v, ok := station(cur); ok {
				final = v
				foundStation = true
				break
			}
			next, ok := downstream(ldd, gdx.CellAt(cur, ldd.Cols))
			if !ok {
				break // pit or off-map before any station
			}
			ni := next.Index(ldd.Cols)
			if ldd.IsNodataIndex(ni) {
				break
			}
			cur = ni
		}
		if !foundStation {
			final = 0
		}
		for _, p := range path {
			resolved[p] = true
			result[p] = final
		}
		return final
	}

	out, err := gdx.NewRaster[int32](ldd.Metadata, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		if ldd.IsNodataIndex(i) {
			out.SetNodataIndex(i)
			resolved[i] = true
			continue
		}
		out.SetIndex(i, walk(i))
	}
	return out, nil
}

// LDDDist computes, for every cell, the flow-path distance to the
// nearest target cell reachable by following its own downstream chain
// (spec §4.6, §9). Its cost for a step is the friction value of the
// DESTINATION (downstream) cell of that step, not the cell it was taken
// from: this asymmetry is deliberate and preserved from the original
// library rather than smoothed away, since a step's cost models the
// resistance of entering the cell downstream, not of leaving the one
// upstream. A cell whose chain runs off the map, into nodata, or never
// reaches a target reports +Inf.
func LDDDist(ldd *gdx.Raster[uint8], target *gdx.Raster[uint8], friction *gdx.Raster[float64]) (*gdx.Raster[float64], error) {
	if ldd.Rows != target.Rows || ldd.Cols != target.Cols || ldd.Rows != friction.Rows || ldd.Cols != friction.Cols {
		return nil, fmt.Errorf("gdx/algo: LDDDist: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	n := ldd.Size()
	dist := make([]float64, n)
	state := make([]uint8, n) // 0=unvisited, 1=in progress, 2=done
	for i := range dist {
		dist[i] = math.Inf(1)
	}

	var resolve func(i int64) float64
	resolve = func(i int64) float64 {
		if state[i] == 2 {
			return dist[i]
		}
		if state[i] == 1 {
			// a cycle in the flow network; treat as unreachable rather
			// than recursing forever.
			return math.Inf(1)
		}
		state[i] = 1
		if !target.IsNodataIndex(i) && target.GetIndex(i) != 0 {
			dist[i] = 0
			state[i] = 2
			return 0
		}
		d, ok := downstream(ldd, gdx.CellAt(i, ldd.Cols))
		if !ok {
			dist[i] = math.Inf(1)
			state[i] = 2
			return dist[i]
		}
		di := d.Index(ldd.Cols)
		if friction.IsNodataIndex(di) {
			dist[i] = math.Inf(1)
			state[i] = 2
			return dist[i]
		}
		sub := resolve(di)
		if math.IsInf(sub, 1) {
			dist[i] = math.Inf(1)
		} else {
			dist[i] = sub + friction.GetIndex(di)
		}
		state[i] = 2
		return dist[i]
	}

	out, err := gdx.NewRaster[float64](ldd.Metadata, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		if ldd.IsNodataIndex(i) {
			out.SetNodataIndex(i)
			continue
		}
		out.SetIndex(i, resolve(i))
	}
	return out, nil
}

// MaxUpstreamDist computes, for every cell, the flow-path distance from
// its farthest upstream contributor, in cellsize-scaled step units (1
// orthogonal, sqrt2 diagonal) rather than a friction raster (spec §4.6:
// max_upstream_dist takes only ldd).
func MaxUpstreamDist(ldd *gdx.Raster[uint8]) (*gdx.Raster[float64], error) {
	out, err := gdx.NewRaster[float64](ldd.Metadata, 0)
	if err != nil {
		return nil, err
	}
	out.HasNodata = ldd.HasNodata
	for i := int64(0); i < ldd.Size(); i++ {
		if ldd.IsNodataIndex(i) {
			out.SetNodataIndex(i)
		}
	}
	for _, i := range topologicalOrder(ldd) {
		if out.IsNodataIndex(i) {
			continue
		}
		c := gdx.CellAt(i, ldd.Cols)
		code := ldd.GetIndex(i)
		d, ok := downstream(ldd, c)
		if !ok {
			continue
		}
		di := d.Index(ldd.Cols)
		if out.IsNodataIndex(di) {
			continue
		}
		step := 1.0
		if lddOffset[code].diagonal {
			step = sqrt2
		}
		candidate := out.GetIndex(i) + step
		if candidate > out.GetIndex(di) {
			out.SetIndex(di, candidate)
		}
	}
	return out, nil
}

// SlopeLength computes, for every cell, the along-flow-path distance
// from its farthest upstream ridge cell, using friction[cell] (the
// traversed cell's own value) as the cost of passing through each cell
// (spec §2's kernel table names slope_length alongside max_upstream_dist;
// the ground truth takes a friction raster where max_upstream_dist does
// not).
func SlopeLength(ldd *gdx.Raster[uint8], friction *gdx.Raster[float64]) (*gdx.Raster[float64], error) {
	if ldd.Rows != friction.Rows || ldd.Cols != friction.Cols {
		return nil, fmt.Errorf("gdx/algo: SlopeLength: %w: shape mismatch", gdxerr.InvalidArgument)
	}
	out, err := gdx.NewRaster[float64](friction.Metadata, 0)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < friction.Size(); i++ {
		if friction.IsNodataIndex(i) {
			out.SetNodataIndex(i)
		}
	}
	for _, i := range topologicalOrder(ldd) {
		if out.IsNodataIndex(i) {
			continue
		}
		d, ok := downstream(ldd, gdx.CellAt(i, ldd.Cols))
		if !ok {
			continue
		}
		di := d.Index(ldd.Cols)
		if out.IsNodataIndex(di) || friction.IsNodataIndex(i) {
			continue
		}
		candidate := out.GetIndex(i) + friction.GetIndex(i)
		if candidate > out.GetIndex(di) {
			out.SetIndex(di, candidate)
		}
	}
	return out, nil
}

// Fix repairs an ldd raster so ValidateLDD accepts it (spec §2 names
// fix in the kernel table without defining its repair policy in
// prose): every cell whose direction flows off the map or into nodata
// is rewritten to a pit, and every cell found on a loop by ValidateLDD
// is likewise cut to a pit, breaking the cycle at every one of its
// members rather than picking one arbitrary member to cut. This is the
// minimal repair that guarantees termination of every other kernel in
// this file, which is the property a "fix" operation exists to restore.
func Fix(ldd *gdx.Raster[uint8], log gdxlog.Logger) (*gdx.Raster[uint8], error) {
	if log == nil {
		log = gdxlog.Nop{}
	}
	out := ldd.Clone()
	var fixed int
	_, err := ValidateLDD(ldd, LDDValidation{
		InvalidCode: func(c gdx.Cell, code uint8) {
			out.SetIndex(c.Index(out.Cols), LDDPit)
			fixed++
		},
		FlowsOffMap: func(c gdx.Cell) {
			out.SetIndex(c.Index(out.Cols), LDDPit)
			fixed++
		},
		FlowsIntoNodata: func(c gdx.Cell, target gdx.Cell) {
			out.SetIndex(c.Index(out.Cols), LDDPit)
			fixed++
		},
		Loop: func(cells []gdx.Cell) {
			for _, c := range cells {
				out.SetIndex(c.Index(out.Cols), LDDPit)
				fixed++
			}
		},
	})
	if err != nil {
		return nil, err
	}
	if fixed > 0 {
		log.Infof("ldd.Fix: rewrote %d cell(s) to pits", fixed)
	}
	return out, nil
}
