// Package index groups line features by shared endpoint.
//
// Endpoints are matched to the NEAREST previously registered key within an
// absolute epsilon. Keys never move once registered, so matching cannot
// drift: if A is registered first, B within eps of A joins A, and a later C
// within eps of B but not of A starts its own group.
package index

import (
	"math"

	"github.com/roach88/linecont/internal/geom"
)

// DefaultEpsilon is the absolute coordinate tolerance for endpoint matching.
const DefaultEpsilon = 1e-9

// maxCells bounds |coordinate| / cell size, keeping cell numbers far from
// int64 overflow and float64 rounding.
const maxCells = 1 << 40

// Member is one feature end touching a junction.
type Member struct {
	// Feature is the position of the feature in the slice passed to Build.
	Feature int
	End     geom.End
	// Direction is the outward vector from the junction. Zero when Degenerate.
	Direction  geom.Vector
	Degenerate bool
}

// Group is the set of feature ends registered at one key.
type Group struct {
	Key     geom.Point
	Members []Member
}

// Active returns the number of non-degenerate members.
func (g *Group) Active() int {
	n := 0
	for _, m := range g.Members {
		if !m.Degenerate {
			n++
		}
	}
	return n
}

// Features returns the number of distinct features in the group.
func (g *Group) Features() int {
	seen := make(map[int]struct{}, len(g.Members))
	for _, m := range g.Members {
		seen[m.Feature] = struct{}{}
	}
	return len(seen)
}

type cell struct {
	x, y int64
}

// Index maps endpoint keys to groups. Build it once per run; it is not safe
// for concurrent mutation.
type Index struct {
	eps float64
	// size is the grid cell edge, never smaller than eps.
	size   float64
	groups []*Group
	cells  map[cell][]int
	exact  map[geom.Point]int
}

// Build registers both endpoints of every feature in a single pass.
// A degenerate feature is registered once, at its start point, and flagged.
// eps must be >= 0; zero means exact coordinate equality.
func Build(features []geom.Feature, eps float64) *Index {
	ix := &Index{
		eps:   eps,
		size:  cellSize(features, eps),
		cells: make(map[cell][]int),
		exact: make(map[geom.Point]int),
	}

	for pos, f := range features {
		if geom.IsDegenerate(f, eps) {
			ix.add(geom.EndPoint(f, geom.Start), Member{Feature: pos, End: geom.Start, Degenerate: true})
			continue
		}
		for _, end := range []geom.End{geom.Start, geom.Finish} {
			dir, err := geom.Direction(f, end, eps)
			if err != nil {
				continue
			}
			ix.add(geom.EndPoint(f, end), Member{Feature: pos, End: end, Direction: dir})
		}
	}

	return ix
}

// Groups returns all groups in key registration order.
func (ix *Index) Groups() []*Group {
	return ix.groups
}

// Len returns the number of distinct keys.
func (ix *Index) Len() int {
	return len(ix.groups)
}

// Epsilon returns the matching tolerance the index was built with.
func (ix *Index) Epsilon() float64 {
	return ix.eps
}

// Lookup returns the group whose key is nearest to p within eps.
func (ix *Index) Lookup(p geom.Point) (*Group, bool) {
	i, ok := ix.nearest(p)
	if !ok {
		return nil, false
	}
	return ix.groups[i], true
}

func (ix *Index) add(p geom.Point, m Member) {
	if i, ok := ix.nearest(p); ok {
		ix.groups[i].Members = append(ix.groups[i].Members, m)
		return
	}

	i := len(ix.groups)
	ix.groups = append(ix.groups, &Group{Key: p, Members: []Member{m}})
	if ix.eps == 0 {
		ix.exact[p] = i
		return
	}
	c := ix.cellOf(p)
	ix.cells[c] = append(ix.cells[c], i)
}

// nearest finds the closest registered key within eps. Keys live in a grid
// with cells at least eps wide, so any key within eps of p is in the 3x3
// block around p's cell. Ties go to the earlier key.
func (ix *Index) nearest(p geom.Point) (int, bool) {
	if ix.eps == 0 {
		i, ok := ix.exact[p]
		return i, ok
	}

	c := ix.cellOf(p)
	best, bestDist := -1, math.Inf(1)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, i := range ix.cells[cell{c.x + dx, c.y + dy}] {
				d := math.Hypot(p[0]-ix.groups[i].Key[0], p[1]-ix.groups[i].Key[1])
				if d > ix.eps {
					continue
				}
				if d < bestDist || (d == bestDist && i < best) {
					best, bestDist = i, d
				}
			}
		}
	}
	return best, best >= 0
}

func (ix *Index) cellOf(p geom.Point) cell {
	return cell{
		x: int64(math.Floor(p[0] / ix.size)),
		y: int64(math.Floor(p[1] / ix.size)),
	}
}

// cellSize widens the grid beyond eps when the endpoint coordinates are so
// large relative to eps that eps-sized cells cannot be numbered.
func cellSize(features []geom.Feature, eps float64) float64 {
	var extent float64
	for _, f := range features {
		start, end := geom.Endpoints(f)
		for _, v := range []float64{start[0], start[1], end[0], end[1]} {
			extent = math.Max(extent, math.Abs(v))
		}
	}
	return math.Max(eps, extent/maxCells)
}
