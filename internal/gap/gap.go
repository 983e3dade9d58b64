// Package gap proposes bridges between dangling line ends.
//
// A feature whose end meets nothing may continue in a feature whose start
// meets nothing, with a small gap between them. For every dangling end the
// nearest dangling starts of other features are searched, and the one
// whose heading best continues the ending feature is proposed when both
// the feature headings and the bridge itself stay within tolerance.
//
// Candidates are reported only; they never change the filter output.
package gap

import (
	"cmp"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"

	"github.com/roach88/linecont/internal/filter"
	"github.com/roach88/linecont/internal/geom"
)

// Neighbours is how many nearest dangling starts are weighed per end.
const Neighbours = 3

// Options configures the search.
type Options struct {
	// ToleranceDegrees bounds both the heading change between the two
	// features and the turn from the bridge into the next feature.
	ToleranceDegrees float64
	// MaxDistance, when positive, keeps only bridges shorter than it.
	MaxDistance float64
}

// Candidate is a proposed bridge from the end of From to the start of To.
// From and To are feature positions.
type Candidate struct {
	From, To int
	FromAt   geom.Point
	ToAt     geom.Point
	Distance float64
	// Deviation is the heading change from From into To, in degrees.
	Deviation float64
	// BridgeDeviation is the turn from the bridge into To, in degrees.
	BridgeDeviation float64
}

// endpoint adapts a dangling end to the quadtree.
type endpoint struct {
	filter.Dangling
}

func (e endpoint) Point() orb.Point {
	return e.At
}

// Find returns bridge candidates between the given dangling ends, ordered
// by the position of the feature they leave.
func Find(features []geom.Feature, dangling []filter.Dangling, opts Options) []Candidate {
	var starts []orb.Pointer
	var bound orb.MultiPoint
	for _, d := range dangling {
		if d.End == geom.Start {
			starts = append(starts, endpoint{d})
			bound = append(bound, d.At)
		}
	}
	if len(starts) == 0 {
		return nil
	}

	qt := quadtree.New(bound.Bound())
	for _, p := range starts {
		// Every start lies inside the bound built from the same points.
		_ = qt.Add(p)
	}

	var maxDist []float64
	if opts.MaxDistance > 0 {
		maxDist = []float64{opts.MaxDistance}
	}

	var out []Candidate
	buf := make([]orb.Pointer, 0, Neighbours)
	for _, d := range dangling {
		if d.End != geom.Finish {
			continue
		}
		from := d.Feature
		others := func(p orb.Pointer) bool {
			return p.(endpoint).Feature != from
		}
		buf = qt.KNearestMatching(buf[:0], d.At, Neighbours, others, maxDist...)

		best, ok := pick(features, d, buf, opts.ToleranceDegrees)
		if ok {
			out = append(out, best)
		}
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return cmp.Compare(a.From, b.From)
	})
	return out
}

// pick weighs the nearest starts and keeps the one that continues the
// ending feature most smoothly.
func pick(features []geom.Feature, end filter.Dangling, near []orb.Pointer, tol float64) (Candidate, bool) {
	in := heading(features[end.Feature])

	var best Candidate
	found := false
	for _, p := range near {
		start := p.(endpoint)
		next := heading(features[start.Feature])

		c := Candidate{
			From:            end.Feature,
			To:              start.Feature,
			FromAt:          end.At,
			ToAt:            start.At,
			Distance:        planar.Distance(end.At, start.At),
			Deviation:       geom.AngleBetween(in, next),
			BridgeDeviation: geom.AngleBetween(geom.Sub(start.At, end.At), next),
		}
		if !found || better(c, best) {
			best, found = c, true
		}
	}

	if !found || !(best.Deviation <= tol) || !(best.BridgeDeviation <= tol) {
		return Candidate{}, false
	}
	return best, true
}

func better(a, b Candidate) bool {
	if a.Deviation != b.Deviation {
		return a.Deviation < b.Deviation
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.To < b.To
}

// heading is the chord from a feature's start to its end.
func heading(f geom.Feature) geom.Vector {
	start, end := geom.Endpoints(f)
	return geom.Sub(end, start)
}
