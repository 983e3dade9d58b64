// Package classify decides which feature pairs at a junction form a
// near-straight continuation.
package classify

import (
	"math"

	"github.com/roach88/linecont/internal/geom"
	"github.com/roach88/linecont/internal/index"
)

// QualifyingPair is an unordered pair of features joined at a junction whose
// outward directions are within tolerance of straight.
type QualifyingPair struct {
	// A and B are feature positions with A < B.
	A, B int
	At   geom.Point
	// Angle is the angle between the two outward vectors, in degrees.
	Angle float64
	// Deviation is the continuation angle, |180 - Angle|.
	Deviation float64
}

// Deviation returns the continuation angle for an angle between outward
// vectors: 0 for a straight pass-through, 180 for a U-turn.
func Deviation(angle float64) float64 {
	return math.Abs(180 - angle)
}

// Qualifies reports whether an outward angle is a straight continuation
// within toleranceDeg. NaN never qualifies.
func Qualifies(angle, toleranceDeg float64) bool {
	return Deviation(angle) <= toleranceDeg
}

// Classify checks every unordered pair of non-degenerate members of g.
// Pairs are returned in member order. A feature is never paired with itself,
// even when both of its ends were registered at the same key. When two ends
// of one feature meet the same partner here, the pair is reported once with
// the smaller deviation.
func Classify(g *index.Group, toleranceDeg float64) []QualifyingPair {
	var pairs []QualifyingPair
	seen := make(map[[2]int]int)

	for i := 0; i < len(g.Members); i++ {
		mi := g.Members[i]
		if mi.Degenerate {
			continue
		}
		for j := i + 1; j < len(g.Members); j++ {
			mj := g.Members[j]
			if mj.Degenerate || mj.Feature == mi.Feature {
				continue
			}

			angle := geom.AngleBetween(mi.Direction, mj.Direction)
			if !Qualifies(angle, toleranceDeg) {
				continue
			}

			a, b := mi.Feature, mj.Feature
			if a > b {
				a, b = b, a
			}
			p := QualifyingPair{
				A:         a,
				B:         b,
				At:        g.Key,
				Angle:     angle,
				Deviation: Deviation(angle),
			}
			if k, dup := seen[[2]int{a, b}]; dup {
				if p.Deviation < pairs[k].Deviation {
					pairs[k] = p
				}
				continue
			}
			seen[[2]int{a, b}] = len(pairs)
			pairs = append(pairs, p)
		}
	}

	return pairs
}
