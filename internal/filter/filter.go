package filter

import (
	"fmt"
	"math"

	"github.com/roach88/linecont/internal/classify"
	"github.com/roach88/linecont/internal/geom"
	"github.com/roach88/linecont/internal/index"
)

// DefaultTolerance is the default continuation tolerance in degrees.
const DefaultTolerance = 5.0

// Options configures a filtering run.
type Options struct {
	// ToleranceDegrees is the maximum continuation angle, in [0, 180].
	ToleranceDegrees float64
	// Epsilon is the absolute endpoint matching tolerance. Zero is exact.
	Epsilon float64
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{ToleranceDegrees: DefaultTolerance, Epsilon: index.DefaultEpsilon}
}

// OptionsError reports an invalid option value.
type OptionsError struct {
	Field string
	Value float64
	Msg   string
}

func (e *OptionsError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Msg)
}

// Validate rejects tolerances outside [0, 180] and negative epsilons.
func (o Options) Validate() error {
	if math.IsNaN(o.ToleranceDegrees) || o.ToleranceDegrees < 0 || o.ToleranceDegrees > 180 {
		return &OptionsError{Field: "tolerance", Value: o.ToleranceDegrees, Msg: "must be between 0 and 180 degrees"}
	}
	if math.IsNaN(o.Epsilon) || math.IsInf(o.Epsilon, 0) || o.Epsilon < 0 {
		return &OptionsError{Field: "epsilon", Value: o.Epsilon, Msg: "must be a finite value >= 0"}
	}
	return nil
}

// Stats summarises a run.
type Stats struct {
	Input      int `json:"input"`
	Keys       int `json:"keys"`
	Junctions  int `json:"junctions"`
	Degenerate int `json:"degenerate"`
	Pairs      int `json:"pairs"`
	Output     int `json:"output"`
}

// Dangling is a feature end that touches no other feature.
type Dangling struct {
	Feature int
	End     geom.End
	At      geom.Point
}

// Result is the outcome of Filter.
type Result struct {
	// Features are the qualifying features in input order.
	Features []geom.Feature
	// Positions holds the input position of each entry in Features.
	Positions []int
	// Pairs are all qualifying pairs in junction registration order.
	Pairs    []classify.QualifyingPair
	Dangling []Dangling
	Stats    Stats
}

// Filter returns the features that take part in at least one qualifying
// pair. A feature that qualifies at both of its ends appears once.
func Filter(features []geom.Feature, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ix := index.Build(features, opts.Epsilon)
	res := &Result{Stats: Stats{Input: len(features), Keys: ix.Len()}}

	for _, f := range features {
		if geom.IsDegenerate(f, opts.Epsilon) {
			res.Stats.Degenerate++
		}
	}

	selected := make([]bool, len(features))
	for _, g := range ix.Groups() {
		if g.Features() == 1 && g.Active() == 1 {
			m := g.Members[0]
			res.Dangling = append(res.Dangling, Dangling{Feature: m.Feature, End: m.End, At: g.Key})
		}
		if g.Active() < 2 {
			continue
		}
		res.Stats.Junctions++

		for _, p := range classify.Classify(g, opts.ToleranceDegrees) {
			res.Pairs = append(res.Pairs, p)
			selected[p.A] = true
			selected[p.B] = true
		}
	}

	for pos, ok := range selected {
		if !ok {
			continue
		}
		res.Features = append(res.Features, features[pos])
		res.Positions = append(res.Positions, pos)
	}

	res.Stats.Pairs = len(res.Pairs)
	res.Stats.Output = len(res.Features)
	return res, nil
}
