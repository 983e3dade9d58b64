package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/linecont/internal/filter"
	"github.com/roach88/linecont/internal/geom"
)

// angleTolerance is the slack allowed when comparing expected angles.
const angleTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes the pairs found to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Pairs    []PairOutcome // Pairs found, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nPairs found:\n")
	if len(e.Pairs) == 0 {
		fmt.Fprintf(&buf, "  (none)\n")
	}
	for i, p := range e.Pairs {
		fmt.Fprintf(&buf, "  [%d] %d-%d at %g %g, angle %.6f\n", i+1, p.A, p.B, p.At[0], p.At[1], p.Angle)
	}
	return buf.String()
}

// evaluate dispatches a single assertion.
func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertSelected:
		return assertSelected(r, a)
	case AssertExcluded:
		return assertExcluded(r, a)
	case AssertPair:
		return assertPair(r, a)
	case AssertNoPair:
		return assertNoPair(r, a)
	case AssertPairCount:
		return assertCount(r, a.Type, a.Count, r.Stats.Pairs)
	case AssertDegenerate:
		return assertCount(r, a.Type, a.Count, r.Stats.Degenerate)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertSelected checks the output is exactly the given ids in order.
func assertSelected(r *Result, a Assertion) error {
	want := a.IDs
	if want == nil {
		want = []int64{}
	}
	if slices.Equal(r.Selected, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSelected,
		Expected: fmt.Sprintf("selected %v", want),
		Actual:   fmt.Sprintf("selected %v", r.Selected),
		Pairs:    r.Pairs,
	}
}

// assertExcluded checks none of the ids is in the output.
func assertExcluded(r *Result, a Assertion) error {
	for _, id := range a.IDs {
		if slices.Contains(r.Selected, id) {
			return &AssertionError{
				Type:     AssertExcluded,
				Expected: fmt.Sprintf("line %d not selected", id),
				Actual:   fmt.Sprintf("selected %v", r.Selected),
				Pairs:    r.Pairs,
			}
		}
	}
	return nil
}

// assertPair checks a and b qualify together, and optionally their angle.
func assertPair(r *Result, a Assertion) error {
	p, ok := r.HasPair(a.A, a.B)
	if !ok {
		return &AssertionError{
			Type:     AssertPair,
			Expected: fmt.Sprintf("pair %d-%d", a.A, a.B),
			Actual:   "not found",
			Pairs:    r.Pairs,
		}
	}
	if a.Angle != nil && math.Abs(p.Angle-*a.Angle) > angleTolerance {
		return &AssertionError{
			Type:     AssertPair,
			Expected: fmt.Sprintf("pair %d-%d at angle %.6f", a.A, a.B, *a.Angle),
			Actual:   fmt.Sprintf("angle %.6f", p.Angle),
			Pairs:    r.Pairs,
		}
	}
	return nil
}

// assertNoPair checks a and b do not qualify together.
func assertNoPair(r *Result, a Assertion) error {
	if p, ok := r.HasPair(a.A, a.B); ok {
		return &AssertionError{
			Type:     AssertNoPair,
			Expected: fmt.Sprintf("no pair %d-%d", a.A, a.B),
			Actual:   fmt.Sprintf("pair at angle %.6f", p.Angle),
			Pairs:    r.Pairs,
		}
	}
	return nil
}

func assertCount(r *Result, kind string, want, got int) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
		Pairs:    r.Pairs,
	}
}

// assertDeterministic reruns the filter and compares digests.
func assertDeterministic(r *Result, features []geom.Feature, opts filter.Options) error {
	again, err := execute(features, opts)
	if err != nil {
		return err
	}
	if again.Hash != r.Hash || !slices.Equal(again.Selected, r.Selected) {
		return &AssertionError{
			Type:     AssertDeterministic,
			Expected: fmt.Sprintf("digest %s, selected %v", r.Hash, r.Selected),
			Actual:   fmt.Sprintf("digest %s, selected %v", again.Hash, again.Selected),
			Pairs:    r.Pairs,
		}
	}
	return nil
}
