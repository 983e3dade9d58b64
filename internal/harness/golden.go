package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/linecont/internal/digest"
)

// Snapshot is the golden-file view of a scenario outcome. Angles are
// rounded to three decimals so snapshots survive last-bit float changes.
type Snapshot struct {
	ScenarioName string
	Result       *Result
}

// toCanonicalMap converts a Snapshot to the value serialised by
// digest.Marshal.
func (s *Snapshot) toCanonicalMap() map[string]any {
	selected := make([]any, len(s.Result.Selected))
	for i, id := range s.Result.Selected {
		selected[i] = id
	}

	pairs := make([]any, len(s.Result.Pairs))
	for i, p := range s.Result.Pairs {
		pairs[i] = map[string]any{
			"a":         p.A,
			"b":         p.B,
			"at":        fmt.Sprintf("%g %g", p.At[0], p.At[1]),
			"angle":     fmt.Sprintf("%.3f", p.Angle),
			"deviation": fmt.Sprintf("%.3f", p.Deviation),
		}
	}

	st := s.Result.Stats
	return map[string]any{
		"scenario": s.ScenarioName,
		"selected": selected,
		"pairs":    pairs,
		"stats": map[string]any{
			"input":      st.Input,
			"keys":       st.Keys,
			"junctions":  st.Junctions,
			"degenerate": st.Degenerate,
			"pairs":      st.Pairs,
			"output":     st.Output,
		},
	}
}

// RunWithGolden executes a scenario and compares the outcome against
// testdata/golden/{scenario.Name}.golden.
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{ScenarioName: name, Result: result}
	data, err := digest.Marshal(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
