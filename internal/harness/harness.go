package harness

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/roach88/linecont/internal/digest"
	"github.com/roach88/linecont/internal/filter"
	"github.com/roach88/linecont/internal/geom"
)

// Options returns the filter options for the scenario, defaults filled in.
func (s *Scenario) Options() filter.Options {
	opts := filter.DefaultOptions()
	if s.Tolerance != nil {
		opts.ToleranceDegrees = *s.Tolerance
	}
	if s.Epsilon != nil {
		opts.Epsilon = *s.Epsilon
	}
	return opts
}

// Run executes a scenario and evaluates its assertions.
//
// An error is returned only when the scenario cannot be executed (invalid
// options). Assertion failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	features := scenario.Features()
	opts := scenario.Options()

	result, err := execute(features, opts)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	for i, a := range scenario.Assertions {
		var aerr error
		if a.Type == AssertDeterministic {
			aerr = assertDeterministic(result, features, opts)
		} else {
			aerr = evaluate(result, a)
		}
		if aerr != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, aerr))
		}
	}

	slog.Debug("scenario executed", "name", scenario.Name, "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

// execute runs the filter and translates positions into line ids.
func execute(features []geom.Feature, opts filter.Options) (*Result, error) {
	res, err := filter.Filter(features, opts)
	if err != nil {
		return nil, err
	}
	hash, err := digest.ResultHash(res, opts)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	result.Stats = res.Stats
	result.Hash = hash
	for _, f := range res.Features {
		result.Selected = append(result.Selected, f.ID)
	}
	for _, p := range res.Pairs {
		result.Pairs = append(result.Pairs, PairOutcome{
			A:         features[p.A].ID,
			B:         features[p.B].ID,
			At:        [2]float64{p.At[0], p.At[1]},
			Angle:     p.Angle,
			Deviation: p.Deviation,
		})
	}
	return result, nil
}

// RunDir loads and runs every *.yaml scenario in dir, in file name order.
func RunDir(dir string) (map[string]*Result, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	results := make(map[string]*Result, len(paths))
	for _, path := range paths {
		scenario, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if _, dup := results[scenario.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate scenario name %q", filepath.Base(path), scenario.Name)
		}
		result, err := Run(scenario)
		if err != nil {
			return nil, err
		}
		results[scenario.Name] = result
	}
	return results, nil
}
