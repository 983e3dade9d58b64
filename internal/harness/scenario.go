package harness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"

	"github.com/roach88/linecont/internal/geom"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tolerance in degrees. Nil means the default.
	Tolerance *float64 `yaml:"tolerance,omitempty"`

	// Epsilon is the endpoint matching distance. Nil means the default.
	Epsilon *float64 `yaml:"epsilon,omitempty"`

	// Lines is the input dataset, in order.
	Lines []LineSpec `yaml:"lines"`

	// Assertions validate the outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// LineSpec is one input feature.
type LineSpec struct {
	ID     int64       `yaml:"id"`
	Coords [][]float64 `yaml:"coords"`
}

// Assertion validates the outcome of a scenario.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// IDs are feature ids (used by selected, excluded).
	IDs []int64 `yaml:"ids,omitempty"`

	// A and B are feature ids (used by pair, no_pair).
	A int64 `yaml:"a,omitempty"`
	B int64 `yaml:"b,omitempty"`

	// Angle is the expected angle between outward directions (used by pair).
	Angle *float64 `yaml:"angle,omitempty"`

	// Count is the expected number (used by pair_count, degenerate).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSelected      = "selected"
	AssertExcluded      = "excluded"
	AssertPair          = "pair"
	AssertNoPair        = "no_pair"
	AssertPairCount     = "pair_count"
	AssertDegenerate    = "degenerate"
	AssertDeterministic = "deterministic"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Features converts the scenario's lines into filter input.
func (s *Scenario) Features() []geom.Feature {
	features := make([]geom.Feature, len(s.Lines))
	for i, l := range s.Lines {
		ls := make(orb.LineString, len(l.Coords))
		for j, c := range l.Coords {
			ls[j] = orb.Point{c[0], c[1]}
		}
		features[i] = geom.Feature{ID: l.ID, Index: i, Line: ls}
	}
	return features
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Lines) == 0 {
		return fmt.Errorf("lines list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[int64]bool)
	for i, l := range s.Lines {
		if seen[l.ID] {
			return fmt.Errorf("lines[%d]: duplicate id %d", i, l.ID)
		}
		seen[l.ID] = true
		if len(l.Coords) < 2 {
			return fmt.Errorf("lines[%d]: at least two coordinates are required", i)
		}
		for j, c := range l.Coords {
			if len(c) != 2 {
				return fmt.Errorf("lines[%d].coords[%d]: expected [x, y]", i, j)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i], seen); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, ids map[int64]bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSelected, AssertExcluded:
		if a.Type == AssertExcluded && len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: ids list is required for excluded", index)
		}
		for _, id := range a.IDs {
			if !ids[id] {
				return fmt.Errorf("assertions[%d]: unknown line id %d", index, id)
			}
		}
	case AssertPair, AssertNoPair:
		if !ids[a.A] || !ids[a.B] {
			return fmt.Errorf("assertions[%d]: a and b must name lines in the scenario", index)
		}
		if a.A == a.B {
			return fmt.Errorf("assertions[%d]: a and b must differ", index)
		}
	case AssertPairCount, AssertDegenerate:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertDeterministic:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
