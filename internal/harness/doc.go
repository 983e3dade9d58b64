// Package harness runs conformance scenarios against the continuation
// filter.
//
// # Scenario Format
//
// Scenarios are YAML files describing a small line dataset, the options to
// filter it with, and assertions on the outcome:
//
//	name: right_angle_excluded
//	description: "A perpendicular branch does not continue the main line"
//	tolerance: 5
//	lines:
//	  - id: 10
//	    coords: [[0, 0], [1, 0]]
//	  - id: 11
//	    coords: [[1, 0], [2, 0]]
//	assertions:
//	  - type: selected
//	    ids: [10, 11]
//	  - type: pair
//	    a: 10
//	    b: 11
//
// # Assertion Types
//
//   - selected: the output is exactly ids, in input order
//   - excluded: none of ids is in the output
//   - pair: a and b form a qualifying pair (optionally at angle, within 1e-6)
//   - no_pair: a and b do not form a qualifying pair
//   - pair_count: exactly count qualifying pairs
//   - degenerate: exactly count degenerate features
//   - deterministic: a second run produces the same result digest
//
// # Golden Snapshots
//
// RunWithGolden serialises the outcome to canonical JSON and compares it
// with testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
