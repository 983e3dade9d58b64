package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linecont/internal/filter"
)

func sampleResult() *Result {
	r := NewResult()
	r.Selected = []int64{10, 11}
	r.Pairs = []PairOutcome{{A: 10, B: 11, At: [2]float64{1, 0}, Angle: 180}}
	r.Stats = filter.Stats{Input: 3, Pairs: 1, Output: 2, Degenerate: 1}
	return r
}

func ptr(f float64) *float64 { return &f }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		a       Assertion
		wantErr bool
	}{
		{"selected match", Assertion{Type: AssertSelected, IDs: []int64{10, 11}}, false},
		{"selected order matters", Assertion{Type: AssertSelected, IDs: []int64{11, 10}}, true},
		{"selected subset", Assertion{Type: AssertSelected, IDs: []int64{10}}, true},
		{"excluded ok", Assertion{Type: AssertExcluded, IDs: []int64{12}}, false},
		{"excluded violated", Assertion{Type: AssertExcluded, IDs: []int64{12, 11}}, true},
		{"pair found", Assertion{Type: AssertPair, A: 10, B: 11}, false},
		{"pair reversed", Assertion{Type: AssertPair, A: 11, B: 10}, false},
		{"pair angle ok", Assertion{Type: AssertPair, A: 10, B: 11, Angle: ptr(180)}, false},
		{"pair angle wrong", Assertion{Type: AssertPair, A: 10, B: 11, Angle: ptr(179)}, true},
		{"pair missing", Assertion{Type: AssertPair, A: 10, B: 12}, true},
		{"no_pair ok", Assertion{Type: AssertNoPair, A: 10, B: 12}, false},
		{"no_pair violated", Assertion{Type: AssertNoPair, A: 11, B: 10}, true},
		{"pair_count ok", Assertion{Type: AssertPairCount, Count: 1}, false},
		{"pair_count wrong", Assertion{Type: AssertPairCount, Count: 2}, true},
		{"degenerate ok", Assertion{Type: AssertDegenerate, Count: 1}, false},
		{"degenerate wrong", Assertion{Type: AssertDegenerate, Count: 0}, true},
		{"unknown", Assertion{Type: "final_state"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluate(sampleResult(), tt.a)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := evaluate(sampleResult(), Assertion{Type: AssertPair, A: 10, B: 12})
	require.Error(t, err)

	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertPair, aerr.Type)

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: pair")
	assert.Contains(t, msg, "Expected: pair 10-12")
	assert.Contains(t, msg, "Actual: not found")
	assert.Contains(t, msg, "[1] 10-11 at 1 0")
}

func TestAssertionError_NoPairs(t *testing.T) {
	err := &AssertionError{Type: AssertPairCount, Expected: "1", Actual: "0"}
	assert.Contains(t, err.Error(), "(none)")
}
