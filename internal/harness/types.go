package harness

import (
	"github.com/roach88/linecont/internal/filter"
)

// PairOutcome is a qualifying pair identified by line ids.
type PairOutcome struct {
	A         int64      `json:"a"`
	B         int64      `json:"b"`
	At        [2]float64 `json:"at"`
	Angle     float64    `json:"angle"`
	Deviation float64    `json:"deviation"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion holds.
	Pass bool `json:"pass"`

	// Selected are the ids of the output lines in input order.
	Selected []int64 `json:"selected"`

	// Pairs are the qualifying pairs in discovery order.
	Pairs []PairOutcome `json:"pairs"`

	// Stats are the filter counters.
	Stats filter.Stats `json:"stats"`

	// Hash is the result digest.
	Hash string `json:"hash"`

	// Errors contains assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Selected: []int64{},
		Pairs:    []PairOutcome{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// HasPair reports whether a and b form a qualifying pair, in either order.
func (r *Result) HasPair(a, b int64) (PairOutcome, bool) {
	for _, p := range r.Pairs {
		if (p.A == a && p.B == b) || (p.A == b && p.B == a) {
			return p, true
		}
	}
	return PairOutcome{}, false
}
