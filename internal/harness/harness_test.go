package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios(t *testing.T) {
	results, err := RunDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for name, result := range results {
		t.Run(name, func(t *testing.T) {
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ReportsFailedAssertions(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	s.Assertions = []Assertion{
		{Type: AssertSelected, IDs: []int64{1}},
		{Type: AssertNoPair, A: 1, B: 2},
		{Type: AssertPairCount, Count: 1},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[1], "assertions[1]")
}

func TestRun_InvalidOptions(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	bad := 200.0
	s.Tolerance = &bad

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario minimal")
}

func TestRun_TranslatesIDs(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, result.Selected)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, PairOutcome{A: 1, B: 2, At: [2]float64{1, 0}, Angle: 180, Deviation: 0}, result.Pairs[0])
	assert.Len(t, result.Hash, 64)
}

func TestRunDir_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(minimalScenario), 0o644))
	}

	_, err := RunDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate scenario name")
}

func TestRunDir_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: [unclosed"), 0o644))

	_, err := RunDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
