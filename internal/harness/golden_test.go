package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_StraightContinuation(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/straight_continuation.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestGolden_TiltedBranch(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/tilted_branch.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.NoError(t, AssertGolden(t, s.Name, result))
}

func TestSnapshot_Canonical(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)

	snap := Snapshot{ScenarioName: "minimal", Result: result}
	m := snap.toCanonicalMap()
	assert.Equal(t, "minimal", m["scenario"])
	pairs := m["pairs"].([]any)
	require.Len(t, pairs, 1)
	assert.Equal(t, "180.000", pairs[0].(map[string]any)["angle"])
	assert.Equal(t, "1 0", pairs[0].(map[string]any)["at"])
}
