package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// createTestStore opens a fresh history database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun returns a run with every required column filled.
func createTestRun(id string) Run {
	return Run{
		ID:          id,
		Input:       "in.shp",
		Output:      "out.shp",
		Tolerance:   5,
		Epsilon:     1e-9,
		InputCount:  3,
		Junctions:   1,
		PairCount:   1,
		OutputCount: 2,
		ResultHash:  "hash-" + id,
		Status:      StatusWritten,
		StartedAt:   "2026-01-01T00:00:00Z",
	}
}
