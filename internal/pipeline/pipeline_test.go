package pipeline

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linecont/internal/config"
	"github.com/roach88/linecont/internal/dataset"
	"github.com/roach88/linecont/internal/preview"
	"github.com/roach88/linecont/internal/store"
	"github.com/roach88/linecont/internal/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func setup(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Input = testutil.WriteGeoJSON(t, dir, "lines.geojson", testutil.Junction())
	cfg.Output = filepath.Join(dir, "out", "filtered.geojson")
	return cfg
}

func fixedDeps(ids ...string) Deps {
	return Deps{
		IDs: store.NewFixedGenerator(ids...),
		Now: testutil.NewStepClock(epoch, time.Second).Now,
	}
}

func readOutput(t *testing.T, path string) *geojson.FeatureCollection {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	return fc
}

func TestRunWritesQualifyingFeatures(t *testing.T) {
	cfg := setup(t)

	rep, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	require.NoError(t, err)

	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, store.StatusWritten, rep.Status)
	assert.Equal(t, []int64{10, 11}, rep.Selected)
	require.Len(t, rep.Pairs, 1)
	assert.Equal(t, int64(10), rep.Pairs[0].A)
	assert.Equal(t, int64(11), rep.Pairs[0].B)
	assert.InDelta(t, 180.0, rep.Pairs[0].Angle, 1e-9)
	assert.Equal(t, 4, rep.Stats.Input)
	assert.Equal(t, 2, rep.Stats.Output)
	assert.Equal(t, time.Second, rep.Elapsed)
	assert.False(t, rep.Recorded)

	fc := readOutput(t, cfg.Output)
	require.Len(t, fc.Features, 2)
	assert.EqualValues(t, 10, fc.Features[0].Properties["id"])
	assert.EqualValues(t, 11, fc.Features[1].Properties["id"])
}

func TestRunWideToleranceKeepsRightAngle(t *testing.T) {
	cfg := setup(t)
	cfg.Tolerance = 95

	rep, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, rep.Selected)
	assert.Len(t, rep.Pairs, 3)
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := setup(t)

	first, err := Run(context.Background(), cfg, fixedDeps("a"))
	require.NoError(t, err)
	firstBytes, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)

	second, err := Run(context.Background(), cfg, fixedDeps("b"))
	require.NoError(t, err)
	secondBytes, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)

	assert.Equal(t, first.ResultHash, second.ResultHash)
	assert.Equal(t, first.Selected, second.Selected)
	assert.Equal(t, firstBytes, secondBytes)
}

func TestRunMissingInput(t *testing.T) {
	cfg := setup(t)
	cfg.Input = filepath.Join(t.TempDir(), "nope.geojson")

	rep, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	require.Error(t, err)
	assert.Nil(t, rep)
	assert.True(t, dataset.IsInputNotFound(err))
}

func TestRunInvalidTolerance(t *testing.T) {
	cfg := setup(t)
	cfg.Tolerance = -1

	_, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestRunWriteFailureStillReports(t *testing.T) {
	cfg := setup(t)
	cfg.Output = filepath.Join(t.TempDir(), "filtered.shp")
	cfg.Database = filepath.Join(t.TempDir(), "history.db")

	rep, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	require.Error(t, err)
	assert.True(t, dataset.IsOutputWrite(err))
	require.NotNil(t, rep)
	assert.Equal(t, store.StatusWriteFailed, rep.Status)
	assert.Equal(t, 2, rep.Stats.Output)
	assert.NotEmpty(t, rep.ResultHash)
	assert.True(t, rep.Recorded)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunRecordsHistory(t *testing.T) {
	cfg := setup(t)
	cfg.Database = filepath.Join(t.TempDir(), "history.db")

	rep, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	require.NoError(t, err)
	require.True(t, rep.Recorded)

	st, err := store.Open(cfg.Database)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), run.Seq)
	assert.Equal(t, rep.ResultHash, run.ResultHash)
	assert.Equal(t, store.StatusWritten, run.Status)
	assert.Equal(t, "2026-01-01T00:00:01Z", run.StartedAt)

	pairs, err := st.RunPairs(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, store.Pair{A: 10, B: 11, X: 1, Y: 0, Angle: 180, Deviation: 0}, pairs[0])
}

func TestInspectDoesNotWrite(t *testing.T) {
	cfg := setup(t)

	rep, err := Inspect(context.Background(), cfg, fixedDeps("run-1"))
	require.NoError(t, err)
	assert.Equal(t, store.StatusInspected, rep.Status)
	assert.Empty(t, rep.Output)
	assert.Equal(t, []int64{10, 11}, rep.Selected)

	// Both ends of D and the far ends of A, B and C touch nothing.
	assert.Len(t, rep.Dangling, 5)
	assert.Empty(t, rep.Gaps, "no dangling pair continues within tolerance")

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInspectProposesGapBridges(t *testing.T) {
	cfg := setup(t)
	cfg.Input = testutil.WriteGeoJSON(t, t.TempDir(), "gapped.geojson", testutil.Gapped())

	rep, err := Inspect(context.Background(), cfg, fixedDeps("run-1"))
	require.NoError(t, err)
	assert.Empty(t, rep.Selected)
	require.Len(t, rep.Gaps, 1)
	g := rep.Gaps[0]
	assert.Equal(t, int64(20), g.From)
	assert.Equal(t, int64(21), g.To)
	assert.Equal(t, [2]float64{1, 0}, g.FromAt)
	assert.Equal(t, [2]float64{1.2, 0}, g.ToAt)
	assert.InDelta(t, 0.2, g.Distance, 1e-12)

	cfg.MaxGap = 0.1
	rep, err = Inspect(context.Background(), cfg, fixedDeps("run-2"))
	require.NoError(t, err)
	assert.Empty(t, rep.Gaps)
}

func TestRunDoesNotSearchGaps(t *testing.T) {
	cfg := setup(t)
	cfg.Input = testutil.WriteGeoJSON(t, t.TempDir(), "gapped.geojson", testutil.Gapped())

	rep, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	require.NoError(t, err)
	assert.Nil(t, rep.Gaps)
}

func TestReportLengths(t *testing.T) {
	cfg := setup(t)

	rep, err := Run(context.Background(), cfg, fixedDeps("run-1"))
	require.NoError(t, err)
	assert.InDelta(t, 3+math.Sqrt2, rep.InputLength, 1e-12)
	assert.InDelta(t, 2, rep.SelectedLength, 1e-12)
}

func TestRunWritesPreview(t *testing.T) {
	cfg := setup(t)
	cfg.Preview = filepath.Join(t.TempDir(), "preview.png")

	deps := fixedDeps("run-1")
	deps.Preview = preview.Options{Width: 64, Height: 64, Margin: 2, Background: preview.DefaultOptions().Background, Base: preview.DefaultOptions().Base}

	rep, err := Run(context.Background(), cfg, deps)
	require.NoError(t, err)
	assert.Equal(t, cfg.Preview, rep.Preview)

	info, err := os.Stat(cfg.Preview)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunCancelledBeforeWrite(t *testing.T) {
	cfg := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, cfg, fixedDeps("run-1"))
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(cfg.Output)
	assert.True(t, os.IsNotExist(statErr))
}
