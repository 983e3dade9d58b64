package gap

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linecont/internal/filter"
	"github.com/roach88/linecont/internal/geom"
)

func features(lines ...orb.LineString) []geom.Feature {
	fs := make([]geom.Feature, len(lines))
	for i, ls := range lines {
		fs[i] = geom.Feature{ID: int64(i), Index: i, Line: ls}
	}
	return fs
}

func find(t *testing.T, fs []geom.Feature, opts Options) []Candidate {
	t.Helper()
	res, err := filter.Filter(fs, filter.DefaultOptions())
	require.NoError(t, err)
	return Find(fs, res.Dangling, opts)
}

func TestFindStraightGap(t *testing.T) {
	fs := features(
		orb.LineString{{0, 0}, {1, 0}},
		orb.LineString{{1.2, 0}, {2.2, 0}},
		orb.LineString{{1.2, 0.5}, {1.2, 1.5}},
	)

	got := find(t, fs, Options{ToleranceDegrees: 5})
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, 0, c.From)
	assert.Equal(t, 1, c.To)
	assert.Equal(t, orb.Point{1, 0}, c.FromAt)
	assert.Equal(t, orb.Point{1.2, 0}, c.ToAt)
	assert.InDelta(t, 0.2, c.Distance, 1e-12)
	assert.Equal(t, 0.0, c.Deviation)
	assert.Equal(t, 0.0, c.BridgeDeviation)
}

func TestFindRespectsMaxDistance(t *testing.T) {
	fs := features(
		orb.LineString{{0, 0}, {1, 0}},
		orb.LineString{{1.2, 0}, {2.2, 0}},
	)

	assert.Empty(t, find(t, fs, Options{ToleranceDegrees: 5, MaxDistance: 0.1}))
	assert.Len(t, find(t, fs, Options{ToleranceDegrees: 5, MaxDistance: 0.5}), 1)
}

func TestFindChecksBridgeTurn(t *testing.T) {
	// Parallel features offset sideways: the headings agree but the bridge
	// turns about 56 degrees into the next feature.
	fs := features(
		orb.LineString{{0, 0}, {1, 0}},
		orb.LineString{{1.2, 0.3}, {2.2, 0.3}},
	)

	assert.Empty(t, find(t, fs, Options{ToleranceDegrees: 5}))

	got := find(t, fs, Options{ToleranceDegrees: 60})
	require.Len(t, got, 1)
	assert.InDelta(t, 56.31, got[0].BridgeDeviation, 0.01)
}

func TestFindPrefersSmoothestNeighbour(t *testing.T) {
	// Feature 1 starts closer but turns north; feature 2 continues east.
	fs := features(
		orb.LineString{{0, 0}, {1, 0}},
		orb.LineString{{1.1, 0}, {1.1, 1}},
		orb.LineString{{1.3, 0}, {2.3, 0}},
	)

	got := find(t, fs, Options{ToleranceDegrees: 5})
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].From)
	assert.Equal(t, 2, got[0].To)
}

func TestFindNeverBridgesFeatureToItself(t *testing.T) {
	fs := features(orb.LineString{{0, 0}, {1, 0}, {0.1, 0.05}})

	assert.Empty(t, find(t, fs, Options{ToleranceDegrees: 180}))
}

func TestFindNoDanglingStarts(t *testing.T) {
	assert.Nil(t, Find(nil, nil, Options{ToleranceDegrees: 5}))

	fs := features(orb.LineString{{0, 0}, {1, 0}})
	dangling := []filter.Dangling{{Feature: 0, End: geom.Finish, At: orb.Point{1, 0}}}
	assert.Nil(t, Find(fs, dangling, Options{ToleranceDegrees: 5}))
}

func TestFindOrdersByLeavingFeature(t *testing.T) {
	fs := features(
		orb.LineString{{10, 0}, {11, 0}},
		orb.LineString{{11.2, 0}, {12.2, 0}},
		orb.LineString{{0, 0}, {1, 0}},
		orb.LineString{{1.2, 0}, {2.2, 0}},
	)

	got := find(t, fs, Options{ToleranceDegrees: 5})
	require.Len(t, got, 2)
	assert.Equal(t, [2]int{0, 1}, [2]int{got[0].From, got[0].To})
	assert.Equal(t, [2]int{2, 3}, [2]int{got[1].From, got[1].To})
}
