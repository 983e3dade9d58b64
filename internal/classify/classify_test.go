package classify

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linecont/internal/geom"
	"github.com/roach88/linecont/internal/index"
)

func group(t *testing.T, features ...orb.LineString) *index.Group {
	t.Helper()
	fs := make([]geom.Feature, len(features))
	for i, ls := range features {
		fs[i] = geom.Feature{Index: i, Line: ls}
	}
	ix := index.Build(fs, index.DefaultEpsilon)
	g, ok := ix.Lookup(orb.Point{0, 0})
	require.True(t, ok, "fixtures must share the origin")
	return g
}

// ray returns a line from the origin toward the given bearing in degrees.
func ray(deg float64) orb.LineString {
	rad := deg * math.Pi / 180
	return orb.LineString{{0, 0}, {10 * math.Cos(rad), 10 * math.Sin(rad)}}
}

func TestQualifies(t *testing.T) {
	tests := []struct {
		name      string
		angle     float64
		tolerance float64
		expected  bool
	}{
		{"straight zero tolerance", 180, 0, true},
		{"straight", 180, 5, true},
		{"at boundary", 175, 5, true},
		{"just outside", 174.999, 5, false},
		{"right angle", 90, 5, false},
		{"right angle wide tolerance", 90, 90, true},
		{"u-turn", 0, 179, false},
		{"u-turn full tolerance", 0, 180, true},
		{"nan", math.NaN(), 180, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Qualifies(tt.angle, tt.tolerance))
		})
	}
}

func TestClassifyStraightQualifiesAtZeroTolerance(t *testing.T) {
	g := group(t,
		orb.LineString{{-1, 0}, {0, 0}},
		orb.LineString{{0, 0}, {1, 0}},
	)

	pairs := Classify(g, 0)
	require.Len(t, pairs, 1)
	assert.Equal(t, 0, pairs[0].A)
	assert.Equal(t, 1, pairs[0].B)
	assert.Equal(t, orb.Point{0, 0}, pairs[0].At)
	assert.InDelta(t, 180, pairs[0].Angle, 1e-12)
	assert.InDelta(t, 0, pairs[0].Deviation, 1e-12)
}

func TestClassifyDeviationBoundary(t *testing.T) {
	for _, d := range []float64{0.5, 3, 10, 45} {
		// Outward angle between ray(0) and ray(180-d) is 180-d.
		g := group(t, ray(0), ray(180-d))

		below := Classify(g, d+1e-6)
		assert.Len(t, below, 1, "d=%v must qualify at tolerance just above d", d)

		above := Classify(g, d-1e-6)
		assert.Empty(t, above, "d=%v must not qualify at tolerance just below d", d)
	}
}

func TestClassifySkipsDegenerate(t *testing.T) {
	g := group(t,
		orb.LineString{{-1, 0}, {0, 0}},
		orb.LineString{{0, 0}, {0, 0}},
		orb.LineString{{0, 0}, {2, 2}, {0, 0}},
	)

	assert.Empty(t, Classify(g, 180))
}

func TestClassifyNeverPairsFeatureWithItself(t *testing.T) {
	// Under a wide eps both ends of feature 1 join the key registered by
	// feature 0, and point in opposite directions.
	fs := []geom.Feature{
		{Index: 0, Line: orb.LineString{{0, 0}, {0, 5}}},
		{Index: 1, Line: orb.LineString{{-0.4, 0}, {0.4, 0}}},
	}
	ix := index.Build(fs, 0.5)
	g, ok := ix.Lookup(orb.Point{0, 0})
	require.True(t, ok)
	require.Len(t, g.Members, 3)

	pairs := Classify(g, 180)
	require.Len(t, pairs, 1, "one pair per feature pair")
	assert.Equal(t, 0, pairs[0].A)
	assert.Equal(t, 1, pairs[0].B)
	assert.InDelta(t, 90, pairs[0].Angle, 1e-9)
}

func TestClassifyKeepsBestPairWhenBothEndsMeetPartner(t *testing.T) {
	// Both ends of feature 1 snap to the origin key. Against feature 0 its
	// start doubles back and its end continues straight.
	fs := []geom.Feature{
		{Index: 0, Line: orb.LineString{{0, 0}, {-5, 0}}},
		{Index: 1, Line: orb.LineString{{0.4, 0}, {3, 3}, {-0.4, 0}}},
	}
	ix := index.Build(fs, 0.5)
	g, ok := ix.Lookup(orb.Point{0, 0})
	require.True(t, ok)
	require.Len(t, g.Members, 3)

	pairs := Classify(g, 180)
	require.Len(t, pairs, 1)
	assert.Equal(t, 180.0, pairs[0].Angle)
	assert.Equal(t, 0.0, pairs[0].Deviation)
}

func TestClassifyJunction(t *testing.T) {
	// Three features meeting at the origin: A west, B east, C north.
	g := group(t,
		orb.LineString{{-1, 0}, {0, 0}},
		orb.LineString{{0, 0}, {1, 0}},
		orb.LineString{{0, 0}, {0, 1}},
	)

	for _, tol := range []float64{5, 95} {
		pairs := Classify(g, tol)
		if tol < 90 {
			require.Len(t, pairs, 1)
			assert.Equal(t, [2]int{0, 1}, [2]int{pairs[0].A, pairs[0].B})
			continue
		}
		// A-C and B-C are 90° apart, deviation 90.
		require.Len(t, pairs, 3)
	}
}

func TestClassifyOrdersPairIndexes(t *testing.T) {
	g := group(t,
		orb.LineString{{1, 0}, {0, 0}},
		orb.LineString{{-1, 0}, {0, 0}},
	)
	g.Members[0], g.Members[1] = g.Members[1], g.Members[0]

	pairs := Classify(g, 1)
	require.Len(t, pairs, 1)
	assert.Less(t, pairs[0].A, pairs[0].B)
}
