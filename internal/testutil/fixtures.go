package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linecont/internal/geom"
)

// Line builds a feature with an "id" attribute from x, y coordinate pairs.
// Index is left at zero; Lines assigns positions.
func Line(id int64, xy ...float64) geom.Feature {
	if len(xy)%2 != 0 {
		panic("testutil.Line: odd number of coordinates")
	}
	ls := make(orb.LineString, 0, len(xy)/2)
	for i := 0; i < len(xy); i += 2 {
		ls = append(ls, orb.Point{xy[i], xy[i+1]})
	}
	return geom.Feature{ID: id, Line: ls, Properties: map[string]any{"id": id}}
}

// Lines assigns input positions to features in order.
func Lines(features ...geom.Feature) []geom.Feature {
	for i := range features {
		features[i].Index = i
	}
	return features
}

// Junction is the canonical three-way fixture: 10 and 11 continue each
// other through (1, 0), 12 leaves that point at a right angle and 13 is
// isolated.
func Junction() []geom.Feature {
	return Lines(
		Line(10, 0, 0, 1, 0),
		Line(11, 1, 0, 2, 0),
		Line(12, 1, 0, 1, 1),
		Line(13, 5, 5, 6, 6),
	)
}

// Gapped returns two collinear lines separated by a 0.2 gap:
// 20 (0,0)-(1,0) and 21 (1.2,0)-(2.2,0).
func Gapped() []geom.Feature {
	return Lines(
		Line(20, 0, 0, 1, 0),
		Line(21, 1.2, 0, 2.2, 0),
	)
}

// WriteGeoJSON writes features as a FeatureCollection to dir/name and
// returns the path.
func WriteGeoJSON(t testing.TB, dir, name string, features []geom.Feature) string {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.Line)
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	data, err := fc.MarshalJSON()
	require.NoError(t, err)

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
