package dataset

import (
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/roach88/linecont/internal/geom"
)

func loadGeoJSON(path string, policy UnsupportedPolicy) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: fmt.Errorf("parse geojson: %w", err)}
	}

	ds := &Dataset{Path: path, Format: FormatGeoJSON, foreignIDs: make(map[int]any)}
	seen := make(map[string]bool)

	for i, f := range fc.Features {
		ls, ok := f.Geometry.(orb.LineString)
		if !ok || len(ls) < 2 {
			if err := ds.reject(policy, i, geometryName(f.Geometry)); err != nil {
				return nil, err
			}
			continue
		}

		props := make(map[string]any, len(f.Properties))
		keys := make([]string, 0, len(f.Properties))
		for k, v := range f.Properties {
			nk := normalizeKey(k)
			props[nk] = v
			keys = append(keys, nk)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ds.addField(Field{Name: k}, seen)
		}

		idx := len(ds.Features)
		id := featureID(props["id"], featureID(f.ID, int64(i)))
		if f.ID != nil {
			ds.foreignIDs[idx] = f.ID
		}
		ds.Features = append(ds.Features, geom.Feature{
			ID:         id,
			Index:      idx,
			Line:       ls.Clone(),
			Properties: props,
		})
	}

	return ds, nil
}

func writeGeoJSON(path string, ds *Dataset, features []geom.Feature) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.Line)
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		if id, ok := ds.foreignIDs[f.Index]; ok {
			gf.ID = id
		}
		fc.Append(gf)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return &OutputWriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &OutputWriteError{Path: path, Err: err}
	}
	return nil
}

func geometryName(g orb.Geometry) string {
	if g == nil {
		return "null"
	}
	if ls, ok := g.(orb.LineString); ok {
		return fmt.Sprintf("LineString(%d vertices)", len(ls))
	}
	return g.GeoJSONType()
}
