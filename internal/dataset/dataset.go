// Package dataset reads and writes line-feature datasets.
//
// Two formats are supported, chosen by file extension:
//
//   - ESRI shapefile (.shp, with its .dbf and optional .prj)
//   - GeoJSON FeatureCollection (.geojson, .json)
//
// Only single-part line geometry is accepted. What happens to anything else
// is decided by an UnsupportedPolicy that applies to every feature of every
// format alike.
package dataset

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/linecont/internal/geom"
)

// Format identifies an on-disk vector format.
type Format string

const (
	FormatShapefile Format = "shapefile"
	FormatGeoJSON   Format = "geojson"
)

// DetectFormat maps a path's extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return FormatShapefile, nil
	case ".geojson", ".json":
		return FormatGeoJSON, nil
	default:
		return "", fmt.Errorf("unrecognised vector format for %q (want .shp, .geojson or .json)", path)
	}
}

// UnsupportedPolicy decides what happens to non-line features.
type UnsupportedPolicy string

const (
	// PolicySkip drops the feature and logs a warning.
	PolicySkip UnsupportedPolicy = "skip"
	// PolicyAbort fails the load on the first offending feature.
	PolicyAbort UnsupportedPolicy = "abort"
)

// ParsePolicy validates a policy name. Empty means PolicySkip.
func ParsePolicy(s string) (UnsupportedPolicy, error) {
	switch UnsupportedPolicy(s) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", fmt.Errorf("invalid unsupported-geometry policy %q: must be skip or abort", s)
	}
}

// Field is one attribute column.
type Field struct {
	Name string
	// shp is the original dBase definition, so shapefile schemas round-trip.
	shp *shp.Field
}

// Dataset is a loaded source.
type Dataset struct {
	Path     string
	Format   Format
	Features []geom.Feature
	Fields   []Field
	// Skipped counts features dropped under PolicySkip.
	Skipped int

	// foreignIDs keeps GeoJSON feature ids by feature index.
	foreignIDs map[int]any
}

// Load reads path, choosing the reader by extension.
func Load(path string, policy UnsupportedPolicy) (*Dataset, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}

	var ds *Dataset
	switch format {
	case FormatShapefile:
		ds, err = loadShapefile(path, policy)
	case FormatGeoJSON:
		ds, err = loadGeoJSON(path, policy)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("dataset loaded",
		"path", path,
		"format", ds.Format,
		"features", len(ds.Features),
		"skipped", ds.Skipped,
	)
	return ds, nil
}

// Write persists features to path in the dataset's format. Parent
// directories are created. The output extension must match the format.
func Write(path string, ds *Dataset, features []geom.Feature) error {
	format, err := DetectFormat(path)
	if err != nil {
		return &OutputWriteError{Path: path, Err: err}
	}
	if format != ds.Format {
		return &OutputWriteError{Path: path, Err: fmt.Errorf("output format %s does not match input format %s", format, ds.Format)}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &OutputWriteError{Path: path, Err: err}
		}
	}

	switch format {
	case FormatShapefile:
		err = writeShapefile(path, ds, features)
	case FormatGeoJSON:
		err = writeGeoJSON(path, ds, features)
	}
	if err != nil {
		return err
	}

	slog.Debug("dataset written", "path", path, "format", format, "features", len(features))
	return nil
}

// reject applies policy to an unsupported feature. It returns a non-nil
// error only under PolicyAbort.
func (ds *Dataset) reject(policy UnsupportedPolicy, feature int, geometry string) error {
	uerr := &UnsupportedGeometryError{Path: ds.Path, Feature: feature, Geometry: geometry}
	if policy == PolicyAbort {
		return uerr
	}
	ds.Skipped++
	slog.Warn("skipping unsupported feature", "path", ds.Path, "feature", feature, "geometry", geometry)
	return nil
}

// addField registers an attribute name once, in first-seen order.
func (ds *Dataset) addField(f Field, seen map[string]bool) {
	if seen[f.Name] {
		return
	}
	seen[f.Name] = true
	ds.Fields = append(ds.Fields, f)
}

// normalizeKey NFC-normalises an attribute name so visually identical
// names from different encoders compare equal.
func normalizeKey(k string) string {
	return norm.NFC.String(k)
}

// featureID extracts an integral "id" attribute, falling back to fallback.
func featureID(v any, fallback int64) int64 {
	switch id := v.(type) {
	case float64:
		if id == math.Trunc(id) && !math.IsInf(id, 0) {
			return int64(id)
		}
	case int64:
		return id
	case int:
		return int64(id)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(id), 64); err == nil && f == math.Trunc(f) {
			return int64(f)
		}
	}
	return fallback
}
