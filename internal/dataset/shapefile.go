package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"

	"github.com/roach88/linecont/internal/geom"
)

// wgs84PRJ is written beside shapefile output when the source carried no
// .prj of its own. Coordinates are never reprojected.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// dbfStringSize is the width used for attribute columns that have no
// original dBase definition.
const dbfStringSize = 254

func loadShapefile(path string, policy UnsupportedPolicy) (*Dataset, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	defer r.Close()

	ds := &Dataset{Path: path, Format: FormatShapefile}
	seen := make(map[string]bool)
	fields := r.Fields()
	for i := range fields {
		fld := fields[i]
		ds.addField(Field{Name: normalizeKey(fld.String()), shp: &fld}, seen)
	}

	records := 0
	for r.Next() {
		records++
		n, shape := r.Shape()

		ls, kind := polyline(shape)
		if ls == nil {
			if err := ds.reject(policy, n, kind); err != nil {
				return nil, err
			}
			continue
		}

		props := make(map[string]any, len(fields))
		for k := range fields {
			props[ds.Fields[k].Name] = strings.TrimSpace(r.ReadAttribute(n, k))
		}

		idx := len(ds.Features)
		ds.Features = append(ds.Features, geom.Feature{
			ID:         featureID(props["id"], int64(n)),
			Index:      idx,
			Line:       ls,
			Properties: props,
		})
	}

	if err := r.Err(); err != nil {
		return nil, &InputNotFoundError{Path: path, Err: err}
	}
	// A file cut at a record boundary ends cleanly; the attribute table
	// still knows how many records there should be.
	if want := r.AttributeCount(); want > 0 && records != want {
		return nil, &InputNotFoundError{
			Path: path,
			Err:  fmt.Errorf("read %d shapes, attribute table has %d records", records, want),
		}
	}

	return ds, nil
}

// polyline converts a single-part polyline shape. For anything else it
// returns nil and a description of what was found.
func polyline(shape shp.Shape) (orb.LineString, string) {
	var (
		parts  []int32
		points []shp.Point
		kind   string
	)
	switch s := shape.(type) {
	case *shp.PolyLine:
		parts, points, kind = s.Parts, s.Points, "PolyLine"
	case *shp.PolyLineZ:
		parts, points, kind = s.Parts, s.Points, "PolyLineZ"
	case *shp.PolyLineM:
		parts, points, kind = s.Parts, s.Points, "PolyLineM"
	case nil:
		return nil, "null"
	default:
		return nil, fmt.Sprintf("%T", shape)
	}

	if len(parts) > 1 {
		return nil, fmt.Sprintf("%s(%d parts)", kind, len(parts))
	}
	if len(points) < 2 {
		return nil, fmt.Sprintf("%s(%d vertices)", kind, len(points))
	}

	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls, kind
}

func writeShapefile(path string, ds *Dataset, features []geom.Feature) error {
	w, err := shp.Create(path, shp.POLYLINE)
	if err != nil {
		return &OutputWriteError{Path: path, Err: err}
	}

	fields := make([]shp.Field, len(ds.Fields))
	for i, f := range ds.Fields {
		if f.shp != nil {
			fields[i] = *f.shp
			continue
		}
		name := f.Name
		if len(name) > 10 {
			name = name[:10]
		}
		fields[i] = shp.StringField(name, dbfStringSize)
	}
	if len(fields) > 0 {
		if err := w.SetFields(fields); err != nil {
			w.Close()
			return &OutputWriteError{Path: path, Err: err}
		}
	}

	for _, f := range features {
		pts := make([]shp.Point, len(f.Line))
		for i, p := range f.Line {
			pts[i] = shp.Point{X: p[0], Y: p[1]}
		}
		row := int(w.Write(shp.NewPolyLine([][]shp.Point{pts})))

		for k, fld := range ds.Fields {
			v, ok := f.Properties[fld.Name]
			if !ok || v == nil {
				continue
			}
			if err := w.WriteAttribute(row, k, fmt.Sprint(v)); err != nil {
				w.Close()
				return &OutputWriteError{Path: path, Err: err}
			}
		}
	}
	w.Close()

	return writePRJ(ds.Path, path)
}

// writePRJ copies the source .prj beside the output, or writes WGS84 when
// the source had none.
func writePRJ(src, dst string) error {
	dstPRJ := sidecar(dst, ".prj")
	srcPRJ := sidecar(src, ".prj")

	in, err := os.Open(srcPRJ)
	if errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(dstPRJ, []byte(wgs84PRJ), 0o644); err != nil {
			return &OutputWriteError{Path: dstPRJ, Err: err}
		}
		return nil
	}
	if err != nil {
		return &OutputWriteError{Path: dstPRJ, Err: err}
	}
	defer in.Close()

	out, err := os.Create(dstPRJ)
	if err != nil {
		return &OutputWriteError{Path: dstPRJ, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &OutputWriteError{Path: dstPRJ, Err: err}
	}
	if err := out.Close(); err != nil {
		return &OutputWriteError{Path: dstPRJ, Err: err}
	}
	return nil
}

// sidecar swaps the extension of a shapefile path.
func sidecar(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
