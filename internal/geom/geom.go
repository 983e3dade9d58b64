package geom

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a 2D coordinate.
type Point = orb.Point

// End identifies which endpoint of a feature touches a junction.
type End int

const (
	// Start is the first vertex of the line.
	Start End = iota
	// Finish is the last vertex of the line.
	Finish
)

func (e End) String() string {
	if e == Start {
		return "start"
	}
	return "end"
}

// Other returns the opposite endpoint.
func (e End) Other() End {
	if e == Start {
		return Finish
	}
	return Start
}

// Feature is a single polyline read from a dataset.
//
// Index is the feature's position in the source dataset and is the identity
// used for de-duplication and ordering. ID is the dataset's own identifier
// (the "id" attribute when present), carried for reporting only.
type Feature struct {
	ID         int64
	Index      int
	Line       orb.LineString
	Properties map[string]any
}

// Vector is a 2D displacement.
type Vector struct {
	DX, DY float64
}

// Sub returns the vector from b to a.
func Sub(a, b Point) Vector {
	return Vector{DX: a[0] - b[0], DY: a[1] - b[1]}
}

// Dot returns the dot product of v and w.
func (v Vector) Dot(w Vector) float64 {
	return v.DX*w.DX + v.DY*w.DY
}

// Cross returns the z component of the cross product of v and w.
func (v Vector) Cross(w Vector) float64 {
	return v.DX*w.DY - v.DY*w.DX
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	return math.Hypot(v.DX, v.DY)
}

// DegenerateGeometryError reports a feature whose endpoints coincide, so no
// outward direction exists.
type DegenerateGeometryError struct {
	Index int
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("feature %d: endpoints coincide, no direction", e.Index)
}

// Endpoints returns the first and last vertex of f.
// The loader guarantees at least two vertices.
func Endpoints(f Feature) (start, end Point) {
	return f.Line[0], f.Line[len(f.Line)-1]
}

// EndPoint returns the vertex at the given end of f.
func EndPoint(f Feature, e End) Point {
	start, end := Endpoints(f)
	if e == Start {
		return start
	}
	return end
}

// IsDegenerate reports whether the endpoints of f are within eps of each
// other. Closed rings are degenerate under this definition.
func IsDegenerate(f Feature, eps float64) bool {
	start, end := Endpoints(f)
	return planar.Distance(start, end) <= eps
}

// Direction returns the outward vector from the given endpoint of f toward
// its opposite endpoint.
func Direction(f Feature, from End, eps float64) (Vector, error) {
	if IsDegenerate(f, eps) {
		return Vector{}, &DegenerateGeometryError{Index: f.Index}
	}
	return Sub(EndPoint(f, from.Other()), EndPoint(f, from)), nil
}

// AngleBetween returns the unsigned angle between v1 and v2 in degrees,
// in the range [0, 180]. It uses atan2 of the cross and dot products, which
// keeps parallel and opposite vectors exact at 0 and 180 where acos of a
// normalised cosine loses precision. Zero vectors yield NaN.
func AngleBetween(v1, v2 Vector) float64 {
	if (v1.DX == 0 && v1.DY == 0) || (v2.DX == 0 && v2.DY == 0) {
		return math.NaN()
	}
	rad := math.Atan2(math.Abs(v1.Cross(v2)), v1.Dot(v2))
	return rad * 180 / math.Pi
}

// Length returns the planar length of f.
func Length(f Feature) float64 {
	return planar.Length(f.Line)
}
