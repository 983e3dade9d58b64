// Package geom provides the planar primitives used by the continuation
// analysis: line features, their endpoints, outward direction vectors and
// the unsigned angle between two vectors.
//
// # Conventions
//
// Directions are measured OUTWARD from a shared endpoint toward the
// feature's opposite endpoint (the full chord, not the terminal segment).
// Two features that pass straight through a junction therefore have
// outward vectors pointing away from each other, and the angle between
// them is 180°.
//
// Coordinates are treated as planar. No reprojection is performed; for
// geographic (lon/lat) input the angles are computed in degree space.
package geom
