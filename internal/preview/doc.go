// Package preview renders a dataset to a PNG with the features that take
// part in a qualifying pair highlighted.
//
// Coordinates are projected linearly onto the canvas with a uniform scale,
// so the picture keeps the dataset's aspect ratio. Drawing happens in a
// y-up frame and the canvas is flipped at the end, so north is up.
//
// Each junction with at least one qualifying pair gets its own hue, spread
// evenly around the HCL wheel. Features outside every pair are drawn in the
// base colour underneath.
package preview
