package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"

	"github.com/roach88/linecont/internal/filter"
	"github.com/roach88/linecont/internal/geom"
)

// Options controls the canvas.
type Options struct {
	Width      int
	Height     int
	Margin     int
	Background color.Color
	Base       color.Color
}

// DefaultOptions returns a 1024x1024 canvas on white with grey base lines.
func DefaultOptions() Options {
	return Options{
		Width:      1024,
		Height:     1024,
		Margin:     16,
		Background: color.White,
		Base:       color.NRGBA{R: 190, G: 190, B: 190, A: 255},
	}
}

// Palette returns n distinct colours with evenly spaced HCL hues.
func Palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		h := 360 * float64(i) / float64(max(n, 1))
		out[i] = colorful.Hcl(h, 0.6, 0.55).Clamped()
	}
	return out
}

// projection maps dataset coordinates to y-up pixel coordinates.
type projection struct {
	min    orb.Point
	scale  float64
	margin float64
}

func newProjection(b orb.Bound, opts Options) projection {
	w := float64(opts.Width - 2*opts.Margin - 1)
	h := float64(opts.Height - 2*opts.Margin - 1)
	dx := b.Max[0] - b.Min[0]
	dy := b.Max[1] - b.Min[1]

	scale := 1.0
	switch {
	case dx > 0 && dy > 0:
		scale = math.Min(w/dx, h/dy)
	case dx > 0:
		scale = w / dx
	case dy > 0:
		scale = h / dy
	}
	return projection{min: b.Min, scale: scale, margin: float64(opts.Margin)}
}

func (p projection) pixel(pt orb.Point) (int, int) {
	x := p.margin + (pt[0]-p.min[0])*p.scale
	y := p.margin + (pt[1]-p.min[1])*p.scale
	return int(math.Round(x)), int(math.Round(y))
}

// Render draws every feature in the base colour, then the features of each
// qualifying pair in their junction's colour.
func Render(features []geom.Feature, res *filter.Result, opts Options) (*image.NRGBA, error) {
	if opts.Width <= 2*opts.Margin || opts.Height <= 2*opts.Margin {
		return nil, fmt.Errorf("canvas %dx%d too small for margin %d", opts.Width, opts.Height, opts.Margin)
	}

	canvas := imaging.New(opts.Width, opts.Height, opts.Background)
	if len(features) == 0 {
		return canvas, nil
	}

	bound := features[0].Line.Bound()
	for _, f := range features[1:] {
		bound = bound.Union(f.Line.Bound())
	}
	proj := newProjection(bound, opts)

	for _, f := range features {
		drawLine(canvas, proj, f.Line, opts.Base)
	}

	if res != nil {
		junction := map[orb.Point]int{}
		for _, p := range res.Pairs {
			if _, ok := junction[p.At]; !ok {
				junction[p.At] = len(junction)
			}
		}
		colors := Palette(len(junction))
		for _, p := range res.Pairs {
			c := colors[junction[p.At]]
			drawLine(canvas, proj, features[p.A].Line, c)
			drawLine(canvas, proj, features[p.B].Line, c)
		}
	}

	return imaging.FlipV(canvas), nil
}

// Save writes img as PNG (or any format imaging infers from the extension),
// creating parent directories.
func Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preview directory: %w", err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}

func drawLine(img *image.NRGBA, proj projection, ls orb.LineString, c color.Color) {
	for i := 1; i < len(ls); i++ {
		x0, y0 := proj.pixel(ls[i-1])
		x1, y1 := proj.pixel(ls[i])
		segment(img, x0, y0, x1, y1, c)
	}
}

// segment is Bresenham's line algorithm.
func segment(img *image.NRGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
