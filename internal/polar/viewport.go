package polar

import "fmt"

// Viewport maps a W×H pixel lattice onto a cartesian box. Pixel centres are
// evenly spaced with the first and last column (row) on the box's x (y)
// edges, and row 0 lies on YMin. Every raster in the system, display or draw
// surface, goes through a Viewport so that the inverse transform used for
// labelling is exactly the one used for display.
type Viewport struct {
	Bounds Bounds
	W, H   int

	dx, dy float64
}

// NewViewport builds the pixel lattice for a w×h raster covering b.
func NewViewport(b Bounds, w, h int) (Viewport, error) {
	if w <= 0 || h <= 0 {
		return Viewport{}, fmt.Errorf("%w: %dx%d", ErrRasterSize, w, h)
	}
	v := Viewport{Bounds: b, W: w, H: h}
	if w > 1 {
		v.dx = b.Width() / float64(w-1)
	}
	if h > 1 {
		v.dy = b.Height() / float64(h-1)
	}
	return v, nil
}

// PixelSize returns the cartesian size of one pixel step along x and y.
func (v Viewport) PixelSize() (dx, dy float64) { return v.dx, v.dy }

// X returns the cartesian x of pixel column col.
func (v Viewport) X(col int) float64 { return v.Bounds.XMin + float64(col)*v.dx }

// Y returns the cartesian y of pixel row row.
func (v Viewport) Y(row int) float64 { return v.Bounds.YMin + float64(row)*v.dy }

// PixelToCart returns the cartesian centre of pixel (col, row).
func (v Viewport) PixelToCart(col, row int) (x, y float64) {
	return v.X(col), v.Y(row)
}

// CartToPixel returns the fractional pixel position of (x, y). A degenerate
// axis (one pixel wide) maps everything to 0.
func (v Viewport) CartToPixel(x, y float64) (col, row float64) {
	if v.dx != 0 {
		col = (x - v.Bounds.XMin) / v.dx
	}
	if v.dy != 0 {
		row = (y - v.Bounds.YMin) / v.dy
	}
	return col, row
}
