// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/teclab/internal/polar"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Axis returns n evenly spaced values starting at start.
func Axis(start, step float64, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = start + float64(i)*step
	}
	return v
}

// NewGrid builds a full-circle grid of rows radial by cols angular cells,
// starting at theta0 with radial centres r0, r0+dr, ...
func NewGrid(t *testing.T, rows, cols int, theta0, r0, dr float64) *polar.Grid {
	t.Helper()
	g, err := polar.NewMeshGrid(Axis(theta0, polar.TwoPi/float64(cols), cols), Axis(r0, dr, rows))
	AssertNoError(t, err)
	return g
}

// SmallGrid is the R=4, T=8 grid with dθ=π/4, dr=1 and radial centres 1..4.
func SmallGrid(t *testing.T) *polar.Grid {
	t.Helper()
	return NewGrid(t, 4, 8, 0, 1, 1)
}

// Field fills a field on g with fn(theta, r).
func Field(g *polar.Grid, fn func(theta, r float64) float64) *mat.Dense {
	rows, cols := g.Dims()
	f := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			f.Set(i, j, fn(g.At(i, j)))
		}
	}
	return f
}

// PolarMask returns a h×w pixel mask over g.Bounds() with every pixel whose
// unprojected coordinate satisfies keep set.
func PolarMask(t *testing.T, g *polar.Grid, w, h int, keep func(theta, r float64) bool) [][]bool {
	t.Helper()
	vp, err := polar.NewViewport(g.Bounds(), w, h)
	AssertNoError(t, err)
	mask := make([][]bool, h)
	for row := range h {
		mask[row] = make([]bool, w)
		for col := range w {
			mask[row][col] = keep(polar.Unproject(vp.PixelToCart(col, row)))
		}
	}
	return mask
}

// NearestPixel returns the pixel closest to cartesian (x, y) on vp.
func NearestPixel(vp polar.Viewport, x, y float64) (col, row int) {
	c, r := vp.CartToPixel(x, y)
	return int(math.Round(c)), int(math.Round(r))
}
