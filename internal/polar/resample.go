package polar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Resample maps a polar field aligned to g onto a w×h cartesian raster
// covering g.Bounds(), using cubic B-spline interpolation in grid index space.
//
// Each pixel is inverse-projected and converted to fractional indices
// relative to the first grid sample. The field is extended by one angular
// sample equal to angular index 0, so positions between the last column and
// the 2π seam interpolate towards the wrap instead of being rejected. Any
// position outside the extended index range, or whose spline support touches
// a NaN sample, is NaN in the output.
func Resample(field *mat.Dense, g *Grid, w, h int) (*Raster, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrShapeMismatch)
	}
	if field == nil {
		return nil, fmt.Errorf("%w: nil field", ErrShapeMismatch)
	}
	rows, cols := g.Dims()
	if fr, fc := field.Dims(); fr != rows || fc != cols {
		return nil, fmt.Errorf("%w: field is %dx%d, grid is %dx%d", ErrShapeMismatch, fr, fc, rows, cols)
	}
	vp, err := NewViewport(g.Bounds(), w, h)
	if err != nil {
		return nil, err
	}

	spl := newBSpline(seamExtended(field), cols+1, rows)
	theta0, r0 := g.ThetaAt(0), g.RAt(0)
	dTheta, dR := g.DTheta(), g.DR()

	out := NewRaster(vp)
	for row := range h {
		for col := range w {
			theta, r := Unproject(vp.PixelToCart(col, row))
			u := math.Mod(theta-theta0, TwoPi)
			if u < 0 {
				u += TwoPi
			}
			out.Set(col, row, spl.at(u/dTheta, (r-r0)/dR))
		}
	}
	return out, nil
}

// seamExtended returns the field transposed to angular-major order, (T+1)×R,
// with the extra angular sample T equal to sample 0.
func seamExtended(field *mat.Dense) []float64 {
	rows, cols := field.Dims()
	ext := make([]float64, (cols+1)*rows)
	for j := range cols + 1 {
		src := j % cols
		for i := range rows {
			ext[j*rows+i] = field.At(i, src)
		}
	}
	return ext
}
