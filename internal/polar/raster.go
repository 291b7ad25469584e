package polar

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Raster is a scalar cartesian image: H rows by W columns, row 0 at the
// viewport's minimum-y edge. NaN marks locations with no source data.
type Raster struct {
	vp   Viewport
	data *mat.Dense
}

// NewRaster allocates a NaN-free zero raster for the viewport.
func NewRaster(vp Viewport) *Raster {
	return &Raster{vp: vp, data: mat.NewDense(vp.H, vp.W, nil)}
}

// Viewport returns the pixel<->cartesian transform of the raster.
func (r *Raster) Viewport() Viewport { return r.vp }

// Dims returns the raster width and height in pixels.
func (r *Raster) Dims() (w, h int) { return r.vp.W, r.vp.H }

// At returns the value at pixel (col, row).
func (r *Raster) At(col, row int) float64 { return r.data.At(row, col) }

// Set stores v at pixel (col, row).
func (r *Raster) Set(col, row int, v float64) { r.data.Set(row, col, v) }

// Matrix exposes the raster as an H×W matrix. The matrix shares storage with
// the raster.
func (r *Raster) Matrix() *mat.Dense { return r.data }

// Range returns the finite minimum and maximum. ok is false when every sample
// is NaN.
func (r *Raster) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	raw := r.data.RawMatrix()
	for i := range raw.Rows {
		for _, v := range raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols] {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi, lo <= hi
}

// CountNaN returns the number of samples without data.
func (r *Raster) CountNaN() int {
	n := 0
	for row := range r.vp.H {
		for col := range r.vp.W {
			if math.IsNaN(r.At(col, row)) {
				n++
			}
		}
	}
	return n
}
