package polar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TwoPi is the period of the angular coordinate.
const TwoPi = 2 * math.Pi

// DefaultStepTolerance is the relative (and absolute) tolerance allowed between
// each consecutive grid difference and the mean step.
const DefaultStepTolerance = 1e-6

// Bounds is an axis-aligned cartesian bounding box.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Width returns the x extent of the box.
func (b Bounds) Width() float64 { return b.XMax - b.XMin }

// Height returns the y extent of the box.
func (b Bounds) Height() float64 { return b.YMax - b.YMin }

// Grid describes the centres of a polar grid of R radial rows by T angular
// columns. Theta increases along columns and r increases along rows, both with
// a constant step. A Grid is immutable once built.
type Grid struct {
	theta *mat.Dense
	r     *mat.Dense

	rows, cols int
	dTheta     float64
	dR         float64
	bounds     Bounds
}

type gridOptions struct {
	stepTolerance float64
}

// GridOption configures NewGrid.
type GridOption func(*gridOptions)

// WithStepTolerance overrides DefaultStepTolerance for the uniformity check.
func WithStepTolerance(tol float64) GridOption {
	return func(o *gridOptions) {
		if tol > 0 {
			o.stepTolerance = tol
		}
	}
}

// NewGrid validates the theta/r centre arrays and derives the constant steps
// and the cartesian bounding box of the projected centres. The arrays are
// copied; later changes by the caller do not affect the Grid.
func NewGrid(theta, r *mat.Dense, opts ...GridOption) (*Grid, error) {
	o := gridOptions{stepTolerance: DefaultStepTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	if theta == nil || r == nil {
		return nil, fmt.Errorf("%w: nil grid array", ErrShapeMismatch)
	}
	tr, tc := theta.Dims()
	rr, rc := r.Dims()
	if tr != rr || tc != rc {
		return nil, fmt.Errorf("%w: theta is %dx%d, r is %dx%d", ErrShapeMismatch, tr, tc, rr, rc)
	}
	if tr < 2 || tc < 2 {
		return nil, fmt.Errorf("%w: grid must be at least 2x2, got %dx%d", ErrShapeMismatch, tr, tc)
	}

	if err := checkMesh(theta, r, o.stepTolerance); err != nil {
		return nil, err
	}
	dTheta, err := uniformStep(mat.Row(nil, 0, theta), o.stepTolerance)
	if err != nil {
		return nil, fmt.Errorf("theta: %w", err)
	}
	dR, err := uniformStep(mat.Col(nil, 0, r), o.stepTolerance)
	if err != nil {
		return nil, fmt.Errorf("r: %w", err)
	}

	g := &Grid{
		theta:  mat.DenseCopyOf(theta),
		r:      mat.DenseCopyOf(r),
		rows:   tr,
		cols:   tc,
		dTheta: dTheta,
		dR:     dR,
	}
	g.bounds = g.projectedBounds()
	return g, nil
}

// NewMeshGrid builds a Grid from 1-D angular and radial centre vectors, the
// way a meshgrid of (thetas, radii) would.
func NewMeshGrid(thetas, radii []float64, opts ...GridOption) (*Grid, error) {
	if len(thetas) == 0 || len(radii) == 0 {
		return nil, fmt.Errorf("%w: empty axis", ErrShapeMismatch)
	}
	rows, cols := len(radii), len(thetas)
	theta := mat.NewDense(rows, cols, nil)
	r := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			theta.Set(i, j, thetas[j])
			r.Set(i, j, radii[i])
		}
	}
	return NewGrid(theta, r, opts...)
}

// checkMesh requires every row of theta to match row 0 and every column of r
// to match column 0.
func checkMesh(theta, r mat.Matrix, tol float64) error {
	rows, cols := theta.Dims()
	for i := 1; i < rows; i++ {
		for j := range cols {
			if !scalar.EqualWithinAbsOrRel(theta.At(i, j), theta.At(0, j), tol, tol) {
				return fmt.Errorf("%w: theta(%d,%d) = %g differs from row 0 (%g)", ErrShapeMismatch, i, j, theta.At(i, j), theta.At(0, j))
			}
		}
	}
	for j := 1; j < cols; j++ {
		for i := range rows {
			if !scalar.EqualWithinAbsOrRel(r.At(i, j), r.At(i, 0), tol, tol) {
				return fmt.Errorf("%w: r(%d,%d) = %g differs from column 0 (%g)", ErrShapeMismatch, i, j, r.At(i, j), r.At(i, 0))
			}
		}
	}
	return nil
}

// uniformStep returns the mean of consecutive differences and fails when any
// difference strays from it or the sequence is not increasing.
func uniformStep(vals []float64, tol float64) (float64, error) {
	diffs := make([]float64, len(vals)-1)
	for i := range diffs {
		diffs[i] = vals[i+1] - vals[i]
	}
	step := stat.Mean(diffs, nil)
	if !(step > 0) {
		return 0, fmt.Errorf("%w: values are not increasing (mean step %g)", ErrNonUniformStep, step)
	}
	for i, d := range diffs {
		if !scalar.EqualWithinAbsOrRel(d, step, tol, tol) {
			return 0, fmt.Errorf("%w: step %d is %g, mean %g", ErrNonUniformStep, i, d, step)
		}
	}
	return step, nil
}

func (g *Grid) projectedBounds() Bounds {
	n := g.rows * g.cols
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := range g.rows {
		for j := range g.cols {
			x, y := Project(g.theta.At(i, j), g.r.At(i, j))
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return Bounds{
		XMin: floats.Min(xs), XMax: floats.Max(xs),
		YMin: floats.Min(ys), YMax: floats.Max(ys),
	}
}

// Dims returns the number of radial rows and angular columns.
func (g *Grid) Dims() (rows, cols int) { return g.rows, g.cols }

// DTheta returns the constant angular step in radians.
func (g *Grid) DTheta() float64 { return g.dTheta }

// DR returns the constant radial step.
func (g *Grid) DR() float64 { return g.dR }

// ThetaAt returns the angular centre of column j.
func (g *Grid) ThetaAt(j int) float64 { return g.theta.At(0, j) }

// RAt returns the radial centre of row i.
func (g *Grid) RAt(i int) float64 { return g.r.At(i, 0) }

// At returns the (theta, r) centre of cell (i, j).
func (g *Grid) At(i, j int) (theta, r float64) { return g.theta.At(i, j), g.r.At(i, j) }

// Bounds returns the cartesian bounding box of the projected cell centres.
func (g *Grid) Bounds() Bounds { return g.bounds }

// AngularSpan returns the angular interval covered by the cells including the
// half step on either side of the first and last centres.
func (g *Grid) AngularSpan() (lo, hi float64) {
	return g.ThetaAt(0) - g.dTheta/2, g.ThetaAt(g.cols-1) + g.dTheta/2
}

// Wrap renormalises an unprojected theta into the grid's angular span by
// adding or subtracting 2π once. Values already in the span are unchanged.
func (g *Grid) Wrap(theta float64) float64 {
	lo, hi := g.AngularSpan()
	return wrapOnce(theta, lo, hi)
}

func wrapOnce(theta, lo, hi float64) float64 {
	switch {
	case theta > hi:
		return theta - TwoPi
	case theta < lo:
		return theta + TwoPi
	}
	return theta
}

// Project maps polar (theta, r) to cartesian (x, y).
func Project(theta, r float64) (x, y float64) {
	return r * math.Cos(theta), r * math.Sin(theta)
}

// Unproject maps cartesian (x, y) to polar (theta, r) with theta in [0, 2π).
func Unproject(x, y float64) (theta, r float64) {
	theta = math.Atan2(y, x)
	if theta < 0 {
		theta += TwoPi
	}
	if theta >= TwoPi {
		theta = 0
	}
	return theta, math.Hypot(x, y)
}
