package labels

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/teclab/internal/polar"
)

// Threshold is the mean coverage a cell must strictly exceed to be labelled.
const Threshold = 0.5

// ErrShapeMismatch is returned when a mask does not match the raster or grid
// it is aggregated against.
var ErrShapeMismatch = errors.New("labels: shape mismatch")

// Mask is a per-cell boolean label in grid order, mask[i][j] for radial row i
// and angular column j.
type Mask [][]bool

// NewMask allocates an all-false rows×cols mask.
func NewMask(rows, cols int) Mask {
	m := make(Mask, rows)
	for i := range m {
		m[i] = make([]bool, cols)
	}
	return m
}

// Dims returns the mask shape.
func (m Mask) Dims() (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

// Count returns the number of labelled cells.
func (m Mask) Count() int {
	n := 0
	for _, row := range m {
		for _, v := range row {
			if v {
				n++
			}
		}
	}
	return n
}

// Aggregator bins the pixels of a fixed-size raster into the cells of a grid.
// The pixel-to-cell assignment depends only on geometry, so it is computed
// once and reused for every mask.
type Aggregator struct {
	grid *polar.Grid
	vp   polar.Viewport

	// thetaEdges ascend; rEdges descend, matching the binned layout
	// [angular][radial-descending].
	thetaEdges []float64
	rEdges     []float64

	// bins holds the binned-layout index a*R+b for each pixel in row-major
	// order, or -1 when the pixel falls outside every cell.
	bins []int
}

// NewAggregator prepares binning for w×h rasters covering g.Bounds().
func NewAggregator(g *polar.Grid, w, h int) (*Aggregator, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrShapeMismatch)
	}
	vp, err := polar.NewViewport(g.Bounds(), w, h)
	if err != nil {
		return nil, err
	}
	a := &Aggregator{
		grid:       g,
		vp:         vp,
		thetaEdges: angularEdges(g),
		rEdges:     radialEdges(g),
		bins:       make([]int, w*h),
	}
	_, cols := g.Dims()
	rows := len(a.rEdges) - 1
	for row := range h {
		for col := range w {
			theta, r := polar.Unproject(vp.PixelToCart(col, row))
			theta = g.Wrap(theta)
			ta := searchAscending(a.thetaEdges, theta)
			rb := searchDescending(a.rEdges, r)
			idx := -1
			if ta >= 0 && ta < cols && rb >= 0 && rb < rows {
				idx = ta*rows + rb
			}
			a.bins[row*w+col] = idx
		}
	}
	return a, nil
}

// angularEdges returns the T+1 ascending bin edges: midpoints between
// consecutive centres plus half a step outside the first and last.
func angularEdges(g *polar.Grid) []float64 {
	_, cols := g.Dims()
	half := g.DTheta() / 2
	edges := make([]float64, cols+1)
	edges[0] = g.ThetaAt(0) - half
	for j := 1; j < cols; j++ {
		edges[j] = (g.ThetaAt(j-1) + g.ThetaAt(j)) / 2
	}
	edges[cols] = g.ThetaAt(cols-1) + half
	return edges
}

// radialEdges returns the R+1 descending bin edges r_i ± dr/2.
func radialEdges(g *polar.Grid) []float64 {
	rows, _ := g.Dims()
	half := g.DR() / 2
	edges := make([]float64, rows+1)
	for k := range rows {
		edges[k] = g.RAt(rows-1-k) + half
	}
	edges[rows] = g.RAt(0) - half
	return edges
}

// searchAscending returns the bin k with edges[k] <= v < edges[k+1]. The last
// bin includes its upper edge. -1 means v is outside the edges.
func searchAscending(edges []float64, v float64) int {
	n := len(edges) - 1
	if math.IsNaN(v) || v < edges[0] || v > edges[n] {
		return -1
	}
	if v == edges[n] {
		return n - 1
	}
	return sort.Search(n, func(k int) bool { return edges[k+1] > v })
}

// searchDescending returns the bin k with edges[k+1] <= v < edges[k]. The
// first bin includes its upper edge, the outermost radius.
func searchDescending(edges []float64, v float64) int {
	n := len(edges) - 1
	if math.IsNaN(v) || v > edges[0] || v < edges[n] {
		return -1
	}
	if v == edges[0] {
		return 0
	}
	return sort.Search(n, func(k int) bool { return edges[k+1] <= v })
}

// Grid returns the grid the aggregator bins into.
func (a *Aggregator) Grid() *polar.Grid { return a.grid }

// Viewport returns the pixel lattice the aggregator expects.
func (a *Aggregator) Viewport() polar.Viewport { return a.vp }

// Locate returns the grid cell (i, j) that pixel (col, row) is binned into.
// ok is false for pixels outside the raster or outside every cell.
func (a *Aggregator) Locate(col, row int) (i, j int, ok bool) {
	if col < 0 || row < 0 || col >= a.vp.W || row >= a.vp.H {
		return 0, 0, false
	}
	idx := a.bins[row*a.vp.W+col]
	if idx < 0 {
		return 0, 0, false
	}
	rows := len(a.rEdges) - 1
	ta, rb := idx/rows, idx%rows
	return rows - 1 - rb, ta, true
}

// Statistic is the binned mean of a boolean raster, in grid order.
type Statistic struct {
	// Mean holds the fraction of painted pixels per cell, NaN where no pixel
	// contributed.
	Mean *mat.Dense
	// Count holds the number of pixels binned into each cell, row-major.
	Count []int
}

// CountAt returns the number of pixels that fell in cell (i, j).
func (s *Statistic) CountAt(i, j int) int {
	_, cols := s.Mean.Dims()
	return s.Count[i*cols+j]
}

// Statistic computes the binned mean of mask, given as mask[row][col] on the
// aggregator's pixel lattice.
func (a *Aggregator) Statistic(mask [][]bool) (*Statistic, error) {
	if err := a.checkMask(mask); err != nil {
		return nil, err
	}
	rows, cols := a.grid.Dims()
	sums := make([]float64, rows*cols)
	counts := make([]int, rows*cols)
	for row, line := range mask {
		for col, v := range line {
			idx := a.bins[row*a.vp.W+col]
			if idx < 0 {
				continue
			}
			counts[idx]++
			if v {
				sums[idx]++
			}
		}
	}

	binned := mat.NewDense(cols, rows, nil)
	for idx, n := range counts {
		mean := math.NaN()
		if n > 0 {
			mean = sums[idx] / float64(n)
		}
		binned.Set(idx/rows, idx%rows, mean)
	}

	mean := reorient(binned)
	count := make([]int, rows*cols)
	for idx, n := range counts {
		ta, rb := idx/rows, idx%rows
		count[(rows-1-rb)*cols+ta] = n
	}
	return &Statistic{Mean: mean, Count: count}, nil
}

// Aggregate bins mask onto the grid and thresholds each cell's mean.
func (a *Aggregator) Aggregate(mask [][]bool) (Mask, error) {
	st, err := a.Statistic(mask)
	if err != nil {
		return nil, err
	}
	return Apply(st.Mean), nil
}

func (a *Aggregator) checkMask(mask [][]bool) error {
	if len(mask) != a.vp.H {
		return fmt.Errorf("%w: mask has %d rows, raster has %d", ErrShapeMismatch, len(mask), a.vp.H)
	}
	for row, line := range mask {
		if len(line) != a.vp.W {
			return fmt.Errorf("%w: mask row %d has %d columns, raster has %d", ErrShapeMismatch, row, len(line), a.vp.W)
		}
	}
	return nil
}

// reorient turns the binned [angular][radial-descending] array into grid
// order [radial][angular]: a transpose followed by a radial flip.
func reorient(binned *mat.Dense) *mat.Dense {
	var t mat.Dense
	t.CloneFrom(binned.T())
	rows, cols := t.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := range rows {
		out.SetRow(i, t.RawRowView(rows-1-i))
	}
	return out
}

// Apply thresholds per-cell means into a Mask. NaN cells are unlabelled.
func Apply(mean mat.Matrix) Mask {
	rows, cols := mean.Dims()
	m := NewMask(rows, cols)
	for i := range rows {
		for j := range cols {
			m[i][j] = Labelled(mean.At(i, j))
		}
	}
	return m
}

// Labelled reports whether a cell with the given mean coverage is labelled.
func Labelled(mean float64) bool {
	return !math.IsNaN(mean) && mean > Threshold
}

// Aggregate bins a h×w mask covering g.Bounds() onto g in one call.
func Aggregate(mask [][]bool, g *polar.Grid) (Mask, error) {
	if len(mask) == 0 || len(mask[0]) == 0 {
		return nil, fmt.Errorf("%w: empty mask", ErrShapeMismatch)
	}
	a, err := NewAggregator(g, len(mask[0]), len(mask))
	if err != nil {
		return nil, err
	}
	return a.Aggregate(mask)
}
