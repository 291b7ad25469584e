package labels

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/teclab/internal/polar"
)

// TroughWindow is the side of the square window averaged before searching a
// column for its minimum.
const TroughWindow = 7

// ColumnSummary describes the labelled extent of one angular column. Row
// indices are -1 when the column has no labelled cell.
type ColumnSummary struct {
	Column int
	Theta  float64

	Labelled    int
	Poleward    int // labelled row with the smallest radius
	Equatorward int // labelled row with the largest radius

	// Trough is the labelled row with the lowest windowed field mean. It is
	// only set when a field is supplied.
	Trough      int
	TroughValue float64
}

// Summary is a per-column description of a Mask.
type Summary struct {
	Columns  []ColumnSummary
	Cells    int
	Coverage float64
}

// Summarize reports the walls of the labelled region in each angular column
// and, when field is non-nil, the row of minimum smoothed field value.
func Summarize(m Mask, g *polar.Grid, field *mat.Dense) (Summary, error) {
	rows, cols := g.Dims()
	if mr, mc := m.Dims(); mr != rows || mc != cols {
		return Summary{}, fmt.Errorf("%w: mask is %dx%d, grid is %dx%d", ErrShapeMismatch, mr, mc, rows, cols)
	}
	var smooth *mat.Dense
	if field != nil {
		if fr, fc := field.Dims(); fr != rows || fc != cols {
			return Summary{}, fmt.Errorf("%w: field is %dx%d, grid is %dx%d", ErrShapeMismatch, fr, fc, rows, cols)
		}
		smooth = windowMean(field, TroughWindow)
	}

	s := Summary{Columns: make([]ColumnSummary, cols), Cells: rows * cols}
	for j := range cols {
		c := ColumnSummary{
			Column:      j,
			Theta:       g.ThetaAt(j),
			Poleward:    -1,
			Equatorward: -1,
			Trough:      -1,
			TroughValue: math.NaN(),
		}
		for i := range rows {
			if !m[i][j] {
				continue
			}
			c.Labelled++
			if c.Poleward < 0 {
				c.Poleward = i
			}
			c.Equatorward = i
			if smooth == nil {
				continue
			}
			if v := smooth.At(i, j); !math.IsNaN(v) && (c.Trough < 0 || v < c.TroughValue) {
				c.Trough, c.TroughValue = i, v
			}
		}
		s.Columns[j] = c
	}
	s.Coverage = float64(m.Count()) / float64(s.Cells)
	return s, nil
}

// windowMean returns the NaN-ignoring mean over a size×size window centred
// on each cell. The angular axis wraps; the radial axis is truncated at the
// grid edges.
func windowMean(field *mat.Dense, size int) *mat.Dense {
	rows, cols := field.Dims()
	half := size / 2
	out := mat.NewDense(rows, cols, nil)
	buf := make([]float64, 0, size*size)
	for i := range rows {
		for j := range cols {
			buf = buf[:0]
			for di := -half; di <= half; di++ {
				ii := i + di
				if ii < 0 || ii >= rows {
					continue
				}
				for dj := -half; dj <= half; dj++ {
					jj := ((j+dj)%cols + cols) % cols
					if v := field.At(ii, jj); !math.IsNaN(v) {
						buf = append(buf, v)
					}
				}
			}
			mean := math.NaN()
			if len(buf) > 0 {
				mean = stat.Mean(buf, nil)
			}
			out.Set(i, j, mean)
		}
	}
	return out
}
