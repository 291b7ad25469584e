package polar

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func constantField(rows, cols int, v float64) *mat.Dense {
	f := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			f.Set(i, j, v)
		}
	}
	return f
}

func TestBSpline_InterpolatesSamples(t *testing.T) {
	t.Parallel()

	for _, size := range [][2]int{{5, 7}, {40, 30}, {2, 3}} {
		rows, cols := size[0], size[1]
		rng := rand.New(rand.NewSource(int64(rows*100 + cols)))
		samples := make([]float64, rows*cols)
		for i := range samples {
			samples[i] = rng.Float64()*10 - 5
		}
		s := newBSpline(samples, rows, cols)
		for i := range rows {
			for j := range cols {
				assert.InDelta(t, samples[i*cols+j], s.at(float64(i), float64(j)), 1e-8,
					"%dx%d sample (%d,%d)", rows, cols, i, j)
			}
		}
	}
}

func TestBSpline_OutOfRangeIsNaN(t *testing.T) {
	t.Parallel()
	s := newBSpline([]float64{1, 2, 3, 4, 5, 6}, 2, 3)

	assert.True(t, math.IsNaN(s.at(-0.001, 1)))
	assert.True(t, math.IsNaN(s.at(0, 2.0001)))
	assert.True(t, math.IsNaN(s.at(1.5, 0)))
	assert.False(t, math.IsNaN(s.at(1, 2)))
}

func TestBSpline_NaNStaysLocal(t *testing.T) {
	t.Parallel()
	rows, cols := 20, 20
	samples := make([]float64, rows*cols)
	for i := range samples {
		samples[i] = 2
	}
	samples[5*cols+5] = math.NaN()
	s := newBSpline(samples, rows, cols)

	assert.True(t, math.IsNaN(s.at(5, 5)))
	assert.True(t, math.IsNaN(s.at(5.5, 4.5)))
	assert.InDelta(t, 2.0, s.at(5, 15), 1e-9)
	assert.InDelta(t, 2.0, s.at(15, 5), 1e-9)
}

func TestMirror(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, mirror(-1, 5))
	assert.Equal(t, 0, mirror(0, 5))
	assert.Equal(t, 3, mirror(5, 5))
	assert.Equal(t, 2, mirror(6, 5))
	assert.Equal(t, 0, mirror(7, 1))
}

func TestResample_Errors(t *testing.T) {
	t.Parallel()
	g := makeTestGrid(t, 4, 8, 0, 0, 1)

	_, err := Resample(constantField(3, 8, 1), g, 10, 10)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Resample(nil, g, 10, 10)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = Resample(constantField(4, 8, 1), g, 0, 10)
	assert.ErrorIs(t, err, ErrRasterSize)

	_, err = Resample(constantField(4, 8, 1), g, 10, -1)
	assert.ErrorIs(t, err, ErrRasterSize)
}

func TestResample_Deterministic(t *testing.T) {
	t.Parallel()
	g := makeTestGrid(t, 10, 36, 0, 0, 1)
	field := mat.NewDense(10, 36, nil)
	for i := range 10 {
		for j := range 36 {
			theta, r := g.At(i, j)
			field.Set(i, j, math.Sin(theta)*r*r)
		}
	}

	a, err := Resample(field, g, 64, 64)
	require.NoError(t, err)
	b, err := Resample(field, g, 64, 64)
	require.NoError(t, err)

	for row := range 64 {
		for col := range 64 {
			va, vb := a.At(col, row), b.At(col, row)
			assert.Equal(t, math.Float64bits(va), math.Float64bits(vb), "pixel (%d,%d)", col, row)
		}
	}
}

func TestResample_Coverage(t *testing.T) {
	t.Parallel()

	for _, theta0 := range []float64{0, -math.Pi / 2} {
		g := makeTestGrid(t, 6, 16, theta0, 0, 1)
		out, err := Resample(constantField(6, 16, 3), g, 50, 50)
		require.NoError(t, err)

		vp := out.Viewport()
		rMax := g.RAt(5)
		for row := range 50 {
			for col := range 50 {
				_, r := Unproject(vp.PixelToCart(col, row))
				v := out.At(col, row)
				switch {
				case r < rMax-1e-9:
					require.False(t, math.IsNaN(v), "theta0=%g pixel (%d,%d) r=%g", theta0, col, row, r)
					assert.InDelta(t, 3.0, v, 1e-6)
				case r > rMax+1e-9:
					assert.True(t, math.IsNaN(v), "theta0=%g pixel (%d,%d) r=%g", theta0, col, row, r)
				}
			}
		}
	}
}

func TestResample_RowZeroIsMinimumY(t *testing.T) {
	t.Parallel()
	g := makeTestGrid(t, 6, 16, 0, 0, 1)
	field := mat.NewDense(6, 16, nil)
	for i := range 6 {
		for j := range 16 {
			theta, r := g.At(i, j)
			_, y := Project(theta, r)
			field.Set(i, j, y)
		}
	}
	out, err := Resample(field, g, 41, 41)
	require.NoError(t, err)

	// centre column, a quarter of the way in from each edge
	bottom := out.At(20, 10)
	top := out.At(20, 30)
	require.False(t, math.IsNaN(bottom))
	require.False(t, math.IsNaN(top))
	assert.Less(t, bottom, top)
}

func TestResample_NaNInputStaysNaN(t *testing.T) {
	t.Parallel()
	g := makeTestGrid(t, 8, 32, 0, 0, 1)
	field := constantField(8, 32, 1)
	field.Set(4, 8, math.NaN())

	out, err := Resample(field, g, 101, 101)
	require.NoError(t, err)
	vp := out.Viewport()

	pixelAt := func(i, j int) (int, int) {
		col, row := vp.CartToPixel(Project(g.At(i, j)))
		return int(math.Round(col)), int(math.Round(row))
	}

	col, row := pixelAt(4, 8)
	assert.True(t, math.IsNaN(out.At(col, row)))

	col, row = pixelAt(4, 24)
	assert.InDelta(t, 1.0, out.At(col, row), 1e-6)

	_, _, ok := out.Range()
	assert.True(t, ok)
	assert.Greater(t, out.CountNaN(), 0)
}

func TestBSpline_HoleDoesNotBiasNeighbours(t *testing.T) {
	t.Parallel()
	rows, cols := 20, 20
	samples := make([]float64, rows*cols)
	for i := range samples {
		samples[i] = 10
	}
	samples[5*cols+5] = math.NaN()
	samples[12*cols+3] = math.NaN()
	samples[12*cols+4] = math.NaN()
	s := newBSpline(samples, rows, cols)

	checked := 0
	for u := 0.0; u <= float64(rows-1); u += 0.5 {
		for v := 0.0; v <= float64(cols-1); v += 0.5 {
			got := s.at(u, v)
			if math.IsNaN(got) {
				continue
			}
			checked++
			assert.InDelta(t, 10.0, got, 1e-9, "at (%g,%g)", u, v)
		}
	}
	assert.Greater(t, checked, 1000)
	assert.InDelta(t, 10.0, s.at(5, 7.5), 1e-9)
}

func TestFillGaps(t *testing.T) {
	t.Parallel()
	c := []float64{
		1, 0, 3,
		0, 0, 0,
		5, 0, 7,
	}
	nan := []bool{
		false, true, false,
		true, true, true,
		false, true, false,
	}
	fillGaps(c, nan, 3, 3)
	assert.Equal(t, []float64{1, 2, 3, 3, 4, 5, 5, 6, 7}, c)

	empty := []float64{0, 0}
	fillGaps(empty, []bool{true, true}, 1, 2)
	assert.Equal(t, []float64{0, 0}, empty)
}
