package polar

import "math"

// SplineOrder is the interpolation order used by Resample. It is fixed.
const SplineOrder = 3

// cubic B-spline pole and gain for the mirror-boundary prefilter
var (
	splinePole = math.Sqrt(3) - 2
	splineGain = (1 - splinePole) * (1 - 1/splinePole)
)

// prefilterTolerance bounds the truncation of the causal initialisation sum.
const prefilterTolerance = 1e-12

// bspline holds cubic B-spline coefficients for a rows×cols sample array.
// Missing samples are filled from their neighbours before prefiltering and
// remembered in nan so that every evaluation whose support touches them
// yields NaN.
type bspline struct {
	rows, cols int
	coef       []float64
	nan        []bool
}

func newBSpline(samples []float64, rows, cols int) *bspline {
	s := &bspline{
		rows: rows,
		cols: cols,
		coef: make([]float64, len(samples)),
		nan:  make([]bool, len(samples)),
	}
	for i, v := range samples {
		if math.IsNaN(v) {
			s.nan[i] = true
			continue
		}
		s.coef[i] = v
	}
	fillGaps(s.coef, s.nan, rows, cols)

	line := make([]float64, max(rows, cols))
	for i := range rows {
		row := s.coef[i*cols : (i+1)*cols]
		prefilterLine(row)
	}
	for j := range cols {
		col := line[:rows]
		for i := range rows {
			col[i] = s.coef[i*cols+j]
		}
		prefilterLine(col)
		for i := range rows {
			s.coef[i*cols+j] = col[i]
		}
	}
	return s
}

// fillGaps replaces missing samples with the mean of their already known
// 4-neighbours, growing inwards from the valid samples one ring per pass, so
// a hole does not ring through the prefilter into its surroundings. An array
// with no valid sample is left at zero.
func fillGaps(c []float64, nan []bool, rows, cols int) {
	known := make([]bool, len(c))
	var pending []int
	for i, missing := range nan {
		known[i] = !missing
		if missing {
			pending = append(pending, i)
		}
	}
	type fill struct {
		idx int
		v   float64
	}
	for len(pending) > 0 {
		var fills []fill
		var next []int
		for _, idx := range pending {
			i, j := idx/cols, idx%cols
			sum, n := 0.0, 0
			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				ni, nj := i+d[0], j+d[1]
				if ni < 0 || ni >= rows || nj < 0 || nj >= cols || !known[ni*cols+nj] {
					continue
				}
				sum += c[ni*cols+nj]
				n++
			}
			if n == 0 {
				next = append(next, idx)
				continue
			}
			fills = append(fills, fill{idx, sum / float64(n)})
		}
		if len(fills) == 0 {
			return
		}
		for _, f := range fills {
			c[f.idx] = f.v
			known[f.idx] = true
		}
		pending = next
	}
}

// prefilterLine converts samples to cubic B-spline coefficients in place
// using the recursive causal/anti-causal filter pair with mirror boundaries.
func prefilterLine(c []float64) {
	n := len(c)
	if n < 2 {
		return
	}
	z := splinePole
	for k := range c {
		c[k] *= splineGain
	}
	c[0] = initialCausal(c, z)
	for k := 1; k < n; k++ {
		c[k] += z * c[k-1]
	}
	c[n-1] = (z / (z*z - 1)) * (z*c[n-2] + c[n-1])
	for k := n - 2; k >= 0; k-- {
		c[k] = z * (c[k+1] - c[k])
	}
}

func initialCausal(c []float64, z float64) float64 {
	n := len(c)
	horizon := int(math.Ceil(math.Log(prefilterTolerance) / math.Log(math.Abs(z))))
	if horizon < n {
		zn := z
		sum := c[0]
		for k := 1; k < horizon; k++ {
			sum += zn * c[k]
			zn *= z
		}
		return sum
	}
	// full mirror-symmetric sum for short lines
	zn := z
	iz := 1 / z
	z2n := math.Pow(z, float64(n-1))
	sum := c[0] + z2n*c[n-1]
	z2n *= z2n * iz
	for k := 1; k <= n-2; k++ {
		sum += (zn + z2n) * c[k]
		zn *= z
		z2n *= iz
	}
	return sum / (1 - zn*zn)
}

// cubicWeights returns the four B-spline basis weights for fractional offset t.
func cubicWeights(t float64) [4]float64 {
	u := 1 - t
	return [4]float64{
		u * u * u / 6,
		2.0/3.0 - t*t + t*t*t/2,
		2.0/3.0 - u*u + u*u*u/2,
		t * t * t / 6,
	}
}

// mirror folds an out-of-range index back into [0, n) by whole-sample
// reflection about the end samples.
func mirror(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2*n - 2
	if i < 0 {
		i = -i
	}
	i %= period
	if i >= n {
		i = period - i
	}
	return i
}

// at evaluates the spline at fractional index (u, v) along (rows, cols).
// Positions outside [0, rows-1]×[0, cols-1] yield NaN.
func (s *bspline) at(u, v float64) float64 {
	if math.IsNaN(u) || math.IsNaN(v) ||
		u < 0 || u > float64(s.rows-1) || v < 0 || v > float64(s.cols-1) {
		return math.NaN()
	}
	fu, fv := math.Floor(u), math.Floor(v)
	wu, wv := cubicWeights(u-fu), cubicWeights(v-fv)
	iu, iv := int(fu)-1, int(fv)-1

	var sum float64
	for a := range 4 {
		if wu[a] == 0 {
			continue
		}
		ri := mirror(iu+a, s.rows)
		for b := range 4 {
			w := wu[a] * wv[b]
			if w == 0 {
				continue
			}
			idx := ri*s.cols + mirror(iv+b, s.cols)
			if s.nan[idx] {
				return math.NaN()
			}
			sum += w * s.coef[idx]
		}
	}
	return sum
}
