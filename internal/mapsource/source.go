package mapsource

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/teclab/internal/polar"
)

// ErrNotFound is returned when a source has no map for a key.
var ErrNotFound = errors.New("mapsource: map not found")

// Map is one polar field with the grid it is sampled on.
type Map struct {
	Key   Key
	Time  time.Time
	Grid  *polar.Grid
	Field *mat.Dense
}

// Label returns the status text shown while the map is being labelled.
func (m *Map) Label() string {
	if m.Time.IsZero() {
		return m.Key.String()
	}
	return m.Time.UTC().Format("2006-01-02 15:04:05")
}

// Source lists and loads maps.
type Source interface {
	// Keys returns every available key, sorted.
	Keys() ([]Key, error)
	// Load returns the map for k, or an error wrapping ErrNotFound.
	Load(k Key) (*Map, error)
}

// MagneticAxes converts magnetic local time (hours) and magnetic latitude
// (degrees) axes to polar centres: theta = π(mlt-6)/12 and r = 90-mlat.
// Latitude usually increases, which makes r decrease; in that case the radii
// are returned in increasing order and flipped is true, meaning field rows
// must be reversed to match.
func MagneticAxes(mlt, mlat []float64) (thetas, radii []float64, flipped bool) {
	thetas = make([]float64, len(mlt))
	for j, v := range mlt {
		thetas[j] = math.Pi * (v - 6) / 12
	}
	radii = make([]float64, len(mlat))
	for i, v := range mlat {
		radii[i] = 90 - v
	}
	if len(radii) > 1 && radii[0] > radii[len(radii)-1] {
		for i, j := 0, len(radii)-1; i < j; i, j = i+1, j-1 {
			radii[i], radii[j] = radii[j], radii[i]
		}
		flipped = true
	}
	return thetas, radii, flipped
}

// GridFromMagnetic builds the polar grid for magnetic coordinate axes. See
// MagneticAxes for the meaning of flipped.
func GridFromMagnetic(mlt, mlat []float64, opts ...polar.GridOption) (g *polar.Grid, flipped bool, err error) {
	thetas, radii, flipped := MagneticAxes(mlt, mlat)
	g, err = polar.NewMeshGrid(thetas, radii, opts...)
	if err != nil {
		return nil, false, fmt.Errorf("magnetic grid: %w", err)
	}
	return g, flipped, nil
}

// FlipRows reverses the row order of m in place.
func FlipRows(m *mat.Dense) {
	rows, _ := m.Dims()
	for i, j := 0, rows-1; i < j; i, j = i+1, j-1 {
		a := mat.Row(nil, i, m)
		m.SetRow(i, mat.Row(nil, j, m))
		m.SetRow(j, a)
	}
}

// Demo generates synthetic maps of sin(θ+φ)·r² on a full circle grid with
// radii from 0 to 10, rotating φ with the map index.
type Demo struct {
	Year, Month int
	Count       int

	grid *polar.Grid
	base time.Time
}

// NewDemo returns a demo source of count maps on a rows×cols grid.
func NewDemo(rows, cols, count int) (*Demo, error) {
	if rows < 2 || cols < 2 || count < 1 {
		return nil, fmt.Errorf("demo source needs at least 2x2 cells and one map, got %dx%d and %d", rows, cols, count)
	}
	thetas := make([]float64, cols)
	for j := range thetas {
		thetas[j] = float64(j) * polar.TwoPi / float64(cols)
	}
	radii := make([]float64, rows)
	for i := range radii {
		radii[i] = float64(i) * 10 / float64(rows-1)
	}
	g, err := polar.NewMeshGrid(thetas, radii)
	if err != nil {
		return nil, err
	}
	return &Demo{
		Year:  2000,
		Month: 1,
		Count: count,
		grid:  g,
		base:  time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

// Keys lists the demo maps.
func (d *Demo) Keys() ([]Key, error) {
	keys := make([]Key, d.Count)
	for i := range keys {
		keys[i] = Key{Year: d.Year, Month: d.Month, Index: i}
	}
	return keys, nil
}

// Load synthesises the map for k.
func (d *Demo) Load(k Key) (*Map, error) {
	if k.Year != d.Year || k.Month != d.Month || k.Index < 0 || k.Index >= d.Count {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, k)
	}
	phase := float64(k.Index) * math.Pi / 8
	rows, cols := d.grid.Dims()
	field := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			theta, r := d.grid.At(i, j)
			field.Set(i, j, math.Sin(theta+phase)*r*r)
		}
	}
	return &Map{
		Key:   k,
		Time:  d.base.Add(time.Duration(k.Index) * 5 * time.Minute),
		Grid:  d.grid,
		Field: field,
	}, nil
}
