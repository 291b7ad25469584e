package testutil

import (
	"math"
	"testing"
)

func TestAxis(t *testing.T) {
	got := Axis(1, 0.5, 4)
	want := []float64{1, 1.5, 2, 2.5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Axis[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestSmallGrid(t *testing.T) {
	g := SmallGrid(t)
	rows, cols := g.Dims()
	if rows != 4 || cols != 8 {
		t.Fatalf("Dims = %dx%d, want 4x8", rows, cols)
	}
	if math.Abs(g.DTheta()-math.Pi/4) > 1e-12 {
		t.Errorf("DTheta = %g", g.DTheta())
	}
}

func TestPolarMask(t *testing.T) {
	g := SmallGrid(t)
	mask := PolarMask(t, g, 21, 11, func(_, r float64) bool { return r < 1 })
	if len(mask) != 11 || len(mask[0]) != 21 {
		t.Fatalf("mask is %dx%d", len(mask), len(mask[0]))
	}
	if !mask[5][10] {
		t.Error("centre pixel should be inside r < 1")
	}
	if mask[0][0] {
		t.Error("corner pixel should be outside r < 1")
	}
}

func TestField(t *testing.T) {
	g := SmallGrid(t)
	f := Field(g, func(_, r float64) float64 { return r * 2 })
	if got := f.At(3, 5); got != 8 {
		t.Errorf("Field(3,5) = %g, want 8", got)
	}
}

func TestAssertHelpers(t *testing.T) {
	AssertNoError(t, nil)
	AssertError(t, errTest{})
}

type errTest struct{}

func (errTest) Error() string { return "test" }
