package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"

	"github.com/banshee-data/teclab/internal/polar"
)

// paletteSize is the number of entries in the colour lookup table.
const paletteSize = 256

// Scale maps scalar values to colours between VMin and VMax. Values outside
// the range are clamped; NaN is transparent.
type Scale struct {
	VMin, VMax float64

	pal palette.Palette
	lut []color.RGBA
}

// NewScale builds a scale over [vmin, vmax] using the extended black body
// colour map.
func NewScale(vmin, vmax float64) (*Scale, error) {
	if !(vmin < vmax) {
		return nil, fmt.Errorf("colour scale needs vmin < vmax, got %g and %g", vmin, vmax)
	}
	cm := moreland.ExtendedBlackBody()
	cm.SetMin(vmin)
	cm.SetMax(vmax)
	pal := cm.Palette(paletteSize)
	colors := pal.Colors()
	lut := make([]color.RGBA, len(colors))
	for i, c := range colors {
		lut[i] = color.RGBAModel.Convert(c).(color.RGBA)
	}
	return &Scale{VMin: vmin, VMax: vmax, pal: pal, lut: lut}, nil
}

// Palette returns the colours of the scale from VMin to VMax.
func (s *Scale) Palette() palette.Palette { return s.pal }

// Color returns the colour of v.
func (s *Scale) Color(v float64) color.RGBA {
	if math.IsNaN(v) {
		return color.RGBA{}
	}
	t := (v - s.VMin) / (s.VMax - s.VMin)
	t = math.Max(0, math.Min(1, t))
	return s.lut[int(t*float64(len(s.lut)-1)+0.5)]
}

// Image colours a raster. The result is flipped so the maximum y is row 0.
func (s *Scale) Image(r *polar.Raster) *image.RGBA {
	w, h := r.Dims()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for row := range h {
		y := h - 1 - row
		for col := range w {
			img.SetRGBA(col, y, s.Color(r.At(col, row)))
		}
	}
	return img
}

// FlipVertical returns a copy of img with its rows reversed.
func FlipVertical(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):img.PixOffset(b.Max.X, b.Min.Y+y)]
		copy(out.Pix[out.PixOffset(0, b.Dy()-1-y):], src)
	}
	return out
}
