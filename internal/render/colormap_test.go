package render

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/teclab/internal/polar"
)

func TestNewScale_RejectsEmptyRange(t *testing.T) {
	t.Parallel()
	_, err := NewScale(5, 5)
	assert.Error(t, err)
	_, err = NewScale(6, 5)
	assert.Error(t, err)
	_, err = NewScale(math.NaN(), 5)
	assert.Error(t, err)
}

func TestScale_Color(t *testing.T) {
	t.Parallel()
	s, err := NewScale(0, 20)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{}, s.Color(math.NaN()))
	assert.Equal(t, s.Color(0), s.Color(-100), "below range clamps to the low end")
	assert.Equal(t, s.Color(20), s.Color(1e9), "above range clamps to the high end")
	assert.NotEqual(t, s.Color(0), s.Color(20))
	assert.Equal(t, uint8(0xff), s.Color(10).A)
	assert.Len(t, s.Palette().Colors(), paletteSize)
}

func TestScale_ImageIsFlipped(t *testing.T) {
	t.Parallel()
	vp, err := polar.NewViewport(polar.Bounds{XMin: -1, XMax: 1, YMin: -1, YMax: 1}, 3, 4)
	require.NoError(t, err)
	r := polar.NewRaster(vp)
	for col := range 3 {
		r.Set(col, 0, 0)
		r.Set(col, 1, 5)
		r.Set(col, 2, 10)
		r.Set(col, 3, math.NaN())
	}
	s, err := NewScale(0, 10)
	require.NoError(t, err)

	img := s.Image(r)
	assert.Equal(t, image.Rect(0, 0, 3, 4), img.Bounds())
	assert.Equal(t, color.RGBA{}, img.RGBAAt(1, 0), "top row is the raster's last row")
	assert.Equal(t, s.Color(10), img.RGBAAt(1, 1))
	assert.Equal(t, s.Color(0), img.RGBAAt(1, 3))
}

func TestFlipVertical(t *testing.T) {
	t.Parallel()
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 1, A: 0xff})
	img.SetRGBA(1, 2, color.RGBA{B: 2, A: 0xff})

	out := FlipVertical(img)
	assert.Equal(t, color.RGBA{R: 1, A: 0xff}, out.RGBAAt(0, 2))
	assert.Equal(t, color.RGBA{B: 2, A: 0xff}, out.RGBAAt(1, 0))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(0, 0))
}
