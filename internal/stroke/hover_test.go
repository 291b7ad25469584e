package stroke

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alphaCount(img *image.Alpha) int {
	n := 0
	for _, a := range img.Pix {
		if a > 0 {
			n++
		}
	}
	return n
}

func TestHoverLayer_MoveReplacesPreview(t *testing.T) {
	t.Parallel()
	h, err := NewHoverLayer(20, 20)
	require.NoError(t, err)
	h.SetBrushSize(3)

	h.Move(image.Pt(5, 5))
	assert.Equal(t, 5, alphaCount(h.Image()))

	h.Move(image.Pt(15, 15))
	assert.Equal(t, 5, alphaCount(h.Image()))
	assert.Zero(t, h.Image().AlphaAt(5, 5).A)
	assert.Equal(t, uint8(0xff), h.Image().AlphaAt(15, 15).A)

	h.Leave()
	assert.Zero(t, alphaCount(h.Image()))
}

func TestHoverLayer_ClipsAtEdge(t *testing.T) {
	t.Parallel()
	h, err := NewHoverLayer(4, 4)
	require.NoError(t, err)
	h.SetBrushSize(3)

	h.Move(image.Pt(0, 0))
	assert.Equal(t, 3, alphaCount(h.Image()))
	h.Leave()
	assert.Zero(t, alphaCount(h.Image()))

	_, err = NewHoverLayer(0, 4)
	assert.ErrorIs(t, err, ErrCanvasSize)
}
