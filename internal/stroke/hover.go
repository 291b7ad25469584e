package stroke

import (
	"fmt"
	"image"
)

// HoverLayer previews the brush under the pointer. It holds at most one
// stamp and never affects labels.
type HoverLayer struct {
	img    *image.Alpha
	kernel []image.Point
	last   image.Rectangle
}

// NewHoverLayer allocates an empty w×h preview layer.
func NewHoverLayer(w, h int) (*HoverLayer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, w, h)
	}
	l := &HoverLayer{img: image.NewAlpha(image.Rect(0, 0, w, h))}
	l.SetBrushSize(DefaultBrushSize)
	return l, nil
}

// SetBrushSize changes the previewed kernel.
func (l *HoverLayer) SetBrushSize(size int) { l.kernel = Kernel(size) }

// Move clears the previous preview and stamps the kernel at pos.
func (l *HoverLayer) Move(pos image.Point) {
	l.Leave()
	var touched image.Rectangle
	for _, k := range l.kernel {
		q := pos.Add(k)
		if q.In(l.img.Rect) {
			l.img.Pix[l.img.PixOffset(q.X, q.Y)] = 0xff
			touched = touched.Union(image.Rectangle{Min: q, Max: q.Add(image.Pt(1, 1))})
		}
	}
	l.last = touched
}

// Leave clears the preview, as when the pointer exits the surface.
func (l *HoverLayer) Leave() {
	for y := l.last.Min.Y; y < l.last.Max.Y; y++ {
		row := l.img.Pix[l.img.PixOffset(l.last.Min.X, y):l.img.PixOffset(l.last.Max.X, y)]
		clear(row)
	}
	l.last = image.Rectangle{}
}

// Image returns the preview layer.
func (l *HoverLayer) Image() *image.Alpha { return l.img }
