package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// hoverColor is the brush preview tint.
var hoverColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}

// Compose overlays the label canvas and, if non-nil, the brush preview onto a
// display frame from Scale.Image. Both layers are in canvas orientation (row
// 0 at minimum y) and may be larger than the frame; they are flipped and
// scaled to fit. Painted pixels add tint, weighted by paint coverage, with
// saturation, so labels stay visible over any map colour.
func Compose(frame *image.RGBA, canvas *image.RGBA, tint color.RGBA, hover *image.Alpha) *image.RGBA {
	b := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), frame, b.Min, draw.Src)

	if canvas != nil {
		layer := scaleTo(FlipVertical(canvas), out.Bounds())
		addTinted(out, layer, tint)
	}
	if hover != nil {
		mask := image.NewAlpha(out.Bounds())
		draw.NearestNeighbor.Scale(mask, mask.Bounds(), flipAlpha(hover), hover.Bounds(), draw.Src, nil)
		draw.DrawMask(out, out.Bounds(), image.NewUniform(hoverColor), image.Point{}, mask, image.Point{}, draw.Over)
	}
	return out
}

// scaleTo resamples src onto a new image of bounds r.
func scaleTo(src *image.RGBA, r image.Rectangle) *image.RGBA {
	if src.Bounds().Size() == r.Size() {
		return src
	}
	dst := image.NewRGBA(r)
	draw.ApproxBiLinear.Scale(dst, r, src, src.Bounds(), draw.Src, nil)
	return dst
}

// addTinted adds tint onto dst wherever layer is painted. Coverage is the
// strongest RGB channel of the layer pixel, so edges softened by scaling get
// a proportionally weaker tint.
func addTinted(dst, layer *image.RGBA, tint color.RGBA) {
	rgb := [3]int{int(tint.R), int(tint.G), int(tint.B)}
	for i := 0; i < len(dst.Pix); i += 4 {
		if layer.Pix[i+3] == 0 {
			continue
		}
		cover := int(max(layer.Pix[i], layer.Pix[i+1], layer.Pix[i+2]))
		if cover == 0 {
			continue
		}
		for c := range 3 {
			v := int(dst.Pix[i+c]) + rgb[c]*cover/0xff
			dst.Pix[i+c] = uint8(min(v, 0xff))
		}
		dst.Pix[i+3] = 0xff
	}
}

func flipAlpha(img *image.Alpha) *image.Alpha {
	b := img.Bounds()
	out := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[img.PixOffset(b.Min.X, b.Max.Y-1-y):])
	}
	return out
}
