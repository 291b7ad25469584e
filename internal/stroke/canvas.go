package stroke

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrCanvasSize is returned for a canvas with a non-positive dimension.
var ErrCanvasSize = errors.New("stroke: invalid canvas size")

// Mode selects whether stamped pixels are painted or cleared.
type Mode int

const (
	Paint Mode = iota
	Erase
)

func (m Mode) String() string {
	switch m {
	case Paint:
		return "paint"
	case Erase:
		return "erase"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "paint" or "erase".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paint", "":
		return Paint, nil
	case "erase":
		return Erase, nil
	}
	return Paint, fmt.Errorf("unknown stroke mode %q", s)
}

// Channel is the RGB channel a canvas paints into.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

// ParseChannel accepts "r", "g", "b" or the full colour names.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red":
		return Red, nil
	case "g", "green":
		return Green, nil
	case "b", "blue":
		return Blue, nil
	}
	return Red, fmt.Errorf("unknown channel %q", s)
}

// Color returns the opaque colour of a fully painted pixel.
func (c Channel) Color() color.RGBA {
	switch c {
	case Green:
		return colornames.Lime
	case Blue:
		return colornames.Blue
	}
	return colornames.Red
}

func (c Channel) String() string {
	switch c {
	case Red:
		return "r"
	case Green:
		return "g"
	case Blue:
		return "b"
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Canvas is the dense label raster a stroke paints into, plus the state of
// the gesture in progress.
type Canvas struct {
	img     *image.RGBA
	channel Channel
	size    int
	kernel  []image.Point

	// gesture state
	mode    Mode
	active  bool
	hasPrev bool
	prev    image.Point
}

// NewCanvas allocates a blank w×h canvas painting into ch.
func NewCanvas(w, h int, ch Channel) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrCanvasSize, w, h)
	}
	c := &Canvas{
		img:     image.NewRGBA(image.Rect(0, 0, w, h)),
		channel: ch,
	}
	c.SetBrushSize(DefaultBrushSize)
	return c, nil
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle { return c.img.Rect }

// Channel returns the channel the canvas paints into.
func (c *Canvas) Channel() Channel { return c.channel }

// BrushSize returns the current (odd) brush diameter.
func (c *Canvas) BrushSize() int { return c.size }

// SetBrushSize changes the kernel. It takes effect on the next stamp, so it
// may be called mid-gesture.
func (c *Canvas) SetBrushSize(size int) {
	c.size = normaliseSize(size)
	c.kernel = Kernel(c.size)
}

// Active reports whether a gesture is in progress.
func (c *Canvas) Active() bool { return c.active }

// BeginStroke starts a gesture at pos. Any previous gesture is forgotten.
func (c *Canvas) BeginStroke(pos image.Point, mode Mode) {
	c.mode = mode
	c.active = true
	c.hasPrev = false
	c.step(pos)
}

// ContinueStroke extends the gesture to pos. Without a preceding BeginStroke
// it starts a fresh paint gesture, since pointer event ordering cannot be
// fully trusted.
func (c *Canvas) ContinueStroke(pos image.Point) {
	if !c.active {
		c.mode = Paint
		c.active = true
		c.hasPrev = false
	}
	c.step(pos)
}

// EndStroke finishes the gesture so the next one does not connect to it.
func (c *Canvas) EndStroke() {
	c.active = false
	c.hasPrev = false
}

// Click stamps the kernel once at pos as a complete gesture.
func (c *Canvas) Click(pos image.Point, mode Mode) {
	c.BeginStroke(pos, mode)
	c.EndStroke()
}

func (c *Canvas) step(pos image.Point) {
	c.stamp(pos)
	if !c.hasPrev {
		c.prev, c.hasPrev = pos, true
		return
	}
	d := pos.Sub(c.prev)
	if sign(d.X) == 0 || sign(d.Y) == 0 {
		c.prev = pos
		return
	}
	for _, p := range band(c.prev, pos) {
		c.stamp(p)
	}
	c.prev = pos
}

// stamp applies the kernel centred at p, clipped to the canvas.
func (c *Canvas) stamp(p image.Point) {
	r := c.img.Rect
	var v uint8
	if c.mode == Paint {
		v = 0xff
	}
	for _, k := range c.kernel {
		q := p.Add(k)
		if !q.In(r) {
			continue
		}
		off := c.img.PixOffset(q.X, q.Y)
		px := c.img.Pix[off : off+4 : off+4]
		px[c.channel] = v
		if px[0]|px[1]|px[2] != 0 {
			px[3] = 0xff
		} else {
			px[3] = 0
		}
	}
}

// band returns the pixels strictly between p0 and p1, exclusive of both
// endpoints' rows and columns, that lie inside the half-pixel band around the
// segment. Both deltas must be non-zero. Pixels are ordered by column offset,
// then row offset.
func band(p0, p1 image.Point) []image.Point {
	dx, dy := p1.X-p0.X, p1.Y-p0.Y
	sx, sy := sign(dx), sign(dy)
	m := float64(dy) / float64(dx)

	var out []image.Point
	for a := 1; a < abs(dx); a++ {
		X := float64(sx * a)
		for b := 1; b < abs(dy); b++ {
			Y := float64(sy * b)
			if inBand(m, X, Y, sx, sy) {
				out = append(out, image.Pt(p0.X+sx*a, p0.Y+sy*b))
			}
		}
	}
	return out
}

// inBand is the quadrant-specific slope test for signed offset (X, Y).
func inBand(m, X, Y float64, sx, sy int) bool {
	switch {
	case sx > 0 && sy > 0:
		return (2*Y-1)/(2*X+1) <= m && m <= (2*Y+1)/(2*X-1)
	case sx > 0 && sy < 0:
		return (2*Y-1)/(2*X-1) <= m && m <= (2*Y+1)/(2*X+1)
	case sx < 0 && sy < 0:
		return (2*Y+1)/(2*X-1) <= m && m <= (2*Y-1)/(2*X+1)
	default:
		return (2*Y+1)/(2*X+1) <= m && m <= (2*Y-1)/(2*X-1)
	}
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Reset clears every pixel and any gesture in progress.
func (c *Canvas) Reset() {
	clear(c.img.Pix)
	c.EndStroke()
}

// Painted reports whether pixel (x, y) carries the canvas channel.
func (c *Canvas) Painted(x, y int) bool {
	if !image.Pt(x, y).In(c.img.Rect) {
		return false
	}
	return c.img.Pix[c.img.PixOffset(x, y)+int(c.channel)] > 0
}

// Mask returns a row-major snapshot of the painted channel, mask[y][x].
func (c *Canvas) Mask() [][]bool {
	w, h := c.img.Rect.Dx(), c.img.Rect.Dy()
	mask := make([][]bool, h)
	for y := range h {
		mask[y] = make([]bool, w)
		for x := range w {
			mask[y][x] = c.img.Pix[c.img.PixOffset(x, y)+int(c.channel)] > 0
		}
	}
	return mask
}

// PaintedCount returns the number of painted pixels.
func (c *Canvas) PaintedCount() int {
	n := 0
	for i := int(c.channel); i < len(c.img.Pix); i += 4 {
		if c.img.Pix[i] > 0 {
			n++
		}
	}
	return n
}

// Image returns the canvas pixels. The image shares storage with the canvas
// and reflects partial painting while a gesture is active.
func (c *Canvas) Image() *image.RGBA { return c.img }
