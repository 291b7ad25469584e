package stroke

import "image"

// DefaultBrushSize is the brush diameter in pixels used when none is set.
const DefaultBrushSize = 5

// normaliseSize clamps size to at least 1 and rounds even sizes up so the
// kernel always has a centre pixel.
func normaliseSize(size int) int {
	if size < 1 {
		return 1
	}
	if size%2 == 0 {
		return size + 1
	}
	return size
}

// Kernel returns the offsets (dx, dy) relative to the brush centre with
// dx²+dy² <= ((size-1)/2)². Offsets are ordered row by row.
func Kernel(size int) []image.Point {
	size = normaliseSize(size)
	c := (size - 1) / 2
	pts := make([]image.Point, 0, size*size)
	for dy := -c; dy <= c; dy++ {
		for dx := -c; dx <= c; dx++ {
			if dx*dx+dy*dy <= c*c {
				pts = append(pts, image.Pt(dx, dy))
			}
		}
	}
	return pts
}
