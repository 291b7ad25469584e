// Package stroke rasterises freehand pointer gestures into a label canvas.
//
// A gesture is BeginStroke, any number of ContinueStroke calls and EndStroke.
// Every pointer sample stamps a disk kernel; between two samples that differ
// along both axes, every pixel inside the half-pixel band around the ideal
// segment is stamped too, so fast pointer motion never leaves gaps. The band
// is deliberately wider than a Bresenham line.
//
// The package works in raster pixel space only and knows nothing of the polar
// grid. A Canvas is not safe for concurrent use.
package stroke
