// Package labels aggregates a dense cartesian label raster back onto the
// cells of a polar grid.
//
// Responsibilities: pixel-to-cell binning with the 2π seam correction,
// the binned mean statistic, thresholding into a per-cell Mask, and simple
// summaries of a finished Mask.
// Key types: Aggregator, Statistic, Mask, Summary.
//
// Dependency rule: labels depends on internal/polar only. Stroke canvases
// are consumed through their [][]bool snapshot, and nothing here persists.
package labels
