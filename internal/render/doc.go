// Package render turns resampled rasters, label canvases and label masks
// into images for people to look at: colour-mapped RGBA frames with the
// label overlay, PNG heatmaps and an HTML report.
//
// Images produced here put the maximum y at the top. Rasters and canvases
// keep row 0 at the minimum y, so every conversion flips vertically.
package render
