// Package polar owns the polar grid geometry and the polar-to-cartesian
// display resampler.
//
// Responsibilities: grid step derivation and validation, the forward and
// inverse polar projection, the pixel<->cartesian viewport shared by every
// raster in the system, and cubic B-spline resampling of polar fields onto a
// cartesian raster.
// Key types: Grid, Viewport, Raster.
//
// Dependency rule: this package depends on gonum only. It never logs and
// never touches persistence; all inputs are in-memory buffers owned by the
// caller.
package polar
