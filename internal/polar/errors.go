package polar

import "errors"

var (
	// ErrShapeMismatch is returned when arrays that must share a shape do not.
	ErrShapeMismatch = errors.New("polar: shape mismatch")

	// ErrNonUniformStep is returned when the grid's angular or radial step is
	// not constant within tolerance.
	ErrNonUniformStep = errors.New("polar: non-uniform grid step")

	// ErrRasterSize is returned for a raster with a non-positive dimension.
	ErrRasterSize = errors.New("polar: invalid raster size")
)
