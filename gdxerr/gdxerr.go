// Package gdxerr defines the sentinel error values shared by every
// kernel in gdx and gdx/algo, per spec §7. Kernels wrap one of these
// with fmt.Errorf("...: %w", ...) naming the offending argument or
// value; callers use errors.Is to classify a failure without parsing
// its message.
package gdxerr

import "errors"

var (
	// InvalidArgument is returned for a size mismatch between input
	// rasters, a negative weight/resistance where non-negative is
	// required, a nodata value that does not fit the element type, an
	// unsupported combination of types, or an empty raster with no
	// nodata asked for min/max.
	InvalidArgument = errors.New("invalid argument")

	// RuntimeError is returned for a cycle in an LDD during accuflux, a
	// FiLo overflow, division applied to an unsigned raster via unary
	// negation, or a file that cannot be opened.
	RuntimeError = errors.New("runtime error")

	// OutOfMemory is returned when allocation of a result raster fails.
	OutOfMemory = errors.New("out of memory")
)
