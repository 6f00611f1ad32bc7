// Package gdxio is the external storage boundary named in spec §6: a
// Reader/Writer pair every concrete driver implements, so callers never
// depend on gob or netcdf directly. A Handle round-trips through
// Write-then-Read with its Metadata and Kind intact.
package gdxio

import "github.com/ctessum/gdx"

// Reader opens a raster file and returns its contents type-erased,
// since the file's element Kind is only known once the header has been
// read.
type Reader interface {
	Read(path string) (gdx.Handle, error)
}

// Writer persists a Handle to a raster file.
type Writer interface {
	Write(path string, h gdx.Handle) error
}

// ReadWriter is a driver that supports both directions, which is what
// every driver in this package implements.
type ReadWriter interface {
	Reader
	Writer
}

// Warper is the optional reprojection collaborator a driver may
// support (spec §6). Both drivers in this package implement it, and
// both Warp methods return a "not implemented" error, so a type
// assertion to Warper succeeds for them without the driver being able
// to reproject.
type Warper interface {
	Warp(h gdx.Handle, targetProjection string) (gdx.Handle, error)
}
