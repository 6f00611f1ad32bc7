// Package memfile binds raw bytes (typically fetched by gdx/remoteio)
// to a virtual path on an in-memory afero.Fs, so gdxio's drivers can
// read them with their ordinary path-based Read without ever touching
// the real filesystem (spec §6).
package memfile

import (
	"fmt"

	"github.com/spf13/afero"
)

// FS is an in-memory filesystem of virtual raster files.
type FS struct {
	afero.Fs
}

// New returns an empty in-memory filesystem.
func New() *FS {
	return &FS{Fs: afero.NewMemMapFs()}
}

// Bind writes data to virtualPath, creating any parent directories
// implied by it. A driver's Read(virtualPath) on this FS then sees
// exactly these bytes.
func (f *FS) Bind(virtualPath string, data []byte) error {
	file, err := f.Fs.Create(virtualPath)
	if err != nil {
		return fmt.Errorf("memfile: Bind: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("memfile: Bind: %w", err)
	}
	return nil
}

// ReadAll returns the bytes currently bound at virtualPath.
func (f *FS) ReadAll(virtualPath string) ([]byte, error) {
	file, err := f.Fs.Open(virtualPath)
	if err != nil {
		return nil, fmt.Errorf("memfile: ReadAll: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("memfile: ReadAll: %w", err)
	}
	buf := make([]byte, info.Size())
	if _, err := file.Read(buf); err != nil {
		return nil, fmt.Errorf("memfile: ReadAll: %w", err)
	}
	return buf, nil
}
