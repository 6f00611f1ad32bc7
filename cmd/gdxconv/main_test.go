package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigSetsDriverAndColorMapDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gdxrc.toml")
	require.NoError(t, os.WriteFile(path, []byte("Driver = \"netcdf\"\nColorMapDir = \"/maps\"\n"), 0o644))

	configPath = path
	defaultDriver = ""
	colorMapDir = ""
	require.NoError(t, loadConfig(&cobra.Command{Use: "gdxconv"}))

	assert.Equal(t, "netcdf", defaultDriver)
	assert.Equal(t, "/maps", colorMapDir)

	configPath = ""
	defaultDriver = ""
	colorMapDir = ""
}

func TestDriverForAmbiguousExtensionFallsBackToDefaultDriver(t *testing.T) {
	defaultDriver = "netcdf"
	assert.IsType(t, driverFor("/tmp/whatever.dat"), driverFor("/tmp/other.nc"))
	defaultDriver = ""
}
