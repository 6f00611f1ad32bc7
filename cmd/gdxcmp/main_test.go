package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxio"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handleOf(t *testing.T, data []float64) gdx.Handle {
	t.Helper()
	md := gdx.NewMetadata(1, int32(len(data)), 0, 0, 100, 100)
	r, err := gdx.RasterFromData[float64](md, data)
	require.NoError(t, err)
	return gdx.NewHandle(r)
}

// Scenario S6: two otherwise-equal rasters differ by 1e-6 in every cell.
func TestCompareToleranceScenario(t *testing.T) {
	expected := handleOf(t, []float64{1, 2, 3, 4})
	actual := handleOf(t, []float64{1 + 1e-6, 2 + 1e-6, 3 + 1e-6, 4 + 1e-6})

	tolerance = 1e-5
	d := compare(expected, actual)
	assert.Zero(t, d.total(), "within tolerance, the rasters must compare equal")

	tolerance = 0
	d = compare(expected, actual)
	assert.Equal(t, 4, d.total(), "with no tolerance, every cell differs")
}

func TestCompareNodataTransitions(t *testing.T) {
	tolerance = 0

	expectedMD := gdx.NewMetadata(1, 4, 0, 0, 100, 100).WithNodata(-9999)
	expectedR, err := gdx.RasterFromData[float64](expectedMD, []float64{0, 1, 0, 5})
	require.NoError(t, err)
	expected := gdx.NewHandle(expectedR)

	actualMD := gdx.NewMetadata(1, 4, 0, 0, 100, 100).WithNodata(-9999)
	actualR, err := gdx.RasterFromData[float64](actualMD, []float64{-9999, 1, 2, -9999})
	require.NoError(t, err)
	actualR.SetNodata(gdx.NewCell(0, 0))
	actualR.SetNodata(gdx.NewCell(0, 3))
	actual := gdx.NewHandle(actualR)

	d := compare(expected, actual)
	assert.Equal(t, 1, d.zeroToNodata, "expected's zero cell 0 became actual's nodata")
	assert.Equal(t, 1, d.nonZeroToNodata, "expected's non-zero cell 3 became actual's nodata")
	assert.Equal(t, 1, d.zeroToNonZero, "expected's zero cell 2 became actual's non-zero 2")
	assert.Equal(t, 3, d.total())
}

func TestRunExitsCleanOnMatch(t *testing.T) {
	dir := t.TempDir()
	expPath := filepath.Join(dir, "expected.gob")
	actPath := filepath.Join(dir, "actual.gob")

	expected := handleOf(t, []float64{1, 2, 3})
	actual := handleOf(t, []float64{1, 2, 3})

	driver := gdxio.GobDriver{}
	require.NoError(t, driver.Write(expPath, expected))
	require.NoError(t, driver.Write(actPath, actual))

	tolerance = 0
	checkMeta = false
	verbose = false
	err := run(nil, []string{expPath, actPath})
	assert.NoError(t, err)
}

func TestLoadConfigFillsUnsetFlagsOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gdxrc.toml")
	require.NoError(t, os.WriteFile(path, []byte("FloatTolerance = 0.25\nDriver = \"netcdf\"\n"), 0o644))

	root := &cobra.Command{Use: "gdxcmp"}
	root.Flags().Float64Var(&tolerance, "floating-point-tolerance", 0, "")

	configPath = path
	tolerance = 0
	defaultDriver = ""
	require.NoError(t, loadConfig(root))
	assert.Equal(t, 0.25, tolerance, "unset flag picks up the config file's default")
	assert.Equal(t, "netcdf", defaultDriver)

	require.NoError(t, root.Flags().Set("floating-point-tolerance", "9"))
	tolerance = 9
	require.NoError(t, loadConfig(root))
	assert.Equal(t, 9.0, tolerance, "an explicitly set flag is never overridden by the config file")

	configPath = ""
	tolerance = 0
	defaultDriver = ""
}

func TestRunReportsShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	expPath := filepath.Join(dir, "expected.gob")
	actPath := filepath.Join(dir, "actual.gob")

	expected := handleOf(t, []float64{1, 2, 3})
	md := gdx.NewMetadata(1, 2, 0, 0, 100, 100)
	r, err := gdx.RasterFromData[float64](md, []float64{1, 2})
	require.NoError(t, err)
	actual := gdx.NewHandle(r)

	driver := gdxio.GobDriver{}
	require.NoError(t, driver.Write(expPath, expected))
	require.NoError(t, driver.Write(actPath, actual))

	tolerance = 0
	checkMeta = false
	err = run(nil, []string{expPath, actPath})
	assert.ErrorIs(t, err, errDiffer)
}
