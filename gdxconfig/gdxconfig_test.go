package gdxconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()
	d := cfg.Defaults()
	assert.Equal(t, 1e-8, d.FloatTolerance)
	assert.Equal(t, "", d.ColorMapDir)
	assert.Equal(t, "gob", d.Driver)
}

func TestLoadEmptyPathIsNoop(t *testing.T) {
	cfg := New()
	require.NoError(t, Load(cfg, ""))
	assert.Equal(t, 1e-8, cfg.Defaults().FloatTolerance)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gdxrc.toml")
	contents := `FloatTolerance = 0.001
Driver = "netcdf"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg := New()
	require.NoError(t, Load(cfg, path))

	d := cfg.Defaults()
	assert.Equal(t, 0.001, d.FloatTolerance)
	assert.Equal(t, "netcdf", d.Driver)
	assert.Equal(t, "", d.ColorMapDir, "unset keys keep their registered default")
}

func TestLoadMissingFileErrors(t *testing.T) {
	cfg := New()
	err := Load(cfg, filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
