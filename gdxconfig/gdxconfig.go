// Package gdxconfig loads defaults for the gdxcmp/gdxconv command-line
// tools from a ".gdxrc.toml" file, grounded directly on the teacher's
// own inmaputil.Cfg (inmaputil/cmd.go, inmaputil/config.go): a
// github.com/lnashier/viper instance whose config file is read with
// ReadInConfig once a --config path is known, the same
// setConfig(cfg *Cfg) flow the teacher runs from every command's
// PersistentPreRunE.
package gdxconfig

import (
	"fmt"

	"github.com/lnashier/viper"
)

// Defaults are the tunables gdxcmp/gdxconv fall back to when a flag
// isn't set on the command line.
type Defaults struct {
	// FloatTolerance is the default --floating-point-tolerance gdxcmp
	// uses when comparing two rasters (spec §8 scenario S6).
	FloatTolerance float64

	// ColorMapDir is the default directory gdxconv looks in for named
	// color map files when rendering a preview image.
	ColorMapDir string

	// Driver is the default gdxio driver name ("gob" or "netcdf") used
	// when a file's extension doesn't disambiguate it.
	Driver string
}

// defaultValues mirrors the teacher's own per-option default table in
// inmaputil/cmd.go (the `options` slice's `defaultVal` field).
var defaultValues = map[string]interface{}{
	"FloatTolerance": 1e-8,
	"ColorMapDir":    "",
	"Driver":         "gob",
}

// Cfg wraps a *viper.Viper the same way inmaputil.Cfg does, carrying
// gdx's own option defaults instead of InMAP's.
type Cfg struct {
	*viper.Viper
}

// New returns a Cfg with gdx's defaults registered.
func New() *Cfg {
	v := viper.New()
	for name, val := range defaultValues {
		v.SetDefault(name, val)
	}
	return &Cfg{Viper: v}
}

// Load reads path (a TOML file, per spec: ".gdxrc.toml") into cfg,
// overriding any defaults the file sets. An empty path is not an
// error; a file that does not exist or cannot be parsed is.
func Load(cfg *Cfg, path string) error {
	if path == "" {
		return nil
	}
	cfg.SetConfigFile(path)
	cfg.SetConfigType("toml")
	if err := cfg.ReadInConfig(); err != nil {
		return fmt.Errorf("gdxconfig: Load: %w", err)
	}
	return nil
}

// Defaults reads cfg's current values into a Defaults struct, the way
// a gdxcmp/gdxconv command pulls its tunables out of *Cfg before
// running.
func (cfg *Cfg) Defaults() Defaults {
	return Defaults{
		FloatTolerance: cfg.GetFloat64("FloatTolerance"),
		ColorMapDir:    cfg.GetString("ColorMapDir"),
		Driver:         cfg.GetString("Driver"),
	}
}
