// Command gdxcmp compares two raster files cell by cell and reports
// whether they are structurally equal, per spec §6/§8 scenario S6.
// Structured the way the teacher's cmd/inmap/main.go hands off to a
// cobra root command, generalized from InMAP's single subcommand tree
// to gdxcmp's flat two-positional-argument form.
package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/gdx"
	"github.com/ctessum/gdx/gdxconfig"
	"github.com/ctessum/gdx/gdxio"
	"github.com/spf13/cobra"
)

var (
	checkMeta     bool
	verbose       bool
	tolerance     float64
	configPath    string
	defaultDriver string
)

func driverFor(path string) gdxio.ReadWriter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".cdf", ".netcdf":
		return gdxio.NetCDFDriver{}
	case ".gob":
		return gdxio.GobDriver{}
	default:
		if defaultDriver == "netcdf" {
			return gdxio.NetCDFDriver{}
		}
		return gdxio.GobDriver{}
	}
}

// loadConfig reads --config (a .gdxrc.toml file, spec §1) into a
// gdxconfig.Cfg and fills in any flag the caller didn't set on the
// command line with that file's defaults, the same ordering
// inmaputil.Cfg follows: defaults, then config file, then explicit
// flags win.
func loadConfig(cmd *cobra.Command) error {
	cfg := gdxconfig.New()
	if err := gdxconfig.Load(cfg, configPath); err != nil {
		return err
	}
	d := cfg.Defaults()
	if !cmd.Flags().Changed("floating-point-tolerance") {
		tolerance = d.FloatTolerance
	}
	defaultDriver = d.Driver
	return nil
}

// diffCounts tallies the difference classes spec §6 names.
type diffCounts struct {
	exactMismatch   int // ≠ by exact equality or outside tolerance
	zeroToNonZero   int
	zeroToNodata    int
	nodataToZero    int
	nonZeroToNodata int
	nodataToNonZero int
}

func (d diffCounts) total() int {
	return d.exactMismatch + d.zeroToNonZero + d.zeroToNodata + d.nodataToZero + d.nonZeroToNodata + d.nodataToNonZero
}

func (d diffCounts) report() {
	fmt.Printf("exact mismatch:     %d\n", d.exactMismatch)
	fmt.Printf("zero <-> non-zero:  %d\n", d.zeroToNonZero)
	fmt.Printf("zero -> nodata:     %d\n", d.zeroToNodata)
	fmt.Printf("nodata -> zero:     %d\n", d.nodataToZero)
	fmt.Printf("non-zero -> nodata: %d\n", d.nonZeroToNodata)
	fmt.Printf("nodata -> non-zero: %d\n", d.nodataToNonZero)
}

func compare(expected, actual gdx.Handle) diffCounts {
	a := expected.AsF64()
	b := actual.AsF64()
	var d diffCounts
	for i := int64(0); i < a.Size(); i++ {
		aNodata := a.HasNodata && a.IsNodataIndex(i)
		bNodata := b.HasNodata && b.IsNodataIndex(i)
		av, bv := a.GetIndex(i), b.GetIndex(i)
		aZero := !aNodata && av == 0
		bZero := !bNodata && bv == 0

		switch {
		case aNodata && bNodata:
			// both nodata: no difference
		case aNodata && bZero:
			d.nodataToZero++
		case aNodata && !bNodata && !bZero:
			d.nodataToNonZero++
		case bNodata && aZero:
			d.zeroToNodata++
		case bNodata && !aNodata && !aZero:
			d.nonZeroToNodata++
		case aZero && !bZero:
			d.zeroToNonZero++
		case !aZero && bZero:
			d.zeroToNonZero++
		default:
			if math.Abs(av-bv) > tolerance {
				d.exactMismatch++
			}
		}
	}
	return d
}

func run(cmd *cobra.Command, args []string) error {
	expectedPath, actualPath := args[0], args[1]

	expected, err := driverFor(expectedPath).Read(expectedPath)
	if err != nil {
		return fmt.Errorf("gdxcmp: reading %s: %w", expectedPath, err)
	}
	actual, err := driverFor(actualPath).Read(actualPath)
	if err != nil {
		return fmt.Errorf("gdxcmp: reading %s: %w", actualPath, err)
	}

	if checkMeta {
		if !expected.Metadata().Equal(actual.Metadata()) {
			if verbose {
				fmt.Printf("metadata differs: %+v vs %+v\n", expected.Metadata(), actual.Metadata())
			}
			return errDiffer
		}
	} else if expected.Metadata().Rows != actual.Metadata().Rows || expected.Metadata().Cols != actual.Metadata().Cols {
		return fmt.Errorf("gdxcmp: %w: shape mismatch %dx%d vs %dx%d", errDiffer, expected.Metadata().Rows, expected.Metadata().Cols, actual.Metadata().Rows, actual.Metadata().Cols)
	}

	counts := compare(expected, actual)
	if verbose {
		counts.report()
	}
	if counts.total() > 0 {
		return errDiffer
	}
	return nil
}

var errDiffer = fmt.Errorf("rasters differ")

func main() {
	root := &cobra.Command{
		Use:   "gdxcmp expected actual",
		Short: "Compare two raster files for structural equality.",
		Args:  cobra.ExactArgs(2),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
		RunE: run,
	}
	flags := root.Flags()
	flags.BoolVar(&checkMeta, "check-meta", false, "also require metadata (shape, cell size, origin, nodata) to match exactly")
	flags.BoolVar(&verbose, "verbose", false, "print per-difference-class counts")
	flags.Float64Var(&tolerance, "floating-point-tolerance", 0, "maximum absolute difference to still treat two data cells as equal")
	flags.StringVar(&configPath, "config", "", "path to a .gdxrc.toml file supplying defaults for the flags above")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
