package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/catalog"
	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/orbital"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbosity  int

	logger = logr.Discard()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "nbodysim",
		Short:         "gravitational n-body simulation of the solar system and its minor bodies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			stdr.SetVerbosity(verbosity)
			logger = stdr.New(log.New(os.Stderr, "", log.LstdFlags))
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "run directory (defaults to the config output_dir)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "named preset applied before the config file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity, repeat for more")

	rootCmd.AddCommand(
		newRunCmd(),
		newSweepCmd(),
		newListCmd(),
		newPlotCmd(),
		newInspectCmd(),
		newConvertCmd(),
		newPackCmd(),
		newBenchCmd(),
		newPresetsCmd(),
		newBackendsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// simFlags are the config overrides shared by commands that simulate.
type simFlags struct {
	dt         float64
	ticks      int
	theta      float64
	softening  float64
	radius     float64
	backend    string
	workers    int
	integrator string
	masses     []string
	comets     string
	numbered   string
	unnumbered string
}

func (f *simFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&f.dt, "dt", config.DefaultDt, "tick length in seconds")
	fs.IntVar(&f.ticks, "ticks", config.DefaultTicks, "number of ticks")
	fs.Float64Var(&f.theta, "theta", config.DefaultTheta, "Barnes-Hut opening angle, 0 for exact forces")
	fs.Float64Var(&f.softening, "softening", config.DefaultSofteningAU, "softening length in AU")
	fs.Float64Var(&f.radius, "collision-radius", config.DefaultCollisionRadiusAU, "sink capture radius in AU, 0 disables")
	fs.StringVar(&f.backend, "backend", "auto", "force backend: "+strings.Join(compute.Names(), ", "))
	fs.IntVar(&f.workers, "workers", 0, "cpu backend goroutines, 0 for one per cpu")
	fs.StringVar(&f.integrator, "integrator", "verlet", "major body integrator")
	fs.StringSliceVar(&f.masses, "mass", nil, "mass multiplier as Name=factor, e.g. BlackHole=2")
	fs.StringVar(&f.comets, "comets", "", "comet catalog")
	fs.StringVar(&f.numbered, "numbered", "", "numbered asteroid catalog")
	fs.StringVar(&f.unnumbered, "unnumbered", "", "unnumbered asteroid catalog")
}

// resolveConfig builds the effective config: preset, file, environment and
// finally any flag the user set explicitly.
func resolveConfig(cmd *cobra.Command, f *simFlags) (*config.Config, error) {
	cfg, err := config.Resolve(preset, configFile)
	if err != nil {
		return nil, err
	}
	if f != nil {
		changed := cmd.Flags().Changed
		if changed("dt") {
			cfg.Dt = f.dt
		}
		if changed("ticks") {
			cfg.Ticks = f.ticks
		}
		if changed("theta") {
			cfg.Theta = f.theta
		}
		if changed("softening") {
			cfg.SofteningAU = f.softening
		}
		if changed("collision-radius") {
			cfg.CollisionRadiusAU = f.radius
		}
		if changed("backend") {
			cfg.Backend = f.backend
		}
		if changed("workers") {
			cfg.Workers = f.workers
		}
		if changed("integrator") {
			cfg.Integrator = f.integrator
		}
		if changed("comets") {
			cfg.Catalog.Comets = f.comets
		}
		if changed("numbered") {
			cfg.Catalog.Numbered = f.numbered
		}
		if changed("unnumbered") {
			cfg.Catalog.Unnumbered = f.unnumbered
		}
		for _, kv := range f.masses {
			name, factor, err := parseMass(kv)
			if err != nil {
				return nil, err
			}
			if cfg.Masses == nil {
				cfg.Masses = make(map[string]float64)
			}
			cfg.Masses[name] = factor
		}
	}
	if dataDir != "" {
		cfg.OutputDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseMass(kv string) (string, float64, error) {
	name, value, ok := strings.Cut(kv, "=")
	if !ok {
		return "", 0, fmt.Errorf("mass %q: expected Name=factor: %w", kv, dynamo.ErrInvalidConfig)
	}
	factor, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return "", 0, fmt.Errorf("mass %q: %w", kv, err)
	}
	return name, factor, nil
}

// majorBodies returns the solar-system preset with the configured mass multipliers.
func majorBodies(cfg *config.Config) ([]dynamo.Body, error) {
	major := catalog.SolarSystem()
	for name, factor := range cfg.Masses {
		if err := catalog.ScaleMass(major, name, factor); err != nil {
			return nil, err
		}
	}
	return major, nil
}

// minorBodies assembles the configured catalogs and appends any bodies
// converted from an element stream.
func minorBodies(cfg *config.Config, elements string, comets bool) ([]dynamo.Body, error) {
	minor, err := catalog.Load(cfg.Catalog, logger)
	if err != nil {
		return nil, err
	}
	if elements == "" {
		return minor, nil
	}

	f, err := os.Open(elements)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := orbital.DefaultIngestOptions()
	opts.G = cfg.G
	opts.Kepler = cfg.Kepler
	opts.Comet = comets
	bodies, stats, err := orbital.Ingest(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", elements, err)
	}
	logger.Info("converted orbital elements", "path", elements, "records", stats.Records, "unconverged", stats.Unconverged, "zeroMass", stats.ZeroMass)
	return append(minor, bodies...), nil
}
