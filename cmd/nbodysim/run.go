package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/catalog"
	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/sim"
	"github.com/san-kum/nbodysim/internal/storage"
	"github.com/san-kum/nbodysim/internal/viz"
)

// escapeRadiusAU is where a minor body counts as having left the system.
const escapeRadiusAU = 100.0

func simConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:                cfg.Dt,
		G:                 cfg.G,
		Theta:             cfg.Theta,
		SofteningAU:       cfg.SofteningAU,
		MaxDepth:          cfg.MaxDepth,
		CollisionRadiusAU: cfg.CollisionRadiusAU,
	}
}

func runMetrics(cfg *config.Config) []sim.Metric {
	return []sim.Metric{
		metrics.NewEnergy(cfg.G, cfg.SofteningAU),
		metrics.NewEnergyDrift(cfg.G, cfg.SofteningAU),
		metrics.NewConsumed(),
		metrics.NewEscaped(escapeRadiusAU),
		metrics.NewMeanSpeed(),
	}
}

func newRunCmd() *cobra.Command {
	var (
		flags    simFlags
		elements string
		comets   bool
		name     string
		asJSON   bool
		noSave   bool
		from     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the solar system with the configured minor bodies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags)
			if err != nil {
				return err
			}
			var major, minor []dynamo.Body
			if from != "" {
				major, minor, err = storage.New(cfg.OutputDir).LoadBodies(from)
				if err != nil {
					return fmt.Errorf("continue from %s: %w", from, err)
				}
			} else {
				if major, err = majorBodies(cfg); err != nil {
					return err
				}
				if minor, err = minorBodies(cfg, elements, comets); err != nil {
					return err
				}
			}

			store := dynamo.NewStore()
			if dropped := store.Load(major, minor); dropped > 0 {
				logger.V(1).Info("dropped bodies with non-finite state", "dropped", dropped)
			}

			ev, err := compute.ByName(cfg.Backend, cfg.Workers)
			if err != nil {
				return err
			}
			defer ev.Cleanup()

			integ, err := integrators.New(cfg.Integrator, cfg.G, cfg.SofteningAU)
			if err != nil {
				return err
			}

			every := max(1, cfg.Ticks/10)
			opts := []sim.Option{
				sim.WithLogger(logger.WithName("sim")),
				sim.WithIntegrator(integ),
				sim.WithObserver(sim.ObserverFunc(func(f sim.Frame) {
					if f.Tick%every == 0 {
						logger.V(1).Info("progress", "tick", f.Tick, "of", cfg.Ticks, "consumed", f.Consumed)
					}
				})),
			}
			for _, m := range runMetrics(cfg) {
				opts = append(opts, sim.WithMetric(m))
			}

			s, err := sim.New(store, ev, simConfig(cfg), opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			result, runErr := s.Run(ctx, cfg.Ticks)
			if result == nil {
				return runErr
			}

			meta := storage.RunMetadata{
				Name:        name,
				Dt:          cfg.Dt,
				Theta:       cfg.Theta,
				SofteningAU: cfg.SofteningAU,
				Integrator:  integ.Name(),
				Backend:     ev.Name(),
				Major:       store.MajorCount(),
				Minor:       store.MinorCount(),
			}

			if asJSON {
				if err := storage.ExportJSON(os.Stdout, meta, result); err != nil {
					return err
				}
				return runErr
			}

			if !noSave {
				st := storage.New(cfg.OutputDir)
				if err := st.Init(); err != nil {
					return err
				}
				runID, err := st.Save(meta, result, store.MajorSnapshot(), store.MinorSnapshot())
				if err != nil {
					return err
				}
				if saved, err := st.Load(runID); err == nil {
					meta = *saved
				}
			} else {
				meta.Ticks = result.Ticks
				meta.Consumed = result.Consumed
				meta.EnergyDrift = result.EnergyDrift
				meta.Elapsed = result.Elapsed.Seconds()
				meta.Metrics = result.Metrics
			}

			fmt.Println(viz.Summary(meta))
			fmt.Println(viz.EnergyPlot(result.Energies, 70, 8))
			return runErr
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&elements, "elements", "", "orbital element stream (JSON array or NDJSON) to add as minor bodies")
	cmd.Flags().BoolVar(&comets, "elements-comets", false, "flag bodies from --elements as comets")
	cmd.Flags().StringVar(&name, "name", "solar", "run name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the result as JSON to stdout instead of saving it")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")
	cmd.Flags().StringVar(&from, "from", "", "start from the final bodies of a recorded run")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		flags       simFlags
		body        string
		multipliers []float64
		parallel    int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per mass multiplier of a major body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags)
			if err != nil {
				return err
			}
			base, err := majorBodies(cfg)
			if err != nil {
				return err
			}
			minor, err := minorBodies(cfg, "", false)
			if err != nil {
				return err
			}

			members := make([]sim.Member, len(multipliers))
			for i, m := range multipliers {
				major := dynamo.Clone(base)
				if err := catalog.ScaleMass(major, body, m); err != nil {
					return err
				}
				members[i] = sim.Member{Name: fmt.Sprintf("%s=%g", body, m), Major: major, Minor: minor}
			}

			ens := &sim.Ensemble{
				Config: simConfig(cfg),
				NewEvaluator: func() (compute.ForceEvaluator, error) {
					return compute.ByName(cfg.Backend, cfg.Workers)
				},
				NewMetrics: func() []sim.Metric { return runMetrics(cfg) },
				Limit:      parallel,
				Log:        logger.WithName("sweep"),
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			results, err := ens.Run(ctx, members, cfg.Ticks)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MEMBER\tTICKS\tDRIFT\tCONSUMED\tESCAPED\tELAPSED")
			for i, r := range results {
				fmt.Fprintf(w, "%s\t%d\t%.3e\t%d\t%.3f\t%.2fs\n",
					members[i].Name,
					r.Ticks,
					r.EnergyDrift,
					r.Consumed,
					r.Metrics["escaped"],
					r.Elapsed.Seconds(),
				)
			}
			return w.Flush()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&body, "body", "BlackHole", "major body whose mass is varied")
	cmd.Flags().Float64SliceVar(&multipliers, "multipliers", []float64{0, 1, 2, 5}, "mass multipliers to run")
	cmd.Flags().IntVar(&parallel, "parallel", 2, "members run at once, 0 for all")
	return cmd
}
