package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

// beltBodies scatters n asteroids of 1e15 to 1e20 kg on near-circular orbits
// between 2.1 and 3.3 AU.
func beltBodies(n int, seed uint64) []dynamo.Body {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]dynamo.Body, n)
	for i := range out {
		r := 2.1 + 1.2*rng.Float64()
		phi := 2 * math.Pi * rng.Float64()
		speed := math.Sqrt(dynamo.G * 1.989e30 / (r * dynamo.AUInMeters))
		out[i] = dynamo.Body{
			Position: r3.Vec{X: r * math.Cos(phi), Y: 0.05 * rng.NormFloat64(), Z: r * math.Sin(phi)},
			Velocity: r3.Vec{X: -speed * math.Sin(phi), Z: speed * math.Cos(phi)},
			Mass:     math.Pow(10, 15+5*rng.Float64()),
			Collided: dynamo.NotEvaluated,
		}
	}
	return out
}

func newBenchCmd() *cobra.Command {
	var (
		flags  simFlags
		n      int
		thetas []float64
		reps   int
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "time tree builds and force evaluation over a synthetic belt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags)
			if err != nil {
				return err
			}
			major, err := majorBodies(cfg)
			if err != nil {
				return err
			}
			minor := beltBodies(n, seed)
			reps = max(1, reps)

			ev, err := compute.ByName(cfg.Backend, cfg.Workers)
			if err != nil {
				return err
			}
			defer ev.Cleanup()

			fmt.Printf("benchmarking %s with %d minor bodies\n\n", ev.Name(), n)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "THETA\tNODES\tDEPTH\tBUILD\tFORCES\tBODIES/SEC")

			tree := barneshut.NewTree(cfg.MaxDepth)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			for _, theta := range thetas {
				var build, forces time.Duration
				for range reps {
					start := time.Now()
					tree.Rebuild(minor, nil)
					build += time.Since(start)

					start = time.Now()
					state := compute.State{
						Major:  major,
						Minor:  minor,
						Tree:   tree,
						Params: barneshut.Params{G: cfg.G, Theta: theta, SofteningAU: cfg.SofteningAU},
					}
					if err := ev.Upload(state); err != nil {
						return err
					}
					if err := ev.Dispatch(ctx); err != nil {
						return err
					}
					if _, err := ev.Download(); err != nil {
						return err
					}
					forces += time.Since(start)
				}
				build /= time.Duration(reps)
				forces /= time.Duration(reps)
				fmt.Fprintf(w, "%.2f\t%d\t%d\t%v\t%v\t%.0f\n",
					theta, tree.Len(), tree.Depth, build, forces, float64(n)/forces.Seconds())
			}
			return w.Flush()
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVarP(&n, "bodies", "n", 20000, "synthetic minor bodies")
	cmd.Flags().Float64SliceVar(&thetas, "thetas", []float64{0.3, 0.5, 0.8, 1.0}, "opening angles to time")
	cmd.Flags().IntVar(&reps, "reps", 3, "repetitions per angle")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "belt seed")
	return cmd
}
