package main

import (
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/catalog"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/orbital"
	"github.com/san-kum/nbodysim/internal/viz"
)

func newInspectCmd() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "inspect <catalog>",
		Short: "summarise a binary body catalog and the octree built over it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bodies, stats, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}

			rows := []string{
				viz.Row("declared", fmt.Sprint(stats.Declared)),
				viz.Row("kept", fmt.Sprint(len(bodies))),
				viz.Row("dropped", fmt.Sprint(stats.Dropped)),
			}

			if len(bodies) > 0 {
				lo := r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
				hi := r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
				var mass float64
				comets := 0
				for _, b := range bodies {
					lo = r3.Vec{X: math.Min(lo.X, b.Position.X), Y: math.Min(lo.Y, b.Position.Y), Z: math.Min(lo.Z, b.Position.Z)}
					hi = r3.Vec{X: math.Max(hi.X, b.Position.X), Y: math.Max(hi.Y, b.Position.Y), Z: math.Max(hi.Z, b.Position.Z)}
					mass += b.Mass
					if b.IsComet {
						comets++
					}
				}

				tree := barneshut.Build(bodies, maxDepth)
				rows = append(rows,
					viz.Row("comets", fmt.Sprint(comets)),
					viz.Row("total mass", fmt.Sprintf("%.4e kg", mass)),
					viz.Row("bounds min", fmt.Sprintf("(%.2f, %.2f, %.2f) AU", lo.X, lo.Y, lo.Z)),
					viz.Row("bounds max", fmt.Sprintf("(%.2f, %.2f, %.2f) AU", hi.X, hi.Y, hi.Z)),
					viz.Row("tree nodes", fmt.Sprint(tree.Len())),
					viz.Row("tree depth", fmt.Sprint(tree.Depth)),
					viz.Row("truncated", fmt.Sprint(tree.Truncated)),
				)
			}

			fmt.Println(viz.Box(args[0], rows...))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", config.DefaultMaxDepth, "octree depth limit")
	return cmd
}

func newConvertCmd() *cobra.Command {
	var comets bool

	cmd := &cobra.Command{
		Use:   "convert <elements> <catalog>",
		Short: "convert an orbital element stream into a binary body catalog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, nil)
			if err != nil {
				return err
			}

			in, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer in.Close()

			opts := orbital.DefaultIngestOptions()
			opts.G = cfg.G
			opts.Kepler = cfg.Kepler
			opts.Comet = comets
			bodies, stats, err := orbital.Ingest(in, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if stats.Unconverged > 0 {
				logger.Info("kepler solve hit the iteration cap", "records", stats.Unconverged)
			}

			if err := catalog.SaveFile(args[1], bodies); err != nil {
				return err
			}
			fmt.Println(viz.Box("convert",
				viz.Row("records", fmt.Sprint(stats.Records)),
				viz.Row("unconverged", fmt.Sprint(stats.Unconverged)),
				viz.Row("zero mass", fmt.Sprint(stats.ZeroMass)),
				viz.Row("written", args[1]),
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&comets, "comet", false, "flag the converted bodies as comets")
	return cmd
}

func newPackCmd() *cobra.Command {
	var (
		flags  simFlags
		majors bool
	)

	cmd := &cobra.Command{
		Use:   "pack <catalog>",
		Short: "write the assembled scenario bodies as one binary catalog",
		Long: "pack writes the configured minor-body catalogs, assembled in run order, " +
			"to a single file. With --majors it writes the major bodies instead, " +
			"with any mass multipliers applied.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, &flags)
			if err != nil {
				return err
			}

			out := args[0]
			if majors {
				major, err := majorBodies(cfg)
				if err != nil {
					return err
				}
				if err := catalog.SaveFile(out, major); err != nil {
					return err
				}
				fmt.Println(viz.Row("major bodies", fmt.Sprint(len(major))))
				return nil
			}

			if cfg.Catalog.Empty() {
				return fmt.Errorf("pack: no catalogs configured, set --comets, --numbered or --unnumbered")
			}
			minor, err := minorBodies(cfg, "", false)
			if err != nil {
				return err
			}
			if err := catalog.SaveFile(out, minor); err != nil {
				return err
			}
			fmt.Println(viz.Row("minor bodies", fmt.Sprint(len(minor))))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&majors, "majors", false, "write the major bodies")
	return cmd
}
