package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/analysis"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/storage"
	"github.com/san-kum/nbodysim/internal/viz"
)

func runStore() (*storage.Store, error) {
	dir := dataDir
	if dir == "" {
		cfg, err := config.Resolve(preset, configFile)
		if err != nil {
			return nil, err
		}
		dir = cfg.OutputDir
	}
	return storage.New(dir), nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := runStore()
			if err != nil {
				return err
			}
			runs, err := st.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println(viz.Subtle.Render("no runs recorded"))
				return nil
			}
			sort.Slice(runs, func(i, j int) bool {
				return runs[i].Timestamp.After(runs[j].Timestamp)
			})

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTICKS\tMAJOR\tMINOR\tBACKEND\tDRIFT\tCONSUMED\tWHEN")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%.3e\t%d\t%s\n",
					r.ID, r.Ticks, r.Major, r.Minor, r.Backend, r.EnergyDrift, r.Consumed,
					r.Timestamp.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	var width, height int

	cmd := &cobra.Command{
		Use:   "plot <run-id>",
		Short: "plot the energy history of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := runStore()
			if err != nil {
				return err
			}
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			_, energies, err := st.LoadEnergies(args[0])
			if err != nil {
				return err
			}
			fmt.Println(viz.Summary(*meta))
			fmt.Println(viz.EnergyPlot(energies, width, height))
			if period, _ := analysis.DominantPeriod(energies, meta.Dt); period > 0 {
				fmt.Println(viz.Row("energy period", fmt.Sprintf("%.3g days", period/86400)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 70, "plot width")
	cmd.Flags().IntVar(&height, "height", 12, "plot height")
	return cmd
}
