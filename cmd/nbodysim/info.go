package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodysim/internal/catalog"
	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/config"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/viz"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list named presets and the bodies a mass multiplier can name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-10s dt=%gs ticks=%d theta=%g\n", name, p.Dt, p.Ticks, p.Theta)
			}
			fmt.Println()
			fmt.Println(viz.Subtle.Render("bodies: " + strings.Join(catalog.MajorNames(), " ")))
			fmt.Println(viz.Subtle.Render("integrators: " + strings.Join(integrators.Names(), " ")))
			return nil
		},
	}
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "show which force backends this build can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			auto := compute.AutoSelect()
			defer auto.Cleanup()

			for _, name := range compute.Names() {
				ev, err := compute.ByName(name, 0)
				status := viz.StatusOK.Render("available")
				if err != nil {
					status = viz.StatusBad.Render("unavailable")
				} else {
					ev.Cleanup()
				}
				if name == auto.Name() {
					status += viz.Subtle.Render(" (auto)")
				}
				fmt.Println(viz.Row(name, status))
			}
			return nil
		},
	}
}
