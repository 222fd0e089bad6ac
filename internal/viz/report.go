package viz

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/nbodysim/internal/storage"
)

// Summary renders the headline numbers of a run.
func Summary(meta storage.RunMetadata) string {
	drift := fmt.Sprintf("%.3e", meta.EnergyDrift)
	rows := []string{
		Row("run", meta.ID),
		Row("bodies", fmt.Sprintf("%d major, %d minor", meta.Major, meta.Minor)),
		Row("ticks", fmt.Sprintf("%d x %gs", meta.Ticks, meta.Dt)),
		Row("backend", meta.Backend+" / "+meta.Integrator),
		MetricLabel.Render("energy drift") + DriftStatus(meta.EnergyDrift, drift),
		Row("consumed", strconv.Itoa(meta.Consumed)),
		Row("elapsed", fmt.Sprintf("%.2fs", meta.Elapsed)),
	}

	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, Row(name, strconv.FormatFloat(meta.Metrics[name], 'g', 6, 64)))
	}
	return Box("nbodysim", rows...)
}

// EnergyPlot plots the relative energy change against the first sample so
// drift is visible regardless of the energy's magnitude.
func EnergyPlot(energies []float64, width, height int) string {
	if len(energies) < 2 {
		return Subtle.Render("not enough samples to plot")
	}
	rel := make([]float64, len(energies))
	e0 := energies[0]
	for i, e := range energies {
		if e0 != 0 {
			rel[i] = (e - e0) / math.Abs(e0)
		}
	}
	return asciigraph.Plot(rel,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("relative energy change"),
	)
}
