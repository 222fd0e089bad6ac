// Package viz renders run summaries for the terminal: lipgloss panels for
// the numbers and asciigraph plots for the energy history.
package viz
