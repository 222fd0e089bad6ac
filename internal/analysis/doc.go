// Package analysis inspects recorded time series of a run.
//
// [PowerSpectrum] and [DominantPeriod] find the oscillation that dominates a
// uniformly sampled series, typically the major-body energy history:
//
//	period, power := analysis.DominantPeriod(energies, dt)
//
// The mean is removed before the transform.
package analysis
