package metrics

import (
	"math"

	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/sim"
)

// Energy is the mean total energy of the major bodies over the observed ticks.
type Energy struct {
	name        string
	g           float64
	softeningAU float64
	samples     int
	totalEnergy float64
}

func NewEnergy(g, softeningAU float64) *Energy {
	return &Energy{
		name:        "energy",
		g:           g,
		softeningAU: softeningAU,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f sim.Frame) {
	if len(f.Major) == 0 {
		return
	}
	e.totalEnergy += physics.Energy(f.Major, e.g, e.softeningAU)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative departure of the major-body energy
// from its first observed value.
type EnergyDrift struct {
	name          string
	g             float64
	softeningAU   float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(g, softeningAU float64) *EnergyDrift {
	return &EnergyDrift{
		name:        "energy_drift",
		g:           g,
		softeningAU: softeningAU,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	if len(f.Major) == 0 {
		return
	}
	energy := physics.Energy(f.Major, e.g, e.softeningAU)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
