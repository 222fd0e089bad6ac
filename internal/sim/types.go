package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Frame is the committed state after a tick. Major and Minor are read-only
// views of the store, valid only for the duration of the call; copy them with
// dynamo.Clone to keep them.
type Frame struct {
	Tick     int
	Time     float64
	Major    []dynamo.Body
	Minor    []dynamo.Body
	Absorbed int
	Consumed int
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnStep(f Frame) { fn(f) }

type Config struct {
	// Dt is the tick length in seconds.
	Dt          float64
	G           float64
	Theta       float64
	SofteningAU float64
	MaxDepth    int
	// CollisionRadiusAU is the capture radius around the sink. Zero disables absorption.
	CollisionRadiusAU float64
}

func (c Config) params() barneshut.Params {
	return barneshut.Params{G: c.G, Theta: c.Theta, SofteningAU: c.SofteningAU}
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g: %w", c.Dt, dynamo.ErrInvalidConfig)
	}
	if c.G <= 0 {
		return fmt.Errorf("g must be positive, got %g: %w", c.G, dynamo.ErrInvalidConfig)
	}
	for name, v := range map[string]float64{"theta": c.Theta, "softening": c.SofteningAU, "collision radius": c.CollisionRadiusAU} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %g: %w", name, v, dynamo.ErrInvalidConfig)
		}
	}
	return nil
}

type Result struct {
	Ticks int
	// Energies holds the major-body energy before the first tick and after each one.
	Energies    []float64
	EnergyDrift float64
	Consumed    int
	Metrics     map[string]float64
	Elapsed     time.Duration
}
