package integrators

import (
	"fmt"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Integrator advances the major bodies by one tick. Step must not modify
// its input.
type Integrator interface {
	Name() string
	Step(bodies []dynamo.Body, dt float64) []dynamo.Body
}

// New returns the integrator registered under name.
func New(name string, g, softeningAU float64) (Integrator, error) {
	switch name {
	case "", "verlet":
		return NewVerlet(g, softeningAU), nil
	case "rk4":
		return NewRK4(g, softeningAU), nil
	default:
		return nil, fmt.Errorf("unknown integrator %q: %w", name, dynamo.ErrInvalidConfig)
	}
}

func Names() []string {
	return []string{"verlet", "rk4"}
}
