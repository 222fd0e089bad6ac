package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// Verlet is the velocity-Verlet scheme for major bodies. Positions are in
// AU, velocities in m/s and dt in seconds.
type Verlet struct {
	G           float64
	SofteningAU float64
}

func NewVerlet(g, softeningAU float64) *Verlet {
	return &Verlet{G: g, SofteningAU: softeningAU}
}

func (v *Verlet) Name() string { return "verlet" }

// Step advances a snapshot by dt and returns the new bodies. The input is
// never modified, so the result does not depend on evaluation order.
func (v *Verlet) Step(bodies []dynamo.Body, dt float64) []dynamo.Body {
	out := dynamo.Clone(bodies)
	if len(out) == 0 {
		return out
	}

	acc := physics.Accelerations(bodies, v.G, v.SofteningAU)
	dt2 := dt * dt
	for i := range out {
		disp := r3.Add(r3.Scale(dt, out[i].Velocity), r3.Scale(0.5*dt2, acc[i]))
		out[i].Position = r3.Add(out[i].Position, r3.Scale(1/dynamo.AUInMeters, disp))
	}

	accNew := physics.Accelerations(out, v.G, v.SofteningAU)
	halfDt := 0.5 * dt
	for i := range out {
		out[i].Velocity = r3.Add(out[i].Velocity, r3.Scale(halfDt, r3.Add(acc[i], accNew[i])))
	}

	return out
}

// KickDrift advances bodies with semi-implicit Euler using precomputed
// accelerations: v += a dt, then p += v dt. Absorbed bodies are left as is.
func KickDrift(bodies []dynamo.Body, acc []r3.Vec, dt float64) ([]dynamo.Body, error) {
	if len(acc) != len(bodies) {
		return nil, dynamo.ErrDimensionMismatch
	}
	out := dynamo.Clone(bodies)
	for i := range out {
		if out[i].Absorbed() {
			continue
		}
		out[i].Velocity = r3.Add(out[i].Velocity, r3.Scale(dt, acc[i]))
		out[i].Position = r3.Add(out[i].Position, r3.Scale(dt/dynamo.AUInMeters, out[i].Velocity))
	}
	return out, nil
}
