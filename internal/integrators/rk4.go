package integrators

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// RK4 is the classic fourth-order Runge-Kutta scheme for major bodies.
// It is more accurate per step than Verlet but not symplectic, so energy
// drifts secularly over long runs.
type RK4 struct {
	G           float64
	SofteningAU float64
}

func NewRK4(g, softeningAU float64) *RK4 {
	return &RK4{G: g, SofteningAU: softeningAU}
}

func (r *RK4) Name() string { return "rk4" }

type derivative struct {
	dpos []r3.Vec // AU/s
	dvel []r3.Vec // m/s^2
}

func (r *RK4) derive(bodies []dynamo.Body) derivative {
	d := derivative{
		dpos: make([]r3.Vec, len(bodies)),
		dvel: physics.Accelerations(bodies, r.G, r.SofteningAU),
	}
	for i := range bodies {
		d.dpos[i] = r3.Scale(1/dynamo.AUInMeters, bodies[i].Velocity)
	}
	return d
}

func offset(bodies []dynamo.Body, k derivative, h float64) []dynamo.Body {
	out := dynamo.Clone(bodies)
	for i := range out {
		out[i].Position = r3.Add(out[i].Position, r3.Scale(h, k.dpos[i]))
		out[i].Velocity = r3.Add(out[i].Velocity, r3.Scale(h, k.dvel[i]))
	}
	return out
}

func (r *RK4) Step(bodies []dynamo.Body, dt float64) []dynamo.Body {
	if len(bodies) == 0 {
		return dynamo.Clone(bodies)
	}

	k1 := r.derive(bodies)
	k2 := r.derive(offset(bodies, k1, dt*0.5))
	k3 := r.derive(offset(bodies, k2, dt*0.5))
	k4 := r.derive(offset(bodies, k3, dt))

	out := dynamo.Clone(bodies)
	dt6 := dt / 6.0
	for i := range out {
		dp := r3.Add(r3.Add(k1.dpos[i], r3.Scale(2, k2.dpos[i])), r3.Add(r3.Scale(2, k3.dpos[i]), k4.dpos[i]))
		dv := r3.Add(r3.Add(k1.dvel[i], r3.Scale(2, k2.dvel[i])), r3.Add(r3.Scale(2, k3.dvel[i]), k4.dvel[i]))
		out[i].Position = r3.Add(out[i].Position, r3.Scale(dt6, dp))
		out[i].Velocity = r3.Add(out[i].Velocity, r3.Scale(dt6, dv))
	}
	return out
}
