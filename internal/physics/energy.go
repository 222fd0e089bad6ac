package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Energy returns the total mechanical energy in joules, with the potential
// softened the same way as the force.
func Energy(bodies []dynamo.Body, g, softeningAU float64) float64 {
	ke, pe := KineticEnergy(bodies), PotentialEnergy(bodies, g, softeningAU)
	return ke + pe
}

func KineticEnergy(bodies []dynamo.Body) float64 {
	ke := 0.0
	for i := range bodies {
		ke += 0.5 * bodies[i].Mass * r3.Norm2(bodies[i].Velocity)
	}
	return ke
}

func PotentialEnergy(bodies []dynamo.Body, g, softeningAU float64) float64 {
	eps := softeningAU * dynamo.AUInMeters
	eps2 := eps * eps
	pe := 0.0

	for i := range bodies {
		pi := dynamo.ToMeters(bodies[i].Position)
		for j := i + 1; j < len(bodies); j++ {
			d := r3.Sub(dynamo.ToMeters(bodies[j].Position), pi)
			r := math.Sqrt(r3.Norm2(d) + eps2)
			if r == 0 {
				continue
			}
			pe -= g * bodies[i].Mass * bodies[j].Mass / r
		}
	}
	return pe
}

// Momentum returns the total linear momentum in kg m/s.
func Momentum(bodies []dynamo.Body) r3.Vec {
	var p r3.Vec
	for i := range bodies {
		p = r3.Add(p, r3.Scale(bodies[i].Mass, bodies[i].Velocity))
	}
	return p
}

// AngularMomentum returns the total angular momentum about the origin in kg m^2/s.
func AngularMomentum(bodies []dynamo.Body) r3.Vec {
	var l r3.Vec
	for i := range bodies {
		r := dynamo.ToMeters(bodies[i].Position)
		l = r3.Add(l, r3.Scale(bodies[i].Mass, r3.Cross(r, bodies[i].Velocity)))
	}
	return l
}

// CenterOfMass returns the mass-weighted mean position in AU.
func CenterOfMass(bodies []dynamo.Body) r3.Vec {
	var c r3.Vec
	total := 0.0
	for i := range bodies {
		c = r3.Add(c, r3.Scale(bodies[i].Mass, bodies[i].Position))
		total += bodies[i].Mass
	}
	if total == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/total, c)
}
