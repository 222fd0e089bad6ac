package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Pull returns the acceleration at p toward a point mass m at q. Positions
// are in meters and eps2 is the squared softening length in meters.
// Coincident points with no softening contribute nothing.
func Pull(p, q r3.Vec, m, g, eps2 float64) r3.Vec {
	d := r3.Sub(q, p)
	r2 := r3.Norm2(d) + eps2
	if r2 == 0 {
		return r3.Vec{}
	}
	rInv := 1.0 / math.Sqrt(r2)
	return r3.Scale(g*m*rInv*rInv*rInv, d)
}

// AccelerationAt sums the softened pull of every source at p (AU), skipping
// index skip.
func AccelerationAt(p r3.Vec, skip int, sources []dynamo.Body, g, softeningAU float64) r3.Vec {
	eps := softeningAU * dynamo.AUInMeters
	eps2 := eps * eps
	pm := dynamo.ToMeters(p)

	var acc r3.Vec
	for j := range sources {
		if j == skip {
			continue
		}
		acc = r3.Add(acc, Pull(pm, dynamo.ToMeters(sources[j].Position), sources[j].Mass, g, eps2))
	}
	return acc
}

// Acceleration is the direct-sum acceleration on body i from all others.
func Acceleration(i int, bodies []dynamo.Body, g, softeningAU float64) r3.Vec {
	return AccelerationAt(bodies[i].Position, i, bodies, g, softeningAU)
}

// Accelerations evaluates every body in O(n^2), using pair symmetry.
func Accelerations(bodies []dynamo.Body, g, softeningAU float64) []r3.Vec {
	n := len(bodies)
	acc := make([]r3.Vec, n)
	if n == 0 {
		return acc
	}

	eps := softeningAU * dynamo.AUInMeters
	eps2 := eps * eps
	pos := make([]r3.Vec, n)
	for i := range bodies {
		pos[i] = dynamo.ToMeters(bodies[i].Position)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := r3.Sub(pos[j], pos[i])
			r2 := r3.Norm2(d) + eps2
			if r2 == 0 {
				continue
			}
			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			acc[i] = r3.Add(acc[i], r3.Scale(g*bodies[j].Mass*r3Inv, d))
			acc[j] = r3.Sub(acc[j], r3.Scale(g*bodies[i].Mass*r3Inv, d))
		}
	}
	return acc
}
