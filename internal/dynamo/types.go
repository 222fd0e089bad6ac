package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// AUInMeters converts astronomical units to meters.
	AUInMeters = 1.496e11

	// SecondsPerDay converts days to seconds.
	SecondsPerDay = 86400.0

	// G is the gravitational constant in m^3 kg^-1 s^-2.
	G = 6.67430e-11

	// NotEvaluated marks a body whose collision state has not been evaluated yet.
	NotEvaluated = -1
)

// Body is a point mass. Position is in AU, velocity in m/s and mass in kg.
type Body struct {
	Position r3.Vec
	Velocity r3.Vec
	Mass     float64
	IsComet  bool
	// Collided is NotEvaluated, or a running count of absorptions. A sink
	// counts the bodies it consumed; a minor body is absorbed once it is >= 1.
	Collided int
}

// IsValid reports whether position and velocity are finite.
func (b Body) IsValid() bool {
	return finite(b.Position) && finite(b.Velocity)
}

// Absorbed reports whether a minor body has been consumed by a sink.
func (b Body) Absorbed() bool {
	return b.Collided > 0
}

func finite(v r3.Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ToMeters converts a position in AU to meters.
func ToMeters(p r3.Vec) r3.Vec {
	return r3.Scale(AUInMeters, p)
}

// Positions returns the positions of bodies in order.
func Positions(bodies []Body) []r3.Vec {
	out := make([]r3.Vec, len(bodies))
	for i := range bodies {
		out[i] = bodies[i].Position
	}
	return out
}

// Masses returns the masses of bodies in order.
func Masses(bodies []Body) []float64 {
	out := make([]float64, len(bodies))
	for i := range bodies {
		out[i] = bodies[i].Mass
	}
	return out
}

// Clone returns an independent copy of bodies.
func Clone(bodies []Body) []Body {
	c := make([]Body, len(bodies))
	copy(c, bodies)
	return c
}
