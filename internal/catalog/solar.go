package catalog

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

var ErrUnknownBody = errors.New("catalog: unknown major body")

// MaxBlackHoleMultiplier bounds the black hole's mass multiplier.
const MaxBlackHoleMultiplier = 10.0

type namedBody struct {
	name string
	body dynamo.Body
}

// Positions in AU, velocities in m/s, masses in kg. The black hole is last,
// which makes it the sink.
var solarSystem = []namedBody{
	{"Sun", dynamo.Body{Mass: 1.989e30}},
	{"Mercury", dynamo.Body{Position: r3.Vec{X: 0.3871}, Velocity: r3.Vec{Z: 47360}, Mass: 3.3011e23}},
	{"Venus", dynamo.Body{Position: r3.Vec{X: 0.7233}, Velocity: r3.Vec{Z: 35020}, Mass: 4.8675e24}},
	{"Earth", dynamo.Body{Position: r3.Vec{X: 1.0}, Velocity: r3.Vec{Z: 29780}, Mass: 5.972e24}},
	{"Mars", dynamo.Body{Position: r3.Vec{X: 1.5237}, Velocity: r3.Vec{Z: 24077}, Mass: 6.4171e23}},
	{"Jupiter", dynamo.Body{Position: r3.Vec{X: 5.2028}, Velocity: r3.Vec{Z: 13070}, Mass: 1.8982e27}},
	{"Saturn", dynamo.Body{Position: r3.Vec{X: 9.5388}, Velocity: r3.Vec{Z: 9690}, Mass: 5.6834e26}},
	{"Uranus", dynamo.Body{Position: r3.Vec{X: 19.1914}, Velocity: r3.Vec{Z: 6810}, Mass: 8.6810e25}},
	{"Neptune", dynamo.Body{Position: r3.Vec{X: 30.0611}, Velocity: r3.Vec{Z: 5430}, Mass: 1.0241e26}},
	{"Pluto", dynamo.Body{Position: r3.Vec{X: 39.4821}, Velocity: r3.Vec{Z: 4740}, Mass: 1.303e22}},
	{"Ceres", dynamo.Body{Position: r3.Vec{X: 1.01, Y: -0.27, Z: -2.72}, Velocity: r3.Vec{X: 15932.28, Y: -2774.08, Z: 5157.77}, Mass: 9.383516e18}},
	{"BlackHole", dynamo.Body{Position: r3.Vec{X: -45, Z: 30}, Mass: 1.989e31}},
}

// SolarSystem returns a fresh copy of the major bodies: the Sun, the
// planets, Pluto, Ceres and a black hole sink.
func SolarSystem() []dynamo.Body {
	out := make([]dynamo.Body, len(solarSystem))
	for i, nb := range solarSystem {
		out[i] = nb.body
	}
	return out
}

// MajorNames lists the major bodies in index order.
func MajorNames() []string {
	names := make([]string, len(solarSystem))
	for i, nb := range solarSystem {
		names[i] = nb.name
	}
	return names
}

// IndexOf returns the index of the named major body or -1.
func IndexOf(name string) int {
	for i, nb := range solarSystem {
		if nb.name == name {
			return i
		}
	}
	return -1
}

// ScaleMass sets the named body's mass to its reference mass times
// multiplier. The black hole multiplier is clamped to [0, MaxBlackHoleMultiplier].
func ScaleMass(major []dynamo.Body, name string, multiplier float64) error {
	i := IndexOf(name)
	if i < 0 || i >= len(major) {
		return fmt.Errorf("%w: %q", ErrUnknownBody, name)
	}
	if name == "BlackHole" {
		multiplier = math.Max(0, math.Min(MaxBlackHoleMultiplier, multiplier))
	}
	major[i].Mass = solarSystem[i].body.Mass * multiplier
	return nil
}

// ResetMasses restores every major body's reference mass.
func ResetMasses(major []dynamo.Body) {
	for i := range major {
		if i < len(solarSystem) {
			major[i].Mass = solarSystem[i].body.Mass
		}
	}
}
