// Package physics provides the exact gravitational model for the simulation.
//
// Positions are given in AU and converted to meters before any force is
// evaluated; velocities are in m/s and masses in kg. The softening length
// is specified in AU and converted the same way:
//
//	a_i = sum_j G m_j (p_j - p_i) / (|p_j - p_i|^2 + s^2)^1.5
//
// Accelerations is the O(n^2) direct sum used for major bodies.
// AccelerationAt evaluates the pull of a set of sources at an arbitrary
// point, which is how minor bodies feel the major ones.
//
// # Conserved Quantities
//
// Energy, Momentum and AngularMomentum are used to monitor integrator drift:
//
//	e0 := physics.Energy(bodies, dynamo.G, softening)
//	// ... step ...
//	drift := math.Abs((physics.Energy(bodies, dynamo.G, softening) - e0) / e0)
package physics
