// Package dynamo provides the core data model shared by every stage of the
// gravity simulation:
//
//   - [Body]: a point mass with position (AU) and velocity (m/s)
//   - [Store]: the canonical major and minor body collections
//   - unit constants ([AUInMeters], [SecondsPerDay]) and the default [G]
//   - sentinel errors and [SimulationError]
//
// Major bodies are a small ordered set: index 0 is the primary star and the
// last index is the absorbing sink. Minor bodies are a large unordered set
// whose identity is their slice position.
//
// # Example
//
//	store := dynamo.NewStore()
//	dropped := store.Load(catalog.SolarSystem(), minors)
//	sun := store.Major(0)
//
// # Thread Safety
//
// Store is NOT safe for concurrent mutation. The simulation loop is its only
// writer; readers must not overlap a tick.
package dynamo
