// Package orbital converts between Keplerian orbital elements and
// Cartesian state vectors.
//
// Elements use degrees for angles and AU for the semi-major axis. State
// vectors are returned in the engine frame, where the orbital y and z axes
// are swapped. With MuSun the velocities come out in AU/day; ToBody and
// Ingest convert them to m/s for the simulation.
//
// The package also reads element catalogs as a JSON array or as
// newline-delimited JSON objects.
package orbital
