package orbital

import "math"

const (
	DefaultKeplerTolerance     = 1e-6
	DefaultKeplerMaxIterations = 100
)

// KeplerOptions bounds the Newton-Raphson solve of Kepler's equation.
// Zero fields fall back to the defaults.
type KeplerOptions struct {
	Tolerance     float64 `yaml:"tolerance" env:"TOLERANCE"`
	MaxIterations int     `yaml:"max_iterations" env:"MAX_ITERATIONS"`
}

func DefaultKeplerOptions() KeplerOptions {
	return KeplerOptions{
		Tolerance:     DefaultKeplerTolerance,
		MaxIterations: DefaultKeplerMaxIterations,
	}
}

func (o KeplerOptions) withDefaults() KeplerOptions {
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultKeplerTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultKeplerMaxIterations
	}
	return o
}

// KeplerResult is the outcome of a solve. Converged is false when the
// iteration cap was hit; E then holds the last iterate.
type KeplerResult struct {
	E          float64
	Iterations int
	Residual   float64
	Converged  bool
}

// SolveKepler solves E - e*sin(E) = M for the eccentric anomaly E, starting
// from E0 = M. M is in radians.
func SolveKepler(m, e float64, opts KeplerOptions) KeplerResult {
	if e == 0 {
		return KeplerResult{E: m, Converged: true}
	}
	opts = opts.withDefaults()

	res := KeplerResult{}
	E := m
	for res.Iterations < opts.MaxIterations {
		delta := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= delta
		res.Iterations++
		if math.Abs(delta) < opts.Tolerance {
			res.Converged = true
			break
		}
	}

	res.E = E
	res.Residual = E - e*math.Sin(E) - m
	return res
}
