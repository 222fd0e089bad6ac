package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrNoMajorBodies indicates a step was requested before any major body was loaded.
	ErrNoMajorBodies = errors.New("dynamo: no major bodies loaded")

	// ErrDimensionMismatch indicates a commit whose length differs from the store.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and store")

	// ErrStale indicates a previous tick failed part way and the state can no longer be trusted.
	ErrStale = errors.New("dynamo: simulation is stale after an incomplete tick")

	// ErrNotReady indicates a force evaluator was used out of order.
	ErrNotReady = errors.New("dynamo: force evaluator not ready")

	// ErrBackendUnavailable indicates the requested compute backend cannot run here.
	ErrBackendUnavailable = errors.New("dynamo: compute backend unavailable")

	// ErrInvalidConfig indicates a configuration value is outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")
)

// SimulationError wraps an error with the tick and stage it happened in.
type SimulationError struct {
	Tick    int
	Stage   string
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("tick %d (%s): %v", e.Tick, e.Stage, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
