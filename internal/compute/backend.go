package compute

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

// State is everything one dispatch reads. The tree must be built over the
// live minor bodies and its leaf indices refer to Minor.
type State struct {
	Major  []dynamo.Body
	Minor  []dynamo.Body
	Tree   *barneshut.Tree
	Params barneshut.Params
}

// ForceEvaluator computes accelerations for minor bodies. Calls must follow
// Upload, Dispatch, Download; anything else returns dynamo.ErrNotReady.
// The uploaded slices must not be modified until Download returns.
type ForceEvaluator interface {
	Name() string
	Available() bool
	Upload(s State) error
	Dispatch(ctx context.Context) error
	Download() ([]r3.Vec, error)
	Cleanup()
}

type phase int

const (
	phaseIdle phase = iota
	phaseUploaded
	phaseDispatched
)

// AutoSelect returns the best available evaluator, CUDA if present, else CPU.
func AutoSelect() ForceEvaluator {
	cuda := NewCUDAEvaluator()
	if cuda.Available() {
		return cuda
	}
	return NewCPUEvaluator(0)
}

// ByName returns the named evaluator or ErrBackendUnavailable when it cannot
// run in this build. workers only applies to the CPU backend.
func ByName(name string, workers int) (ForceEvaluator, error) {
	var ev ForceEvaluator
	switch name {
	case "", "auto":
		if ev := AutoSelect(); ev.Name() != "cpu" {
			return ev, nil
		}
		return NewCPUEvaluator(workers), nil
	case "cpu":
		ev = NewCPUEvaluator(workers)
	case "cuda":
		ev = NewCUDAEvaluator()
	case "opengl":
		ev = NewOpenGLEvaluator()
	default:
		return nil, fmt.Errorf("unknown backend %q: %w", name, dynamo.ErrInvalidConfig)
	}
	if !ev.Available() {
		ev.Cleanup()
		return nil, fmt.Errorf("%s: %w", name, dynamo.ErrBackendUnavailable)
	}
	return ev, nil
}

// Names lists every backend name ByName understands.
func Names() []string {
	return []string{"auto", "cpu", "cuda", "opengl"}
}
