package compute

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// serialThreshold is the body count below which fan-out costs more than it saves.
const serialThreshold = 16

type CPUEvaluator struct {
	workers int
	state   State
	acc     []r3.Vec
	phase   phase
}

// NewCPUEvaluator returns an evaluator using up to workers goroutines, or
// one per CPU when workers <= 0.
func NewCPUEvaluator(workers int) *CPUEvaluator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUEvaluator{workers: workers}
}

func (c *CPUEvaluator) Name() string    { return "cpu" }
func (c *CPUEvaluator) Available() bool { return true }
func (c *CPUEvaluator) Workers() int    { return c.workers }

func (c *CPUEvaluator) Cleanup() {
	c.state = State{}
	c.acc = nil
	c.phase = phaseIdle
}

func (c *CPUEvaluator) Upload(s State) error {
	c.state = s
	if cap(c.acc) < len(s.Minor) {
		c.acc = make([]r3.Vec, len(s.Minor))
	}
	c.acc = c.acc[:len(s.Minor)]
	c.phase = phaseUploaded
	return nil
}

func (c *CPUEvaluator) Dispatch(ctx context.Context) error {
	if c.phase == phaseIdle {
		return dynamo.ErrNotReady
	}
	n := len(c.state.Minor)

	if n < serialThreshold {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.evaluate(0, n)
		c.phase = phaseDispatched
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	chunkSize := (n + c.workers - 1) / c.workers
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.evaluate(start, end)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.phase = phaseUploaded
		return err
	}
	c.phase = phaseDispatched
	return nil
}

func (c *CPUEvaluator) evaluate(start, end int) {
	s := &c.state
	for i := start; i < end; i++ {
		b := &s.Minor[i]
		if b.Absorbed() {
			c.acc[i] = r3.Vec{}
			continue
		}
		a := physics.AccelerationAt(b.Position, -1, s.Major, s.Params.G, s.Params.SofteningAU)
		if s.Tree != nil {
			a = r3.Add(a, s.Tree.Acceleration(b.Position, i, s.Params))
		}
		c.acc[i] = a
	}
}

// Download returns the accelerations of the last dispatch. The slice is
// reused by the next Upload.
func (c *CPUEvaluator) Download() ([]r3.Vec, error) {
	if c.phase != phaseDispatched {
		return nil, dynamo.ErrNotReady
	}
	c.phase = phaseIdle
	return c.acc, nil
}
