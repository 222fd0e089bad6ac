package sim

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Member is one independent run of an ensemble.
type Member struct {
	Name  string
	Major []dynamo.Body
	Minor []dynamo.Body
}

// Ensemble runs independent simulations side by side, e.g. a sweep over a
// mass multiplier. Every member gets its own store, evaluator and metrics.
type Ensemble struct {
	Config       Config
	NewEvaluator func() (compute.ForceEvaluator, error)
	NewMetrics   func() []Metric
	// Limit bounds concurrent members; <= 0 means no limit.
	Limit int
	Log   logr.Logger
}

func (e *Ensemble) Run(ctx context.Context, members []Member, ticks int) ([]*Result, error) {
	results := make([]*Result, len(members))

	g, ctx := errgroup.WithContext(ctx)
	if e.Limit > 0 {
		g.SetLimit(e.Limit)
	}

	for i, m := range members {
		g.Go(func() error {
			eval, err := e.NewEvaluator()
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			defer eval.Cleanup()

			store := dynamo.NewStore()
			store.Load(dynamo.Clone(m.Major), dynamo.Clone(m.Minor))

			opts := []Option{WithLogger(e.logger().WithValues("member", m.Name))}
			if e.NewMetrics != nil {
				for _, metric := range e.NewMetrics() {
					opts = append(opts, WithMetric(metric))
				}
			}

			s, err := New(store, eval, e.Config, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			results[i], err = s.Run(ctx, ticks)
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Ensemble) logger() logr.Logger {
	if e.Log.GetSink() == nil {
		return logr.Discard()
	}
	return e.Log
}
