package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/physics"
)

// Simulation advances a Store one tick at a time. It is not safe for
// concurrent use; the minor-body pass is parallel inside the evaluator.
type Simulation struct {
	store      *dynamo.Store
	eval       compute.ForceEvaluator
	integrator integrators.Integrator
	cfg        Config
	log        logr.Logger

	metrics   []Metric
	observers []Observer

	tree *barneshut.Tree
	live []int

	initMajor []dynamo.Body
	initMinor []dynamo.Body

	tick  int
	stale bool
}

type Option func(*Simulation)

func WithLogger(l logr.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithIntegrator replaces the default velocity-Verlet major integrator.
func WithIntegrator(i integrators.Integrator) Option {
	return func(s *Simulation) { s.integrator = i }
}

func WithMetric(m Metric) Option {
	return func(s *Simulation) { s.metrics = append(s.metrics, m) }
}

func WithObserver(o Observer) Option {
	return func(s *Simulation) { s.observers = append(s.observers, o) }
}

// New returns a simulation over store. The store's current contents are
// remembered so Reset can restore them.
func New(store *dynamo.Store, eval compute.ForceEvaluator, cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, fmt.Errorf("nil force evaluator: %w", dynamo.ErrInvalidConfig)
	}

	s := &Simulation{
		store:     store,
		eval:      eval,
		cfg:       cfg,
		log:       logr.Discard(),
		tree:      barneshut.NewTree(cfg.MaxDepth),
		live:      make([]int, 0, store.MinorCount()),
		initMajor: store.MajorSnapshot(),
		initMinor: store.MinorSnapshot(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.integrator == nil {
		s.integrator = integrators.NewVerlet(cfg.G, cfg.SofteningAU)
	}
	return s, nil
}

func (s *Simulation) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulation) Store() *dynamo.Store { return s.store }
func (s *Simulation) Tick() int            { return s.tick }
func (s *Simulation) Time() float64        { return float64(s.tick) * s.cfg.Dt }
func (s *Simulation) Stale() bool          { return s.stale }

// Tree returns the octree built during the last tick.
func (s *Simulation) Tree() *barneshut.Tree { return s.tree }

// Step advances one tick. Forces for the minor bodies are evaluated
// against the tree built from the snapshot, the major bodies are integrated
// from the same snapshot, and both are committed together. If anything fails
// before the commit the store is untouched and the simulation becomes stale.
func (s *Simulation) Step(ctx context.Context) error {
	if s.store.MajorCount() == 0 {
		return dynamo.ErrNoMajorBodies
	}
	if s.stale {
		return dynamo.ErrStale
	}

	major := s.store.MajorSnapshot()
	minor := s.store.MinorSnapshot()

	var nextMinor []dynamo.Body
	if len(minor) > 0 {
		acc, err := s.minorForces(ctx, major, minor)
		if err != nil {
			return s.fail("minor forces", err)
		}
		nextMinor, err = integrators.KickDrift(minor, acc, s.cfg.Dt)
		if err != nil {
			return s.fail("minor integrate", err)
		}
		if i := firstInvalid(nextMinor); i >= 0 {
			return s.fail("minor integrate", fmt.Errorf("minor body %d left the finite range", i))
		}
	}

	nextMajor := s.integrator.Step(major, s.cfg.Dt)
	if i := firstInvalid(nextMajor); i >= 0 {
		return s.fail("major integrate", fmt.Errorf("major body %d left the finite range", i))
	}

	if err := s.store.CommitMajor(nextMajor); err != nil {
		return s.fail("commit", err)
	}
	if nextMinor != nil {
		if err := s.store.CommitMinor(nextMinor); err != nil {
			return s.fail("commit", err)
		}
	}

	absorbed := s.absorb()
	s.tick++
	if absorbed > 0 {
		s.log.V(1).Info("sink absorbed bodies", "tick", s.tick, "absorbed", absorbed, "consumed", s.store.Consumed())
	}

	if len(s.metrics) > 0 || len(s.observers) > 0 {
		f := Frame{
			Tick:     s.tick,
			Time:     s.Time(),
			Major:    s.store.MajorView(),
			Minor:    s.store.MinorView(),
			Absorbed: absorbed,
			Consumed: s.store.Consumed(),
		}
		for _, m := range s.metrics {
			m.Observe(f)
		}
		for _, o := range s.observers {
			o.OnStep(f)
		}
	}
	return nil
}

func (s *Simulation) minorForces(ctx context.Context, major, minor []dynamo.Body) ([]r3.Vec, error) {
	s.live = s.live[:0]
	for i := range minor {
		if !minor[i].Absorbed() {
			s.live = append(s.live, i)
		}
	}
	s.tree.Rebuild(minor, s.live)
	if s.tree.Truncated > 0 {
		s.log.V(2).Info("octree hit the depth limit", "tick", s.tick, "aggregateLeaves", s.tree.Truncated)
	}

	state := compute.State{Major: major, Minor: minor, Tree: s.tree, Params: s.cfg.params()}
	if err := s.eval.Upload(state); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	if err := s.eval.Dispatch(ctx); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	acc, err := s.eval.Download()
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return acc, nil
}

// absorb marks live minor bodies inside the capture radius of the sink.
func (s *Simulation) absorb() int {
	r := s.cfg.CollisionRadiusAU
	if r <= 0 || s.store.MinorCount() == 0 {
		return 0
	}
	sink := s.store.Sink()
	center := s.store.Major(sink).Position

	var n int
	for i := 0; i < s.store.MinorCount(); i++ {
		b := s.store.Minor(i)
		if b.Absorbed() || r3.Norm2(r3.Sub(b.Position, center)) > r*r {
			continue
		}
		b.Collided = 1
		b.Velocity = r3.Vec{}
		s.store.MarkCollided(sink)
		n++
	}
	return n
}

func (s *Simulation) fail(stage string, err error) error {
	s.stale = true
	s.log.Error(err, "tick failed", "tick", s.tick, "stage", stage)
	return &dynamo.SimulationError{Tick: s.tick, Stage: stage, Wrapped: err}
}

// Run steps up to ticks times. It stops early when ctx is cancelled and
// returns the partial result together with the error.
func (s *Simulation) Run(ctx context.Context, ticks int) (*Result, error) {
	if ticks < 0 {
		return nil, fmt.Errorf("ticks must not be negative, got %d: %w", ticks, dynamo.ErrInvalidConfig)
	}
	if s.store.MajorCount() == 0 {
		return nil, dynamo.ErrNoMajorBodies
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()
	result := &Result{
		Energies: make([]float64, 0, ticks+1),
		Metrics:  make(map[string]float64),
	}
	result.Energies = append(result.Energies, s.energy())
	s.log.Info("run started", "ticks", ticks, "major", s.store.MajorCount(), "minor", s.store.MinorCount(), "backend", s.eval.Name())

	var runErr error
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := s.Step(ctx); err != nil {
			runErr = err
			break
		}
		result.Ticks++
		result.Energies = append(result.Energies, s.energy())
	}

	e0, e1 := result.Energies[0], result.Energies[len(result.Energies)-1]
	if e0 != 0 {
		result.EnergyDrift = math.Abs(e1-e0) / math.Abs(e0)
	}
	result.Consumed = s.store.Consumed()
	result.Elapsed = time.Since(start)
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info("run finished", "ticks", result.Ticks, "drift", result.EnergyDrift, "consumed", result.Consumed, "elapsed", result.Elapsed)
	return result, runErr
}

func (s *Simulation) energy() float64 {
	return physics.Energy(s.store.MajorView(), s.cfg.G, s.cfg.SofteningAU)
}

// Reset restores the bodies the simulation was created with and clears a
// stale state.
func (s *Simulation) Reset() {
	s.store.Load(dynamo.Clone(s.initMajor), dynamo.Clone(s.initMinor))
	s.tick = 0
	s.stale = false
	for _, m := range s.metrics {
		m.Reset()
	}
}

func firstInvalid(bodies []dynamo.Body) int {
	for i := range bodies {
		if !bodies[i].IsValid() {
			return i
		}
	}
	return -1
}
