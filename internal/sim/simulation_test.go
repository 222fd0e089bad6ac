package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/metrics"
	"github.com/san-kum/nbodysim/internal/physics"
	"github.com/san-kum/nbodysim/internal/sim"
)

// failingEvaluator fails the dispatch after an optional number of successes.
type failingEvaluator struct {
	*compute.CPUEvaluator
	okDispatches int
}

func (f *failingEvaluator) Dispatch(ctx context.Context) error {
	if f.okDispatches <= 0 {
		return errors.New("device lost")
	}
	f.okDispatches--
	return f.CPUEvaluator.Dispatch(ctx)
}

func majors() []dynamo.Body {
	return []dynamo.Body{
		{Mass: 1.989e30},
		{Position: r3.Vec{X: 1}, Velocity: r3.Vec{Z: 29780}, Mass: 5.972e24},
		{Position: r3.Vec{X: 5.2}, Velocity: r3.Vec{Z: 13070}, Mass: 1.898e27},
		{Position: r3.Vec{X: -20, Z: 10}, Mass: 1.989e31},
	}
}

func minors() []dynamo.Body {
	var out []dynamo.Body
	for i := 0; i < 40; i++ {
		r := 2 + 0.05*float64(i)
		out = append(out, dynamo.Body{
			Position: r3.Vec{X: r * float64(1-2*(i%2)), Y: 0.01 * float64(i%5), Z: 0.3 * float64(i%3)},
			Velocity: r3.Vec{Z: 18000 - 100*float64(i)},
			Mass:     1e15 * float64(1+i%4),
			IsComet:  i%7 == 0,
			Collided: dynamo.NotEvaluated,
		})
	}
	return out
}

func config() sim.Config {
	return sim.Config{
		Dt:                3600,
		G:                 dynamo.G,
		Theta:             0.5,
		SofteningAU:       0.001,
		MaxDepth:          200,
		CollisionRadiusAU: 0.05,
	}
}

func newSim(major, minor []dynamo.Body, cfg sim.Config, opts ...sim.Option) *sim.Simulation {
	store := dynamo.NewStore()
	store.Load(major, minor)
	s, err := sim.New(store, compute.NewCPUEvaluator(4), cfg, opts...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Simulation", func() {
	ctx := context.Background()

	Describe("New", func() {
		It("rejects a non-positive dt", func() {
			cfg := config()
			cfg.Dt = 0
			_, err := sim.New(dynamo.NewStore(), compute.NewCPUEvaluator(1), cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})

		It("rejects a missing evaluator", func() {
			_, err := sim.New(dynamo.NewStore(), nil, config())
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})
	})

	Describe("Step", func() {
		It("fails fast without major bodies", func() {
			s := newSim(nil, minors(), config())
			Expect(s.Step(ctx)).To(MatchError(dynamo.ErrNoMajorBodies))
			Expect(s.Stale()).To(BeFalse())
		})

		It("advances majors and minors", func() {
			s := newSim(majors(), minors(), config())
			before := s.Store().MinorSnapshot()

			Expect(s.Step(ctx)).To(Succeed())
			Expect(s.Tick()).To(Equal(1))
			Expect(s.Time()).To(Equal(3600.0))

			Expect(s.Store().Major(1).Position).NotTo(Equal(majors()[1].Position))
			after := s.Store().MinorSnapshot()
			for i := range after {
				Expect(after[i].Position).NotTo(Equal(before[i].Position))
				Expect(after[i].IsComet).To(Equal(before[i].IsComet))
			}
		})

		It("integrates majors from the snapshot alone", func() {
			with := newSim(majors(), minors(), config())
			without := newSim(majors(), nil, config())

			for range 5 {
				Expect(with.Step(ctx)).To(Succeed())
				Expect(without.Step(ctx)).To(Succeed())
			}
			Expect(with.Store().MajorSnapshot()).To(Equal(without.Store().MajorSnapshot()))
		})

		It("matches a direct evaluation when theta is zero", func() {
			cfg := config()
			cfg.Theta = 0
			s := newSim(majors(), minors(), cfg)
			major, minor := s.Store().MajorSnapshot(), s.Store().MinorSnapshot()

			acc := make([]r3.Vec, len(minor))
			for i := range minor {
				acc[i] = r3.Add(
					physics.AccelerationAt(minor[i].Position, -1, major, cfg.G, cfg.SofteningAU),
					physics.AccelerationAt(minor[i].Position, i, minor, cfg.G, cfg.SofteningAU),
				)
			}
			want, err := integrators.KickDrift(minor, acc, cfg.Dt)
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Step(ctx)).To(Succeed())
			got := s.Store().MinorSnapshot()
			for i := range got {
				d := r3.Norm(r3.Sub(got[i].Position, want[i].Position))
				Expect(d).To(BeNumerically("<", 1e-12*r3.Norm(want[i].Position)), "minor %d", i)
			}
		})

		It("rebuilds the tree over live minors only", func() {
			minor := minors()
			minor[3].Collided = 1
			minor[4].Collided = 2
			s := newSim(majors(), minor, config())

			Expect(s.Step(ctx)).To(Succeed())

			var leaves int
			s.Tree().Walk(func(_ int, n *barneshut.Node, _ int) bool {
				if n.IsLeaf() && n.BodyIndex >= 0 {
					Expect(n.BodyIndex).NotTo(BeElementOf(int32(3), int32(4)))
					leaves++
				}
				return true
			})
			Expect(leaves).To(Equal(len(minor) - 2 - s.Tree().Truncated))
		})
	})

	Describe("failure", func() {
		It("leaves the store untouched and goes stale", func() {
			store := dynamo.NewStore()
			store.Load(majors(), minors())
			ev := &failingEvaluator{CPUEvaluator: compute.NewCPUEvaluator(2)}
			s, err := sim.New(store, ev, config())
			Expect(err).NotTo(HaveOccurred())

			beforeMajor, beforeMinor := store.MajorSnapshot(), store.MinorSnapshot()
			err = s.Step(ctx)

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Tick).To(Equal(0))
			Expect(simErr.Stage).To(Equal("minor forces"))
			Expect(err.Error()).To(ContainSubstring("device lost"))

			Expect(store.MajorSnapshot()).To(Equal(beforeMajor))
			Expect(store.MinorSnapshot()).To(Equal(beforeMinor))
			Expect(s.Stale()).To(BeTrue())
			Expect(s.Step(ctx)).To(MatchError(dynamo.ErrStale))
		})

		It("recovers after Reset", func() {
			store := dynamo.NewStore()
			store.Load(majors(), minors())
			ev := &failingEvaluator{CPUEvaluator: compute.NewCPUEvaluator(2), okDispatches: 2}
			s, err := sim.New(store, ev, config())
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Step(ctx)).To(Succeed())
			Expect(s.Step(ctx)).To(Succeed())
			Expect(s.Step(ctx)).NotTo(Succeed())

			s.Reset()
			Expect(s.Stale()).To(BeFalse())
			Expect(s.Tick()).To(Equal(0))
			Expect(store.MajorSnapshot()).To(Equal(majors()))

			ev.okDispatches = 1
			Expect(s.Step(ctx)).To(Succeed())
		})
	})

	Describe("absorption", func() {
		var (
			major []dynamo.Body
			minor []dynamo.Body
		)

		BeforeEach(func() {
			major = majors()
			sink := major[len(major)-1].Position
			minor = []dynamo.Body{
				{Position: r3.Add(sink, r3.Vec{Z: 0.001}), Mass: 1e12, Collided: dynamo.NotEvaluated},
				{Position: r3.Add(sink, r3.Vec{X: 0.02}), Mass: 1e12, Collided: dynamo.NotEvaluated},
				{Position: r3.Vec{X: 3}, Velocity: r3.Vec{Z: 17000}, Mass: 1e12, Collided: dynamo.NotEvaluated},
			}
		})

		It("counts bodies captured by the sink", func() {
			cfg := config()
			cfg.Dt = 1
			s := newSim(major, minor, cfg)

			Expect(s.Step(ctx)).To(Succeed())

			st := s.Store()
			Expect(st.Minor(0).Absorbed()).To(BeTrue())
			Expect(st.Minor(1).Absorbed()).To(BeTrue())
			Expect(st.Minor(2).Absorbed()).To(BeFalse())
			Expect(st.Consumed()).To(Equal(2))
			Expect(st.Major(st.Sink()).Collided).To(Equal(2))
		})

		It("freezes absorbed bodies", func() {
			cfg := config()
			cfg.Dt = 1
			s := newSim(major, minor, cfg)

			Expect(s.Step(ctx)).To(Succeed())
			frozen := *s.Store().Minor(0)
			Expect(s.Step(ctx)).To(Succeed())

			Expect(s.Store().Minor(0).Position).To(Equal(frozen.Position))
			Expect(s.Store().Consumed()).To(Equal(2))
		})

		It("is disabled by a zero radius", func() {
			cfg := config()
			cfg.Dt = 1
			cfg.CollisionRadiusAU = 0
			s := newSim(major, minor, cfg)

			Expect(s.Step(ctx)).To(Succeed())
			Expect(s.Store().Consumed()).To(BeZero())
		})
	})

	Describe("Run", func() {
		It("collects energies, metrics and observations", func() {
			var frames []sim.Frame
			s := newSim(majors(), minors(), config(),
				sim.WithMetric(metrics.NewEnergyDrift(dynamo.G, 0.001)),
				sim.WithMetric(metrics.NewConsumed()),
				sim.WithObserver(sim.ObserverFunc(func(f sim.Frame) { frames = append(frames, f) })),
			)

			res, err := s.Run(ctx, 24)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(24))
			Expect(res.Energies).To(HaveLen(25))
			Expect(res.EnergyDrift).To(BeNumerically("<", 1e-6))
			Expect(res.Metrics).To(HaveKey("energy_drift"))
			Expect(res.Metrics).To(HaveKeyWithValue("consumed", BeNumerically("==", res.Consumed)))

			Expect(frames).To(HaveLen(24))
			Expect(frames[23].Tick).To(Equal(24))
			Expect(frames[23].Minor).To(HaveLen(len(minors())))
		})

		It("hands observers views of the store instead of copies", func() {
			s := newSim(majors(), minors(), config())
			var shared, matches bool
			s.AddObserver(sim.ObserverFunc(func(f sim.Frame) {
				shared = &f.Major[0] == s.Store().Major(0) && &f.Minor[0] == s.Store().Minor(0)
				matches = f.Minor[0] == *s.Store().Minor(0)
			}))

			Expect(s.Step(ctx)).To(Succeed())
			Expect(shared).To(BeTrue())
			Expect(matches).To(BeTrue())
		})

		It("uses the configured integrator", func() {
			cfg := config()
			verlet := newSim(majors(), nil, cfg)
			rk4 := newSim(majors(), nil, cfg, sim.WithIntegrator(integrators.NewRK4(cfg.G, cfg.SofteningAU)))

			_, err := verlet.Run(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			_, err = rk4.Run(ctx, 10)
			Expect(err).NotTo(HaveOccurred())

			a, b := verlet.Store().Major(1).Position, rk4.Store().Major(1).Position
			Expect(a).NotTo(Equal(b))
			Expect(r3.Norm(r3.Sub(a, b))).To(BeNumerically("<", 1e-6))
		})

		It("stops when the context is cancelled", func() {
			s := newSim(majors(), minors(), config())
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			res, err := s.Run(cctx, 10)
			Expect(err).To(MatchError(context.Canceled))
			Expect(res.Ticks).To(BeZero())
			Expect(s.Stale()).To(BeFalse())
		})

		It("rejects a negative tick count", func() {
			s := newSim(majors(), nil, config())
			_, err := s.Run(ctx, -1)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs independent members", func() {
		heavy := majors()
		heavy[len(heavy)-1].Mass *= 5

		e := &sim.Ensemble{
			Config:       config(),
			NewEvaluator: func() (compute.ForceEvaluator, error) { return compute.NewCPUEvaluator(1), nil },
			NewMetrics:   func() []sim.Metric { return []sim.Metric{metrics.NewConsumed()} },
			Limit:        2,
		}
		results, err := e.Run(context.Background(), []sim.Member{
			{Name: "base", Major: majors(), Minor: minors()},
			{Name: "heavy", Major: heavy, Minor: minors()},
			{Name: "bare", Major: majors()},
		}, 3)

		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Ticks).To(Equal(3))
			Expect(r.Metrics).To(HaveKey("consumed"))
		}
		Expect(results[0].Energies[0]).NotTo(Equal(results[1].Energies[0]))
	})

	It("reports the failing member", func() {
		e := &sim.Ensemble{
			Config:       config(),
			NewEvaluator: func() (compute.ForceEvaluator, error) { return nil, dynamo.ErrBackendUnavailable },
		}
		_, err := e.Run(context.Background(), []sim.Member{{Name: "gpu", Major: majors()}}, 1)
		Expect(err).To(MatchError(dynamo.ErrBackendUnavailable))
		Expect(err.Error()).To(ContainSubstring("gpu"))
	})
})
