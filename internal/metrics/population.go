package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/sim"
)

// Consumed reports how many minor bodies the sink has absorbed so far.
type Consumed struct {
	count int
}

func NewConsumed() *Consumed { return &Consumed{} }

func (c *Consumed) Name() string        { return "consumed" }
func (c *Consumed) Observe(f sim.Frame) { c.count = f.Consumed }
func (c *Consumed) Value() float64      { return float64(c.count) }
func (c *Consumed) Reset()              { c.count = 0 }

// Escaped is the fraction of live minor bodies farther than Radius AU from
// the primary star at the last observed tick.
type Escaped struct {
	name     string
	radius   float64
	fraction float64
}

func NewEscaped(radiusAU float64) *Escaped {
	return &Escaped{
		name:   "escaped",
		radius: radiusAU,
	}
}

func (e *Escaped) Name() string { return e.name }

func (e *Escaped) Observe(f sim.Frame) {
	if len(f.Major) == 0 {
		return
	}
	star := f.Major[0].Position
	var live, out int
	for i := range f.Minor {
		b := &f.Minor[i]
		if b.Absorbed() {
			continue
		}
		live++
		if r3.Norm(r3.Sub(b.Position, star)) > e.radius {
			out++
		}
	}
	e.fraction = 0
	if live > 0 {
		e.fraction = float64(out) / float64(live)
	}
}

func (e *Escaped) Value() float64 { return e.fraction }

func (e *Escaped) Reset() { e.fraction = 0 }

// MeanSpeed is the mean speed of live minor bodies in m/s, averaged over
// every observed tick.
type MeanSpeed struct {
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed { return &MeanSpeed{} }

func (m *MeanSpeed) Name() string { return "mean_speed" }

func (m *MeanSpeed) Observe(f sim.Frame) {
	var sum float64
	var n int
	for i := range f.Minor {
		if f.Minor[i].Absorbed() {
			continue
		}
		sum += r3.Norm(f.Minor[i].Velocity)
		n++
	}
	if n == 0 {
		return
	}
	m.sum += sum / float64(n)
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}
