package barneshut_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gonumbh "gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

type particle struct {
	pos r3.Vec
	m   float64
}

func (p *particle) Coord3() r3.Vec { return p.pos }
func (p *particle) Mass() float64  { return p.m }

func relErr(got, want r3.Vec) float64 {
	return r3.Norm(r3.Sub(got, want)) / r3.Norm(want)
}

// maxError is the worst absolute error, scaled by the RMS exact acceleration
// so bodies near the centre, where forces cancel, do not dominate.
func maxError(bodies []dynamo.Body, t *barneshut.Tree, params barneshut.Params) float64 {
	exact := physics.Accelerations(bodies, params.G, params.SofteningAU)
	worst, sum2 := 0.0, 0.0
	for i := range bodies {
		sum2 += r3.Norm2(exact[i])
		worst = max(worst, r3.Norm(r3.Sub(t.Acceleration(bodies[i].Position, i, params), exact[i])))
	}
	return worst / math.Sqrt(sum2/float64(len(bodies)))
}

var _ = Describe("Acceleration", func() {
	var bodies []dynamo.Body
	var tree *barneshut.Tree

	BeforeEach(func() {
		bodies = cloud(400, 9)
		tree = barneshut.Build(bodies, barneshut.DefaultMaxDepth)
	})

	It("matches the gonum direct sum when nothing is approximated", func() {
		ps := make([]gonumbh.Particle3, len(bodies))
		for i, b := range bodies {
			ps[i] = &particle{pos: dynamo.ToMeters(b.Position), m: b.Mass}
		}
		vol := gonumbh.Volume{Particles: ps}
		params := barneshut.Params{G: dynamo.G, Theta: 0}

		for i := range bodies {
			want := r3.Scale(dynamo.G/bodies[i].Mass, vol.ForceOn(ps[i], 0, gonumbh.Gravity3))
			got := tree.Acceleration(bodies[i].Position, i, params)
			Expect(relErr(got, want)).To(BeNumerically("<", 1e-9), "body %d", i)
		}
	})

	It("matches the softened direct sum at theta zero", func() {
		params := barneshut.Params{G: dynamo.G, Theta: 0, SofteningAU: 0.01}
		Expect(maxError(bodies, tree, params)).To(BeNumerically("<", 1e-9))
	})

	It("converges as theta shrinks", func() {
		coarse := maxError(bodies, tree, barneshut.Params{G: dynamo.G, Theta: 1.0, SofteningAU: 0.001})
		fine := maxError(bodies, tree, barneshut.Params{G: dynamo.G, Theta: 0.3, SofteningAU: 0.001})

		Expect(fine).To(BeNumerically("<", coarse))
		Expect(fine).To(BeNumerically("<", 0.01))
	})

	It("treats a distant cluster as a point mass", func() {
		far := r3.Vec{X: 1e4}
		params := barneshut.Params{G: dynamo.G, Theta: 0.5}

		got := tree.Acceleration(far, -1, params)

		root := tree.Nodes[tree.Root]
		want := physics.Pull(dynamo.ToMeters(far), dynamo.ToMeters(root.Center), root.Mass, dynamo.G, 0)
		Expect(got).To(Equal(want))
	})

	It("skips the body's own leaf", func() {
		pair := []dynamo.Body{
			{Mass: 1e30},
			{Position: r3.Vec{X: 1}, Mass: 1},
		}
		t := barneshut.Build(pair, barneshut.DefaultMaxDepth)
		params := barneshut.Params{G: dynamo.G, Theta: 0.5}

		a := t.Acceleration(pair[0].Position, 0, params)
		Expect(a.X).To(BeNumerically(">", 0))
		Expect(a.X).To(BeNumerically("<", 1e-20))

		b := t.Acceleration(pair[1].Position, 1, params)
		Expect(b.X).To(BeNumerically("<", 0))
	})
})

var _ = Describe("Walk", func() {
	It("visits parents before children", func() {
		tree := barneshut.Build(cloud(64, 12), barneshut.DefaultMaxDepth)

		visited := make(map[int]bool)
		tree.Walk(func(idx int, n *barneshut.Node, _ int) bool {
			for c := n.ChildStart; c < n.ChildStart+n.ChildCount; c++ {
				Expect(visited[int(c)]).To(BeFalse())
			}
			visited[idx] = true
			return true
		})
		Expect(visited).To(HaveLen(tree.Len()))
	})
})
