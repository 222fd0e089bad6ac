package barneshut_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

func cloud(n int, seed int64) []dynamo.Body {
	rng := rand.New(rand.NewSource(seed))
	bodies := make([]dynamo.Body, n)
	for i := range bodies {
		bodies[i] = dynamo.Body{
			Position: r3.Vec{
				X: rng.NormFloat64() * 3,
				Y: rng.NormFloat64() * 0.3,
				Z: rng.NormFloat64() * 3,
			},
			Mass: 1e18 + rng.Float64()*1e21,
		}
	}
	return bodies
}

var _ = Describe("Build", func() {
	It("returns an empty tree for no bodies", func() {
		t := barneshut.Build(nil, barneshut.DefaultMaxDepth)
		Expect(t.Root).To(Equal(-1))
		Expect(t.Nodes).To(BeEmpty())
		Expect(t.Acceleration(r3.Vec{}, -1, barneshut.Params{G: dynamo.G})).To(Equal(r3.Vec{}))
	})

	It("makes a single leaf for one body", func() {
		bodies := []dynamo.Body{{Position: r3.Vec{X: 1, Y: 2, Z: 3}, Mass: 5}}
		t := barneshut.Build(bodies, barneshut.DefaultMaxDepth)

		Expect(t.Nodes).To(HaveLen(1))
		root := t.Nodes[t.Root]
		Expect(root.IsLeaf()).To(BeTrue())
		Expect(root.ChildCount).To(BeZero())
		Expect(root.ChildStart).To(BeEquivalentTo(-1))
		Expect(root.BodyIndex).To(BeEquivalentTo(0))
		Expect(root.Mass).To(Equal(5.0))
		Expect(root.Center).To(Equal(bodies[0].Position))
	})

	It("conserves mass at the root", func() {
		bodies := cloud(500, 1)
		t := barneshut.Build(bodies, barneshut.DefaultMaxDepth)

		total := 0.0
		for _, b := range bodies {
			total += b.Mass
		}
		Expect(t.Nodes[t.Root].Mass).To(BeNumerically("~", total, total*1e-12))
	})

	It("places every body in exactly one leaf", func() {
		bodies := cloud(300, 2)
		t := barneshut.Build(bodies, barneshut.DefaultMaxDepth)

		seen := make(map[int32]int)
		for _, n := range t.Nodes {
			if n.IsLeaf() {
				Expect(n.BodyIndex).To(BeNumerically(">=", 0))
				seen[n.BodyIndex]++
			}
		}
		Expect(seen).To(HaveLen(len(bodies)))
		for _, c := range seen {
			Expect(c).To(Equal(1))
		}
	})

	It("stores children contiguously after their parent", func() {
		t := barneshut.Build(cloud(200, 3), barneshut.DefaultMaxDepth)

		for i, n := range t.Nodes {
			if n.IsLeaf() {
				Expect(n.BodyIndex).NotTo(Equal(int32(-1)), "no aggregate leaves at this depth")
				continue
			}
			Expect(n.BodyIndex).To(BeEquivalentTo(-1))
			Expect(n.ChildCount).To(BeNumerically(">=", 1))
			Expect(n.ChildCount).To(BeNumerically("<=", 8))
			Expect(int(n.ChildStart)).To(BeNumerically(">", i))

			sum := 0.0
			for c := n.ChildStart; c < n.ChildStart+n.ChildCount; c++ {
				child := t.Nodes[c]
				sum += child.Mass
				Expect(child.Min.X).To(BeNumerically(">=", n.Min.X))
				Expect(child.Max.X).To(BeNumerically("<=", n.Max.X))
			}
			Expect(sum).To(BeNumerically("~", n.Mass, n.Mass*1e-12))
		}
	})

	It("sends midpoint coordinates to the high octant", func() {
		bodies := []dynamo.Body{
			{Position: r3.Vec{X: -1, Y: -1, Z: -1}, Mass: 1},
			{Position: r3.Vec{X: 1, Y: 1, Z: 1}, Mass: 1},
			{Position: r3.Vec{}, Mass: 1},
		}
		t := barneshut.Build(bodies, barneshut.DefaultMaxDepth)

		root := t.Nodes[t.Root]
		Expect(root.ChildCount).To(BeEquivalentTo(2))
		low := t.Nodes[root.ChildStart]
		Expect(low.BodyIndex).To(BeEquivalentTo(0))

		high := t.Nodes[root.ChildStart+1]
		Expect(high.IsLeaf()).To(BeFalse())
		Expect(high.Mass).To(Equal(2.0))
	})

	It("uses the box midpoint as centre when the mass is zero", func() {
		bodies := []dynamo.Body{
			{Position: r3.Vec{X: 0}},
			{Position: r3.Vec{X: 4}},
		}
		t := barneshut.Build(bodies, barneshut.DefaultMaxDepth)
		Expect(t.Nodes[t.Root].Center).To(Equal(r3.Vec{X: 2}))
	})

	It("freezes coincident bodies into an aggregate leaf at the depth limit", func() {
		p := r3.Vec{X: 1, Y: 1, Z: 1}
		bodies := []dynamo.Body{
			{Position: p, Mass: 1},
			{Position: p, Mass: 2},
			{Position: p, Mass: 3},
		}
		t := barneshut.Build(bodies, 8)

		Expect(t.Truncated).To(Equal(1))
		Expect(t.Depth).To(Equal(9))

		var agg *barneshut.Node
		t.Walk(func(_ int, n *barneshut.Node, _ int) bool {
			if n.IsLeaf() {
				agg = n
				return false
			}
			return true
		})
		Expect(agg).NotTo(BeNil())
		Expect(agg.ChildStart).To(BeEquivalentTo(-1))
		Expect(agg.BodyIndex).To(BeEquivalentTo(-1))
		Expect(agg.Mass).To(Equal(6.0))
	})

	It("marks every childless node with ChildStart -1", func() {
		for _, bodies := range [][]dynamo.Body{
			{{Position: r3.Vec{X: -1}, Mass: 1}, {Position: r3.Vec{X: 1}, Mass: 1}},
			cloud(300, 7),
		} {
			t := barneshut.Build(bodies, barneshut.DefaultMaxDepth)
			for i, n := range t.Nodes {
				if n.ChildCount == 0 {
					Expect(n.ChildStart).To(BeEquivalentTo(-1), "leaf node %d", i)
				} else {
					Expect(n.ChildStart).To(BeNumerically(">", i), "internal node %d", i)
				}
			}
		}
	})

	It("builds over a subset of indices", func() {
		bodies := cloud(50, 4)
		indices := []int{3, 7, 11, 40}
		t := barneshut.BuildIndices(bodies, indices, barneshut.DefaultMaxDepth)

		var leaves []int32
		for _, n := range t.Nodes {
			if n.IsLeaf() {
				leaves = append(leaves, n.BodyIndex)
			}
		}
		Expect(leaves).To(ConsistOf(int32(3), int32(7), int32(11), int32(40)))
	})

	It("discards old nodes on rebuild", func() {
		t := barneshut.NewTree(barneshut.DefaultMaxDepth)
		t.Rebuild(cloud(100, 5), nil)
		Expect(t.Len()).To(BeNumerically(">", 100))

		t.Rebuild(cloud(1, 6), nil)
		Expect(t.Len()).To(Equal(1))

		t.Rebuild(nil, nil)
		Expect(t.Root).To(Equal(-1))
		Expect(t.Len()).To(BeZero())
	})
})
