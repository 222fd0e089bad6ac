package barneshut

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/physics"
)

// Params configures the approximate evaluator.
type Params struct {
	G           float64
	Theta       float64
	SofteningAU float64
}

// Acceleration approximates the pull of the tree's bodies at p (AU) in
// m/s^2. A node is treated as a point mass at its centre when
// size/distance < Theta, with the distance softened by SofteningAU. The leaf
// holding body self is skipped; pass -1 for an outside point.
func (t *Tree) Acceleration(p r3.Vec, self int, params Params) r3.Vec {
	var acc r3.Vec
	if t.Root < 0 {
		return acc
	}

	soft2AU := params.SofteningAU * params.SofteningAU
	eps := params.SofteningAU * dynamo.AUInMeters
	eps2 := eps * eps
	pm := dynamo.ToMeters(p)

	var buf [128]int32
	stack := append(buf[:0], int32(t.Root))
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.Nodes[idx]

		if n.Mass == 0 {
			continue
		}
		if n.IsLeaf() {
			if n.BodyIndex >= 0 && int(n.BodyIndex) == self {
				continue
			}
			acc = r3.Add(acc, physics.Pull(pm, dynamo.ToMeters(n.Center), n.Mass, params.G, eps2))
			continue
		}

		d2 := r3.Norm2(r3.Sub(n.Center, p)) + soft2AU
		size := n.Size()
		if size*size < params.Theta*params.Theta*d2 {
			acc = r3.Add(acc, physics.Pull(pm, dynamo.ToMeters(n.Center), n.Mass, params.G, eps2))
			continue
		}
		for c := n.ChildCount - 1; c >= 0; c-- {
			stack = append(stack, n.ChildStart+c)
		}
	}
	return acc
}

// Walk visits nodes depth first from the root until fn returns false.
func (t *Tree) Walk(fn func(idx int, n *Node, depth int) bool) {
	if t.Root < 0 {
		return
	}
	type frame struct {
		idx   int32
		depth int
	}
	stack := []frame{{int32(t.Root), 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.Nodes[f.idx]
		if !fn(int(f.idx), n, f.depth) {
			return
		}
		for c := n.ChildCount - 1; c >= 0; c-- {
			stack = append(stack, frame{n.ChildStart + c, f.depth + 1})
		}
	}
}
