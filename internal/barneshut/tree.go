package barneshut

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

const DefaultMaxDepth = 200

// Node is one octree cell. Children of a node occupy the contiguous range
// [ChildStart, ChildStart+ChildCount) of the arena. Leaves have ChildStart -1.
type Node struct {
	Center     r3.Vec
	Mass       float64
	Min, Max   r3.Vec
	ChildStart int32
	ChildCount int32
	BodyIndex  int32
}

func (n *Node) IsLeaf() bool { return n.ChildCount == 0 }

// Size is the largest edge of the node's box, in AU.
func (n *Node) Size() float64 {
	d := r3.Sub(n.Max, n.Min)
	return math.Max(d.X, math.Max(d.Y, d.Z))
}

// Tree is an octree stored as a flat arena. The root is node 0.
type Tree struct {
	Nodes []Node
	Root  int

	// Depth is the deepest level reached by the last build.
	Depth int
	// Truncated counts aggregate leaves frozen at the depth limit.
	Truncated int

	maxDepth int
	order    []int
	scratch  []int
}

func NewTree(maxDepth int) *Tree {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Tree{Root: -1, maxDepth: maxDepth}
}

// Build constructs a tree over every body.
func Build(bodies []dynamo.Body, maxDepth int) *Tree {
	t := NewTree(maxDepth)
	t.Rebuild(bodies, nil)
	return t
}

// BuildIndices constructs a tree over the subset of bodies named by indices.
// Leaf BodyIndex values refer to the bodies slice.
func BuildIndices(bodies []dynamo.Body, indices []int, maxDepth int) *Tree {
	t := NewTree(maxDepth)
	t.Rebuild(bodies, indices)
	return t
}

// Rebuild discards every node and builds again, reusing the arena's storage.
// A nil indices slice means all bodies.
func (t *Tree) Rebuild(bodies []dynamo.Body, indices []int) {
	t.Nodes = t.Nodes[:0]
	t.Root = -1
	t.Depth = 0
	t.Truncated = 0

	t.order = t.order[:0]
	if indices == nil {
		for i := range bodies {
			t.order = append(t.order, i)
		}
	} else {
		t.order = append(t.order, indices...)
	}
	if len(t.order) == 0 {
		return
	}
	if cap(t.scratch) < len(t.order) {
		t.scratch = make([]int, len(t.order))
	}

	lo, hi := bounds(bodies, t.order)
	t.Nodes = append(t.Nodes, Node{})
	t.Root = 0
	t.build(0, bodies, t.order, lo, hi, 0)
}

func bounds(bodies []dynamo.Body, set []int) (lo, hi r3.Vec) {
	lo = bodies[set[0]].Position
	hi = lo
	for _, i := range set[1:] {
		p := bodies[i].Position
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return lo, hi
}

func (t *Tree) build(idx int, bodies []dynamo.Body, set []int, lo, hi r3.Vec, depth int) {
	if depth > t.Depth {
		t.Depth = depth
	}

	var mass float64
	var weighted r3.Vec
	for _, i := range set {
		b := &bodies[i]
		mass += b.Mass
		weighted = r3.Add(weighted, r3.Scale(b.Mass, b.Position))
	}
	mid := r3.Scale(0.5, r3.Add(lo, hi))
	center := mid
	if mass != 0 {
		center = r3.Scale(1/mass, weighted)
	}

	t.Nodes[idx] = Node{
		Center:     center,
		Mass:       mass,
		Min:        lo,
		Max:        hi,
		ChildStart: -1,
		BodyIndex:  -1,
	}

	if len(set) == 1 {
		t.Nodes[idx].BodyIndex = int32(set[0])
		return
	}
	if depth > t.maxDepth {
		t.Truncated++
		return
	}

	// Counting sort by octant so each child's bodies are a subslice of set.
	var counts [8]int
	for _, i := range set {
		counts[octant(bodies[i].Position, mid)]++
	}
	var offsets [8]int
	children := 0
	for o, c := range counts {
		if o > 0 {
			offsets[o] = offsets[o-1] + counts[o-1]
		}
		if c > 0 {
			children++
		}
	}
	starts := offsets
	scratch := t.scratch[:len(set)]
	for _, i := range set {
		o := octant(bodies[i].Position, mid)
		scratch[offsets[o]] = i
		offsets[o]++
	}
	copy(set, scratch)

	first := len(t.Nodes)
	for k := 0; k < children; k++ {
		t.Nodes = append(t.Nodes, Node{})
	}
	t.Nodes[idx].ChildStart = int32(first)
	t.Nodes[idx].ChildCount = int32(children)

	next := first
	for o := 0; o < 8; o++ {
		if counts[o] == 0 {
			continue
		}
		clo, chi := octantBox(lo, hi, mid, o)
		t.build(next, bodies, set[starts[o]:starts[o]+counts[o]], clo, chi, depth+1)
		next++
	}
}

// octant returns the child slot of p: bit 0 for x, bit 1 for y, bit 2 for z.
// Coordinates on the midpoint go to the high side.
func octant(p, mid r3.Vec) int {
	o := 0
	if p.X >= mid.X {
		o |= 1
	}
	if p.Y >= mid.Y {
		o |= 2
	}
	if p.Z >= mid.Z {
		o |= 4
	}
	return o
}

func octantBox(lo, hi, mid r3.Vec, o int) (r3.Vec, r3.Vec) {
	clo, chi := lo, mid
	if o&1 != 0 {
		clo.X, chi.X = mid.X, hi.X
	}
	if o&2 != 0 {
		clo.Y, chi.Y = mid.Y, hi.Y
	}
	if o&4 != 0 {
		clo.Z, chi.Z = mid.Z, hi.Z
	}
	return clo, chi
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.Nodes) }
