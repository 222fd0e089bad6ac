// Package compute provides the force evaluators for minor bodies.
//
// Every evaluator follows the same three-phase protocol:
//
//	ev := compute.AutoSelect()
//	ev.Upload(compute.State{Major: major, Minor: minor, Tree: tree, Params: p})
//	ev.Dispatch(ctx)
//	acc, err := ev.Download()
//
// Download is the barrier: it returns only after every minor body has been
// evaluated. Backends:
//
//   - cpu: errgroup fan-out over chunks of bodies, always available
//   - cuda: cgo kernel library, build with ./build_cuda.sh (tag cuda)
//   - opengl: GL 4.3 compute shader, build with -tags opengl; needs a GL
//     context current on the calling thread
//
// GPU backends consume the packed records described in layout.go.
package compute
