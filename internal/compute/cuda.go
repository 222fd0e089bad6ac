//go:build cuda

package compute

/*
#cgo CFLAGS: -I/opt/cuda/include
#cgo LDFLAGS: -L/opt/cuda/lib64 -L${SRCDIR} -lcudart -lkernels -lstdc++
#include <stdlib.h>

extern int cuda_device_count();
extern const char* cuda_device_name_get();
extern int minor_forces_gpu(const void* minor, int minorCount,
                            const void* major, int majorCount,
                            const void* nodes, int nodeCount,
                            void* acc, float g, float theta, float softening);
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

type CUDAEvaluator struct {
	available  bool
	deviceName string

	minor, major, nodes []byte
	acc                 []byte
	minorCount          int
	majorCount          int
	nodeCount           int
	params              barneshut.Params
	phase               phase
}

func NewCUDAEvaluator() *CUDAEvaluator {
	count := int(C.cuda_device_count())
	name := ""
	if count > 0 {
		name = C.GoString(C.cuda_device_name_get())
	}
	return &CUDAEvaluator{
		available:  count > 0,
		deviceName: name,
	}
}

func (c *CUDAEvaluator) Name() string {
	if c.available {
		return "cuda (" + c.deviceName + ")"
	}
	return "cuda (not available)"
}

func (c *CUDAEvaluator) Available() bool { return c.available }

func (c *CUDAEvaluator) Cleanup() {
	c.minor, c.major, c.nodes, c.acc = nil, nil, nil, nil
	c.phase = phaseIdle
}

func (c *CUDAEvaluator) Upload(s State) error {
	if !c.available {
		return dynamo.ErrBackendUnavailable
	}
	c.minor = PackBodies(s.Minor)
	c.major = PackBodies(s.Major)
	c.nodes = nil
	if s.Tree != nil {
		c.nodes = PackNodes(s.Tree.Nodes)
	}
	c.minorCount = len(s.Minor)
	c.majorCount = len(s.Major)
	c.nodeCount = len(c.nodes) / NodeStride
	c.params = s.Params
	c.acc = make([]byte, c.minorCount*AccStride)
	c.phase = phaseUploaded
	return nil
}

func ptr(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Pointer(&b[0])
}

// Dispatch blocks until the kernel finishes; ctx is only checked before launch.
func (c *CUDAEvaluator) Dispatch(ctx context.Context) error {
	if c.phase == phaseIdle {
		return dynamo.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.minorCount == 0 {
		c.phase = phaseDispatched
		return nil
	}

	p := c.params
	rc := C.minor_forces_gpu(
		ptr(c.minor), C.int(c.minorCount),
		ptr(c.major), C.int(c.majorCount),
		ptr(c.nodes), C.int(c.nodeCount),
		ptr(c.acc),
		C.float(p.G), C.float(p.Theta), C.float(p.SofteningAU),
	)
	if rc != 0 {
		return fmt.Errorf("cuda kernel failed with code %d", int(rc))
	}
	c.phase = phaseDispatched
	return nil
}

func (c *CUDAEvaluator) Download() ([]r3.Vec, error) {
	if c.phase != phaseDispatched {
		return nil, dynamo.ErrNotReady
	}
	c.phase = phaseIdle
	return UnpackAccelerations(c.acc)
}
