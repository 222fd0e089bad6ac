//go:build !cuda

package compute

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

type CUDAEvaluator struct{}

func NewCUDAEvaluator() *CUDAEvaluator {
	return &CUDAEvaluator{}
}

func (c *CUDAEvaluator) Name() string    { return "cuda (not available)" }
func (c *CUDAEvaluator) Available() bool { return false }
func (c *CUDAEvaluator) Cleanup()        {}

func (c *CUDAEvaluator) Upload(State) error             { return dynamo.ErrBackendUnavailable }
func (c *CUDAEvaluator) Dispatch(context.Context) error { return dynamo.ErrBackendUnavailable }
func (c *CUDAEvaluator) Download() ([]r3.Vec, error)    { return nil, dynamo.ErrBackendUnavailable }
