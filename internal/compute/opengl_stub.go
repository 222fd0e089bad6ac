//go:build !opengl

package compute

import (
	"context"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

type OpenGLEvaluator struct{}

func NewOpenGLEvaluator() *OpenGLEvaluator {
	return &OpenGLEvaluator{}
}

func (c *OpenGLEvaluator) Name() string    { return "opengl (not available)" }
func (c *OpenGLEvaluator) Available() bool { return false }
func (c *OpenGLEvaluator) Cleanup()        {}

func (c *OpenGLEvaluator) Upload(State) error             { return dynamo.ErrBackendUnavailable }
func (c *OpenGLEvaluator) Dispatch(context.Context) error { return dynamo.ErrBackendUnavailable }
func (c *OpenGLEvaluator) Download() ([]r3.Vec, error)    { return nil, dynamo.ErrBackendUnavailable }
