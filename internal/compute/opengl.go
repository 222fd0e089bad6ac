//go:build opengl

package compute

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.3-core/gl"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

//go:embed shaders/minor_forces.comp
var minorForcesShader string

const (
	bindMinor = iota
	bindMajor
	bindNodes
	bindAcc
)

// OpenGLEvaluator runs the force pass as a GL 4.3 compute shader. It needs a
// GL context made current on the calling thread by the host renderer.
type OpenGLEvaluator struct {
	Program     uint32
	SSBO        [4]uint32
	Initialized bool

	initErr    error
	minorCount int32
	majorCount int32
	nodeCount  int32
	params     barneshut.Params
	phase      phase
}

func NewOpenGLEvaluator() *OpenGLEvaluator {
	return &OpenGLEvaluator{}
}

func (c *OpenGLEvaluator) Name() string { return "opengl" }

func (c *OpenGLEvaluator) Available() bool {
	if !c.Initialized && c.initErr == nil {
		c.initErr = c.init()
	}
	return c.initErr == nil
}

func (c *OpenGLEvaluator) init() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to init opengl: %v", err)
	}
	if gl.GetString(gl.VERSION) == nil {
		return fmt.Errorf("no current opengl context: %w", dynamo.ErrBackendUnavailable)
	}

	program, err := createComputeProgram(minorForcesShader)
	if err != nil {
		return err
	}
	c.Program = program

	gl.GenBuffers(int32(len(c.SSBO)), &c.SSBO[0])
	for i, buf := range c.SSBO {
		gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf)
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, 0, nil, gl.DYNAMIC_DRAW)
		gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(i), buf)
	}

	c.Initialized = true
	return nil
}

func (c *OpenGLEvaluator) Cleanup() {
	if !c.Initialized {
		return
	}
	gl.DeleteBuffers(int32(len(c.SSBO)), &c.SSBO[0])
	gl.DeleteProgram(c.Program)
	c.Initialized = false
	c.phase = phaseIdle
}

func upload(binding int, buf uint32, data []byte, minSize int) {
	size := max(len(data), minSize)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, buf)
	if len(data) == 0 {
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	} else {
		gl.BufferData(gl.SHADER_STORAGE_BUFFER, size, gl.Ptr(data), gl.DYNAMIC_DRAW)
	}
	gl.BindBufferBase(gl.SHADER_STORAGE_BUFFER, uint32(binding), buf)
}

func (c *OpenGLEvaluator) Upload(s State) error {
	if !c.Available() {
		return c.initErr
	}

	var nodes []byte
	if s.Tree != nil {
		nodes = PackNodes(s.Tree.Nodes)
	}

	// Empty SSBOs are not allowed on every driver; keep at least one record.
	upload(bindMinor, c.SSBO[bindMinor], PackBodies(s.Minor), BodyStride)
	upload(bindMajor, c.SSBO[bindMajor], PackBodies(s.Major), BodyStride)
	upload(bindNodes, c.SSBO[bindNodes], nodes, NodeStride)
	upload(bindAcc, c.SSBO[bindAcc], nil, max(len(s.Minor), 1)*AccStride)

	c.minorCount = int32(len(s.Minor))
	c.majorCount = int32(len(s.Major))
	c.nodeCount = int32(len(nodes) / NodeStride)
	c.params = s.Params
	c.phase = phaseUploaded
	return nil
}

func (c *OpenGLEvaluator) uniform(name string) int32 {
	return gl.GetUniformLocation(c.Program, gl.Str(name+"\x00"))
}

func (c *OpenGLEvaluator) Dispatch(ctx context.Context) error {
	if c.phase == phaseIdle {
		return dynamo.ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gl.UseProgram(c.Program)
	gl.Uniform1i(c.uniform("minorCount"), c.minorCount)
	gl.Uniform1i(c.uniform("majorCount"), c.majorCount)
	gl.Uniform1i(c.uniform("nodeCount"), c.nodeCount)
	gl.Uniform1f(c.uniform("G"), float32(c.params.G))
	gl.Uniform1f(c.uniform("theta"), float32(c.params.Theta))
	gl.Uniform1f(c.uniform("softening"), float32(c.params.SofteningAU))

	numGroups := (c.minorCount + 255) / 256
	if numGroups > 0 {
		gl.DispatchCompute(uint32(numGroups), 1, 1)
	}
	gl.MemoryBarrier(gl.SHADER_STORAGE_BARRIER_BIT | gl.BUFFER_UPDATE_BARRIER_BIT)

	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("compute dispatch failed: gl error 0x%x", code)
	}
	c.phase = phaseDispatched
	return nil
}

func (c *OpenGLEvaluator) Download() ([]r3.Vec, error) {
	if c.phase != phaseDispatched {
		return nil, dynamo.ErrNotReady
	}
	c.phase = phaseIdle
	if c.minorCount == 0 {
		return []r3.Vec{}, nil
	}

	buf := make([]byte, int(c.minorCount)*AccStride)
	gl.BindBuffer(gl.SHADER_STORAGE_BUFFER, c.SSBO[bindAcc])
	gl.GetBufferSubData(gl.SHADER_STORAGE_BUFFER, 0, len(buf), gl.Ptr(buf))
	return UnpackAccelerations(buf)
}

func createComputeProgram(source string) (uint32, error) {
	shader := gl.CreateShader(gl.COMPUTE_SHADER)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		return 0, fmt.Errorf("failed to compile compute shader: %v", log)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, shader)
	gl.LinkProgram(program)

	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return 0, fmt.Errorf("failed to link program")
	}

	gl.DeleteShader(shader)
	return program, nil
}
