package compute

import (
	"encoding/binary"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/barneshut"
	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Record strides shared with the GPU kernels. Do not change.
const (
	BodyStride = 9 * 4
	NodeStride = 10*4 + 3*4
	AccStride  = 4 * 4
)

var le = binary.LittleEndian

func putFloat(buf []byte, off int, v float64) {
	le.PutUint32(buf[off:], math.Float32bits(float32(v)))
}

func getFloat(buf []byte, off int) float64 {
	return float64(math.Float32frombits(le.Uint32(buf[off:])))
}

func putVec(buf []byte, off int, v r3.Vec) {
	putFloat(buf, off, v.X)
	putFloat(buf, off+4, v.Y)
	putFloat(buf, off+8, v.Z)
}

func getVec(buf []byte, off int) r3.Vec {
	return r3.Vec{X: getFloat(buf, off), Y: getFloat(buf, off+4), Z: getFloat(buf, off+8)}
}

// PackBodies serializes bodies as position.xyz, velocity.xyz, mass,
// isComet, collided; nine float32 words per body.
func PackBodies(bodies []dynamo.Body) []byte {
	buf := make([]byte, len(bodies)*BodyStride)
	for i := range bodies {
		b := &bodies[i]
		off := i * BodyStride
		putVec(buf, off, b.Position)
		putVec(buf, off+12, b.Velocity)
		putFloat(buf, off+24, b.Mass)
		comet := 0.0
		if b.IsComet {
			comet = 1
		}
		putFloat(buf, off+28, comet)
		putFloat(buf, off+32, float64(b.Collided))
	}
	return buf
}

func UnpackBodies(buf []byte) ([]dynamo.Body, error) {
	if len(buf)%BodyStride != 0 {
		return nil, fmt.Errorf("body buffer of %d bytes is not a multiple of %d", len(buf), BodyStride)
	}
	bodies := make([]dynamo.Body, len(buf)/BodyStride)
	for i := range bodies {
		off := i * BodyStride
		bodies[i] = dynamo.Body{
			Position: getVec(buf, off),
			Velocity: getVec(buf, off+12),
			Mass:     getFloat(buf, off+24),
			IsComet:  getFloat(buf, off+28) != 0,
			Collided: int(getFloat(buf, off+32)),
		}
	}
	return bodies, nil
}

// PackNodes serializes nodes as center.xyz, mass, min.xyz, max.xyz as
// float32 followed by childStart, childCount, bodyIndex as int32.
func PackNodes(nodes []barneshut.Node) []byte {
	buf := make([]byte, len(nodes)*NodeStride)
	for i := range nodes {
		n := &nodes[i]
		off := i * NodeStride
		putVec(buf, off, n.Center)
		putFloat(buf, off+12, n.Mass)
		putVec(buf, off+16, n.Min)
		putVec(buf, off+28, n.Max)
		le.PutUint32(buf[off+40:], uint32(n.ChildStart))
		le.PutUint32(buf[off+44:], uint32(n.ChildCount))
		le.PutUint32(buf[off+48:], uint32(n.BodyIndex))
	}
	return buf
}

func UnpackNodes(buf []byte) ([]barneshut.Node, error) {
	if len(buf)%NodeStride != 0 {
		return nil, fmt.Errorf("node buffer of %d bytes is not a multiple of %d", len(buf), NodeStride)
	}
	nodes := make([]barneshut.Node, len(buf)/NodeStride)
	for i := range nodes {
		off := i * NodeStride
		nodes[i] = barneshut.Node{
			Center:     getVec(buf, off),
			Mass:       getFloat(buf, off+12),
			Min:        getVec(buf, off+16),
			Max:        getVec(buf, off+28),
			ChildStart: int32(le.Uint32(buf[off+40:])),
			ChildCount: int32(le.Uint32(buf[off+44:])),
			BodyIndex:  int32(le.Uint32(buf[off+48:])),
		}
	}
	return nodes, nil
}

// UnpackAccelerations decodes kernel output: xyz plus one padding word per body.
func UnpackAccelerations(buf []byte) ([]r3.Vec, error) {
	if len(buf)%AccStride != 0 {
		return nil, fmt.Errorf("acceleration buffer of %d bytes is not a multiple of %d", len(buf), AccStride)
	}
	acc := make([]r3.Vec, len(buf)/AccStride)
	for i := range acc {
		acc[i] = getVec(buf, i*AccStride)
	}
	return acc, nil
}
