package catalog

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

func encode(t *testing.T, count int32, records ...[7]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, count))
	for _, r := range records {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, r))
	}
	return buf.Bytes()
}

func TestReadBodies_DropsNonFinite(t *testing.T) {
	nan := float32(math.NaN())
	data := encode(t, 4,
		[7]float32{1, 2, 3, 4, 5, 6, 7},
		[7]float32{nan, 0, 0, 0, 0, 0, 1},
		[7]float32{-1, 0, 0.5, 100, 0, 0, 2},
		[7]float32{0, 0, 0, 0, 0, 0, 0},
	)

	bodies, stats, err := ReadBodies(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, bodies, 3)
	assert.Equal(t, Stats{Declared: 4, Dropped: 1}, stats)

	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, bodies[0].Position)
	assert.Equal(t, r3.Vec{X: 4, Y: 5, Z: 6}, bodies[0].Velocity)
	assert.Equal(t, 7.0, bodies[0].Mass)
	assert.Equal(t, 2.0, bodies[1].Mass)
	for _, b := range bodies {
		assert.Equal(t, dynamo.NotEvaluated, b.Collided)
	}
}

func TestReadBodies_InfiniteVelocity(t *testing.T) {
	inf := float32(math.Inf(-1))
	data := encode(t, 2,
		[7]float32{0, 0, 0, 0, inf, 0, 1},
		[7]float32{1, 1, 1, 0, 0, 0, 1},
	)

	bodies, stats, err := ReadBodies(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, bodies, 1)
	assert.Equal(t, 1, stats.Dropped)
}

func TestReadBodies_Empty(t *testing.T) {
	bodies, stats, err := ReadBodies(bytes.NewReader(encode(t, 0)))
	require.NoError(t, err)
	assert.Empty(t, bodies)
	assert.Zero(t, stats.Declared)
}

func TestReadBodies_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"missing count", []byte{1, 2}, io.ErrUnexpectedEOF},
		{"negative count", encode(t, -3), ErrNegativeCount},
		{"truncated record", encode(t, 2, [7]float32{1, 1, 1, 1, 1, 1, 1})[:4+RecordSize+10], io.ErrUnexpectedEOF},
		{"missing record", encode(t, 2, [7]float32{1, 1, 1, 1, 1, 1, 1}), io.ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadBodies(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReadBodies_HugeCountDoesNotPreallocate(t *testing.T) {
	data := encode(t, math.MaxInt32, [7]float32{1, 1, 1, 1, 1, 1, 1})

	bodies, _, err := ReadBodies(bytes.NewReader(data))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Len(t, bodies, 1)
	assert.LessOrEqual(t, cap(bodies), 1<<16)
}

func TestWriteBodies(t *testing.T) {
	in := []dynamo.Body{
		{Position: r3.Vec{X: 0.5, Y: -2, Z: 3.25}, Velocity: r3.Vec{X: 29780}, Mass: 5.972e24, Collided: 4},
		{Position: r3.Vec{X: 40}, Velocity: r3.Vec{Y: -1.5}, Mass: 1, IsComet: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBodies(&buf, in))
	assert.Equal(t, 4+2*RecordSize, buf.Len())

	out, stats, err := ReadBodies(&buf)
	require.NoError(t, err)
	assert.Zero(t, stats.Dropped)
	require.Len(t, out, 2)

	for i := range in {
		assert.Equal(t, in[i].Position, out[i].Position)
		assert.Equal(t, in[i].Velocity, out[i].Velocity)
		assert.Equal(t, float64(float32(in[i].Mass)), out[i].Mass)
		// The format carries no flags.
		assert.False(t, out[i].IsComet)
		assert.Equal(t, dynamo.NotEvaluated, out[i].Collided)
	}
}

func TestSaveLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bodies.bin")
	in := SolarSystem()

	require.NoError(t, SaveFile(path, in))
	out, stats, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, len(in), stats.Declared)
	assert.Len(t, out, len(in))

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}
