package catalog

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// RecordSize is the size of one catalog record: pos.xyz, vel.xyz, mass as float32.
const RecordSize = 7 * 4

var ErrNegativeCount = errors.New("catalog: negative record count")

// Stats describes what a read kept and what it skipped.
type Stats struct {
	Declared int
	Dropped  int
}

// ReadBodies reads a little-endian catalog: an int32 count followed by count
// records. Records with a non-finite position or velocity are skipped.
// Bodies come back with Collided set to dynamo.NotEvaluated.
func ReadBodies(r io.Reader) ([]dynamo.Body, Stats, error) {
	var stats Stats
	br := bufio.NewReader(r)

	var count int32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, stats, fmt.Errorf("read count: %w", err)
	}
	if count < 0 {
		return nil, stats, fmt.Errorf("%w: %d", ErrNegativeCount, count)
	}
	stats.Declared = int(count)

	bodies := make([]dynamo.Body, 0, min(int(count), 1<<16))
	var rec [RecordSize]byte
	var f [7]float64
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(br, rec[:]); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return bodies, stats, fmt.Errorf("read record %d of %d: %w", i, count, err)
		}
		for k := range f {
			f[k] = float64(math.Float32frombits(binary.LittleEndian.Uint32(rec[k*4:])))
		}

		b := dynamo.Body{
			Position: r3.Vec{X: f[0], Y: f[1], Z: f[2]},
			Velocity: r3.Vec{X: f[3], Y: f[4], Z: f[5]},
			Mass:     f[6],
			Collided: dynamo.NotEvaluated,
		}
		if !b.IsValid() {
			stats.Dropped++
			continue
		}
		bodies = append(bodies, b)
	}
	return bodies, stats, nil
}

// WriteBodies writes bodies in the catalog format. Values are narrowed to float32.
func WriteBodies(w io.Writer, bodies []dynamo.Body) error {
	if len(bodies) > math.MaxInt32 {
		return fmt.Errorf("catalog: %d bodies exceed the format limit", len(bodies))
	}
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, int32(len(bodies))); err != nil {
		return err
	}

	var rec [RecordSize]byte
	for i := range bodies {
		b := &bodies[i]
		vals := [7]float64{
			b.Position.X, b.Position.Y, b.Position.Z,
			b.Velocity.X, b.Velocity.Y, b.Velocity.Z,
			b.Mass,
		}
		for k, v := range vals {
			binary.LittleEndian.PutUint32(rec[k*4:], math.Float32bits(float32(v)))
		}
		if _, err := bw.Write(rec[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func LoadFile(path string) ([]dynamo.Body, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()

	bodies, stats, err := ReadBodies(f)
	if err != nil {
		return bodies, stats, fmt.Errorf("%s: %w", path, err)
	}
	return bodies, stats, nil
}

func SaveFile(path string, bodies []dynamo.Body) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBodies(f, bodies); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
