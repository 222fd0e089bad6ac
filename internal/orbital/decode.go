package orbital

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Decoder streams Elements records from either a JSON array or
// newline-delimited JSON objects.
type Decoder struct {
	r       *bufio.Reader
	dec     *json.Decoder
	array   bool
	started bool
	done    bool
	index   int
}

func NewDecoder(r io.Reader) *Decoder {
	br := bufio.NewReader(r)
	return &Decoder{r: br, dec: json.NewDecoder(br)}
}

func (d *Decoder) start() error {
	d.started = true
	for {
		c, _, err := d.r.ReadRune()
		if err != nil {
			return err
		}
		if unicode.IsSpace(c) {
			continue
		}
		if err := d.r.UnreadRune(); err != nil {
			return err
		}
		if c == '[' {
			d.array = true
			if _, err := d.dec.Token(); err != nil {
				return err
			}
		}
		return nil
	}
}

// Next returns the next record or io.EOF when the stream is exhausted.
func (d *Decoder) Next() (Elements, error) {
	var el Elements
	if d.done {
		return el, io.EOF
	}
	if !d.started {
		if err := d.start(); err != nil {
			d.done = true
			return el, err
		}
	}

	if d.array && !d.dec.More() {
		d.done = true
		if _, err := d.dec.Token(); err != nil {
			return el, fmt.Errorf("decode record %d: %w", d.index, unexpected(err))
		}
		return el, io.EOF
	}

	if err := d.dec.Decode(&el); err != nil {
		d.done = true
		if errors.Is(err, io.EOF) && !d.array {
			return el, io.EOF
		}
		return el, fmt.Errorf("decode record %d: %w", d.index, unexpected(err))
	}
	d.index++
	return el, nil
}

// unexpected turns an end of input inside an open array into
// io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// DecodeAll reads every record from r.
func DecodeAll(r io.Reader) ([]Elements, error) {
	d := NewDecoder(r)
	var out []Elements
	for {
		el, err := d.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, el)
	}
}

// IngestOptions controls how element records become minor bodies.
type IngestOptions struct {
	Mu     float64
	G      float64
	Kepler KeplerOptions
	Comet  bool
}

func DefaultIngestOptions() IngestOptions {
	return IngestOptions{
		Mu:     MuSun,
		G:      dynamo.G,
		Kepler: DefaultKeplerOptions(),
	}
}

// IngestStats reports what happened while converting a stream.
type IngestStats struct {
	Records     int
	Unconverged int
	ZeroMass    int
}

// Ingest decodes a stream of element records and converts each to a body.
// Records whose Kepler solve hit the iteration cap are kept and counted.
func Ingest(r io.Reader, opts IngestOptions) ([]dynamo.Body, IngestStats, error) {
	var stats IngestStats
	var bodies []dynamo.Body

	d := NewDecoder(r)
	for {
		el, err := d.Next()
		if errors.Is(err, io.EOF) {
			return bodies, stats, nil
		}
		if err != nil {
			return bodies, stats, err
		}

		b, kr := el.ToBody(opts.Mu, opts.G, opts.Kepler)
		b.IsComet = opts.Comet
		stats.Records++
		if !kr.Converged {
			stats.Unconverged++
		}
		if b.Mass == 0 {
			stats.ZeroMass++
		}
		bodies = append(bodies, b)
	}
}
