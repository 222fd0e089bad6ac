package catalog

import (
	"github.com/go-logr/logr"

	"github.com/san-kum/nbodysim/internal/dynamo"
)

// Sources are the minor-body catalogs that make up one scenario.
type Sources struct {
	Comets     []dynamo.Body
	Numbered   []dynamo.Body
	Unnumbered []dynamo.Body
}

// Assemble concatenates comets, numbered and unnumbered asteroids into one
// minor-body slice. Comets are flagged. The first numbered asteroid is
// Ceres, which is simulated as a major body, so it is dropped. Every body
// starts with Collided set to dynamo.NotEvaluated.
func Assemble(src Sources) []dynamo.Body {
	numbered := src.Numbered
	if len(numbered) > 0 {
		numbered = numbered[1:]
	}

	out := make([]dynamo.Body, 0, len(src.Comets)+len(numbered)+len(src.Unnumbered))
	for _, b := range src.Comets {
		b.IsComet = true
		out = append(out, b)
	}
	out = append(out, numbered...)
	out = append(out, src.Unnumbered...)

	for i := range out {
		out[i].Collided = dynamo.NotEvaluated
	}
	return out
}

// Paths names the catalog files of a scenario. Empty paths are skipped.
type Paths struct {
	Comets     string `yaml:"comets" env:"COMETS"`
	Numbered   string `yaml:"numbered" env:"NUMBERED"`
	Unnumbered string `yaml:"unnumbered" env:"UNNUMBERED"`
}

func (p Paths) Empty() bool {
	return p.Comets == "" && p.Numbered == "" && p.Unnumbered == ""
}

// Load reads every named catalog and assembles the minor bodies.
func Load(p Paths, log logr.Logger) ([]dynamo.Body, error) {
	var src Sources
	for _, f := range []struct {
		path string
		dst  *[]dynamo.Body
	}{
		{p.Comets, &src.Comets},
		{p.Numbered, &src.Numbered},
		{p.Unnumbered, &src.Unnumbered},
	} {
		if f.path == "" {
			continue
		}
		bodies, stats, err := LoadFile(f.path)
		if err != nil {
			return nil, err
		}
		log.V(1).Info("loaded catalog", "path", f.path, "declared", stats.Declared, "dropped", stats.Dropped)
		*f.dst = bodies
	}

	minor := Assemble(src)
	log.Info("assembled minor bodies", "comets", len(src.Comets), "total", len(minor))
	return minor, nil
}
