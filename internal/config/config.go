package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodysim/internal/catalog"
	"github.com/san-kum/nbodysim/internal/compute"
	"github.com/san-kum/nbodysim/internal/dynamo"
	"github.com/san-kum/nbodysim/internal/integrators"
	"github.com/san-kum/nbodysim/internal/orbital"
)

const (
	DefaultDt                = 5000.0
	DefaultTicks             = 1000
	DefaultTheta             = 0.5
	DefaultSofteningAU       = 0.001
	DefaultMaxDepth          = 200
	DefaultCollisionRadiusAU = 0.05
	DefaultOutputDir         = "runs"

	// EnvPrefix prefixes every environment override, e.g. NBODYSIM_DT.
	EnvPrefix = "NBODYSIM_"
)

type Config struct {
	Dt                float64 `yaml:"dt" env:"DT"`
	Ticks             int     `yaml:"ticks" env:"TICKS"`
	G                 float64 `yaml:"g" env:"G"`
	Theta             float64 `yaml:"theta" env:"THETA"`
	SofteningAU       float64 `yaml:"softening_au" env:"SOFTENING_AU"`
	MaxDepth          int     `yaml:"max_depth" env:"MAX_DEPTH"`
	CollisionRadiusAU float64 `yaml:"collision_radius_au" env:"COLLISION_RADIUS_AU"`

	Integrator string `yaml:"integrator" env:"INTEGRATOR"`
	Backend    string `yaml:"backend" env:"BACKEND"`
	Workers    int    `yaml:"workers" env:"WORKERS"`

	Kepler  orbital.KeplerOptions `yaml:"kepler" envPrefix:"KEPLER_"`
	Catalog catalog.Paths         `yaml:"catalog" envPrefix:"CATALOG_"`

	// Masses maps a major body name to a multiplier of its reference mass.
	Masses map[string]float64 `yaml:"masses,omitempty"`

	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
}

func DefaultConfig() *Config {
	return &Config{
		Dt:                DefaultDt,
		Ticks:             DefaultTicks,
		G:                 dynamo.G,
		Theta:             DefaultTheta,
		SofteningAU:       DefaultSofteningAU,
		MaxDepth:          DefaultMaxDepth,
		CollisionRadiusAU: DefaultCollisionRadiusAU,
		Integrator:        "verlet",
		Backend:           "auto",
		Kepler:            orbital.DefaultKeplerOptions(),
		OutputDir:         DefaultOutputDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from NBODYSIM_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Resolve builds the effective configuration: the named preset, then the
// file at path when set, then the environment. The result is validated.
func Resolve(preset, path string) (*Config, error) {
	cfg := DefaultConfig()
	if preset != "" {
		if cfg = GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset %q: %w", preset, dynamo.ErrInvalidConfig)
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	check := func(ok bool, format string, args ...any) error {
		if ok {
			return nil
		}
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), dynamo.ErrInvalidConfig)
	}

	for _, err := range []error{
		check(c.Dt > 0, "dt must be positive, got %g", c.Dt),
		check(c.Ticks >= 0, "ticks must not be negative, got %d", c.Ticks),
		check(c.G > 0, "g must be positive, got %g", c.G),
		check(c.Theta >= 0, "theta must not be negative, got %g", c.Theta),
		check(c.SofteningAU >= 0, "softening must not be negative, got %g", c.SofteningAU),
		check(c.MaxDepth > 0, "max depth must be positive, got %d", c.MaxDepth),
		check(c.CollisionRadiusAU >= 0, "collision radius must not be negative, got %g", c.CollisionRadiusAU),
		check(c.Workers >= 0, "workers must not be negative, got %d", c.Workers),
		check(c.Kepler.Tolerance >= 0, "kepler tolerance must not be negative, got %g", c.Kepler.Tolerance),
		check(c.Kepler.MaxIterations >= 0, "kepler iterations must not be negative, got %d", c.Kepler.MaxIterations),
		check(c.Integrator == "" || slices.Contains(integrators.Names(), c.Integrator), "unknown integrator %q", c.Integrator),
		check(c.Backend == "" || slices.Contains(compute.Names(), c.Backend), "unknown backend %q", c.Backend),
	} {
		if err != nil {
			return err
		}
	}

	for name, m := range c.Masses {
		if catalog.IndexOf(name) < 0 {
			return fmt.Errorf("mass multiplier for unknown body %q: %w", name, dynamo.ErrInvalidConfig)
		}
		if m < 0 {
			return fmt.Errorf("mass multiplier for %s must not be negative, got %g: %w", name, m, dynamo.ErrInvalidConfig)
		}
	}
	return nil
}
