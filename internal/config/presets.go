package config

import "sort"

// Presets tune the time step and accuracy. Each is applied on top of
// DefaultConfig.
var Presets = map[string]func(*Config){
	"default": func(*Config) {},
	"fast": func(c *Config) {
		c.Dt = 86400
		c.Theta = 0.8
	},
	"precise": func(c *Config) {
		c.Dt = 600
		c.Theta = 0.3
		c.Ticks = 10000
	},
	"direct": func(c *Config) {
		c.Theta = 0
	},
}

// GetPreset returns a fresh config for the named preset, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
