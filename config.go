package vfield

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the engine tunables.
type Config struct {
	Particles  ParticlesConfig  `yaml:"particles"`
	Simulation SimulationConfig `yaml:"simulation"`
	Ramp       RampConfig       `yaml:"ramp"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ParticlesConfig sizes the particle system.
type ParticlesConfig struct {
	Count     int     `yaml:"count"`
	PointSize float64 `yaml:"point_size"`
}

// SimulationConfig holds the per-frame update parameters.
type SimulationConfig struct {
	FadeOpacity  float64 `yaml:"fade_opacity"`
	SpeedFactor  float64 `yaml:"speed_factor"`
	DropRate     float64 `yaml:"drop_rate"`
	DropRateBump float64 `yaml:"drop_rate_bump"`
}

// RampConfig lists the color stops of the speed ramp.
type RampConfig struct {
	Stops []StopConfig `yaml:"stops"`
}

// StopConfig is one color stop as written in YAML.
type StopConfig struct {
	Offset float64 `yaml:"offset"`
	Color  string  `yaml:"color"`
}

// DerivedConfig holds values computed from the loaded config.
type DerivedConfig struct {
	Stops []ColorStop
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(fmt.Sprintf("vfield: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// LoadConfig loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and recomputes derived values.
func (c *Config) Validate() error {
	if c.Particles.Count <= 0 {
		return fmt.Errorf("%w: particles.count %d must be positive", ErrInvalidConfig, c.Particles.Count)
	}
	if c.Particles.PointSize <= 0 {
		return fmt.Errorf("%w: particles.point_size %v must be positive", ErrInvalidConfig, c.Particles.PointSize)
	}
	if c.Simulation.FadeOpacity < 0 || c.Simulation.FadeOpacity > 1 {
		return fmt.Errorf("%w: simulation.fade_opacity %v outside [0, 1]", ErrInvalidConfig, c.Simulation.FadeOpacity)
	}
	if c.Simulation.DropRate < 0 || c.Simulation.DropRate > 1 {
		return fmt.Errorf("%w: simulation.drop_rate %v outside [0, 1]", ErrInvalidConfig, c.Simulation.DropRate)
	}
	if c.Simulation.DropRateBump < 0 {
		return fmt.Errorf("%w: simulation.drop_rate_bump %v is negative", ErrInvalidConfig, c.Simulation.DropRateBump)
	}

	stops := make([]ColorStop, 0, len(c.Ramp.Stops))
	for i, s := range c.Ramp.Stops {
		col, err := ParseHex(s.Color)
		if err != nil {
			return fmt.Errorf("%w: ramp.stops[%d]: %v", ErrInvalidConfig, i, err)
		}
		stops = append(stops, ColorStop{Offset: s.Offset, Color: col})
	}
	if _, err := NewColorRamp(stops); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Derived.Stops = stops
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
