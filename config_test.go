package vfield

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Particles.Count != 10000 {
		t.Errorf("Particles.Count = %d, want 10000", cfg.Particles.Count)
	}
	if cfg.Simulation.FadeOpacity != 0.985 {
		t.Errorf("Simulation.FadeOpacity = %v, want 0.985", cfg.Simulation.FadeOpacity)
	}
	if cfg.Simulation.DropRate != 0.003 || cfg.Simulation.DropRateBump != 0.05 {
		t.Errorf("drop rates = %v, %v", cfg.Simulation.DropRate, cfg.Simulation.DropRateBump)
	}
	if len(cfg.Derived.Stops) != 4 {
		t.Fatalf("derived stops = %d, want 4", len(cfg.Derived.Stops))
	}
	if got := cfg.Derived.Stops[3].Color.NRGBA(); got.R != 0xF8 || got.G != 0x07 || got.B != 0x59 {
		t.Errorf("last stop = %v, want #f80759", got)
	}
}

func TestLoadConfigOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vfield.yaml")
	const overlay = `
particles:
  count: 4096
simulation:
  speed_factor: 2.5
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Particles.Count != 4096 || cfg.Simulation.SpeedFactor != 2.5 {
		t.Errorf("overridden = %d, %v; want 4096, 2.5", cfg.Particles.Count, cfg.Simulation.SpeedFactor)
	}
	if cfg.Particles.PointSize != 1.2 || cfg.Simulation.FadeOpacity != 0.985 {
		t.Error("keys absent from the overlay lost their defaults")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadConfig(missing) = nil error")
	}
	if _, err := LoadConfig(write("syntax.yaml", "particles: [")); err == nil {
		t.Error("LoadConfig(bad yaml) = nil error")
	}

	invalid := []struct {
		name string
		body string
	}{
		{"zero count", "particles: {count: 0}"},
		{"negative point size", "particles: {point_size: -1}"},
		{"fade above one", "simulation: {fade_opacity: 1.5}"},
		{"negative drop rate", "simulation: {drop_rate: -0.1}"},
		{"negative bump", "simulation: {drop_rate_bump: -1}"},
		{"bad color", "ramp: {stops: [{offset: 0, color: 'teal'}]}"},
		{"unsorted stops", "ramp: {stops: [{offset: 1, color: '#fff'}, {offset: 0, color: '#000'}]}"},
		{"no stops", "ramp: {stops: []}"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(write(tt.name+".yaml", tt.body))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadConfig() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigWriteYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles.Count = 2500
	path := filepath.Join(t.TempDir(), "out.yaml")

	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if got.Particles.Count != 2500 || len(got.Derived.Stops) != len(cfg.Derived.Stops) {
		t.Errorf("round trip = %+v", got.Particles)
	}
}
