package vfield

import "math/rand/v2"

// EngineOption configures an Engine during creation.
//
// Example:
//
//	// Embedded defaults
//	e, err := vfield.NewEngine(ctx, host)
//
//	// Denser field with a custom palette
//	e, err := vfield.NewEngine(ctx, host,
//	    vfield.WithParticleCount(65536),
//	    vfield.WithColorStops(
//	        vfield.ColorStop{Offset: 0, Color: vfield.Hex("#3288bd")},
//	        vfield.ColorStop{Offset: 1, Color: vfield.Hex("#d53e4f")},
//	    ))
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	cfg           *Config
	particleCount int // 0 means cfg.Particles.Count
	stops         []ColorStop
	rng           *rand.Rand
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{}
}

// WithConfig sets the tunables. The config should have passed Validate;
// LoadConfig and DefaultConfig guarantee that.
func WithConfig(cfg *Config) EngineOption {
	return func(o *engineOptions) {
		o.cfg = cfg
	}
}

// WithParticleCount overrides the configured particle count.
func WithParticleCount(n int) EngineOption {
	return func(o *engineOptions) {
		o.particleCount = n
	}
}

// WithColorStops overrides the configured color ramp.
func WithColorStops(stops ...ColorStop) EngineOption {
	return func(o *engineOptions) {
		o.stops = stops
	}
}

// WithRand sets the random source used for particle seeding and the
// per-frame shader seed. Tests use a fixed seed for reproducibility.
func WithRand(r *rand.Rand) EngineOption {
	return func(o *engineOptions) {
		o.rng = r
	}
}
