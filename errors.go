package vfield

import "errors"

// Sentinel errors returned by vfield. Errors carrying detail wrap one of
// these; test with errors.Is.
var (
	// ErrNilContext is returned when an engine is created without a
	// graphics context.
	ErrNilContext = errors.New("vfield: graphics context is nil")

	// ErrNilHost is returned when an engine or layer is bound without a
	// host view.
	ErrNilHost = errors.New("vfield: host view is nil")

	// ErrInvalidDataset is returned by SetData for malformed rasters.
	// Prior GPU state is untouched when it is returned.
	ErrInvalidDataset = errors.New("vfield: invalid dataset")

	// ErrInvalidParticleCount is returned for non-positive particle counts.
	ErrInvalidParticleCount = errors.New("vfield: particle count must be positive")

	// ErrInvalidRamp is returned for color stops that are empty, out of
	// [0, 1] or not ascending.
	ErrInvalidRamp = errors.New("vfield: invalid color ramp")

	// ErrInvalidMetadata is returned when dataset metadata cannot be parsed.
	ErrInvalidMetadata = errors.New("vfield: invalid metadata")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("vfield: invalid config")

	// ErrLayerBound is returned by Layer.OnAdd when the layer already owns
	// an engine.
	ErrLayerBound = errors.New("vfield: layer already added to a host")

	// ErrLayerNotBound is returned by Layer operations that need an
	// engine before OnAdd.
	ErrLayerNotBound = errors.New("vfield: layer is not added to a host")

	// ErrClosed is returned by engine operations after Close.
	ErrClosed = errors.New("vfield: engine is closed")
)
