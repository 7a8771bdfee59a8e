package backend

import (
	"errors"
	"log/slog"

	"github.com/oceanmap/vfield/gpucore"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or no registered backend could be opened.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Backend names.
const (
	// BackendVulkan renders on a Vulkan device.
	BackendVulkan = "vulkan"

	// BackendNoop accepts every call and renders nothing. It is useful for
	// headless runs and tests.
	BackendNoop = "noop"
)

// Device is a graphics context that owns its GPU device.
type Device interface {
	gpucore.Context

	// Close releases the context and the device below it.
	Close()
}

// Config configures a Device at open time.
type Config struct {
	// CanvasWidth and CanvasHeight size the offscreen canvas. Zero means
	// no canvas; one must then be attached by the backend's own API.
	CanvasWidth  int
	CanvasHeight int

	// Logger receives backend diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Factory opens a Device.
type Factory func(cfg Config) (Device, error)
