// Package backend provides a pluggable registry of graphics backends for
// the vfield engine.
//
// A backend opens a [Device]: a [gpucore.Context] that owns its GPU device
// and can be closed. Backends register themselves from init() functions and
// are selected at runtime:
//
//	import _ "github.com/oceanmap/vfield/backend/native"
//
//	dev, name, err := backend.Default(backend.Config{CanvasWidth: 800, CanvasHeight: 600})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// Or request a specific backend by name:
//
//	dev, err := backend.Open(backend.BackendNoop, cfg)
//
// # Available Backends
//
//   - "vulkan": gogpu/wgpu HAL on Vulkan
//   - "noop": gogpu/wgpu noop HAL, renders nothing (always available)
package backend
