// Package vfield animates ocean-current vector fields as GPU particles.
//
// # Overview
//
// A vector field arrives as an 8-bit raster: the red and green channels
// encode the u and v velocity components linearly over per-dataset ranges,
// and the blue channel marks valid (ocean) pixels. The [Engine] uploads the
// raster to the GPU and advances a few thousand particles through it every
// frame, leaving fading trails colored by speed. All particle state lives
// in texture memory; the host only triggers frames.
//
// # Quick Start
//
//	import "github.com/oceanmap/vfield"
//
//	// Bind a layer to a host map view and a graphics context.
//	layer := vfield.NewLayer("currents", "currents-source")
//	layer.SetMetadata(meta) // bounds and component ranges of the dataset
//	if err := layer.OnAdd(host, ctx); err != nil {
//	    return err
//	}
//
//	// The host calls Render on every repaint the engine requests.
//	err := layer.Render()
//
// # Components
//
//   - [Engine]: owns the GPU resources and runs one bounded simulation step
//     per [Engine.Draw]. Particle state and the trail render targets are
//     ping-pong texture pairs swapped by index.
//   - [Layer]: adapts an Engine to a host's custom layer contract (add,
//     render, visibility) and to its source data, camera and resize events.
//   - Decoding utilities: [ProjectGeoToRasterPixel], [DecodeChannel],
//     [SampleVelocity] and [ToPolarReadable] read the same raster on the CPU
//     for point queries, independently of any Engine.
//
// # Graphics Context
//
// The engine renders through [gpucore.Context]. The backend/native package
// implements it on gogpu/wgpu HAL devices; integration/headless provides a
// HostView with a cooperative frame scheduler for offscreen use and tests.
//
// # Configuration
//
// Tunables (particle count, fade opacity, speed factor, drop rates, point
// size and color stops) default to the embedded defaults.yaml and can be
// overridden with [LoadConfig] or functional options such as
// [WithParticleCount].
//
// # Logging
//
// vfield is silent by default. Call [SetLogger] to route its structured
// log output to any slog handler.
package vfield
