// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

// Package native implements gpucore.Context on the gogpu/wgpu HAL.
//
// Programs are compiled from WGSL with naga, textures are RGBA8 and every
// Clear or Draw becomes one render pass in its own command buffer, so the
// ping-pong passes of the particle engine never read and write the same
// texture within a pass. Per-draw uniform buffers and bind groups are
// released once the queue reports their submission complete.
//
// A Context either owns its device (Open, or a "vulkan"/"noop" device from
// the backend registry) or shares one with a host window (NewFromProvider):
//
//	ctx, err := native.Open(gputypes.BackendVulkan, native.WithCanvasSize(1024, 512))
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//	engine, err := vfield.NewEngine(ctx, host)
package native
