// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

package native

import (
	"github.com/gogpu/gputypes"
	_ "github.com/gogpu/wgpu/hal/noop"   // registers the noop HAL
	_ "github.com/gogpu/wgpu/hal/vulkan" // registers the Vulkan HAL

	"github.com/oceanmap/vfield/backend"
)

func init() {
	backend.Register(backend.BackendVulkan, factory(gputypes.BackendVulkan))
	backend.Register(backend.BackendNoop, factory(gputypes.BackendEmpty))
}

func factory(variant gputypes.Backend) backend.Factory {
	return func(cfg backend.Config) (backend.Device, error) {
		var opts []Option
		if cfg.CanvasWidth > 0 || cfg.CanvasHeight > 0 {
			opts = append(opts, WithCanvasSize(cfg.CanvasWidth, cfg.CanvasHeight))
		}
		if cfg.Logger != nil {
			opts = append(opts, WithLogger(cfg.Logger))
		}
		return Open(variant, opts...)
	}
}
