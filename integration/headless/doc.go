// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

// Package headless provides a windowless map host for vfield layers.
//
// Map implements vfield.HostView on top of any gpucore.Context. It keeps a
// frame request queue, dispatches source data, camera and resize events,
// and renders its layers whenever one of them requested a redraw. The data
// flow per frame is:
//
//	Frame() -> frame callbacks -> RequestRedraw -> clear canvas -> Layer.Render
//
// # Usage
//
//	dev, _ := backend.Open(backend.BackendNoop, backend.Config{CanvasWidth: 800, CanvasHeight: 400})
//	defer dev.Close()
//
//	m, _ := headless.New(dev, 800, 400)
//	defer m.Close()
//
//	layer := vfield.NewLayer("currents", "currents-src")
//	layer.SetMetadata(meta)
//	_ = m.AddLayer(layer)
//	m.LoadSource("currents-src", img)
//	stats, err := m.Run(ctx, 120)
//
// # Thread Safety
//
// Map is NOT safe for concurrent use. Drive it from one goroutine, the
// way a window event loop would.
package headless
