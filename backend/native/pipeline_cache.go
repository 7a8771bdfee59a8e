// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/oceanmap/vfield/gpucore"
)

// pipelineKey identifies a render pipeline variant of a program.
type pipelineKey struct {
	program gpucore.ProgramID
	blend   gpucore.BlendMode
	format  gputypes.TextureFormat
}

// pipelineCache caches render pipelines per program, blend mode and target
// format. A program is drawn into RGBA8 state textures and into the canvas,
// whose format may differ, so each program typically owns two or three
// variants.
//
// pipelineCache is safe for concurrent use. It uses RWMutex with
// double-check locking.
type pipelineCache struct {
	mu        sync.RWMutex
	pipelines map[pipelineKey]hal.RenderPipeline

	hits   uint64
	misses uint64
}

func newPipelineCache() *pipelineCache {
	return &pipelineCache{pipelines: make(map[pipelineKey]hal.RenderPipeline)}
}

// getOrCreate returns the cached pipeline for key or builds it from p.
func (c *pipelineCache) getOrCreate(device hal.Device, key pipelineKey, p *program) (hal.RenderPipeline, error) {
	c.mu.RLock()
	if pipe, ok := c.pipelines[key]; ok {
		c.mu.RUnlock()
		atomic.AddUint64(&c.hits, 1)
		return pipe, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if pipe, ok := c.pipelines[key]; ok {
		atomic.AddUint64(&c.hits, 1)
		return pipe, nil
	}

	pipe, err := createRenderPipeline(device, key, p)
	if err != nil {
		return nil, err
	}
	c.pipelines[key] = pipe
	atomic.AddUint64(&c.misses, 1)
	return pipe, nil
}

// evict destroys every variant of a program.
func (c *pipelineCache) evict(device hal.Device, id gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, pipe := range c.pipelines {
		if key.program == id {
			device.DestroyRenderPipeline(pipe)
			delete(c.pipelines, key)
		}
	}
}

func (c *pipelineCache) stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

func (c *pipelineCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pipelines)
}

// destroy releases all cached pipelines and resets statistics.
func (c *pipelineCache) destroy(device hal.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, pipe := range c.pipelines {
		device.DestroyRenderPipeline(pipe)
		delete(c.pipelines, key)
	}
	atomic.StoreUint64(&c.hits, 0)
	atomic.StoreUint64(&c.misses, 0)
}

func blendState(mode gpucore.BlendMode) *gputypes.BlendState {
	var b gputypes.BlendState
	switch mode {
	case gpucore.BlendAlpha:
		b = gputypes.BlendStateAlpha()
	default:
		b = gputypes.BlendStateReplace()
	}
	return &b
}

func createRenderPipeline(device hal.Device, key pipelineKey, p *program) (hal.RenderPipeline, error) {
	label := fmt.Sprintf("%s_%s_pipeline", p.desc.Label, key.blend)
	pipe, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipelineLayout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: p.desc.VertexEntry,
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: p.desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{{
				Format:    key.format,
				Blend:     blendState(key.blend),
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("native: create %s: %w", label, err)
	}
	return pipe, nil
}
