// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/oceanmap/vfield/gpucore"
)

// retired holds resources owned by one submission. They are released once
// the queue reports that submission complete.
type retired struct {
	index    uint64
	cmd      hal.CommandBuffer
	group    hal.BindGroup
	buffer   hal.Buffer
	textures []*texture
}

// renderTarget is the resolved framebuffer of a pass.
type renderTarget struct {
	view   hal.TextureView
	format gputypes.TextureFormat
	tex    *texture // nil for an external canvas
	width  int
	height int
}

// BindFramebuffer selects the render target. gpucore.InvalidID selects the
// canvas.
func (c *Context) BindFramebuffer(target gpucore.TextureID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if target != gpucore.InvalidID {
		if _, ok := c.textures[target]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownTexture, target)
		}
	}
	c.target = target
	return nil
}

// Viewport sets the pixel rectangle used by Draw.
func (c *Context) Viewport(v gpucore.Viewport) {
	c.mu.Lock()
	c.viewport = v
	c.mu.Unlock()
}

func (c *Context) resolveTarget() (renderTarget, error) {
	if c.target == gpucore.InvalidID {
		if c.canvasView == nil {
			return renderTarget{}, ErrNoCanvas
		}
		return renderTarget{
			view:   c.canvasView,
			format: c.canvasFormat,
			tex:    c.canvas,
			width:  c.canvasW,
			height: c.canvasH,
		}, nil
	}
	t, ok := c.textures[c.target]
	if !ok {
		return renderTarget{}, fmt.Errorf("%w: %d", ErrUnknownTexture, c.target)
	}
	return renderTarget{view: t.view, format: textureFormat, tex: t, width: t.width, height: t.height}, nil
}

// transition appends a barrier moving t to usage, if it is not there yet.
func transition(barriers []hal.TextureBarrier, t *texture, usage gputypes.TextureUsage) []hal.TextureBarrier {
	if t == nil || t.usage == usage {
		return barriers
	}
	old := t.usage
	if old == 0 {
		old = gputypes.TextureUsageCopyDst
	}
	t.usage = usage
	return append(barriers, hal.TextureBarrier{
		Texture: t.raw,
		Range:   hal.TextureRange{Aspect: gputypes.TextureAspectAll},
		Usage:   hal.TextureUsageTransition{OldUsage: old, NewUsage: usage},
	})
}

// Clear fills the bound target with col.
func (c *Context) Clear(col gpucore.Color) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	rt, err := c.resolveTarget()
	if err != nil {
		return err
	}

	return c.submitPass("vfield_clear", func(encoder hal.CommandEncoder) {
		if barriers := transition(nil, rt.tex, gputypes.TextureUsageRenderAttachment); len(barriers) > 0 {
			encoder.TransitionTextures(barriers)
		}
		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "vfield_clear_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       rt.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: col.R, G: col.G, B: col.B, A: col.A},
			}},
		})
		rp.End()
	}, retired{})
}

// Draw records call into its own render pass and submits it.
func (c *Context) Draw(call *gpucore.DrawCall) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if call == nil {
		return gpucore.ValidateDraw(nil, nil)
	}
	p, ok := c.programs[call.Program]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProgram, call.Program)
	}
	if err := gpucore.ValidateDraw(call, &p.desc); err != nil {
		return err
	}
	rt, err := c.resolveTarget()
	if err != nil {
		return err
	}

	sampled := make([]*texture, len(call.Textures))
	for i, id := range call.Textures {
		t, ok := c.textures[id]
		if !ok {
			return fmt.Errorf("%w: %d bound by %s", ErrUnknownTexture, id, call.Label)
		}
		if c.target != gpucore.InvalidID && id == c.target {
			return fmt.Errorf("native: %s samples its own render target %d", call.Label, id)
		}
		sampled[i] = t
	}
	if c.viewport.Empty() || call.VertexCount == 0 {
		return nil
	}

	pipe, err := c.pipes.getOrCreate(c.device, pipelineKey{call.Program, call.Blend, rt.format}, p)
	if err != nil {
		return err
	}

	buf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: call.Label + "_uniforms",
		Size:  uint64(len(call.Uniforms)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("native: create uniform buffer: %w", err)
	}
	if err := c.queue.WriteBuffer(buf, 0, call.Uniforms); err != nil {
		c.device.DestroyBuffer(buf)
		return fmt.Errorf("native: write uniforms: %w", err)
	}

	entries := []gputypes.BindGroupEntry{{
		Binding: gpucore.UniformBinding,
		Resource: gputypes.BufferBinding{
			Buffer: buf.NativeHandle(),
			Size:   uint64(len(call.Uniforms)),
		},
	}}
	for i, t := range sampled {
		entries = append(entries,
			gputypes.BindGroupEntry{
				Binding:  gpucore.TextureBinding(i),
				Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()},
			},
			gputypes.BindGroupEntry{
				Binding:  gpucore.SamplerBinding(i),
				Resource: gputypes.SamplerBinding{Sampler: c.samplers[t.filter].NativeHandle()},
			},
		)
	}
	group, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   call.Label + "_bind_group",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		c.device.DestroyBuffer(buf)
		return fmt.Errorf("native: create bind group: %w", err)
	}

	vp := c.viewport
	return c.submitPass(call.Label, func(encoder hal.CommandEncoder) {
		var barriers []hal.TextureBarrier
		for _, t := range sampled {
			barriers = transition(barriers, t, gputypes.TextureUsageTextureBinding)
		}
		barriers = transition(barriers, rt.tex, gputypes.TextureUsageRenderAttachment)
		if len(barriers) > 0 {
			encoder.TransitionTextures(barriers)
		}

		rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: call.Label + "_pass",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    rt.view,
				LoadOp:  gputypes.LoadOpLoad,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		rp.SetPipeline(pipe)
		rp.SetBindGroup(0, group, nil)
		rp.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1)
		rp.Draw(uint32(call.VertexCount), 1, 0, 0)
		rp.End()
	}, retired{group: group, buffer: buf})
}

// submitPass encodes one command buffer with record, submits it and takes
// ownership of the resources in res. On failure those resources are
// released immediately.
func (c *Context) submitPass(label string, record func(hal.CommandEncoder), res retired) error {
	fail := func(err error) error {
		c.release(res)
		return err
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fail(fmt.Errorf("native: create command encoder: %w", err))
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fail(fmt.Errorf("native: begin encoding: %w", err))
	}
	record(encoder)
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fail(fmt.Errorf("native: end encoding: %w", err))
	}
	res.cmd = cmd

	index, err := c.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fail(fmt.Errorf("native: submit %s: %w", label, err))
	}
	res.index = index
	c.submissions = index
	c.inflight = append(c.inflight, res)
	c.retireLocked(c.queue.PollCompleted())
	return nil
}

// deferDestroy frees t once every submission issued so far has completed.
func (c *Context) deferDestroy(t *texture) {
	if len(c.inflight) == 0 {
		t.destroy(c.device)
		return
	}
	c.inflight = append(c.inflight, retired{index: c.submissions, textures: []*texture{t}})
}

// retireLocked releases the resources of every submission up to completed.
func (c *Context) retireLocked(completed uint64) {
	kept := c.inflight[:0]
	for _, r := range c.inflight {
		if r.index <= completed {
			c.release(r)
			continue
		}
		kept = append(kept, r)
	}
	clear(c.inflight[len(kept):])
	c.inflight = kept
}

func (c *Context) release(r retired) {
	if r.cmd != nil {
		c.device.FreeCommandBuffer(r.cmd)
	}
	if r.group != nil {
		c.device.DestroyBindGroup(r.group)
	}
	if r.buffer != nil {
		c.device.DestroyBuffer(r.buffer)
	}
	for _, t := range r.textures {
		t.destroy(c.device)
	}
}

// Pending returns the number of submissions whose resources are not yet
// retired.
func (c *Context) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retireLocked(c.queue.PollCompleted())
	return len(c.inflight)
}
