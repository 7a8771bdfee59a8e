// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/oceanmap/vfield/gpucore"
)

// textureFormat is the format of every texture the context allocates.
const textureFormat = gputypes.TextureFormatRGBA8Unorm

const textureUsage = gputypes.TextureUsageCopyDst |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageRenderAttachment

// program is a compiled shader with its binding layout. Render pipelines
// are created lazily per (blend, target format) by the pipeline cache.
type program struct {
	desc           gpucore.ProgramDesc
	module         hal.ShaderModule
	bindLayout     hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
}

func (p *program) destroy(device hal.Device) {
	if p.pipelineLayout != nil {
		device.DestroyPipelineLayout(p.pipelineLayout)
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
	}
}

// texture is a 2D RGBA8 texture with its default view.
type texture struct {
	label  string
	width  int
	height int
	filter gpucore.FilterMode
	raw    hal.Texture
	view   hal.TextureView
	usage  gputypes.TextureUsage // last usage, for barriers
}

func (t *texture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
	}
	if t.raw != nil {
		device.DestroyTexture(t.raw)
	}
}

// CreateProgram compiles desc.Source with naga and builds its bind group
// and pipeline layouts.
func (c *Context) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if err := gpucore.ValidateProgram(desc); err != nil {
		return gpucore.InvalidID, err
	}
	spirv, err := gpucore.CompileWGSL(desc.Source)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: %s: %w", desc.Label, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return gpucore.InvalidID, ErrClosed
	}

	p := &program{desc: *desc}
	if err := c.buildProgram(p, spirv); err != nil {
		p.destroy(c.device)
		return gpucore.InvalidID, err
	}

	id := gpucore.ProgramID(c.newID())
	c.programs[id] = p
	c.log().Debug("native: program created", "label", desc.Label, "id", id, "spirv_words", len(spirv))
	return id, nil
}

func (c *Context) buildProgram(p *program, spirv []uint32) error {
	label := p.desc.Label
	module, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: hal.ShaderSource{WGSL: p.desc.Source, SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("native: create shader module %s: %w", label, err)
	}
	p.module = module

	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
	for i := range p.desc.TextureCount {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    gpucore.TextureBinding(i),
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    gpucore.SamplerBinding(i),
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		)
	}
	layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("native: create bind group layout %s: %w", label, err)
	}
	p.bindLayout = layout

	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		return fmt.Errorf("native: create pipeline layout %s: %w", label, err)
	}
	p.pipelineLayout = pipeLayout
	return nil
}

// DestroyProgram releases a program and its cached pipelines.
func (c *Context) DestroyProgram(id gpucore.ProgramID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.programs[id]
	if !ok {
		return
	}
	delete(c.programs, id)
	c.pipes.evict(c.device, id)
	p.destroy(c.device)
}

// CreateTexture allocates a texture. Without initial data it is cleared
// to transparent black.
func (c *Context) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if err := gpucore.ValidateTexture(desc); err != nil {
		return gpucore.InvalidID, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return gpucore.InvalidID, ErrClosed
	}

	t, err := c.allocTexture(desc.Label, desc.Width, desc.Height, desc.Filter)
	if err != nil {
		return gpucore.InvalidID, err
	}
	data := desc.Data
	if data == nil {
		data = make([]byte, desc.Width*desc.Height*gpucore.BytesPerPixel)
	}
	if err := c.writeTexture(t, data); err != nil {
		t.destroy(c.device)
		return gpucore.InvalidID, err
	}

	id := gpucore.TextureID(c.newID())
	c.textures[id] = t
	c.log().Debug("native: texture created", "label", desc.Label, "id", id,
		"width", desc.Width, "height", desc.Height, "filter", desc.Filter)
	return id, nil
}

func (c *Context) allocTexture(label string, w, h int, filter gpucore.FilterMode) (*texture, error) {
	raw, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        textureFormat,
		Usage:         textureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create texture %s: %w", label, err)
	}
	view, err := c.device.CreateTextureView(raw, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        textureFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(raw)
		return nil, fmt.Errorf("native: create texture view %s: %w", label, err)
	}
	return &texture{label: label, width: w, height: h, filter: filter, raw: raw, view: view}, nil
}

func (c *Context) writeTexture(t *texture, data []byte) error {
	if want := t.width * t.height * gpucore.BytesPerPixel; len(data) != want {
		return fmt.Errorf("native: write %s: %d bytes, want %d", t.label, len(data), want)
	}
	err := c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.raw, Aspect: gputypes.TextureAspectAll},
		data,
		&hal.ImageDataLayout{
			BytesPerRow:  uint32(t.width * gpucore.BytesPerPixel),
			RowsPerImage: uint32(t.height),
		},
		&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("native: write %s: %w", t.label, err)
	}
	t.usage = gputypes.TextureUsageCopyDst
	return nil
}

// WriteTexture replaces the content of a texture.
func (c *Context) WriteTexture(id gpucore.TextureID, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}
	return c.writeTexture(t, data)
}

// DestroyTexture releases a texture. Pending submissions that sample it
// complete before the texture is freed.
func (c *Context) DestroyTexture(id gpucore.TextureID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.textures[id]
	if !ok {
		return
	}
	delete(c.textures, id)
	if c.target == id {
		c.target = gpucore.InvalidID
	}
	c.deferDestroy(t)
}

// ResizeCanvas (re)allocates the offscreen canvas. It fails for contexts
// rendering to an external canvas.
func (c *Context) ResizeCanvas(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: canvas %dx%d", ErrInvalidDimensions, w, h)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.canvasView != nil && c.canvas == nil {
		return ErrExternalCanvas
	}
	t, err := c.allocTexture("vfield_canvas", w, h, gpucore.FilterNearest)
	if err != nil {
		return err
	}
	if err := c.writeTexture(t, make([]byte, w*h*gpucore.BytesPerPixel)); err != nil {
		t.destroy(c.device)
		return err
	}
	if c.canvas != nil {
		c.deferDestroy(c.canvas)
	}
	c.canvas = t
	c.canvasW, c.canvasH = w, h
	c.canvasView = t.view
	c.canvasFormat = textureFormat
	return nil
}

// SetCanvasTarget directs canvas rendering to an external view, such as
// the current surface texture of a window. It must be called again for
// each acquired surface texture.
func (c *Context) SetCanvasTarget(view hal.TextureView, format gputypes.TextureFormat, w, h int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.canvas != nil {
		c.deferDestroy(c.canvas)
		c.canvas = nil
	}
	c.canvasView = view
	if format != gputypes.TextureFormatUndefined {
		c.canvasFormat = format
	}
	c.canvasW, c.canvasH = w, h
}

// CanvasSize returns the canvas size in pixels.
func (c *Context) CanvasSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canvasW, c.canvasH
}

// TextureCount returns the number of live textures, excluding the canvas.
func (c *Context) TextureCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.textures)
}

// ProgramCount returns the number of live programs.
func (c *Context) ProgramCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.programs)
}
