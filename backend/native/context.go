// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

package native

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/oceanmap/vfield/gpucore"
)

// nopHandler discards all records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// Option configures a Context.
type Option func(*Context)

// WithCanvasSize gives the context an offscreen RGBA8 canvas of w x h
// pixels. Without it, the canvas must be supplied with SetCanvasTarget
// before anything renders to gpucore.InvalidID.
func WithCanvasSize(w, h int) Option {
	return func(c *Context) {
		c.canvasW, c.canvasH = w, h
	}
}

// WithOwnedDevice makes Close destroy the device and instance.
func WithOwnedDevice(instance hal.Instance) Option {
	return func(c *Context) {
		c.instance = instance
		c.ownsDevice = true
	}
}

// WithLogger sets the initial logger of the context and the HAL.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.SetLogger(l)
	}
}

// Context implements gpucore.Context on a gogpu/wgpu HAL device.
//
// Every Draw and Clear is recorded into its own render pass and submitted
// immediately. Per-draw uniform buffers and bind groups are retired once
// the queue reports their submission complete.
//
// Context is safe for concurrent use, though a single render loop is the
// expected caller.
type Context struct {
	mu sync.Mutex

	device     hal.Device
	queue      hal.Queue
	instance   hal.Instance
	ownsDevice bool

	nextID   uint64
	programs map[gpucore.ProgramID]*program
	textures map[gpucore.TextureID]*texture
	samplers [2]hal.Sampler // indexed by gpucore.FilterMode
	pipes    *pipelineCache

	canvas       *texture // offscreen canvas, nil when external
	canvasW      int
	canvasH      int
	canvasView   hal.TextureView
	canvasFormat gputypes.TextureFormat
	target       gpucore.TextureID
	viewport     gpucore.Viewport
	inflight     []retired
	submissions  uint64
	closed       bool

	logger atomic.Pointer[slog.Logger]
}

var _ gpucore.Context = (*Context)(nil)

// New creates a Context on an opened HAL device and queue.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Context, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	c := &Context{
		device:   device,
		queue:    queue,
		programs: make(map[gpucore.ProgramID]*program),
		textures: make(map[gpucore.TextureID]*texture),
		pipes:    newPipelineCache(),
	}
	c.logger.Store(slog.New(nopHandler{}))
	for _, opt := range opts {
		opt(c)
	}

	if err := c.createSamplers(); err != nil {
		c.destroySamplers()
		return nil, err
	}
	if c.canvasW > 0 || c.canvasH > 0 {
		if err := c.ResizeCanvas(c.canvasW, c.canvasH); err != nil {
			c.destroySamplers()
			return nil, err
		}
	}
	return c, nil
}

// NewFromProvider creates a Context sharing the device of an external
// provider (e.g. a gogpu window). The provider must expose HalDevice() and
// HalQueue() returning hal.Device and hal.Queue; rendering to the canvas
// uses the provider's surface format once SetCanvasTarget is called.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, ErrNilDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrNilDevice)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNilDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNilDevice)
	}
	c, err := New(device, queue, opts...)
	if err != nil {
		return nil, err
	}
	c.canvasFormat = provider.SurfaceFormat()
	return c, nil
}

// Open creates a standalone Context on the first usable adapter of the
// given backend, preferring discrete and integrated GPUs. Close releases
// the device.
func Open(backend gputypes.Backend, opts ...Option) (*Context, error) {
	api, ok := hal.GetBackend(backend)
	if !ok {
		return nil, fmt.Errorf("%w: backend %v not available", ErrNoGPU, backend)
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	c, err := New(openDev.Device, openDev.Queue, append(opts, WithOwnedDevice(instance))...)
	if err != nil {
		openDev.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	c.log().Info("native: GPU initialized (standalone)", "adapter", selected.Info.Name)
	return c, nil
}

// SetLogger sets the logger for this context and the HAL layer below it.
func (c *Context) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	c.logger.Store(l)
	hal.SetLogger(l)
}

func (c *Context) log() *slog.Logger { return c.logger.Load() }

// Device returns the underlying HAL device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the underlying HAL queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// PipelineStats reports pipeline cache hits and misses.
func (c *Context) PipelineStats() (hits, misses uint64) {
	return c.pipes.stats()
}

func (c *Context) newID() uint64 {
	c.nextID++
	return c.nextID
}

func (c *Context) createSamplers() error {
	for _, f := range [...]gpucore.FilterMode{gpucore.FilterNearest, gpucore.FilterLinear} {
		mode := gputypes.FilterModeNearest
		if f == gpucore.FilterLinear {
			mode = gputypes.FilterModeLinear
		}
		s, err := c.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        "vfield_sampler_" + f.String(),
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    mode,
			MinFilter:    mode,
			MipmapFilter: gputypes.FilterModeNearest,
			LodMaxClamp:  32,
		})
		if err != nil {
			return fmt.Errorf("create %s sampler: %w", f, err)
		}
		c.samplers[f] = s
	}
	return nil
}

func (c *Context) destroySamplers() {
	for i, s := range c.samplers {
		if s != nil {
			c.device.DestroySampler(s)
			c.samplers[i] = nil
		}
	}
}

// Close waits for the GPU, releases every resource the context still
// holds and, for contexts created by Open, the device itself.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true

	if err := c.device.WaitIdle(); err != nil {
		c.log().Warn("native: wait idle on close", "err", err)
	}
	c.retireLocked(^uint64(0))

	c.pipes.destroy(c.device)
	for id, p := range c.programs {
		p.destroy(c.device)
		delete(c.programs, id)
	}
	for id, t := range c.textures {
		t.destroy(c.device)
		delete(c.textures, id)
	}
	if c.canvas != nil {
		c.canvas.destroy(c.device)
		c.canvas = nil
	}
	c.destroySamplers()

	if c.ownsDevice {
		c.device.Destroy()
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.log().Debug("native: context closed", "submissions", c.submissions)
}
