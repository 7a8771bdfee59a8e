package vfield

import (
	"fmt"
	"math/rand/v2"

	"github.com/oceanmap/vfield/gpucore"
)

// State is the animation state of an Engine.
type State uint8

// Engine states.
const (
	// Paused engines ignore Draw and request no frames.
	Paused State = iota

	// Animating engines request one host repaint per frame and advance
	// the simulation on every Draw.
	Animating
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Animating:
		return "animating"
	default:
		return "unknown"
	}
}

// Program slots.
const (
	progDraw = iota
	progScreen
	progUpdate
	numPrograms
)

// pingPong is a pair of texture slots. The front slot is read while the
// back slot is written; swap flips the owning index, never the contents.
type pingPong struct {
	slots [2]gpucore.TextureID
	cur   int
}

func (p *pingPong) front() gpucore.TextureID { return p.slots[p.cur] }
func (p *pingPong) back() gpucore.TextureID  { return p.slots[1-p.cur] }
func (p *pingPong) swap()                    { p.cur ^= 1 }

// fieldResources are the GPU resources tied to one dataset.
type fieldResources struct {
	wind      gpucore.TextureID
	particles pingPong // particle state, particleRes x particleRes
	screens   pingPong // front: background, back: screen; canvas sized
	width     int
	height    int
}

// Engine animates particles through a raster-encoded vector field.
//
// An Engine owns every GPU resource it creates through its graphics
// context. It is driven from a single goroutine: the host's render loop
// calls Draw once per repaint the Engine requested.
type Engine struct {
	ctx  gpucore.Context
	host HostView
	cfg  Config
	rng  *rand.Rand
	ramp *ColorRamp

	programs    [numPrograms]gpucore.ProgramID
	rampTexture gpucore.TextureID

	particleRes int
	field       *fieldResources // nil until the first successful SetData
	dataset     Dataset

	state        State
	view         Bounds
	frame        FrameID
	framePending bool
	closed       bool
}

// NewEngine compiles the engine's shader programs and builds its color
// ramp. A shader compilation failure is returned; no Engine is created.
func NewEngine(ctx gpucore.Context, host HostView, opts ...EngineOption) (*Engine, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if host == nil {
		return nil, ErrNilHost
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var cfg Config
	if o.cfg != nil {
		cfg = *o.cfg
		if len(cfg.Derived.Stops) == 0 {
			if err := cfg.Validate(); err != nil {
				return nil, err
			}
		}
	} else {
		cfg = *DefaultConfig()
	}
	if o.particleCount != 0 {
		cfg.Particles.Count = o.particleCount
	}
	if cfg.Particles.Count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParticleCount, cfg.Particles.Count)
	}

	stops := cfg.Derived.Stops
	if o.stops != nil {
		stops = o.stops
	}
	ramp, err := NewColorRamp(stops)
	if err != nil {
		return nil, err
	}

	rng := o.rng
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	e := &Engine{
		ctx:         ctx,
		host:        host,
		cfg:         cfg,
		rng:         rng,
		ramp:        ramp,
		particleRes: ParticleResolution(cfg.Particles.Count),
	}
	if err := e.createPrograms(); err != nil {
		e.releasePrograms()
		return nil, err
	}

	trackEngine(e)
	Logger().Debug("vfield: engine created",
		"particles", e.ParticleCount(), "resolution", e.particleRes)
	return e, nil
}

func (e *Engine) createPrograms() error {
	descs := programDescs()
	for i := range descs {
		id, err := e.ctx.CreateProgram(&descs[i])
		if err != nil {
			return fmt.Errorf("vfield: compile %s: %w", descs[i].Label, err)
		}
		e.programs[i] = id
	}

	id, err := e.ctx.CreateTexture(&gpucore.TextureDesc{
		Label:  "vfield_ramp",
		Width:  rampSide,
		Height: rampSide,
		Filter: gpucore.FilterLinear,
		Data:   e.ramp.Pixels(),
	})
	if err != nil {
		return fmt.Errorf("vfield: create color ramp: %w", err)
	}
	e.rampTexture = id
	return nil
}

func (e *Engine) releasePrograms() {
	for i, id := range e.programs {
		if id != gpucore.InvalidID {
			e.ctx.DestroyProgram(id)
			e.programs[i] = gpucore.InvalidID
		}
	}
	if e.rampTexture != gpucore.InvalidID {
		e.ctx.DestroyTexture(e.rampTexture)
		e.rampTexture = gpucore.InvalidID
	}
}

// SetData replaces the dataset and reinitializes every dataset-bound GPU
// resource: the raster texture, freshly seeded particle state and empty
// render targets sized to the host canvas.
//
// Malformed datasets fail with ErrInvalidDataset before any GPU work. If
// any allocation fails, the partial new resources are released and the
// previous dataset and resources stay in place.
func (e *Engine) SetData(ds Dataset) error {
	if e.closed {
		return ErrClosed
	}
	if err := ds.Validate(); err != nil {
		return err
	}

	w, h := e.targetSize()
	next := &fieldResources{width: w, height: h}
	if err := e.buildField(next, &ds); err != nil {
		e.releaseField(next)
		return fmt.Errorf("vfield: set data: %w", err)
	}

	old := e.field
	e.field = next
	e.dataset = ds
	e.releaseField(old)

	Logger().Info("vfield: dataset replaced",
		"raster", fmt.Sprintf("%dx%d", ds.Width(), ds.Height()),
		"bounds", ds.Bounds, "canvas", fmt.Sprintf("%dx%d", w, h))
	return nil
}

func (e *Engine) buildField(f *fieldResources, ds *Dataset) error {
	var err error
	f.wind, err = e.ctx.CreateTexture(&gpucore.TextureDesc{
		Label:  "vfield_wind",
		Width:  ds.Width(),
		Height: ds.Height(),
		Filter: gpucore.FilterLinear,
		Data:   ds.pixels(),
	})
	if err != nil {
		return fmt.Errorf("create raster texture: %w", err)
	}
	if f.particles, err = e.newParticleState(); err != nil {
		return err
	}
	if f.screens, err = e.newTargets(f.width, f.height); err != nil {
		return err
	}
	return nil
}

// newParticleState allocates both particle slots seeded with the same
// random positions. On error the returned pair holds whatever was created.
func (e *Engine) newParticleState() (pingPong, error) {
	var p pingPong
	seed := seedParticles(e.rng, e.particleRes)
	for i := range p.slots {
		id, err := e.ctx.CreateTexture(&gpucore.TextureDesc{
			Label:  "vfield_particles",
			Width:  e.particleRes,
			Height: e.particleRes,
			Filter: gpucore.FilterNearest,
			Data:   seed,
		})
		if err != nil {
			return p, fmt.Errorf("create particle state: %w", err)
		}
		p.slots[i] = id
	}
	return p, nil
}

// newTargets allocates the background/screen pair.
func (e *Engine) newTargets(w, h int) (pingPong, error) {
	var p pingPong
	for i := range p.slots {
		id, err := e.ctx.CreateTexture(&gpucore.TextureDesc{
			Label:  "vfield_screen",
			Width:  w,
			Height: h,
			Filter: gpucore.FilterNearest,
		})
		if err != nil {
			return p, fmt.Errorf("create render target: %w", err)
		}
		p.slots[i] = id
	}
	return p, nil
}

func (e *Engine) releasePair(p pingPong) {
	for _, id := range p.slots {
		if id != gpucore.InvalidID {
			e.ctx.DestroyTexture(id)
		}
	}
}

func (e *Engine) releaseField(f *fieldResources) {
	if f == nil {
		return
	}
	if f.wind != gpucore.InvalidID {
		e.ctx.DestroyTexture(f.wind)
	}
	e.releasePair(f.particles)
	e.releasePair(f.screens)
}

// targetSize returns the canvas size in physical pixels, at least 1x1.
func (e *Engine) targetSize() (int, int) {
	w, h := canvasSize(e.host)
	return max(w, 1), max(h, 1)
}

// SetParticleCount changes the number of simulated particles. The state
// texture is resized to ParticleResolution(n) and reseeded, so existing
// particles and their trails are not carried over.
func (e *Engine) SetParticleCount(n int) error {
	if e.closed {
		return ErrClosed
	}
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidParticleCount, n)
	}

	prevRes, prevCount := e.particleRes, e.cfg.Particles.Count
	e.particleRes = ParticleResolution(n)
	e.cfg.Particles.Count = n
	if e.field == nil {
		return nil
	}

	next, err := e.newParticleState()
	if err != nil {
		e.releasePair(next)
		e.particleRes, e.cfg.Particles.Count = prevRes, prevCount
		return fmt.Errorf("vfield: set particle count: %w", err)
	}
	e.releasePair(e.field.particles)
	e.field.particles = next

	Logger().Debug("vfield: particle count changed", "particles", e.ParticleCount(), "resolution", e.particleRes)
	return nil
}

// StartAnimation reads the current viewport from the host, switches to
// Animating and starts requesting one repaint per host frame. Calling it
// while already animating only refreshes the viewport bounds.
func (e *Engine) StartAnimation() {
	if e.closed {
		return
	}
	e.view = e.host.ViewportBounds()
	if e.state == Animating {
		return
	}
	e.state = Animating
	e.scheduleFrame()
	Logger().Info("vfield: animation started", "viewport", e.view)
}

// StopAnimation switches to Paused, cancels the pending frame request and
// clears the render targets, particle state and canvas so that resuming
// does not show a stale frame.
func (e *Engine) StopAnimation() error {
	if e.closed {
		return nil
	}
	wasAnimating := e.state == Animating
	e.state = Paused
	e.cancelFrame()
	if wasAnimating {
		Logger().Info("vfield: animation stopped")
	}
	return e.clear()
}

func (e *Engine) scheduleFrame() {
	if e.framePending {
		return
	}
	e.frame = e.host.RequestFrame(e.onFrame)
	e.framePending = true
}

func (e *Engine) cancelFrame() {
	if !e.framePending {
		return
	}
	e.host.CancelFrame(e.frame)
	e.framePending = false
}

// onFrame is the per-frame tick: trigger one host repaint, then ask for
// the next frame.
func (e *Engine) onFrame() {
	e.framePending = false
	if e.closed || e.state != Animating {
		return
	}
	e.host.RequestRedraw()
	e.scheduleFrame()
}

// clear empties both render targets, reseeds the particles and clears
// the canvas. No-op before the first SetData.
func (e *Engine) clear() error {
	f := e.field
	if f == nil {
		return nil
	}
	for _, id := range f.screens.slots {
		if err := e.ctx.BindFramebuffer(id); err != nil {
			return fmt.Errorf("vfield: clear: %w", err)
		}
		if err := e.ctx.Clear(gpucore.Color{}); err != nil {
			return fmt.Errorf("vfield: clear: %w", err)
		}
	}

	seed := seedParticles(e.rng, e.particleRes)
	for _, id := range f.particles.slots {
		if err := e.ctx.WriteTexture(id, seed); err != nil {
			return fmt.Errorf("vfield: reseed particles: %w", err)
		}
	}

	if err := e.ctx.BindFramebuffer(gpucore.InvalidID); err != nil {
		return fmt.Errorf("vfield: clear: %w", err)
	}
	if err := e.ctx.Clear(gpucore.Color{}); err != nil {
		return fmt.Errorf("vfield: clear: %w", err)
	}
	return nil
}

// Draw advances the simulation by one step and composites it onto the
// canvas. It does nothing unless the engine is Animating with a dataset.
//
// One step draws the faded background and the particles into the screen
// target, blends the screen onto the canvas, swaps background and screen,
// runs the particle update pass and swaps the particle state.
func (e *Engine) Draw() error {
	if e.closed || e.state != Animating || e.field == nil {
		return nil
	}
	f := e.field
	ds := &e.dataset
	cw, ch := e.targetSize()

	// Trails: fade the previous frame, then draw particles over it.
	if err := e.bind(f.screens.back(), f.width, f.height); err != nil {
		return err
	}
	if err := e.ctx.Draw(&gpucore.DrawCall{
		Label:       "vfield_fade",
		Program:     e.programs[progScreen],
		Uniforms:    screenUniforms(e.cfg.Simulation.FadeOpacity),
		Textures:    []gpucore.TextureID{f.screens.front()},
		VertexCount: fullscreenVertices,
		Blend:       gpucore.BlendReplace,
	}); err != nil {
		return fmt.Errorf("vfield: draw background: %w", err)
	}
	if err := e.ctx.Draw(&gpucore.DrawCall{
		Label:       "vfield_particles",
		Program:     e.programs[progDraw],
		Uniforms:    drawUniforms(ds, f.width, f.height, e.cfg.Particles.PointSize, e.particleRes, e.view),
		Textures:    []gpucore.TextureID{f.particles.front(), f.wind, e.rampTexture},
		VertexCount: e.ParticleCount() * quadVertices,
		Blend:       gpucore.BlendReplace,
	}); err != nil {
		return fmt.Errorf("vfield: draw particles: %w", err)
	}

	// Composite onto the canvas.
	if err := e.bind(gpucore.InvalidID, cw, ch); err != nil {
		return err
	}
	if err := e.ctx.Draw(&gpucore.DrawCall{
		Label:       "vfield_composite",
		Program:     e.programs[progScreen],
		Uniforms:    screenUniforms(1),
		Textures:    []gpucore.TextureID{f.screens.back()},
		VertexCount: fullscreenVertices,
		Blend:       gpucore.BlendAlpha,
	}); err != nil {
		return fmt.Errorf("vfield: draw screen: %w", err)
	}
	f.screens.swap()

	// Advance particles into the back state texture.
	if err := e.bind(f.particles.back(), e.particleRes, e.particleRes); err != nil {
		return err
	}
	if err := e.ctx.Draw(&gpucore.DrawCall{
		Label:       "vfield_update",
		Program:     e.programs[progUpdate],
		Uniforms:    updateUniforms(ds, e.view, e.rng.Float64(), e.cfg.Simulation),
		Textures:    []gpucore.TextureID{f.particles.front(), f.wind},
		VertexCount: fullscreenVertices,
		Blend:       gpucore.BlendReplace,
	}); err != nil {
		return fmt.Errorf("vfield: update particles: %w", err)
	}
	f.particles.swap()
	return nil
}

func (e *Engine) bind(target gpucore.TextureID, w, h int) error {
	if err := e.ctx.BindFramebuffer(target); err != nil {
		return fmt.Errorf("vfield: bind framebuffer: %w", err)
	}
	e.ctx.Viewport(gpucore.Viewport{Width: w, Height: h})
	return nil
}

// Resize reallocates the background and screen targets to the host's
// current canvas size. Before the first SetData it does nothing; on
// failure the previous targets stay in place.
func (e *Engine) Resize() error {
	if e.closed {
		return ErrClosed
	}
	f := e.field
	if f == nil {
		return nil
	}
	w, h := e.targetSize()
	if w == f.width && h == f.height {
		return nil
	}

	next, err := e.newTargets(w, h)
	if err != nil {
		e.releasePair(next)
		return fmt.Errorf("vfield: resize: %w", err)
	}
	e.releasePair(f.screens)
	f.screens = next
	f.width, f.height = w, h

	Logger().Debug("vfield: render targets resized", "width", w, "height", h)
	return nil
}

// Close releases every GPU resource held by the engine and cancels its
// frame request. Close is idempotent.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.state = Paused
	e.cancelFrame()
	e.releaseField(e.field)
	e.field = nil
	e.releasePrograms()
	e.closed = true
	untrackEngine(e)
}

// State returns the animation state.
func (e *Engine) State() State { return e.state }

// ParticleCount returns the number of simulated particles, the full
// ParticleResolution² texels of the state texture.
func (e *Engine) ParticleCount() int { return e.particleRes * e.particleRes }

// ParticleResolution returns the side of the particle state texture.
func (e *Engine) ParticleResolution() int { return e.particleRes }

// ViewportBounds returns the bounds read at the last StartAnimation.
func (e *Engine) ViewportBounds() Bounds { return e.view }

// Dataset returns the current dataset, if any.
func (e *Engine) Dataset() (Dataset, bool) {
	return e.dataset, e.field != nil
}

// VelocityAt decodes the current dataset's velocity under a geographic
// point, for point queries.
func (e *Engine) VelocityAt(lng, lat float64) (Velocity, bool) {
	if e.field == nil {
		return Velocity{}, false
	}
	return e.dataset.VelocityAt(lng, lat)
}

// ColorRamp returns the engine's speed color ramp.
func (e *Engine) ColorRamp() *ColorRamp { return e.ramp }
