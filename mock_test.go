package vfield

import (
	"errors"
	"image"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/gogpu/gpucontext"
	"github.com/oceanmap/vfield/gpucore"
)

var errInjected = errors.New("injected failure")

// drawRecord is one Draw issued to a recordingContext.
type drawRecord struct {
	label       string
	target      gpucore.TextureID
	viewport    gpucore.Viewport
	textures    []gpucore.TextureID
	vertexCount int
	blend       gpucore.BlendMode
	uniforms    []byte
}

// recordingContext is an in-memory gpucore.Context that records calls and
// validates them the way a real backend would.
type recordingContext struct {
	nextID   uint64
	programs map[gpucore.ProgramID]gpucore.ProgramDesc
	textures map[gpucore.TextureID]gpucore.TextureDesc

	bound    gpucore.TextureID
	viewport gpucore.Viewport

	draws    []drawRecord
	clears   []gpucore.TextureID
	writes   []gpucore.TextureID
	created  int
	logger   *slog.Logger
	failNext int // fail the failNext-th next CreateTexture; 0 disables

	failProgram string
}

func newRecordingContext() *recordingContext {
	return &recordingContext{
		programs: make(map[gpucore.ProgramID]gpucore.ProgramDesc),
		textures: make(map[gpucore.TextureID]gpucore.TextureDesc),
	}
}

func (c *recordingContext) id() uint64 {
	c.nextID++
	return c.nextID
}

func (c *recordingContext) SetLogger(l *slog.Logger) { c.logger = l }

func (c *recordingContext) CreateProgram(desc *gpucore.ProgramDesc) (gpucore.ProgramID, error) {
	if err := gpucore.ValidateProgram(desc); err != nil {
		return gpucore.InvalidID, err
	}
	if desc.Label == c.failProgram {
		return gpucore.InvalidID, errInjected
	}
	id := gpucore.ProgramID(c.id())
	c.programs[id] = *desc
	return id, nil
}

func (c *recordingContext) DestroyProgram(id gpucore.ProgramID) {
	delete(c.programs, id)
}

func (c *recordingContext) CreateTexture(desc *gpucore.TextureDesc) (gpucore.TextureID, error) {
	if err := gpucore.ValidateTexture(desc); err != nil {
		return gpucore.InvalidID, err
	}
	if c.failNext > 0 {
		c.failNext--
		if c.failNext == 0 {
			return gpucore.InvalidID, errInjected
		}
	}
	id := gpucore.TextureID(c.id())
	d := *desc
	d.Data = nil
	c.textures[id] = d
	c.created++
	return id, nil
}

func (c *recordingContext) WriteTexture(id gpucore.TextureID, data []byte) error {
	d, ok := c.textures[id]
	if !ok {
		return errors.New("unknown texture")
	}
	if len(data) != d.Width*d.Height*gpucore.BytesPerPixel {
		return errors.New("size mismatch")
	}
	c.writes = append(c.writes, id)
	return nil
}

func (c *recordingContext) DestroyTexture(id gpucore.TextureID) {
	delete(c.textures, id)
}

func (c *recordingContext) BindFramebuffer(target gpucore.TextureID) error {
	if target != gpucore.InvalidID {
		if _, ok := c.textures[target]; !ok {
			return errors.New("unknown framebuffer target")
		}
	}
	c.bound = target
	return nil
}

func (c *recordingContext) Viewport(v gpucore.Viewport) { c.viewport = v }

func (c *recordingContext) Clear(gpucore.Color) error {
	c.clears = append(c.clears, c.bound)
	return nil
}

func (c *recordingContext) Draw(call *gpucore.DrawCall) error {
	prog, ok := c.programs[call.Program]
	if !ok {
		return errors.New("unknown program")
	}
	if err := gpucore.ValidateDraw(call, &prog); err != nil {
		return err
	}
	for _, t := range call.Textures {
		if _, ok := c.textures[t]; !ok {
			return errors.New("unknown texture bound")
		}
		if t == c.bound {
			return errors.New("texture bound as both source and target")
		}
	}
	c.draws = append(c.draws, drawRecord{
		label:       call.Label,
		target:      c.bound,
		viewport:    c.viewport,
		textures:    append([]gpucore.TextureID(nil), call.Textures...),
		vertexCount: call.VertexCount,
		blend:       call.Blend,
		uniforms:    append([]byte(nil), call.Uniforms...),
	})
	return nil
}

// liveTextures returns the IDs of all live textures, sorted.
func (c *recordingContext) liveTextures() []gpucore.TextureID {
	ids := make([]gpucore.TextureID, 0, len(c.textures))
	for id := range c.textures {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// texturesLabeled returns the live textures with the given label.
func (c *recordingContext) texturesLabeled(label string) []gpucore.TextureDesc {
	var out []gpucore.TextureDesc
	for _, id := range c.liveTextures() {
		if d := c.textures[id]; d.Label == label {
			out = append(out, d)
		}
	}
	return out
}

// fakeHost is a HostView with a manual frame scheduler.
type fakeHost struct {
	gpucontext.NullWindowProvider

	redraws   int
	view      Bounds
	nextFrame FrameID
	pending   map[FrameID]func()
	cancels   int
	handlers  map[EventType][]func(Event)
}

func newFakeHost(w, h int) *fakeHost {
	return &fakeHost{
		NullWindowProvider: gpucontext.NullWindowProvider{W: w, H: h},
		view:               MercatorBounds(-180, 80, 180, -80),
		pending:            make(map[FrameID]func()),
		handlers:           make(map[EventType][]func(Event)),
	}
}

func (h *fakeHost) RequestRedraw() { h.redraws++ }

func (h *fakeHost) ViewportBounds() Bounds { return h.view }

func (h *fakeHost) RequestFrame(fn func()) FrameID {
	h.nextFrame++
	h.pending[h.nextFrame] = fn
	return h.nextFrame
}

func (h *fakeHost) CancelFrame(id FrameID) {
	if _, ok := h.pending[id]; ok {
		h.cancels++
	}
	delete(h.pending, id)
}

func (h *fakeHost) On(t EventType, fn func(Event)) {
	h.handlers[t] = append(h.handlers[t], fn)
}

// tick runs the callbacks pending at the start of the frame.
func (h *fakeHost) tick() {
	due := h.pending
	h.pending = make(map[FrameID]func())
	for _, fn := range due {
		fn()
	}
}

func (h *fakeHost) emit(ev Event) {
	for _, fn := range h.handlers[ev.Type] {
		fn(ev)
	}
}

// testMetadata covers the globe between 80°S and 80°N with currents in
// [-1, 1] m/s.
func testMetadata() Metadata {
	return Metadata{
		LonRange: [2]float64{-180, 180},
		LatRange: [2]float64{-80, 80},
		URange:   Range{-1, 1},
		VRange:   Range{-1, 1},
	}
}

// testImage returns a w x h raster whose pixels are all valid, with u and
// v bytes varying across the image.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			i := img.PixOffset(x, y)
			img.Pix[i+0] = uint8(x * 255 / max(w-1, 1))
			img.Pix[i+1] = uint8(y * 255 / max(h-1, 1))
			img.Pix[i+2] = 255
			img.Pix[i+3] = 255
		}
	}
	return img
}

func testDataset(w, h int) Dataset {
	m := testMetadata()
	return Dataset{Image: testImage(w, h), Bounds: m.Bounds(), URange: m.URange, VRange: m.VRange}
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}
