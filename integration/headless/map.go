// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

package headless

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"slices"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/oceanmap/vfield"
	"github.com/oceanmap/vfield/gpucore"
)

// Common errors returned by Map operations.
var (
	// ErrMapClosed is returned when operations are attempted on a closed map.
	ErrMapClosed = errors.New("headless: map is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("headless: invalid dimensions")

	// ErrNilContext is returned when a nil gpucore.Context is passed.
	ErrNilContext = errors.New("headless: nil graphics context")
)

// canvasResizer is implemented by contexts with an offscreen canvas, such
// as native.Context.
type canvasResizer interface {
	ResizeCanvas(w, h int) error
}

// Option configures a Map.
type Option func(*Map)

// WithScaleFactor sets the DPI scale factor. The canvas is sized in
// physical pixels, logical size times scale.
func WithScaleFactor(sf float64) Option {
	return func(m *Map) { m.window.SF = sf }
}

// WithView sets the initial visible area in degrees.
func WithView(west, north, east, south float64) Option {
	return func(m *Map) { m.bounds = vfield.MercatorBounds(west, north, east, south) }
}

type frameRequest struct {
	id vfield.FrameID
	fn func()
}

// Stats summarizes a Run.
type Stats struct {
	Frames   int
	Renders  int
	Elapsed  time.Duration
	Canceled bool
}

// FPS returns rendered frames per second.
func (s Stats) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Renders) / s.Elapsed.Seconds()
}

// Map is a windowless vfield.HostView.
//
// Map is NOT safe for concurrent use.
type Map struct {
	window   gpucontext.NullWindowProvider
	ctx      gpucore.Context
	bounds   vfield.Bounds
	nextID   vfield.FrameID
	pending  []frameRequest
	handlers map[vfield.EventType][]func(vfield.Event)
	layers   []*vfield.Layer
	redraw   bool
	renders  int
	closed   bool
}

var _ vfield.HostView = (*Map)(nil)

// New creates a Map of width x height logical points rendering through
// ctx. The initial view covers the whole Web Mercator world.
func New(ctx gpucore.Context, width, height int, opts ...Option) (*Map, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	m := &Map{
		window:   gpucontext.NullWindowProvider{W: width, H: height},
		ctx:      ctx,
		bounds:   vfield.MercatorBounds(-180, 85.0511, 180, -85.0511),
		handlers: make(map[vfield.EventType][]func(vfield.Event)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Size returns the map size in logical points.
func (m *Map) Size() (int, int) { return m.window.Size() }

// ScaleFactor returns the DPI scale factor.
func (m *Map) ScaleFactor() float64 { return m.window.ScaleFactor() }

// RequestRedraw marks the map for repaint on the next Frame.
func (m *Map) RequestRedraw() { m.redraw = true }

// ViewportBounds returns the visible area in normalized Web Mercator units.
func (m *Map) ViewportBounds() vfield.Bounds { return m.bounds }

// RequestFrame queues fn to run at the start of the next Frame.
func (m *Map) RequestFrame(fn func()) vfield.FrameID {
	m.nextID++
	m.pending = append(m.pending, frameRequest{id: m.nextID, fn: fn})
	return m.nextID
}

// CancelFrame removes a queued request.
func (m *Map) CancelFrame(id vfield.FrameID) {
	m.pending = slices.DeleteFunc(m.pending, func(r frameRequest) bool { return r.id == id })
}

// On registers fn for events of type t.
func (m *Map) On(t vfield.EventType, fn func(vfield.Event)) {
	m.handlers[t] = append(m.handlers[t], fn)
}

// PendingFrames returns the number of queued frame requests.
func (m *Map) PendingFrames() int { return len(m.pending) }

func (m *Map) emit(ev vfield.Event) {
	for _, fn := range m.handlers[ev.Type] {
		fn(ev)
	}
}

// AddLayer binds l to the map.
func (m *Map) AddLayer(l *vfield.Layer) error {
	if m.closed {
		return ErrMapClosed
	}
	if err := l.OnAdd(m, m.ctx); err != nil {
		return fmt.Errorf("headless: add layer %s: %w", l.ID(), err)
	}
	m.layers = append(m.layers, l)
	return nil
}

// LoadSource delivers a loaded raster for the given source.
func (m *Map) LoadSource(sourceID string, img image.Image) {
	m.emit(vfield.Event{Type: vfield.EventSourceData, SourceID: sourceID, Loaded: true, Image: img})
}

// MoveTo pans and zooms to a new view, emitting movestart and moveend
// around the change the way an interactive camera would.
func (m *Map) MoveTo(west, north, east, south float64) {
	m.emit(vfield.Event{Type: vfield.EventMoveStart})
	m.bounds = vfield.MercatorBounds(west, north, east, south)
	m.emit(vfield.Event{Type: vfield.EventMoveEnd})
}

// Resize changes the map size in logical points, resizing the context's
// canvas when it has one, and emits a resize event.
func (m *Map) Resize(width, height int) error {
	if m.closed {
		return ErrMapClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if width == m.window.W && height == m.window.H {
		return nil
	}
	m.window.W, m.window.H = width, height
	if r, ok := m.ctx.(canvasResizer); ok {
		pw, ph := m.physicalSize()
		if err := r.ResizeCanvas(pw, ph); err != nil {
			return fmt.Errorf("headless: resize canvas: %w", err)
		}
	}
	vfield.Logger().Debug("headless: resized", "width", width, "height", height)
	m.emit(vfield.Event{Type: vfield.EventResize})
	return nil
}

func (m *Map) physicalSize() (int, int) {
	sf := m.window.ScaleFactor()
	return int(math.Round(float64(m.window.W) * sf)), int(math.Round(float64(m.window.H) * sf))
}

// Frame runs one host frame: queued frame callbacks first, then, if any
// of them requested a redraw, a canvas clear and one Render per layer.
// It reports whether the frame rendered.
func (m *Map) Frame() (bool, error) {
	if m.closed {
		return false, ErrMapClosed
	}

	queued := m.pending
	m.pending = nil
	for _, r := range queued {
		r.fn()
	}

	if !m.redraw {
		return false, nil
	}
	m.redraw = false

	if err := m.ctx.BindFramebuffer(gpucore.InvalidID); err != nil {
		return false, fmt.Errorf("headless: bind canvas: %w", err)
	}
	if err := m.ctx.Clear(gpucore.Color{}); err != nil {
		return false, fmt.Errorf("headless: clear canvas: %w", err)
	}
	for _, l := range m.layers {
		if err := l.Render(); err != nil {
			return false, fmt.Errorf("headless: render %s: %w", l.ID(), err)
		}
	}
	m.renders++
	return true, nil
}

// Run drives up to frames frames, stopping early when ctx is done.
// frames <= 0 runs until ctx is done.
func (m *Map) Run(ctx context.Context, frames int) (Stats, error) {
	start := time.Now()
	var s Stats
	for frames <= 0 || s.Frames < frames {
		select {
		case <-ctx.Done():
			s.Canceled = true
			s.Elapsed = time.Since(start)
			vfield.Logger().Info("headless: run canceled", "frames", s.Frames, "renders", s.Renders)
			return s, nil
		default:
		}
		rendered, err := m.Frame()
		if err != nil {
			s.Elapsed = time.Since(start)
			return s, err
		}
		s.Frames++
		if rendered {
			s.Renders++
		}
	}
	s.Elapsed = time.Since(start)
	vfield.Logger().Debug("headless: run finished", "frames", s.Frames, "renders", s.Renders, "elapsed", s.Elapsed)
	return s, nil
}

// Renders returns the number of frames that rendered so far.
func (m *Map) Renders() int { return m.renders }

// Layers returns the bound layers.
func (m *Map) Layers() []*vfield.Layer { return slices.Clone(m.layers) }

// Close releases every layer's engine. The graphics context is left open.
func (m *Map) Close() {
	if m.closed {
		return
	}
	m.closed = true
	for _, l := range m.layers {
		if e := l.Engine(); e != nil {
			e.Close()
		}
	}
	m.pending = nil
}
