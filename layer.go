package vfield

import (
	"image"

	"github.com/oceanmap/vfield/gpucore"
)

// LayerOption configures a Layer.
type LayerOption func(*Layer)

// WithEngineOptions passes options to the Engine the layer creates in OnAdd.
func WithEngineOptions(opts ...EngineOption) LayerOption {
	return func(l *Layer) {
		l.engineOpts = append(l.engineOpts, opts...)
	}
}

// WithVisible sets the initial visibility. Layers are visible by default.
func WithVisible(visible bool) LayerOption {
	return func(l *Layer) {
		l.visible = visible
	}
}

// Layer adapts an Engine to a host map's custom layer contract.
//
// A Layer is unbound until OnAdd creates its Engine; from then on the host
// drives it through Render and the events it subscribed to, and the
// caller through SetVisible, SetMetadata and SetData.
type Layer struct {
	id         string
	sourceID   string
	visible    bool
	meta       Metadata
	engineOpts []EngineOption

	host   HostView
	engine *Engine
}

// NewLayer creates an unbound layer that renders the dataset published by
// the host source sourceID.
func NewLayer(id, sourceID string, opts ...LayerOption) *Layer {
	l := &Layer{
		id:       id,
		sourceID: sourceID,
		visible:  true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ID returns the layer id.
func (l *Layer) ID() string { return l.id }

// SourceID returns the host source the layer listens to.
func (l *Layer) SourceID() string { return l.sourceID }

// OnAdd creates the layer's Engine on ctx and subscribes to the host's
// source data, camera and resize events. It fails with ErrLayerBound if
// the layer was already added.
func (l *Layer) OnAdd(host HostView, ctx gpucore.Context) error {
	if l.engine != nil {
		return ErrLayerBound
	}
	if host == nil {
		return ErrNilHost
	}
	e, err := NewEngine(ctx, host, l.engineOpts...)
	if err != nil {
		return err
	}
	l.host = host
	l.engine = e

	host.On(EventSourceData, l.handleSourceData)
	host.On(EventMoveStart, l.handleMoveStart)
	host.On(EventMoveEnd, l.handleMoveEnd)
	host.On(EventResize, l.handleResize)

	Logger().Debug("vfield: layer added", "layer", l.id, "source", l.sourceID)
	return nil
}

// Render draws one frame. It is called by the host on every repaint.
func (l *Layer) Render() error {
	if l.engine == nil {
		return nil
	}
	return l.engine.Draw()
}

// SetVisible starts or stops the animation. Hiding clears the render
// targets so that showing the layer again does not flash a stale frame.
func (l *Layer) SetVisible(visible bool) error {
	l.visible = visible
	if l.engine == nil {
		return nil
	}
	if visible {
		l.engine.StartAnimation()
		return nil
	}
	return l.engine.StopAnimation()
}

// Visible reports whether the layer is visible.
func (l *Layer) Visible() bool { return l.visible }

// SetMetadata sets the bounds and component ranges applied to the next
// dataset. Call it before the dataset arrives.
func (l *Layer) SetMetadata(m Metadata) { l.meta = m }

// Metadata returns the cached metadata.
func (l *Layer) Metadata() Metadata { return l.meta }

// SetData uploads img with the cached metadata and, when the layer is
// visible, starts the animation.
func (l *Layer) SetData(img image.Image) error {
	if l.engine == nil {
		return ErrLayerNotBound
	}
	ds, err := NewDataset(img, l.meta)
	if err != nil {
		return err
	}
	if err := l.engine.SetData(ds); err != nil {
		return err
	}
	if l.visible {
		l.engine.StartAnimation()
	}
	return nil
}

// Engine returns the layer's engine, or nil before OnAdd.
func (l *Layer) Engine() *Engine { return l.engine }

func (l *Layer) handleSourceData(ev Event) {
	if ev.SourceID != l.sourceID || !ev.Loaded || ev.Image == nil {
		return
	}
	if err := l.SetData(ev.Image); err != nil {
		Logger().Warn("vfield: dropping source data", "layer", l.id, "source", ev.SourceID, "err", err)
	}
}

func (l *Layer) handleMoveStart(Event) {
	if !l.visible {
		return
	}
	if err := l.engine.StopAnimation(); err != nil {
		Logger().Warn("vfield: stop on move failed", "layer", l.id, "err", err)
	}
}

func (l *Layer) handleMoveEnd(Event) {
	if l.visible {
		l.engine.StartAnimation()
	}
}

func (l *Layer) handleResize(Event) {
	if err := l.engine.Resize(); err != nil {
		Logger().Warn("vfield: resize failed", "layer", l.id, "err", err)
	}
}
