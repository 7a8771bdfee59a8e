package vfield

import (
	"image"
	"math"

	"github.com/gogpu/gpucontext"
)

// FrameID identifies a pending frame request.
type FrameID uint64

// EventType enumerates the host events a Layer subscribes to.
type EventType uint8

// Host events.
const (
	// EventSourceData fires when a data source changes. Event.SourceID
	// names the source; Event.Loaded reports whether it finished loading
	// and Event.Image carries the decoded raster.
	EventSourceData EventType = iota

	// EventMoveStart fires when the camera starts moving.
	EventMoveStart

	// EventMoveEnd fires when the camera stops moving.
	EventMoveEnd

	// EventResize fires after the canvas changed size.
	EventResize
)

// String returns the host-side event name.
func (t EventType) String() string {
	switch t {
	case EventSourceData:
		return "sourcedata"
	case EventMoveStart:
		return "movestart"
	case EventMoveEnd:
		return "moveend"
	case EventResize:
		return "resize"
	default:
		return "unknown"
	}
}

// Event is delivered to handlers registered with HostView.On.
type Event struct {
	Type     EventType
	SourceID string
	Loaded   bool
	Image    image.Image
}

// HostView is the map view the engine is embedded in.
//
// The embedded WindowProvider reports the canvas size in logical points
// and its scale factor; RequestRedraw is the host's repaint trigger, after
// which the host calls Layer.Render (and so Engine.Draw) once.
type HostView interface {
	gpucontext.WindowProvider

	// ViewportBounds returns the visible area in normalized Web Mercator
	// units as [west, south, east, north]. See MercatorBounds.
	ViewportBounds() Bounds

	// RequestFrame schedules fn to run once before the next frame.
	RequestFrame(fn func()) FrameID

	// CancelFrame cancels a pending request. Unknown IDs are ignored.
	CancelFrame(id FrameID)

	// On registers fn for events of type t.
	On(t EventType, fn func(Event))
}

// canvasSize returns the host canvas size in physical pixels.
func canvasSize(h HostView) (int, int) {
	w, ht := h.Size()
	s := h.ScaleFactor()
	if s <= 0 {
		s = 1
	}
	return int(math.Round(float64(w) * s)), int(math.Round(float64(ht) * s))
}

// MercatorX converts a longitude to normalized Web Mercator x in [0, 1].
func MercatorX(lng float64) float64 {
	return (180 + lng) / 360
}

// MercatorY converts a latitude to normalized Web Mercator y; 0 is the
// northern edge of the projection and 1 the southern.
func MercatorY(lat float64) float64 {
	return (180 - (180 / math.Pi * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)))) / 360
}

// MercatorBounds converts a geographic box to viewport Bounds in Web
// Mercator units, as HostView.ViewportBounds reports them.
func MercatorBounds(west, north, east, south float64) Bounds {
	return Bounds{MercatorX(west), MercatorY(south), MercatorX(east), MercatorY(north)}
}
