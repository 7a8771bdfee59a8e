package vfield

import (
	"fmt"
	"math"
	"sort"
)

// Ramp geometry. The ramp holds rampSize colors and is uploaded as a
// rampSide x rampSide texture; the particle shader addresses it as
// (fract(16*t), floor(16*t)/16).
const (
	rampSize = 256
	rampSide = 16
)

// ColorStop defines a color at a normalized speed in the ramp.
type ColorStop struct {
	Offset float64 // Normalized speed in [0, 1]
	Color  RGBA
}

// ColorRamp is an immutable 1D gradient mapping normalized speed to color.
type ColorRamp struct {
	stops  []ColorStop
	pixels []byte
}

// NewColorRamp builds a ramp from stops. Stops must be non-empty, lie in
// [0, 1], and be given in ascending offset order.
func NewColorRamp(stops []ColorStop) (*ColorRamp, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: no color stops", ErrInvalidRamp)
	}
	for i, s := range stops {
		if math.IsNaN(s.Offset) || s.Offset < 0 || s.Offset > 1 {
			return nil, fmt.Errorf("%w: stop %d offset %v outside [0, 1]", ErrInvalidRamp, i, s.Offset)
		}
		if i > 0 && s.Offset < stops[i-1].Offset {
			return nil, fmt.Errorf("%w: stop %d offset %v is below previous offset %v",
				ErrInvalidRamp, i, s.Offset, stops[i-1].Offset)
		}
	}

	r := &ColorRamp{stops: append([]ColorStop(nil), stops...)}
	r.pixels = make([]byte, rampSize*4)
	for i := range rampSize {
		// Sample at pixel centers, as a 256px wide canvas gradient does.
		c := r.ColorAt((float64(i) + 0.5) / rampSize).NRGBA()
		r.pixels[i*4+0] = c.R
		r.pixels[i*4+1] = c.G
		r.pixels[i*4+2] = c.B
		r.pixels[i*4+3] = c.A
	}
	return r, nil
}

// Stops returns a copy of the ramp's color stops.
func (r *ColorRamp) Stops() []ColorStop {
	return append([]ColorStop(nil), r.stops...)
}

// ColorAt returns the interpolated color at normalized speed t.
// Values outside [0, 1] take the color of the nearest end stop.
func (r *ColorRamp) ColorAt(t float64) RGBA {
	stops := r.stops
	if len(stops) == 1 {
		return stops[0].Color
	}

	idx := sort.Search(len(stops), func(i int) bool {
		return stops[i].Offset >= t
	})
	if idx == 0 {
		return stops[0].Color
	}
	if idx >= len(stops) {
		return stops[len(stops)-1].Color
	}

	lo, hi := stops[idx-1], stops[idx]
	span := hi.Offset - lo.Offset
	if span <= 0 {
		return hi.Color
	}
	return lo.Color.Lerp(hi.Color, (t-lo.Offset)/span)
}

// Pixels returns a copy of the ramp as rampSize tightly packed RGBA8 texels.
func (r *ColorRamp) Pixels() []byte {
	return append([]byte(nil), r.pixels...)
}
