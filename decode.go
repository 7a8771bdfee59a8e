package vfield

import "math"

// Bounds is a box in the order [minX, maxY, maxX, minY]: west, north, east,
// south for geographic datasets in degrees. Viewport bounds use normalized
// Web Mercator units where y grows southward, so there index 1 holds the
// southern edge and index 3 the northern one.
type Bounds [4]float64

// MinX returns the western edge.
func (b Bounds) MinX() float64 { return b[0] }

// MaxY returns the northern edge.
func (b Bounds) MaxY() float64 { return b[1] }

// MaxX returns the eastern edge.
func (b Bounds) MaxX() float64 { return b[2] }

// MinY returns the southern edge.
func (b Bounds) MinY() float64 { return b[3] }

// Degenerate reports whether the box has zero width or height.
func (b Bounds) Degenerate() bool {
	return b[2] == b[0] || b[1] == b[3]
}

// Range is the [min, max] physical range of one encoded component.
type Range [2]float64

// Min returns the value encoded by byte 0.
func (r Range) Min() float64 { return r[0] }

// Max returns the value encoded by byte 255.
func (r Range) Max() float64 { return r[1] }

// Velocity is a decoded (u, v) vector in physical units.
type Velocity struct {
	U, V float64
}

// Compass is one of the eight compass sectors.
type Compass uint8

// Compass sectors in counter-clockwise order starting from East, matching
// the mathematical angle convention.
const (
	East Compass = iota
	NorthEast
	North
	NorthWest
	West
	SouthWest
	South
	SouthEast
)

var compassNames = [...]string{"E", "NE", "N", "NW", "W", "SW", "S", "SE"}

// String returns the abbreviated sector name ("E", "NE", ...).
func (c Compass) String() string {
	if int(c) < len(compassNames) {
		return compassNames[c]
	}
	return "?"
}

// Polar is a velocity in human-readable form.
type Polar struct {
	Speed     float64 // magnitude, in the dataset's units
	Degree    float64 // [0, 360), 0 = East, counter-clockwise positive
	Direction Compass // nearest of the eight sectors
}

// ProjectGeoToRasterPixel maps a geographic point to the floored pixel
// coordinates of a width x height raster covering bounds.
// The result may lie outside the raster; degenerate bounds yield (0, 0).
func ProjectGeoToRasterPixel(lng, lat float64, b Bounds, width, height int) (x, y int) {
	if b.Degenerate() {
		return 0, 0
	}
	fx := (lng - b.MinX()) / (b.MaxX() - b.MinX()) * float64(width)
	fy := (b.MaxY() - lat) / (b.MaxY() - b.MinY()) * float64(height)
	return floorInt(fx), floorInt(fy)
}

// floorInt floors f, mapping NaN to 0 and saturating at the int32 range.
func floorInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt32:
		return math.MaxInt32
	case f < math.MinInt32:
		return math.MinInt32
	}
	return int(math.Floor(f))
}

// DecodeChannel maps an 8-bit channel value linearly onto r:
// 0 decodes to r.Min() and 255 to r.Max().
func DecodeChannel(b uint8, r Range) float64 {
	return float64(b)/255*(r.Max()-r.Min()) + r.Min()
}

// SampleVelocity decodes the velocity stored at pixel (x, y) of a tightly
// packed RGBA8 buffer. R carries u, G carries v and B flags validity: a
// zero B (land or no data) yields ok == false. Coordinates outside the
// buffer are clamped to its edge.
func SampleVelocity(x, y int, pix []uint8, width int, u, v Range) (vel Velocity, ok bool) {
	if width <= 0 {
		return Velocity{}, false
	}
	height := len(pix) / (width * 4)
	if height == 0 {
		return Velocity{}, false
	}
	x = clampInt(x, 0, width-1)
	y = clampInt(y, 0, height-1)

	idx := (y*width + x) * 4
	if pix[idx+2] == 0 {
		return Velocity{}, false
	}
	return Velocity{
		U: DecodeChannel(pix[idx], u),
		V: DecodeChannel(pix[idx+1], v),
	}, true
}

// ToPolarReadable converts a (u, v) vector to speed, angle and compass
// sector. The angle follows the mathematical convention: 0° is East and
// angles grow counter-clockwise.
func ToPolarReadable(u, v float64) Polar {
	deg := math.Atan2(v, u) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	sector := int(math.Round(deg/45)) % len(compassNames)
	return Polar{
		Speed:     math.Hypot(u, v),
		Degree:    deg,
		Direction: Compass(sector),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
