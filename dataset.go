package vfield

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"math"

	// Raster formats accepted by DecodeRaster.
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Dataset is one raster-encoded vector field: R and G hold u and v, B
// flags valid (non-zero) pixels. Bounds are geographic degrees in the
// order [west, north, east, south].
type Dataset struct {
	Image  *image.RGBA
	Bounds Bounds
	URange Range
	VRange Range
}

// NewDataset converts img to a tightly packed RGBA raster and attaches the
// metadata's bounds and component ranges.
func NewDataset(img image.Image, meta Metadata) (Dataset, error) {
	if img == nil {
		return Dataset{}, fmt.Errorf("%w: nil image", ErrInvalidDataset)
	}
	ds := Dataset{
		Image:  toPackedRGBA(img),
		Bounds: meta.Bounds(),
		URange: meta.URange,
		VRange: meta.VRange,
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// Validate reports whether the dataset can be uploaded. It checks the
// raster is non-empty, tightly packed 4-channel data, and that bounds and
// ranges are finite. Bounds must have non-zero extent with west < east and
// south < north.
func (d Dataset) Validate() error {
	img := d.Image
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidDataset)
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: zero raster dimensions %dx%d", ErrInvalidDataset, w, h)
	}
	if img.Stride != w*4 {
		return fmt.Errorf("%w: row stride %d, want %d (4 channels x %d)", ErrInvalidDataset, img.Stride, w*4, w)
	}
	if len(img.Pix) < w*h*4 {
		return fmt.Errorf("%w: pixel buffer is %d bytes, want %d", ErrInvalidDataset, len(img.Pix), w*h*4)
	}
	for _, v := range d.Bounds {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bounds %v", ErrInvalidDataset, d.Bounds)
		}
	}
	if d.Bounds.Degenerate() {
		return fmt.Errorf("%w: degenerate bounds %v", ErrInvalidDataset, d.Bounds)
	}
	if d.Bounds.MinX() > d.Bounds.MaxX() || d.Bounds.MinY() > d.Bounds.MaxY() {
		return fmt.Errorf("%w: inverted bounds %v", ErrInvalidDataset, d.Bounds)
	}
	for _, v := range [...]float64{d.URange[0], d.URange[1], d.VRange[0], d.VRange[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite component range", ErrInvalidDataset)
		}
	}
	return nil
}

// Width returns the raster width in pixels.
func (d Dataset) Width() int { return d.Image.Rect.Dx() }

// Height returns the raster height in pixels.
func (d Dataset) Height() int { return d.Image.Rect.Dy() }

// pixels returns the packed RGBA8 texels of the raster.
func (d Dataset) pixels() []byte {
	return d.Image.Pix[:d.Width()*d.Height()*4]
}

// VelocityAt decodes the velocity under a geographic point.
// Points outside the raster are clamped to its edge.
func (d Dataset) VelocityAt(lng, lat float64) (Velocity, bool) {
	if d.Image == nil {
		return Velocity{}, false
	}
	w, h := d.Width(), d.Height()
	x, y := ProjectGeoToRasterPixel(lng, lat, d.Bounds, w, h)
	return SampleVelocity(x, y, d.pixels(), w, d.URange, d.VRange)
}

// toPackedRGBA returns img as an *image.RGBA whose Pix starts at the top-left
// texel with stride 4*width. Already packed images are returned as is.
func toPackedRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == 4*b.Dx() && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// DecodeRaster decodes a PNG or WebP vector-field raster.
func DecodeRaster(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: decode raster: %v", ErrInvalidDataset, err)
	}
	Logger().Debug("vfield: raster decoded", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

// Metadata describes a raster's geographic extent and component ranges,
// as published alongside each dataset image.
type Metadata struct {
	LonRange [2]float64 `json:"lonRange"`
	LatRange [2]float64 `json:"latRange"`
	URange   Range      `json:"uRange"`
	VRange   Range      `json:"vRange"`
}

// ParseMetadata decodes dataset metadata JSON.
func ParseMetadata(data []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return m, nil
}

// ReadMetadata decodes dataset metadata JSON from r.
func ReadMetadata(r io.Reader) (Metadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("vfield: read metadata: %w", err)
	}
	return ParseMetadata(data)
}

// Bounds returns the raster box as [lon0, lat1, lon1, lat0].
func (m Metadata) Bounds() Bounds {
	return Bounds{m.LonRange[0], m.LatRange[1], m.LonRange[1], m.LatRange[0]}
}

// MaxBounds returns the southwest and northeast corners, suitable for
// constraining a host map's camera.
func (m Metadata) MaxBounds() [2][2]float64 {
	return [2][2]float64{
		{m.LonRange[0], m.LatRange[0]},
		{m.LonRange[1], m.LatRange[1]},
	}
}
