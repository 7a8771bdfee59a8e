package vfield

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
)

func TestNewDataset(t *testing.T) {
	src := testImage(8, 4)
	ds, err := NewDataset(src, testMetadata())
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}
	if ds.Image != src {
		t.Error("packed RGBA input should be used without copying")
	}
	if ds.Bounds != (Bounds{-180, 80, 180, -80}) {
		t.Errorf("Bounds = %v", ds.Bounds)
	}
	if ds.URange != (Range{-1, 1}) || ds.VRange != (Range{-1, 1}) {
		t.Errorf("ranges = %v %v", ds.URange, ds.VRange)
	}
}

func TestNewDatasetRepacks(t *testing.T) {
	src := testImage(8, 4)
	sub := src.SubImage(image.Rect(2, 1, 6, 3))

	ds, err := NewDataset(sub, testMetadata())
	if err != nil {
		t.Fatalf("NewDataset(subimage) error = %v", err)
	}
	if ds.Width() != 4 || ds.Height() != 2 || ds.Image.Stride != 16 {
		t.Fatalf("repacked %dx%d stride %d, want 4x2 stride 16", ds.Width(), ds.Height(), ds.Image.Stride)
	}
	want := src.RGBAAt(2, 1)
	if got := ds.Image.RGBAAt(0, 0); got != want {
		t.Errorf("repacked origin = %v, want %v", got, want)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	nrgba.SetNRGBA(1, 1, color.NRGBA{R: 200, G: 100, B: 255, A: 255})
	ds, err = NewDataset(nrgba, testMetadata())
	if err != nil {
		t.Fatalf("NewDataset(NRGBA) error = %v", err)
	}
	if got := ds.Image.RGBAAt(1, 1); got != (color.RGBA{200, 100, 255, 255}) {
		t.Errorf("converted pixel = %v", got)
	}
}

func TestDatasetValidate(t *testing.T) {
	bounds := testMetadata().Bounds()
	padded := testImage(4, 4)
	padded.Stride = 20
	short := testImage(4, 4)
	short.Pix = short.Pix[:40]

	tests := []struct {
		name string
		ds   Dataset
	}{
		{"nil image", Dataset{Bounds: bounds}},
		{"empty image", Dataset{Image: image.NewRGBA(image.Rect(0, 0, 0, 3)), Bounds: bounds}},
		{"padded stride", Dataset{Image: padded, Bounds: bounds}},
		{"short buffer", Dataset{Image: short, Bounds: bounds}},
		{"degenerate bounds", Dataset{Image: testImage(2, 2), Bounds: Bounds{1, 1, 1, 1}}},
		{"east before west", Dataset{Image: testImage(2, 2), Bounds: Bounds{40, 10, 0, -10}}},
		{"north below south", Dataset{Image: testImage(2, 2), Bounds: Bounds{0, -10, 40, 10}}},
		{"infinite bounds", Dataset{Image: testImage(2, 2), Bounds: Bounds{0, math.Inf(1), 1, 0}}},
		{"nan range", Dataset{Image: testImage(2, 2), Bounds: bounds, VRange: Range{0, math.NaN()}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ds.Validate(); !errors.Is(err, ErrInvalidDataset) {
				t.Errorf("Validate() = %v, want ErrInvalidDataset", err)
			}
		})
	}

	if err := testDataset(2, 2).Validate(); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}
}

func TestNewDatasetErrors(t *testing.T) {
	if _, err := NewDataset(nil, testMetadata()); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("NewDataset(nil) error = %v, want ErrInvalidDataset", err)
	}
	if _, err := NewDataset(testImage(2, 2), Metadata{}); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("NewDataset(zero metadata) error = %v, want ErrInvalidDataset", err)
	}
}

func TestDatasetVelocityAt(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(1, 0, color.RGBA{255, 0, 1, 255}) // north east: u max, v min
	img.SetRGBA(0, 1, color.RGBA{0, 255, 0, 255}) // south west: land
	ds := Dataset{Image: img, Bounds: Bounds{0, 10, 20, 0}, URange: Range{-2, 2}, VRange: Range{-3, 3}}

	v, ok := ds.VelocityAt(15, 8)
	if !ok || v != (Velocity{2, -3}) {
		t.Errorf("VelocityAt(15, 8) = %+v, %v; want {2 -3}, true", v, ok)
	}
	if _, ok := ds.VelocityAt(5, 2); ok {
		t.Error("VelocityAt(land) reported ok")
	}
	if v, ok := ds.VelocityAt(100, 50); !ok || v != (Velocity{2, -3}) {
		t.Errorf("VelocityAt outside = %+v, %v; want clamped to the north east pixel", v, ok)
	}
	if _, ok := (Dataset{}).VelocityAt(0, 0); ok {
		t.Error("empty dataset reported ok")
	}
}

func TestDecodeRaster(t *testing.T) {
	src := testImage(6, 3)
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := DecodeRaster(&buf)
	if err != nil {
		t.Fatalf("DecodeRaster(png) error = %v", err)
	}
	ds, err := NewDataset(img, testMetadata())
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}
	if !bytes.Equal(ds.Image.Pix, src.Pix) {
		t.Error("decoded pixels differ from the encoded raster")
	}

	if _, err := DecodeRaster(strings.NewReader("not an image")); !errors.Is(err, ErrInvalidDataset) {
		t.Errorf("DecodeRaster(garbage) error = %v, want ErrInvalidDataset", err)
	}
}

func TestParseMetadata(t *testing.T) {
	const doc = `{
		"lonRange": [-180, 180],
		"latRange": [-80, 80],
		"uRange": [-1.5, 2],
		"vRange": [-1, 1.25]
	}`
	m, err := ParseMetadata([]byte(doc))
	if err != nil {
		t.Fatalf("ParseMetadata() error = %v", err)
	}
	if m.URange != (Range{-1.5, 2}) || m.VRange != (Range{-1, 1.25}) {
		t.Errorf("ranges = %v %v", m.URange, m.VRange)
	}
	if m.Bounds() != (Bounds{-180, 80, 180, -80}) {
		t.Errorf("Bounds() = %v", m.Bounds())
	}
	if mb := m.MaxBounds(); mb != [2][2]float64{{-180, -80}, {180, 80}} {
		t.Errorf("MaxBounds() = %v", mb)
	}

	r, err := ReadMetadata(strings.NewReader(doc))
	if err != nil || r != m {
		t.Errorf("ReadMetadata() = %+v, %v; want %+v", r, err, m)
	}

	if _, err := ParseMetadata([]byte(`{"lonRange": "west"}`)); !errors.Is(err, ErrInvalidMetadata) {
		t.Errorf("ParseMetadata(bad) error = %v, want ErrInvalidMetadata", err)
	}
}
