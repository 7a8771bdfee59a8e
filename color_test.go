package vfield

import (
	"image/color"
	"math"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#40E0D0", color.NRGBA{0x40, 0xE0, 0xD0, 0xFF}, false},
		{"f80759", color.NRGBA{0xF8, 0x07, 0x59, 0xFF}, false},
		{"#f0a", color.NRGBA{0xFF, 0x00, 0xAA, 0xFF}, false},
		{"#f0a8", color.NRGBA{0xFF, 0x00, 0xAA, 0x88}, false},
		{"#FF008080", color.NRGBA{0xFF, 0x00, 0x80, 0x80}, false},
		{"", color.NRGBA{}, true},
		{"#12345", color.NRGBA{}, true},
		{"#GG0000", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseHex(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHex(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && c.NRGBA() != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.in, c.NRGBA(), tt.want)
			}
		})
	}
}

func TestHexFallsBackToBlack(t *testing.T) {
	if got := Hex("not a color"); got != (RGBA{A: 1}) {
		t.Errorf("Hex(malformed) = %+v, want opaque black", got)
	}
}

func TestRGBALerp(t *testing.T) {
	a := RGBA{0, 0, 0, 1}
	b := RGBA{1, 0.5, 0, 0}
	got := a.Lerp(b, 0.5)
	want := RGBA{0.5, 0.25, 0, 0.5}
	if math.Abs(got.R-want.R) > 1e-12 || math.Abs(got.G-want.G) > 1e-12 || math.Abs(got.A-want.A) > 1e-12 {
		t.Errorf("Lerp() = %+v, want %+v", got, want)
	}
}

func TestRGBANRGBAClamps(t *testing.T) {
	got := RGBA{R: -0.5, G: 1.5, B: 0.5, A: 1}.NRGBA()
	want := color.NRGBA{0, 255, 128, 255}
	if got != want {
		t.Errorf("NRGBA() = %v, want %v", got, want)
	}
}
