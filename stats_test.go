package vfield

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestComputeFieldStats(t *testing.T) {
	// Four valid pixels with speeds 0, 1, 1, 2 (u only) and one land pixel.
	img := image.NewRGBA(image.Rect(0, 0, 5, 1))
	for x, r := range []uint8{0, 51, 51, 102} {
		img.SetRGBA(x, 0, color.RGBA{r, 0, 255, 255})
	}
	img.SetRGBA(4, 0, color.RGBA{255, 0, 0, 255})
	ds := Dataset{Image: img, Bounds: Bounds{0, 1, 5, 0}, URange: Range{0, 5}, VRange: Range{0, 5}}

	st := ComputeFieldStats(ds)
	if st.Pixels != 5 || st.Valid != 4 {
		t.Fatalf("Pixels, Valid = %d, %d; want 5, 4", st.Pixels, st.Valid)
	}

	approx := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	approx("MeanSpeed", st.MeanSpeed, 1)
	approx("StdDevSpeed", st.StdDevSpeed, math.Sqrt(2.0/3.0))
	approx("MaxSpeed", st.MaxSpeed, 2)
	approx("P90Speed", st.P90Speed, 2)
	approx("MeanU", st.MeanU, 1)
	approx("MeanV", st.MeanV, 0)
}

func TestComputeFieldStatsEdgeCases(t *testing.T) {
	if st := ComputeFieldStats(Dataset{}); st != (FieldStats{}) {
		t.Errorf("empty dataset stats = %+v", st)
	}

	land := image.NewRGBA(image.Rect(0, 0, 3, 3))
	st := ComputeFieldStats(Dataset{Image: land, Bounds: Bounds{0, 1, 1, 0}})
	if st.Pixels != 9 || st.Valid != 0 || st.MaxSpeed != 0 {
		t.Errorf("all-land stats = %+v", st)
	}

	one := image.NewRGBA(image.Rect(0, 0, 1, 1))
	one.SetRGBA(0, 0, color.RGBA{0, 255, 1, 255})
	st = ComputeFieldStats(Dataset{Image: one, Bounds: Bounds{0, 1, 1, 0}, URange: Range{0, 1}, VRange: Range{0, 3}})
	if st.Valid != 1 || st.MeanSpeed != 3 || st.StdDevSpeed != 0 || st.P90Speed != 3 {
		t.Errorf("single pixel stats = %+v", st)
	}
}
