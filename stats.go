package vfield

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oceanmap/vfield/internal/parallel"
)

// decodePool decodes large rasters in row bands. It lives for the process.
var decodePool = sync.OnceValue(func() *parallel.Pool { return parallel.NewPool(0) })

// fieldSamples holds the decoded components of valid pixels in raster order.
type fieldSamples struct {
	speeds, us, vs []float64
}

// FieldStats summarizes the decoded speeds of a dataset's valid pixels.
type FieldStats struct {
	Pixels      int     // raster pixels
	Valid       int     // pixels with a non-zero validity channel
	MeanSpeed   float64 // mean speed over valid pixels
	StdDevSpeed float64 // sample standard deviation, 0 with fewer than two valid pixels
	P90Speed    float64 // 90th percentile speed
	MaxSpeed    float64
	MeanU       float64
	MeanV       float64
}

// ComputeFieldStats decodes every pixel of ds and summarizes the valid ones.
// A dataset without valid pixels yields zero statistics.
func ComputeFieldStats(ds Dataset) FieldStats {
	if ds.Image == nil {
		return FieldStats{}
	}
	w, h := ds.Width(), ds.Height()
	pix := ds.pixels()

	st := FieldStats{Pixels: w * h}
	parts := make([]fieldSamples, decodePool().Workers())
	n := decodePool().Bands(h, func(band, y0, y1 int) {
		var fs fieldSamples
		for y := y0; y < y1; y++ {
			for x := range w {
				vel, ok := SampleVelocity(x, y, pix, w, ds.URange, ds.VRange)
				if !ok {
					continue
				}
				fs.speeds = append(fs.speeds, math.Hypot(vel.U, vel.V))
				fs.us = append(fs.us, vel.U)
				fs.vs = append(fs.vs, vel.V)
			}
		}
		parts[band] = fs
	})

	var speeds, us, vs []float64
	for _, fs := range parts[:n] {
		speeds = append(speeds, fs.speeds...)
		us = append(us, fs.us...)
		vs = append(vs, fs.vs...)
	}

	st.Valid = len(speeds)
	if st.Valid == 0 {
		return st
	}

	st.MeanU = stat.Mean(us, nil)
	st.MeanV = stat.Mean(vs, nil)
	st.MaxSpeed = floats.Max(speeds)
	if st.Valid > 1 {
		st.MeanSpeed, st.StdDevSpeed = stat.MeanStdDev(speeds, nil)
	} else {
		st.MeanSpeed = speeds[0]
	}

	sort.Float64s(speeds)
	st.P90Speed = stat.Quantile(0.9, stat.Empirical, speeds, nil)
	return st
}
