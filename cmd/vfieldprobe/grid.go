package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/oceanmap/vfield"
)

// gridSample is one CSV row of a sampled grid.
type gridSample struct {
	Lng       float64 `csv:"lng"`
	Lat       float64 `csv:"lat"`
	U         float64 `csv:"u"`
	V         float64 `csv:"v"`
	Speed     float64 `csv:"speed"`
	Degree    float64 `csv:"degree"`
	Direction string  `csv:"direction"`
}

// sampleGrid walks the dataset bounds north to south, west to east, in
// steps of step degrees and keeps the points with data.
func sampleGrid(ds vfield.Dataset, step float64) ([]gridSample, error) {
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("grid step %v must be positive", step)
	}
	west, north, east, south := ds.Bounds.MinX(), ds.Bounds.MaxY(), ds.Bounds.MaxX(), ds.Bounds.MinY()
	cols := max(int(math.Floor((east-west)/step))+1, 0)
	rows := max(int(math.Floor((north-south)/step))+1, 0)

	samples := make([]gridSample, 0, cols*rows)
	for r := range rows {
		lat := north - float64(r)*step
		for c := range cols {
			lng := west + float64(c)*step
			vel, ok := ds.VelocityAt(lng, lat)
			if !ok {
				continue
			}
			polar := vfield.ToPolarReadable(vel.U, vel.V)
			samples = append(samples, gridSample{
				Lng:       lng,
				Lat:       lat,
				U:         vel.U,
				V:         vel.V,
				Speed:     polar.Speed,
				Degree:    polar.Degree,
				Direction: polar.Direction.String(),
			})
		}
	}
	return samples, nil
}

func writeGrid(path string, ds vfield.Dataset, step float64) (int, error) {
	samples, err := sampleGrid(ds, step)
	if err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	if err := saveSamples(f, samples); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return len(samples), nil
}

// saveSamples writes samples as CSV and closes w. A failed close is
// reported, since buffered data may not have reached the file.
func saveSamples(w io.WriteCloser, samples []gridSample) error {
	if err := gocsv.Marshal(samples, w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
