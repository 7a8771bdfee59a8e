package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oceanmap/vfield"
	"github.com/oceanmap/vfield/backend"
	_ "github.com/oceanmap/vfield/backend/native" // registers vulkan and noop
	"github.com/oceanmap/vfield/integration/headless"
)

const sourceID = "vfieldprobe"

type runOptions struct {
	backend string
	width   int
	height  int
	frames  int
	config  *vfield.Config
	logger  *slog.Logger
}

func openDevice(o runOptions) (backend.Device, error) {
	cfg := backend.Config{CanvasWidth: o.width, CanvasHeight: o.height, Logger: o.logger}
	if o.backend == "auto" {
		dev, name, err := backend.Default(cfg)
		if err != nil {
			return nil, err
		}
		o.logger.Info("vfieldprobe: backend selected", "backend", name)
		return dev, nil
	}
	return backend.Open(o.backend, cfg)
}

// runHeadless animates ds on a windowless map for o.frames frames.
func runHeadless(ctx context.Context, o runOptions, ds vfield.Dataset) (headless.Stats, error) {
	dev, err := openDevice(o)
	if err != nil {
		return headless.Stats{}, fmt.Errorf("open backend %s: %w", o.backend, err)
	}
	defer dev.Close()

	m, err := headless.New(dev, o.width, o.height,
		headless.WithView(ds.Bounds.MinX(), ds.Bounds.MaxY(), ds.Bounds.MaxX(), ds.Bounds.MinY()))
	if err != nil {
		return headless.Stats{}, err
	}
	defer m.Close()

	layer := vfield.NewLayer("currents", sourceID, vfield.WithEngineOptions(vfield.WithConfig(o.config)))
	layer.SetMetadata(vfield.Metadata{
		LonRange: [2]float64{ds.Bounds.MinX(), ds.Bounds.MaxX()},
		LatRange: [2]float64{ds.Bounds.MinY(), ds.Bounds.MaxY()},
		URange:   ds.URange,
		VRange:   ds.VRange,
	})
	if err := m.AddLayer(layer); err != nil {
		return headless.Stats{}, err
	}
	m.LoadSource(sourceID, ds.Image)
	if layer.Engine().State() != vfield.Animating {
		return headless.Stats{}, fmt.Errorf("layer did not start animating")
	}
	return m.Run(ctx, o.frames)
}
