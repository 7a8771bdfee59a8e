package vfield

import (
	"encoding/binary"
	"math"
)

// uniformWriter packs f32 values little-endian into a uniform block.
type uniformWriter struct {
	buf []byte
	off int
}

func newUniformWriter(size int) *uniformWriter {
	return &uniformWriter{buf: make([]byte, size)}
}

func (w *uniformWriter) f32(vs ...float64) *uniformWriter {
	for _, v := range vs {
		binary.LittleEndian.PutUint32(w.buf[w.off:], math.Float32bits(float32(v)))
		w.off += 4
	}
	return w
}

func (w *uniformWriter) bounds(b Bounds) *uniformWriter {
	return w.f32(b[0], b[1], b[2], b[3])
}

func (w *uniformWriter) bytes() []byte { return w.buf }

// drawUniforms matches Uniforms in shaders/draw.wgsl.
func drawUniforms(ds *Dataset, canvasW, canvasH int, pointSize float64, res int, view Bounds) []byte {
	return newUniformWriter(drawUniformSize).
		f32(ds.URange.Min(), ds.VRange.Min()).
		f32(ds.URange.Max(), ds.VRange.Max()).
		f32(float64(canvasW), float64(canvasH)).
		f32(pointSize, float64(res)).
		bounds(view).
		bounds(ds.Bounds).
		bytes()
}

// screenUniforms matches Uniforms in shaders/screen.wgsl.
func screenUniforms(opacity float64) []byte {
	return newUniformWriter(screenUniformSize).f32(opacity, 0, 0, 0).bytes()
}

// updateUniforms matches Uniforms in shaders/update.wgsl.
func updateUniforms(ds *Dataset, view Bounds, seed float64, sim SimulationConfig) []byte {
	return newUniformWriter(updateUniformSize).
		bounds(view).
		bounds(ds.Bounds).
		f32(ds.URange.Min(), ds.VRange.Min()).
		f32(ds.URange.Max(), ds.VRange.Max()).
		f32(seed, sim.SpeedFactor, sim.DropRate, sim.DropRateBump).
		bytes()
}
