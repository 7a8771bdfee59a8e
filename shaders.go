package vfield

import (
	_ "embed"

	"github.com/oceanmap/vfield/gpucore"
)

//go:embed shaders/draw.wgsl
var drawShaderSource string

//go:embed shaders/screen.wgsl
var screenShaderSource string

//go:embed shaders/update.wgsl
var updateShaderSource string

// Uniform block sizes, matching the Uniforms structs of each shader.
const (
	drawUniformSize   = 64
	screenUniformSize = 16
	updateUniformSize = 64
)

// Vertices per draw.
const (
	quadVertices       = 6 // one particle
	fullscreenVertices = 3 // one oversized triangle
)

// programDescs returns the three programs of the engine, in the order
// draw, screen, update.
func programDescs() [3]gpucore.ProgramDesc {
	return [3]gpucore.ProgramDesc{
		{
			Label:         "vfield_draw",
			Source:        drawShaderSource,
			VertexEntry:   "vs_main",
			FragmentEntry: "fs_main",
			TextureCount:  3, // particles, wind, ramp
			UniformSize:   drawUniformSize,
		},
		{
			Label:         "vfield_screen",
			Source:        screenShaderSource,
			VertexEntry:   "vs_main",
			FragmentEntry: "fs_main",
			TextureCount:  1,
			UniformSize:   screenUniformSize,
		},
		{
			Label:         "vfield_update",
			Source:        updateShaderSource,
			VertexEntry:   "vs_main",
			FragmentEntry: "fs_main",
			TextureCount:  2, // particles, wind
			UniformSize:   updateUniformSize,
		},
	}
}
