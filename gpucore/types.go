package gpucore

// Resource IDs
//
// These opaque IDs represent GPU resources. Each Context implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// TextureID is an opaque handle to a 2D RGBA8 texture.
type TextureID uint64

// ProgramID is an opaque handle to a compiled shader program
// (vertex + fragment entry points plus their binding layout).
type ProgramID uint64

// InvalidID is the zero value, representing an invalid/null resource.
// Passed to [Context.BindFramebuffer] it selects the canvas.
const InvalidID = 0

// FilterMode selects how a texture is sampled.
type FilterMode uint8

// Filter modes.
const (
	// FilterNearest samples the closest texel. Used for state textures
	// whose texels are data, not color.
	FilterNearest FilterMode = iota

	// FilterLinear interpolates between neighboring texels.
	FilterLinear
)

// String returns the filter mode name.
func (f FilterMode) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// BlendMode selects how fragment output combines with the target.
type BlendMode uint8

// Blend modes.
const (
	// BlendReplace writes the fragment color unchanged.
	BlendReplace BlendMode = iota

	// BlendAlpha is classic source-over: src*srcAlpha + dst*(1-srcAlpha).
	BlendAlpha
)

// String returns the blend mode name.
func (b BlendMode) String() string {
	switch b {
	case BlendReplace:
		return "replace"
	case BlendAlpha:
		return "alpha"
	default:
		return "unknown"
	}
}

// BytesPerPixel is the size of one texel of every texture created through
// a Context. All textures are RGBA8.
const BytesPerPixel = 4

// TextureDesc describes a 2D RGBA8 texture.
type TextureDesc struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the texture dimensions in texels.
	Width, Height int

	// Filter is the sampling filter used whenever the texture is bound
	// to a program.
	Filter FilterMode

	// Data is the optional initial content, tightly packed RGBA8 rows.
	// When nil the texture starts zeroed (transparent black).
	Data []byte
}

// ProgramDesc describes a shader program.
//
// Binding convention (bind group 0):
//   - binding 0: uniform buffer of UniformSize bytes
//   - binding 1+2i: texture i (texture_2d<f32>)
//   - binding 2+2i: sampler for texture i
type ProgramDesc struct {
	// Label is an optional debug label.
	Label string

	// Source is the WGSL source code.
	Source string

	// VertexEntry and FragmentEntry name the shader entry points.
	VertexEntry   string
	FragmentEntry string

	// TextureCount is the number of textures the program samples.
	TextureCount int

	// UniformSize is the size of the uniform block in bytes.
	// Must be a positive multiple of 16.
	UniformSize int
}

// DrawCall describes one draw into the currently bound framebuffer.
// Geometry is generated in the vertex shader from the vertex index;
// there are no vertex buffers.
type DrawCall struct {
	// Label is an optional debug label.
	Label string

	// Program is the shader program to run.
	Program ProgramID

	// Uniforms is the uniform block content, ProgramDesc.UniformSize bytes.
	Uniforms []byte

	// Textures are bound in order; len must equal ProgramDesc.TextureCount.
	Textures []TextureID

	// VertexCount is the number of vertices to draw.
	VertexCount int

	// Blend selects the blend state.
	Blend BlendMode
}

// Viewport is a pixel rectangle of the bound framebuffer.
type Viewport struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Width <= 0 || v.Height <= 0
}

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// UniformBinding is the binding index of the uniform block.
const UniformBinding = 0

// TextureBinding returns the binding index of texture i.
func TextureBinding(i int) uint32 { return uint32(1 + 2*i) }

// SamplerBinding returns the binding index of the sampler for texture i.
func SamplerBinding(i int) uint32 { return uint32(2 + 2*i) }
