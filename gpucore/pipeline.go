package gpucore

import (
	"fmt"
	"strings"
)

// uniformAlign is the alignment WGSL requires of a uniform block.
const uniformAlign = 16

// ValidateProgram checks a ProgramDesc for structural errors before any
// backend work is done.
func ValidateProgram(desc *ProgramDesc) error {
	if desc == nil {
		return fmt.Errorf("gpucore: program descriptor is required")
	}
	if strings.TrimSpace(desc.Source) == "" {
		return fmt.Errorf("gpucore: program %q: empty shader source", desc.Label)
	}
	if desc.VertexEntry == "" || desc.FragmentEntry == "" {
		return fmt.Errorf("gpucore: program %q: vertex and fragment entry points are required", desc.Label)
	}
	if desc.TextureCount < 0 {
		return fmt.Errorf("gpucore: program %q: negative texture count %d", desc.Label, desc.TextureCount)
	}
	if desc.UniformSize <= 0 || desc.UniformSize%uniformAlign != 0 {
		return fmt.Errorf("gpucore: program %q: uniform size %d is not a positive multiple of %d",
			desc.Label, desc.UniformSize, uniformAlign)
	}
	return nil
}

// ValidateTexture checks a TextureDesc for structural errors.
func ValidateTexture(desc *TextureDesc) error {
	if desc == nil {
		return fmt.Errorf("gpucore: texture descriptor is required")
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return fmt.Errorf("gpucore: texture %q: invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	if desc.Data != nil {
		if want := desc.Width * desc.Height * BytesPerPixel; len(desc.Data) != want {
			return fmt.Errorf("gpucore: texture %q: data is %d bytes, want %d", desc.Label, len(desc.Data), want)
		}
	}
	return nil
}

// ValidateDraw checks a DrawCall against the descriptor of its program.
func ValidateDraw(call *DrawCall, prog *ProgramDesc) error {
	if call == nil {
		return fmt.Errorf("gpucore: draw call is required")
	}
	if len(call.Uniforms) != prog.UniformSize {
		return fmt.Errorf("gpucore: draw %q: uniforms are %d bytes, program %q wants %d",
			call.Label, len(call.Uniforms), prog.Label, prog.UniformSize)
	}
	if len(call.Textures) != prog.TextureCount {
		return fmt.Errorf("gpucore: draw %q: %d textures bound, program %q wants %d",
			call.Label, len(call.Textures), prog.Label, prog.TextureCount)
	}
	if call.VertexCount < 0 {
		return fmt.Errorf("gpucore: draw %q: negative vertex count", call.Label)
	}
	return nil
}
