package gpucore

// Context is the graphics context a simulation renders through.
//
// A Context owns a single framebuffer binding point, in the spirit of a
// WebGL context: BindFramebuffer selects the render target (a texture or the
// canvas), Viewport selects the pixel rectangle, and Clear/Draw operate on
// that target. Each Draw is submitted as its own render pass, so draws are
// ordered exactly as issued.
//
// Implementations are not required to be safe for concurrent use unless
// documented otherwise.
type Context interface {
	// CreateProgram compiles a shader program.
	CreateProgram(desc *ProgramDesc) (ProgramID, error)

	// DestroyProgram releases a program. Unknown IDs are ignored.
	DestroyProgram(id ProgramID)

	// CreateTexture allocates a 2D RGBA8 texture usable both as a sampled
	// texture and as a render target.
	CreateTexture(desc *TextureDesc) (TextureID, error)

	// WriteTexture replaces the full content of a texture.
	// len(data) must equal width*height*BytesPerPixel.
	WriteTexture(id TextureID, data []byte) error

	// DestroyTexture releases a texture. Unknown IDs are ignored.
	DestroyTexture(id TextureID)

	// BindFramebuffer selects the render target for subsequent Clear and
	// Draw calls. InvalidID selects the canvas.
	BindFramebuffer(target TextureID) error

	// Viewport sets the pixel rectangle of the bound target used by Draw.
	Viewport(v Viewport)

	// Clear fills the bound target with a color.
	Clear(c Color) error

	// Draw issues one draw call into the bound target.
	Draw(call *DrawCall) error
}
