// Package gpucore defines the graphics context contract used by the vfield
// particle engine.
//
// The engine never talks to a GPU API directly. It compiles programs,
// allocates textures, binds framebuffers and issues draws through the
// [Context] interface, and every resource is named by an opaque ID
// ([TextureID], [ProgramID]). Backends translate those calls:
//
//	               +-----------------+
//	               |  vfield.Engine  |
//	               +--------+--------+
//	                        |
//	               +--------v--------+
//	               | gpucore.Context |
//	               +--------+--------+
//	                        |
//	         +--------------+--------------+
//	         |                             |
//	+--------v--------+          +--------v--------+
//	| backend/native  |          |   test fakes    |
//	|  (hal.Device)   |          |  (recording)    |
//	+-----------------+          +-----------------+
//
// # Programs
//
// Programs are WGSL with a fixed binding convention in bind group 0: a
// uniform block at binding 0, then a texture/sampler pair per sampled
// texture. Geometry comes from the vertex index, so no vertex buffers are
// involved. [CompileWGSL] wraps the naga compiler for backends that consume
// SPIR-V, and [ValidateProgram], [ValidateTexture] and [ValidateDraw]
// perform the checks every backend shares.
package gpucore
