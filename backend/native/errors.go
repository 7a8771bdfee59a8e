// Copyright 2026 The vfield Authors
// SPDX-License-Identifier: MIT

package native

import "errors"

// Package errors for the native backend.
var (
	// ErrNilDevice is returned when a Context is created without a device
	// or queue.
	ErrNilDevice = errors.New("native: nil HAL device or queue")

	// ErrNoGPU is returned when no GPU adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("native: invalid dimensions")

	// ErrUnknownProgram is returned for a ProgramID the context never
	// issued or already destroyed.
	ErrUnknownProgram = errors.New("native: unknown program")

	// ErrUnknownTexture is returned for a TextureID the context never
	// issued or already destroyed.
	ErrUnknownTexture = errors.New("native: unknown texture")

	// ErrNoCanvas is returned when the canvas is bound but no canvas size
	// or external target was configured.
	ErrNoCanvas = errors.New("native: no canvas configured")

	// ErrExternalCanvas is returned by ResizeCanvas on a context that
	// renders to an external canvas.
	ErrExternalCanvas = errors.New("native: canvas is external")

	// ErrClosed is returned by operations on a closed context.
	ErrClosed = errors.New("native: context closed")
)
