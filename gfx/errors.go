// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "errors"

// package errors
var (
	// ErrFrameInProgress is returned by BeginFrame when the previous
	// frame was never ended. Frames do not nest.
	ErrFrameInProgress = errors.New("gfx: frame already in progress")

	// ErrNoGraphicsQueue means the selected physical device exposes
	// no queue family with graphics support.
	ErrNoGraphicsQueue = errors.New("gfx: no graphics queue family available")

	// ErrNoPresentQueue means no queue family can present to the
	// target surface.
	ErrNoPresentQueue = errors.New("gfx: no queue family can present to surface")

	// ErrNoSuitableDevice is returned when every enumerated physical
	// device fails the suitability checks.
	ErrNoSuitableDevice = errors.New("gfx: no suitable physical device found")

	// ErrInvalidExtent is returned when a zero sized drawable is
	// requested for swapchain creation.
	ErrInvalidExtent = errors.New("gfx: swapchain extent has zero dimension")

	// ErrShaderAlignment is returned when a shader blob is not a
	// whole number of SPIR-V words.
	ErrShaderAlignment = errors.New("gfx: shader blob size not a multiple of 4")
)
