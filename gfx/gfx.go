// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx owns the Vulkan side of the engine: instance and device
// bring-up, the swapchain and its recreation discipline, and the frame
// orchestrator that keeps at most MaxFramesInFlight frames queued on
// the GPU at any time.
package gfx

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	// PhysicalDevicesInfo returns a struct for each Physical Device
	// along with info about those devices
	PhysicalDevicesInfo() []PhysicalDeviceInfo

	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// Handle returns the inner vk.Instance
	Handle() vk.Instance

	// Destroy destroys internal members. The instance must be
	// destroyed after everything created from it.
	Destroy()
}

// Renderer is the frame orchestrator. It owns the swapchain, the render
// pass, the framebuffers and all per-frame synchronization primitives.
// One BeginFrame/EndFrame pair is expected per loop iteration.
type Renderer interface {
	// Initialise sets up the swapchain and all per-frame resources
	Initialise() error

	// BeginFrame starts a new frame. It returns false when the caller
	// must skip rendering for this iteration, which is not an error
	// unless the second return value is set.
	BeginFrame() (bool, error)

	// EndFrame submits and presents the current frame. It reports
	// whether the swapchain is still valid for dependent work.
	EndFrame() (bool, error)

	// CommandBuffer returns the command buffer being recorded for the
	// frame in progress. It panics when no frame is in progress.
	CommandBuffer() vk.CommandBuffer

	// Resize notifies the renderer of a new drawable size in pixels.
	// The swapchain is recreated lazily, at the end of a frame.
	Resize(width, height uint32)

	// RenderPass returns the active render pass handle.
	RenderPass() vk.RenderPass

	// Framebuffer returns the framebuffer for the image acquired by
	// the frame in progress.
	Framebuffer() vk.Framebuffer

	// Extent returns the current swapchain extent.
	Extent() vk.Extent2D

	// Swapchain exposes the owned swapchain for advanced embedding.
	Swapchain() *Swapchain

	// FrameCount returns the monotonic total frame counter.
	FrameCount() uint64

	// Destroy waits for the device to go idle and destroys internal
	// members in reverse dependency order. It never fails, teardown
	// problems are logged.
	Destroy()
}

// SurfaceSource is anything that can produce a Vulkan surface for an
// instance. The SDL window in package core satisfies it.
type SurfaceSource interface {
	VulkanCreateSurface(instance interface{}) (surface unsafe.Pointer, err error)
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)
