// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// InstanceConfiguration configures the Vulkan instance
type InstanceConfiguration struct {
	// Validation loads the standard validation layer and routes
	// debug reports into the log
	Validation bool

	Extensions []string
	Layers     []string
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	// SwapchainSize is the preferred number of swapchain images.
	// The surface capabilities may force a different count.
	SwapchainSize uint32

	// MaxFramesInFlight bounds how many frames the CPU may record
	// ahead of the GPU. Zero means DefaultMaxFramesInFlight.
	MaxFramesInFlight int

	// VSync selects FIFO presentation. When unset MAILBOX is
	// preferred if the surface supports it.
	VSync bool

	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32
}

// Defaults applied by NewVulkanRenderer.
const (
	DefaultMaxFramesInFlight = 2
	DefaultSwapchainSize     = 3

	// recreateCooldownFrames is the minimum number of frames between
	// two swapchain recreations. Resize events tend to arrive in
	// bursts faster than the GPU drains, recreating on every one of
	// them thrashes the swapchain. Frame based rather than wall-clock
	// based, so the window adapts to load.
	recreateCooldownFrames = 5
)
