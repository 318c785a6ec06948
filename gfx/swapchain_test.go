// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"math"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestChooseExtentHonorsFixedExtent(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 800, Height: 600},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}

	extent := chooseExtent(capabilities, 1234, 5678)
	if extent.Width != 800 || extent.Height != 600 {
		t.Errorf("extent = %dx%d, want fixed 800x600", extent.Width, extent.Height)
	}
}

func TestChooseExtentClampsFreeExtent(t *testing.T) {
	capabilities := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 200, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}

	cases := []struct {
		w, h         uint32
		wantW, wantH uint32
	}{
		{5000, 5000, 1920, 1080},
		{10, 10, 200, 100},
		{800, 600, 800, 600},
		{10, 5000, 200, 1080},
	}
	for _, c := range cases {
		extent := chooseExtent(capabilities, c.w, c.h)
		if extent.Width != c.wantW || extent.Height != c.wantH {
			t.Errorf("chooseExtent(%d, %d) = %dx%d, want %dx%d",
				c.w, c.h, extent.Width, extent.Height, c.wantW, c.wantH)
		}
	}
}

func TestChoosePresentModeFallbackChain(t *testing.T) {
	// Preferred mode present
	mode := choosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo, vk.PresentModeImmediate,
	}, vk.PresentModeImmediate)
	if mode != vk.PresentModeImmediate {
		t.Errorf("supported preferred: got %d", mode)
	}

	// Preferred missing, MAILBOX present
	mode = choosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo, vk.PresentModeMailbox,
	}, vk.PresentModeImmediate)
	if mode != vk.PresentModeMailbox {
		t.Errorf("mailbox fallback: got %d", mode)
	}

	// Neither preferred nor MAILBOX
	mode = choosePresentMode([]vk.PresentMode{
		vk.PresentModeFifo,
	}, vk.PresentModeImmediate)
	if mode != vk.PresentModeFifo {
		t.Errorf("fifo terminal fallback: got %d", mode)
	}

	// Nothing reported at all still yields FIFO
	mode = choosePresentMode(nil, vk.PresentModeMailbox)
	if mode != vk.PresentModeFifo {
		t.Errorf("empty list fallback: got %d", mode)
	}
}

func TestChooseSurfaceFormat(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	format, space := chooseSurfaceFormat(formats, vk.FormatB8g8r8a8Srgb, vk.ColorSpaceSrgbNonlinear)
	if format != vk.FormatB8g8r8a8Srgb || space != vk.ColorSpaceSrgbNonlinear {
		t.Error("preferred format not selected though supported")
	}

	format, _ = chooseSurfaceFormat(formats, vk.FormatB8g8r8a8Unorm, vk.ColorSpaceSrgbNonlinear)
	if format != vk.FormatR8g8b8a8Unorm {
		t.Error("first supported format not used as fallback")
	}

	format, space = chooseSurfaceFormat(nil, vk.FormatB8g8r8a8Unorm, vk.ColorSpaceSrgbNonlinear)
	if format != vk.FormatB8g8r8a8Srgb || space != vk.ColorSpaceSrgbNonlinear {
		t.Error("hardcoded fallback not applied on empty format list")
	}
}

func TestChooseImageCount(t *testing.T) {
	cases := []struct {
		min, max  uint32
		preferred uint32
		want      uint32
	}{
		{2, 8, 3, 3},
		{2, 8, 0, 2},
		{2, 3, 5, 3},
		{2, 0, 16, 16}, // max of zero means unbounded
		{4, 8, 2, 4},
	}
	for _, c := range cases {
		capabilities := vk.SurfaceCapabilities{
			MinImageCount: c.min,
			MaxImageCount: c.max,
		}
		if got := chooseImageCount(capabilities, c.preferred); got != c.want {
			t.Errorf("chooseImageCount(min=%d max=%d, preferred=%d) = %d, want %d",
				c.min, c.max, c.preferred, got, c.want)
		}
	}
}

func TestClassifyResult(t *testing.T) {
	if r, err := classifyResult(vk.Success); r != AcquireSuccess || err != nil {
		t.Error("success misclassified")
	}
	if r, err := classifyResult(vk.Suboptimal); r != AcquireSuboptimal || err != nil {
		t.Error("suboptimal must be recoverable, not an error")
	}
	if r, err := classifyResult(vk.ErrorOutOfDate); r != AcquireOutOfDate || err != nil {
		t.Error("out of date must be recoverable, not an error")
	}
	if _, err := classifyResult(vk.ErrorDeviceLost); err == nil {
		t.Error("device lost must surface as an error")
	}
}

func TestSupportsExtensions(t *testing.T) {
	available := []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}

	if !supportsExtensions(available, []string{"VK_KHR_swapchain"}) {
		t.Error("present extension reported missing")
	}
	if supportsExtensions(available, []string{"VK_KHR_swapchain", "VK_EXT_debug_report"}) {
		t.Error("missing extension reported present")
	}
	if !supportsExtensions(available, nil) {
		t.Error("empty requirement must always pass")
	}
}
