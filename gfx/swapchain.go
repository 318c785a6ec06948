// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// AcquireResult classifies the outcome of acquiring or presenting a
// swapchain image.
type AcquireResult int

// Acquire and present outcomes. Suboptimal images are usable but the
// swapchain should be recreated soon, out of date ones are not.
const (
	AcquireSuccess AcquireResult = iota
	AcquireSuboptimal
	AcquireOutOfDate
)

// SwapchainPreferences carry the format and behavior wishes of the
// caller. Every preference degrades gracefully when the surface does
// not support it.
type SwapchainPreferences struct {
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	PresentMode vk.PresentMode
	ImageCount  uint32
}

// Swapchain owns the presentable image chain and its image views. The
// images themselves belong to the Vulkan implementation, the views are
// ours. Recreate replaces the chain in place, the Swapchain value keeps
// its identity across recreations.
type Swapchain struct {
	device  *Device
	surface vk.Surface
	prefs   SwapchainPreferences

	swapchain  vk.Swapchain
	images     []vk.Image
	imageViews []vk.ImageView

	format      vk.Format
	colorSpace  vk.ColorSpace
	presentMode vk.PresentMode
	extent      vk.Extent2D

	needsRecreate bool
}

// NewSwapchain builds a swapchain for surface sized to the given
// drawable pixel dimensions.
func NewSwapchain(device *Device, surface *Surface, prefs SwapchainPreferences, width, height uint32) (*Swapchain, error) {
	if device == nil || surface == nil || surface.Handle() == vk.NullSurface {
		return nil, errors.New("gfx.NewSwapchain(): nil device or surface")
	}
	s := &Swapchain{
		device:  device,
		surface: surface.Handle(),
		prefs:   prefs,
	}
	if err := s.create(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// create runs the full construction pass. On recreation the old
// swapchain handle is passed to the implementation as a reuse hint and
// destroyed only after the new one exists, so a failed recreation never
// leaves us without a swapchain.
func (s *Swapchain) create(width, height uint32) error {
	if width == 0 || height == 0 {
		return ErrInvalidExtent
	}

	physical := s.device.Physical()

	var capabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(physical, s.surface, &capabilities)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	capabilities.Deref()
	capabilities.CurrentExtent.Deref()
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, s.surface, &formatCount, nil)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	formats := make([]vk.SurfaceFormat, formatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(physical, s.surface, &formatCount, formats)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	for i := range formats {
		formats[i].Deref()
	}

	var presentModeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, s.surface, &presentModeCount, nil)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	presentModes := make([]vk.PresentMode, presentModeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(physical, s.surface, &presentModeCount, presentModes)); err != nil {
		return errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}

	format, colorSpace := chooseSurfaceFormat(formats, s.prefs.Format, s.prefs.ColorSpace)
	presentMode := choosePresentMode(presentModes, s.prefs.PresentMode)
	extent := chooseExtent(capabilities, width, height)
	imageCount := chooseImageCount(capabilities, s.prefs.ImageCount)

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for i := 0; i < len(compositeAlphaFlags); i++ {
		alphaFlags := vk.CompositeAlphaFlags(compositeAlphaFlags[i])
		if capabilities.SupportedCompositeAlpha&alphaFlags != 0 {
			compositeAlpha = compositeAlphaFlags[i]
			break
		}
	}

	oldSwapchain := s.swapchain

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          s.surface,
		MinImageCount:    imageCount,
		ImageFormat:      format,
		ImageColorSpace:  colorSpace,
		ImageExtent:      extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     vk.SurfaceTransformIdentityBit,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     oldSwapchain,
	}

	families := s.device.QueueFamilies()
	if families.Graphics != families.Present {
		scci.ImageSharingMode = vk.SharingModeConcurrent
		scci.QueueFamilyIndexCount = 2
		scci.PQueueFamilyIndices = []uint32{families.Graphics, families.Present}
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(s.device.Handle(), &scci, nil, &swapchain)); err != nil {
		return errors.New("vk.CreateSwapchain(): " + err.Error())
	}

	// The old chain is released only now that the new one exists
	s.Cleanup()
	s.swapchain = swapchain
	s.format = format
	s.colorSpace = colorSpace
	s.presentMode = presentMode
	s.extent = extent

	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(s.device.Handle(), s.swapchain, &numImages, nil)); err != nil {
		return errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}
	s.images = make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(s.device.Handle(), s.swapchain, &numImages, s.images)); err != nil {
		return errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}

	if err := s.createImageViews(); err != nil {
		// All or nothing: drop whatever views were made this pass
		s.Cleanup()
		return err
	}

	log.WithFields(log.Fields{
		"component": "swapchain",
		"images":    numImages,
		"width":     extent.Width,
		"height":    extent.Height,
	}).Debug("swapchain created")

	return nil
}

func (s *Swapchain) createImageViews() error {
	for idx := 0; idx < len(s.images); idx++ {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    s.images[idx],
			ViewType: vk.ImageViewType2d,
			Format:   s.format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		var imageView vk.ImageView
		if err := vk.Error(vk.CreateImageView(s.device.Handle(), &ivci, nil, &imageView)); err != nil {
			return fmt.Errorf("vk.CreateImageView()[%d]: %s", idx, err.Error())
		}
		s.imageViews = append(s.imageViews, imageView)
	}
	return nil
}

// chooseSurfaceFormat picks the preferred format and colorspace when
// the surface offers it, the first supported pair otherwise, and a
// hardcoded BGRA8 sRGB fallback when the surface reports nothing.
func chooseSurfaceFormat(formats []vk.SurfaceFormat, preferredFormat vk.Format, preferredSpace vk.ColorSpace) (vk.Format, vk.ColorSpace) {
	for _, f := range formats {
		if f.Format == preferredFormat && f.ColorSpace == preferredSpace {
			return f.Format, f.ColorSpace
		}
	}
	if len(formats) > 0 {
		return formats[0].Format, formats[0].ColorSpace
	}
	return vk.FormatB8g8r8a8Srgb, vk.ColorSpaceSrgbNonlinear
}

// choosePresentMode picks the preferred mode when supported, MAILBOX
// when available, FIFO otherwise. FIFO support is guaranteed by the
// Vulkan specification, it is the terminal fallback.
func choosePresentMode(modes []vk.PresentMode, preferred vk.PresentMode) vk.PresentMode {
	for _, m := range modes {
		if m == preferred {
			return m
		}
	}
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent honors a fixed extent reported by the surface. The
// all ones sentinel means the surface takes its size from us, in which
// case the requested size is clamped into the supported range.
func chooseExtent(capabilities vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return vk.Extent2D{
			Width:  capabilities.CurrentExtent.Width,
			Height: capabilities.CurrentExtent.Height,
		}
	}
	return vk.Extent2D{
		Width:  clampUint32(width, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clampUint32(height, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

// chooseImageCount returns max(minImageCount, preferred) clamped to
// maxImageCount, where a max of zero means unbounded.
func chooseImageCount(capabilities vk.SurfaceCapabilities, preferred uint32) uint32 {
	count := capabilities.MinImageCount
	if preferred > count {
		count = preferred
	}
	if capabilities.MaxImageCount != 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

func clampUint32(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// classifyResult maps a Vulkan acquire or present result onto the
// recoverable conditions the orchestrator cares about.
func classifyResult(result vk.Result) (AcquireResult, error) {
	switch result {
	case vk.Success:
		return AcquireSuccess, nil
	case vk.Suboptimal:
		return AcquireSuboptimal, nil
	case vk.ErrorOutOfDate:
		return AcquireOutOfDate, nil
	default:
		return AcquireOutOfDate, vk.Error(result)
	}
}

// AcquireNextImage asks the presentation engine for the next image,
// signaling semaphore and fence (either may be nil) when it is ready.
func (s *Swapchain) AcquireNextImage(timeout uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, AcquireResult, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(s.device.Handle(), s.swapchain, timeout, semaphore, fence, &imageIndex)
	class, err := classifyResult(result)
	return imageIndex, class, err
}

// Present queues image imageIndex for presentation after the given
// semaphores signal. The semaphores must be the per image render
// finished ones, not the per slot acquire ones.
func (s *Swapchain) Present(queue vk.Queue, waitSemaphores []vk.Semaphore, imageIndex uint32) (AcquireResult, error) {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waitSemaphores)),
		PWaitSemaphores:    waitSemaphores,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	return classifyResult(vk.QueuePresent(queue, &presentInfo))
}

// Recreate reruns the whole construction pass in place. The caller
// must guarantee no frame is in flight, usually via Device.WaitIdle.
func (s *Swapchain) Recreate(width, height uint32) error {
	if err := s.create(width, height); err != nil {
		return err
	}
	s.needsRecreate = false
	return nil
}

// MarkForRecreation sets the sticky recreation flag consumed by the
// orchestrator at the end of a frame.
func (s *Swapchain) MarkForRecreation() {
	s.needsRecreate = true
}

// NeedsRecreation reports the sticky recreation flag
func (s *Swapchain) NeedsRecreation() bool {
	return s.needsRecreate
}

// Handle returns the inner vk.Swapchain
func (s *Swapchain) Handle() vk.Swapchain {
	return s.swapchain
}

// ImageCount returns the number of images in the chain
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// ImageViews returns the owned image views, one per image
func (s *Swapchain) ImageViews() []vk.ImageView {
	return s.imageViews
}

// Format returns the pixel format of the chain
func (s *Swapchain) Format() vk.Format {
	return s.format
}

// Extent returns the current image extent
func (s *Swapchain) Extent() vk.Extent2D {
	return s.extent
}

// PresentMode returns the active present mode
func (s *Swapchain) PresentMode() vk.PresentMode {
	return s.presentMode
}

// Cleanup destroys the owned image views and the swapchain handle.
// Called internally before every rebuild and by Destroy.
func (s *Swapchain) Cleanup() {
	for _, view := range s.imageViews {
		vk.DestroyImageView(s.device.Handle(), view, nil)
	}
	s.imageViews = nil
	s.images = nil
	if s.swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(s.device.Handle(), s.swapchain, nil)
		s.swapchain = vk.NullSwapchain
	}
}

// Destroy releases the swapchain. Safe to call more than once.
func (s *Swapchain) Destroy() {
	if s == nil {
		return
	}
	s.Cleanup()
}
