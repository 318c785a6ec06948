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

// frameSlot bundles the resources reused round robin by frame number:
// a command pool with one primary buffer, the semaphore the acquire
// signals and the fence bounding reuse of the whole bundle.
type frameSlot struct {
	pool           *CommandPool
	commandBuffer  vk.CommandBuffer
	imageAvailable *Semaphore
	inFlight       *Fence
}

func (f *frameSlot) destroy() {
	f.inFlight.Destroy()
	f.imageAvailable.Destroy()
	f.pool.Destroy()
	f.commandBuffer = nil
}

// NewVulkanRenderer creates a not yet initialised frame orchestrator
// over device and surface. Call Initialise before the first frame.
func NewVulkanRenderer(device *Device, surface *Surface, cfg RendererConfiguration) (Renderer, error) {
	if device == nil || surface == nil {
		return nil, errors.New("gfx.NewVulkanRenderer(): nil device or surface")
	}
	if cfg.MaxFramesInFlight <= 0 {
		cfg.MaxFramesInFlight = DefaultMaxFramesInFlight
	}
	if cfg.SwapchainSize == 0 {
		cfg.SwapchainSize = DefaultSwapchainSize
	}
	return &VulkanRenderer{
		configuration: cfg,
		device:        device,
		surface:       surface,
		pendingWidth:  cfg.ScreenWidth,
		pendingHeight: cfg.ScreenHeight,
		ledger:        newFrameLedger(cfg.MaxFramesInFlight, recreateCooldownFrames),
		log:           log.WithField("component", "renderer"),
	}, nil
}

// VulkanRenderer coordinates acquire, record, submit, present and
// recreate for every frame. It owns the swapchain, the render pass,
// the framebuffers and all synchronization primitives; the device and
// surface are borrowed and must outlive it.
type VulkanRenderer struct {
	configuration RendererConfiguration
	log           *log.Entry

	device  *Device
	surface *Surface

	swapchain    *Swapchain
	renderPass   *RenderPass
	framebuffers []*Framebuffer

	frames []frameSlot

	// renderFinished is indexed by the acquired image index, not the
	// frame slot. Presenting image j must wait on the semaphore that
	// the submission rendering into image j signals, and with image
	// count != slot count those are different cycles.
	renderFinished []*Semaphore

	ledger     frameLedger
	imageIndex uint32

	pendingWidth  uint32
	pendingHeight uint32

	initialized bool
}

// Initialise implements interface
func (v *VulkanRenderer) Initialise() error {
	prefs := SwapchainPreferences{
		Format:      vk.FormatB8g8r8a8Srgb,
		ColorSpace:  vk.ColorSpaceSrgbNonlinear,
		ImageCount:  v.configuration.SwapchainSize,
		PresentMode: vk.PresentModeMailbox,
	}
	if v.configuration.VSync {
		prefs.PresentMode = vk.PresentModeFifo
	}

	swapchain, err := NewSwapchain(v.device, v.surface, prefs, v.pendingWidth, v.pendingHeight)
	if err != nil {
		return err
	}
	v.swapchain = swapchain

	renderPass, err := NewRenderPass(v.device, swapchain.Format())
	if err != nil {
		v.swapchain.Destroy()
		return err
	}
	v.renderPass = renderPass

	framebuffers, err := newFramebuffers(v.device, v.renderPass, v.swapchain)
	if err != nil {
		v.renderPass.Destroy()
		v.swapchain.Destroy()
		return err
	}
	v.framebuffers = framebuffers

	if err := v.createFrameSlots(); err != nil {
		v.Destroy()
		return err
	}
	if err := v.createImageSemaphores(); err != nil {
		v.Destroy()
		return err
	}

	v.initialized = true
	v.log.WithFields(log.Fields{
		"images": v.swapchain.ImageCount(),
		"slots":  len(v.frames),
	}).Info("renderer initialised")
	return nil
}

func (v *VulkanRenderer) createFrameSlots() error {
	families := v.device.QueueFamilies()
	for i := 0; i < v.configuration.MaxFramesInFlight; i++ {
		pool, err := NewCommandPool(v.device, families.Graphics)
		if err != nil {
			return err
		}
		commandBuffer, err := pool.AllocateBuffer()
		if err != nil {
			pool.Destroy()
			return err
		}
		imageAvailable, err := NewSemaphore(v.device)
		if err != nil {
			pool.Destroy()
			return err
		}
		inFlight, err := NewFence(v.device, true)
		if err != nil {
			imageAvailable.Destroy()
			pool.Destroy()
			return err
		}
		v.frames = append(v.frames, frameSlot{
			pool:           pool,
			commandBuffer:  commandBuffer,
			imageAvailable: imageAvailable,
			inFlight:       inFlight,
		})
	}
	return nil
}

// createImageSemaphores builds one render finished semaphore per
// swapchain image, replacing whatever set existed before.
func (v *VulkanRenderer) createImageSemaphores() error {
	for _, s := range v.renderFinished {
		s.Destroy()
	}
	v.renderFinished = v.renderFinished[:0]
	for i := 0; i < v.swapchain.ImageCount(); i++ {
		s, err := NewSemaphore(v.device)
		if err != nil {
			return err
		}
		v.renderFinished = append(v.renderFinished, s)
	}
	return nil
}

// acquirePlan is the decision BeginFrame takes on an acquire outcome.
type acquirePlan int

const (
	planRender        acquirePlan = iota // image usable, record the frame
	planRenderAndMark                    // usable now, rebuild at the end of a frame
	planRebuild                          // no image at all, rebuild before the next attempt
)

// planForAcquire maps an acquire outcome to the frame protocol's next
// move. Suboptimal still hands out a usable image, so the rebuild can
// wait for the end of a frame. Out of date hands out nothing: no frame
// will ever reach its end, so deferring the rebuild would spin the
// caller forever. It bypasses the cooldown for the same reason.
func planForAcquire(result AcquireResult) acquirePlan {
	switch result {
	case AcquireOutOfDate:
		return planRebuild
	case AcquireSuboptimal:
		return planRenderAndMark
	}
	return planRender
}

// BeginFrame implements interface. The fence wait here is what bounds
// the number of frames queued ahead of the GPU: the slot cannot be
// reused until its previous submission completed.
func (v *VulkanRenderer) BeginFrame() (bool, error) {
	if err := v.ledger.begin(); err != nil {
		return false, err
	}

	slot := &v.frames[v.ledger.slot()]
	if err := slot.inFlight.Wait(math.MaxUint64); err != nil {
		v.ledger.abort()
		return false, errors.New("in-flight fence wait: " + err.Error())
	}

	imageIndex, result, err := v.swapchain.AcquireNextImage(
		math.MaxUint64, slot.imageAvailable.Handle(), vk.NullFence)
	if err != nil {
		v.ledger.abort()
		return false, errors.New("vk.AcquireNextImage(): " + err.Error())
	}
	switch planForAcquire(result) {
	case planRebuild:
		v.ledger.abort()
		if err := v.Recreate(); err != nil {
			return false, err
		}
		v.ledger.didRecreate()
		return false, nil
	case planRenderAndMark:
		v.swapchain.MarkForRecreation()
	}

	v.imageIndex = imageIndex

	if err := beginOneTime(slot.commandBuffer); err != nil {
		v.ledger.abort()
		return false, err
	}
	return true, nil
}

// EndFrame implements interface
func (v *VulkanRenderer) EndFrame() (bool, error) {
	if !v.ledger.inProgress {
		panic("gfx: EndFrame without a frame in progress")
	}

	slot := &v.frames[v.ledger.slot()]
	if err := vk.Error(vk.EndCommandBuffer(slot.commandBuffer)); err != nil {
		v.ledger.abort()
		return false, errors.New("vk.EndCommandBuffer(): " + err.Error())
	}

	// Reset only once the submit that re-signals the fence is the very
	// next call. Resetting earlier and then failing the frame would
	// leave the fence unsignaled with nothing pending, hanging the
	// next wait on this slot forever.
	if err := slot.inFlight.Reset(); err != nil {
		v.ledger.abort()
		return false, errors.New("in-flight fence reset: " + err.Error())
	}

	renderFinished := v.renderFinished[v.imageIndex]

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{slot.imageAvailable.Handle()},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{slot.commandBuffer},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{renderFinished.Handle()},
	}}
	if err := vk.Error(vk.QueueSubmit(v.device.GraphicsQueue(), 1, submit, slot.inFlight.Handle())); err != nil {
		v.ledger.abort()
		return false, errors.New("vk.QueueSubmit(): " + err.Error())
	}

	result, err := v.swapchain.Present(
		v.device.PresentQueue(),
		[]vk.Semaphore{renderFinished.Handle()},
		v.imageIndex,
	)
	if err != nil {
		v.ledger.end()
		return false, errors.New("vk.QueuePresent(): " + err.Error())
	}
	if result == AcquireOutOfDate || result == AcquireSuboptimal {
		v.swapchain.MarkForRecreation()
	}

	v.ledger.end()

	if v.swapchain.NeedsRecreation() {
		v.ledger.markRecreate()
	}
	if v.ledger.shouldRecreate() {
		if err := v.Recreate(); err != nil {
			return false, err
		}
		v.ledger.didRecreate()
		return false, nil
	}
	return !v.ledger.wantRecreate, nil
}

// Recreate rebuilds the swapchain and everything sized to it. The
// per slot fences and semaphores survive, they are independent of the
// image contents; per image semaphores are rebuilt only when the image
// count changed.
func (v *VulkanRenderer) Recreate() error {
	if err := v.device.WaitIdle(); err != nil {
		return errors.New("device wait idle before recreation: " + err.Error())
	}

	oldCount := v.swapchain.ImageCount()
	if err := v.swapchain.Recreate(v.pendingWidth, v.pendingHeight); err != nil {
		return fmt.Errorf("swapchain recreation: %w", err)
	}
	if v.swapchain.ImageCount() != oldCount {
		if err := v.createImageSemaphores(); err != nil {
			return err
		}
	}

	for _, fb := range v.framebuffers {
		fb.Destroy()
	}
	framebuffers, err := newFramebuffers(v.device, v.renderPass, v.swapchain)
	if err != nil {
		return err
	}
	v.framebuffers = framebuffers

	v.log.WithFields(log.Fields{
		"width":  v.swapchain.Extent().Width,
		"height": v.swapchain.Extent().Height,
		"frame":  v.ledger.frames(),
	}).Debug("swapchain recreated")
	return nil
}

// Resize implements interface
func (v *VulkanRenderer) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	v.pendingWidth = width
	v.pendingHeight = height
	if v.initialized {
		v.swapchain.MarkForRecreation()
	}
}

// CommandBuffer implements interface
func (v *VulkanRenderer) CommandBuffer() vk.CommandBuffer {
	if !v.ledger.inProgress {
		panic("gfx: CommandBuffer called with no frame in progress")
	}
	return v.frames[v.ledger.slot()].commandBuffer
}

// Framebuffer implements interface
func (v *VulkanRenderer) Framebuffer() vk.Framebuffer {
	if !v.ledger.inProgress {
		panic("gfx: Framebuffer called with no frame in progress")
	}
	return v.framebuffers[v.imageIndex].Handle()
}

// RenderPass implements interface
func (v *VulkanRenderer) RenderPass() vk.RenderPass {
	return v.renderPass.Handle()
}

// Extent implements interface
func (v *VulkanRenderer) Extent() vk.Extent2D {
	return v.swapchain.Extent()
}

// FrameCount implements interface
func (v *VulkanRenderer) FrameCount() uint64 {
	return v.ledger.frames()
}

// Swapchain exposes the owned swapchain for advanced embedding
func (v *VulkanRenderer) Swapchain() *Swapchain {
	return v.swapchain
}

// Destroy implements interface. Teardown never fails; a device that
// refuses to drain is logged and released anyway.
func (v *VulkanRenderer) Destroy() {
	if v.device == nil {
		return
	}
	if err := v.device.WaitIdle(); err != nil {
		v.log.Warn("wait idle during teardown: ", err)
	}

	for i := range v.frames {
		v.frames[i].destroy()
	}
	v.frames = nil

	for _, s := range v.renderFinished {
		s.Destroy()
	}
	v.renderFinished = nil

	for _, fb := range v.framebuffers {
		fb.Destroy()
	}
	v.framebuffers = nil

	v.renderPass.Destroy()
	if v.swapchain != nil {
		v.swapchain.Destroy()
	}
	v.initialized = false
}
