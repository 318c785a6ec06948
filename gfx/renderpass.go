// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// RenderPass describes the attachment layout rendering happens in. It
// is immutable once constructed and owns no images.
type RenderPass struct {
	device     vk.Device
	renderPass vk.RenderPass
	format     vk.Format
}

// NewRenderPass builds a single subpass render pass with one color
// attachment in the swapchain format, cleared on load and transitioned
// to the present layout on store.
func NewRenderPass(device *Device, format vk.Format) (*RenderPass, error) {
	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	colorAttachmentRef := []vk.AttachmentReference{{
		Attachment: 0,
		Layout:     vk.ImageLayoutColorAttachmentOptimal,
	}}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentRef)),
		PColorAttachments:    colorAttachmentRef,
	}

	// Rendering must wait for the acquire semaphore before touching
	// the color attachment
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(device.Handle(), &rpci, nil, &renderPass)); err != nil {
		return nil, errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	return &RenderPass{
		device:     device.Handle(),
		renderPass: renderPass,
		format:     format,
	}, nil
}

// Handle returns the inner vk.RenderPass
func (r *RenderPass) Handle() vk.RenderPass {
	return r.renderPass
}

// Format returns the color attachment format the pass was built for
func (r *RenderPass) Format() vk.Format {
	return r.format
}

// Destroy releases the render pass. Safe to call more than once.
func (r *RenderPass) Destroy() {
	if r == nil || r.renderPass == vk.NullRenderPass {
		return
	}
	vk.DestroyRenderPass(r.device, r.renderPass, nil)
	r.renderPass = vk.NullRenderPass
}

// Framebuffer binds one swapchain image view to a render pass at a
// fixed extent. Framebuffers must be rebuilt whenever the swapchain or
// its extent changes.
type Framebuffer struct {
	device      vk.Device
	framebuffer vk.Framebuffer
}

// NewFramebuffer creates a framebuffer over view for renderPass
func NewFramebuffer(device *Device, renderPass *RenderPass, view vk.ImageView, extent vk.Extent2D) (*Framebuffer, error) {
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass.Handle(),
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := vk.Error(vk.CreateFramebuffer(device.Handle(), &fci, nil, &framebuffer)); err != nil {
		return nil, errors.New("vk.CreateFramebuffer(): " + err.Error())
	}
	return &Framebuffer{device: device.Handle(), framebuffer: framebuffer}, nil
}

// newFramebuffers builds one framebuffer per swapchain image view,
// releasing everything already built when one fails.
func newFramebuffers(device *Device, renderPass *RenderPass, swapchain *Swapchain) ([]*Framebuffer, error) {
	views := swapchain.ImageViews()
	framebuffers := make([]*Framebuffer, 0, len(views))
	for idx, view := range views {
		fb, err := NewFramebuffer(device, renderPass, view, swapchain.Extent())
		if err != nil {
			for _, built := range framebuffers {
				built.Destroy()
			}
			return nil, fmt.Errorf("framebuffer %d: %w", idx, err)
		}
		framebuffers = append(framebuffers, fb)
	}
	return framebuffers, nil
}

// Handle returns the inner vk.Framebuffer
func (f *Framebuffer) Handle() vk.Framebuffer {
	return f.framebuffer
}

// Destroy releases the framebuffer. Safe to call more than once.
func (f *Framebuffer) Destroy() {
	if f == nil || f.framebuffer == vk.NullFramebuffer {
		return
	}
	vk.DestroyFramebuffer(f.device, f.framebuffer, nil)
	f.framebuffer = vk.NullFramebuffer
}
