// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// PipelineConfiguration describes a graphics pipeline to build. Vertex
// descriptions may be empty for pipelines that synthesize geometry in
// the vertex shader.
type PipelineConfiguration struct {
	Shaders []*Shader

	VertexBindings   []vk.VertexInputBindingDescription
	VertexAttributes []vk.VertexInputAttributeDescription
}

// Pipeline owns a graphics pipeline, its layout and its cache.
// Viewport and scissor are dynamic state, the pipeline survives
// swapchain recreation.
type Pipeline struct {
	device   vk.Device
	pipeline vk.Pipeline
	layout   vk.PipelineLayout
	cache    vk.PipelineCache
}

// NewPipeline builds a graphics pipeline against renderPass
func NewPipeline(device *Device, renderPass vk.RenderPass, cfg PipelineConfiguration) (*Pipeline, error) {
	stages := make([]vk.PipelineShaderStageCreateInfo, len(cfg.Shaders))
	for idx, shader := range cfg.Shaders {
		stage, err := shader.StageFlag()
		if err != nil {
			return nil, err
		}
		stages[idx] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: shader.Handle(),
			PName:  "main\x00",
		}
	}

	p := &Pipeline{device: device.Handle()}

	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	var layout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(device.Handle(), &plci, nil, &layout)); err != nil {
		return nil, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}
	p.layout = layout

	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	var cache vk.PipelineCache
	if err := vk.Error(vk.CreatePipelineCache(device.Handle(), &pcci, nil, &cache)); err != nil {
		p.Destroy()
		return nil, errors.New("vk.CreatePipelineCache(): " + err.Error())
	}
	p.cache = cache

	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(cfg.VertexBindings)),
			PVertexBindingDescriptions:      cfg.VertexBindings,
			VertexAttributeDescriptionCount: uint32(len(cfg.VertexAttributes)),
			PVertexAttributeDescriptions:    cfg.VertexAttributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: vk.PrimitiveTopologyTriangleList,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:   vk.FrontFaceClockwise,
			LineWidth:   1.0,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask: 0xF,
				BlendEnable:    vk.False,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateViewport,
				vk.DynamicStateScissor,
			},
		},
		Layout:     p.layout,
		RenderPass: renderPass,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := vk.Error(vk.CreateGraphicsPipelines(device.Handle(), p.cache, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		p.Destroy()
		return nil, errors.New("vk.CreateGraphicsPipelines(): " + err.Error())
	}
	p.pipeline = pipelines[0]

	return p, nil
}

// Handle returns the inner vk.Pipeline
func (p *Pipeline) Handle() vk.Pipeline {
	return p.pipeline
}

// Layout returns the pipeline layout
func (p *Pipeline) Layout() vk.PipelineLayout {
	return p.layout
}

// Destroy releases the pipeline, cache and layout. Safe to call more
// than once and on a partially built pipeline.
func (p *Pipeline) Destroy() {
	if p == nil {
		return
	}
	if p.pipeline != vk.NullPipeline {
		vk.DestroyPipeline(p.device, p.pipeline, nil)
		p.pipeline = vk.NullPipeline
	}
	if p.cache != vk.NullPipelineCache {
		vk.DestroyPipelineCache(p.device, p.cache, nil)
		p.cache = vk.NullPipelineCache
	}
	if p.layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(p.device, p.layout, nil)
		p.layout = vk.NullPipelineLayout
	}
}
