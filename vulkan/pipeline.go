package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"

	"github.com/vkngwrapper/gputriangle/gpu"
)

type renderPassKey struct {
	format  core1_0.Format
	loadOp  gpu.LoadOp
	storeOp gpu.StoreOp
}

type pipeline struct {
	label    string
	layout   core1_0.PipelineLayout
	pipeline core1_0.Pipeline
}

func (p *pipeline) Label() string { return p.label }

// renderPass returns a render pass for a single swapchain color attachment.
// Passes that differ only in load and store ops are compatible, so a
// pipeline built against one can be used in any of them.
func (d *Device) renderPass(key renderPassKey) (core1_0.RenderPass, error) {
	if renderPass, ok := d.renderPasses[key]; ok {
		return renderPass, nil
	}

	initialLayout := core1_0.ImageLayoutUndefined
	if key.loadOp == gpu.LoadOpLoad {
		initialLayout = khr_swapchain.ImageLayoutPresentSrc
	}

	renderPass, _, err := d.deviceDriver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments: []core1_0.AttachmentDescription{
			{
				Format:         key.format,
				Samples:        core1_0.Samples1,
				LoadOp:         loadOps[key.loadOp],
				StoreOp:        storeOps[key.storeOp],
				StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
				StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
				InitialLayout:  initialLayout,
				FinalLayout:    khr_swapchain.ImageLayoutPresentSrc,
			},
		},
		Subpasses: []core1_0.SubpassDescription{
			{
				PipelineBindPoint: core1_0.PipelineBindPointGraphics,
				ColorAttachments: []core1_0.AttachmentReference{
					{
						Attachment: 0,
						Layout:     core1_0.ImageLayoutColorAttachmentOptimal,
					},
				},
			},
		},
		SubpassDependencies: []core1_0.SubpassDependency{
			{
				SrcSubpass: core1_0.SubpassExternal,
				DstSubpass: 0,

				SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				SrcAccessMask: 0,

				DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
				DstAccessMask: core1_0.AccessColorAttachmentWrite,
			},
		},
	})
	if err != nil {
		return core1_0.RenderPass{}, errors.Wrap(err, "create render pass")
	}

	d.renderPasses[key] = renderPass
	return renderPass, nil
}

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.GraphicsPipeline, error) {
	if d.surface == nil {
		return nil, errors.Newf("pipeline %q: no window claimed", info.Label)
	}
	if len(info.ColorTargets) != 1 {
		return nil, errors.Newf("pipeline %q: exactly one color target is supported, got %d", info.Label, len(info.ColorTargets))
	}
	vs, ok := info.VertexShader.(*shader)
	if !ok || vs.stage != gpu.ShaderStageVertex {
		return nil, errors.Newf("pipeline %q: missing vertex shader", info.Label)
	}
	fs, ok := info.FragmentShader.(*shader)
	if !ok || fs.stage != gpu.ShaderStageFragment {
		return nil, errors.Newf("pipeline %q: missing fragment shader", info.Label)
	}

	format, ok := toVkFormat(info.ColorTargets[0].Format)
	if !ok {
		return nil, errors.Newf("pipeline %q: unsupported color format %s", info.Label, info.ColorTargets[0].Format)
	}
	renderPass, err := d.renderPass(renderPassKey{format: format, loadOp: gpu.LoadOpClear, storeOp: gpu.StoreOpStore})
	if err != nil {
		return nil, err
	}

	vertexInput, err := vertexInputState(info.VertexInput)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", info.Label)
	}

	extent := d.surface.extent
	colorBlend := &core1_0.PipelineColorBlendStateCreateInfo{
		LogicOpEnabled: false,
		LogicOp:        core1_0.LogicOpCopy,

		BlendConstants: [4]float32{0, 0, 0, 0},
		Attachments: []core1_0.PipelineColorBlendAttachmentState{
			{
				BlendEnabled:   info.ColorTargets[0].BlendEnabled,
				ColorWriteMask: core1_0.ColorComponentRed | core1_0.ColorComponentGreen | core1_0.ColorComponentBlue | core1_0.ColorComponentAlpha,
			},
		},
	}

	layout, _, err := d.deviceDriver.CreatePipelineLayout(nil, core1_0.PipelineLayoutCreateInfo{})
	if err != nil {
		return nil, errors.Wrapf(err, "create pipeline layout %q", info.Label)
	}

	pipelines, _, err := d.deviceDriver.CreateGraphicsPipelines(nil, nil,
		core1_0.GraphicsPipelineCreateInfo{
			Stages: []core1_0.PipelineShaderStageCreateInfo{
				{
					Stage:  core1_0.StageVertex,
					Module: vs.module,
					Name:   vs.entry,
				},
				{
					Stage:  core1_0.StageFragment,
					Module: fs.module,
					Name:   fs.entry,
				},
			},
			VertexInputState: vertexInput,
			InputAssemblyState: &core1_0.PipelineInputAssemblyStateCreateInfo{
				Topology:               topologies[info.PrimitiveType],
				PrimitiveRestartEnable: false,
			},
			ViewportState: &core1_0.PipelineViewportStateCreateInfo{
				Viewports: []core1_0.Viewport{
					{
						X:        0,
						Y:        0,
						Width:    float32(extent.Width),
						Height:   float32(extent.Height),
						MinDepth: 0,
						MaxDepth: 1,
					},
				},
				Scissors: []core1_0.Rect2D{
					{
						Offset: core1_0.Offset2D{X: 0, Y: 0},
						Extent: extent,
					},
				},
			},
			RasterizationState: &core1_0.PipelineRasterizationStateCreateInfo{
				DepthClampEnable:        false,
				RasterizerDiscardEnable: false,

				PolygonMode: polygonModes[info.Rasterizer.FillMode],
				CullMode:    cullModes[info.Rasterizer.CullMode],
				FrontFace:   frontFaces[info.Rasterizer.FrontFace],

				DepthBiasEnable: false,

				LineWidth: 1.0,
			},
			MultisampleState: &core1_0.PipelineMultisampleStateCreateInfo{
				SampleShadingEnable:  false,
				RasterizationSamples: sampleCounts[info.Multisample.SampleCount],
				MinSampleShading:     1.0,
			},
			ColorBlendState:   colorBlend,
			Layout:            layout,
			RenderPass:        renderPass,
			Subpass:           0,
			BasePipelineIndex: -1,
		},
	)
	if err != nil {
		d.deviceDriver.DestroyPipelineLayout(layout, nil)
		return nil, errors.Wrapf(err, "create graphics pipeline %q", info.Label)
	}

	return &pipeline{label: info.Label, layout: layout, pipeline: pipelines[0]}, nil
}

func (d *Device) ReleaseGraphicsPipeline(p gpu.GraphicsPipeline) {
	pl := p.(*pipeline)
	if pl.pipeline.Initialized() {
		d.deviceDriver.DestroyPipeline(pl.pipeline, nil)
		pl.pipeline = core1_0.Pipeline{}
	}
	if pl.layout.Initialized() {
		d.deviceDriver.DestroyPipelineLayout(pl.layout, nil)
		pl.layout = core1_0.PipelineLayout{}
	}
}

func vertexInputState(state gpu.VertexInputState) (*core1_0.PipelineVertexInputStateCreateInfo, error) {
	info := &core1_0.PipelineVertexInputStateCreateInfo{}

	for _, b := range state.Buffers {
		rate := core1_0.VertexInputRateVertex
		if b.InputRate == gpu.VertexInputRateInstance {
			rate = core1_0.VertexInputRateInstance
		}
		info.VertexBindingDescriptions = append(info.VertexBindingDescriptions, core1_0.VertexInputBindingDescription{
			Binding:   b.Slot,
			Stride:    b.Pitch,
			InputRate: rate,
		})
	}

	for _, a := range state.Attributes {
		format, ok := vertexFormats[a.Format]
		if !ok {
			return nil, errors.Newf("attribute %d: unsupported format %s", a.Location, a.Format)
		}
		info.VertexAttributeDescriptions = append(info.VertexAttributeDescriptions, core1_0.VertexInputAttributeDescription{
			Binding:  a.BufferSlot,
			Location: a.Location,
			Format:   format,
			Offset:   a.Offset,
		})
	}

	return info, nil
}
