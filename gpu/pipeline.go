package gpu

import "github.com/cockroachdb/errors"

// Layout of one triangle vertex: a position followed by a color.
const (
	PositionSize = 12
	ColorSize    = 12
	VertexStride = PositionSize + ColorSize
)

// TriangleVertexLayout describes a single per-vertex buffer in slot 0 with
// position at location 0 and color at location 1.
func TriangleVertexLayout() VertexInputState {
	return VertexInputState{
		Buffers: []VertexBufferDescription{
			{Slot: 0, Pitch: VertexStride, InputRate: VertexInputRateVertex},
		},
		Attributes: []VertexAttribute{
			{Location: 0, BufferSlot: 0, Format: VertexElementFormatFloat3, Offset: 0},
			{Location: 1, BufferSlot: 0, Format: VertexElementFormatFloat3, Offset: PositionSize},
		},
	}
}

// TrianglePipelineInfo returns the pipeline description used for the
// triangle, rendering into targets of the given format.
func TrianglePipelineInfo(vertexShader, fragmentShader Shader, format TextureFormat) GraphicsPipelineCreateInfo {
	return GraphicsPipelineCreateInfo{
		Label:          "triangle pipeline",
		VertexShader:   vertexShader,
		FragmentShader: fragmentShader,
		VertexInput:    TriangleVertexLayout(),
		PrimitiveType:  PrimitiveTypeTriangleList,
		Rasterizer: RasterizerState{
			FillMode:  FillModeFill,
			CullMode:  CullModeNone,
			FrontFace: FrontFaceCounterClockwise,
		},
		Multisample: MultisampleState{SampleCount: SampleCount1},
		ColorTargets: []ColorTargetDescription{
			{Format: format, BlendEnabled: false},
		},
	}
}

// BuildPipeline creates the triangle pipeline for the swapchain format of
// surface. The shaders are only read; the caller keeps ownership of them.
func BuildPipeline(device Device, surface Surface, vertexShader, fragmentShader Shader) (Owned[GraphicsPipeline], error) {
	if device == nil || surface == nil {
		return Owned[GraphicsPipeline]{}, pipelineError(errors.New("no device or surface"), "build pipeline")
	}
	if vertexShader == nil || fragmentShader == nil {
		return Owned[GraphicsPipeline]{}, pipelineError(errors.New("missing shader"), "build pipeline")
	}

	format := device.SwapchainTextureFormat(surface)
	if format == TextureFormatInvalid {
		return Owned[GraphicsPipeline]{}, pipelineError(
			errors.Newf("surface %q has no swapchain format", surface.Label()), "build pipeline")
	}

	pipeline, err := device.CreateGraphicsPipeline(TrianglePipelineInfo(vertexShader, fragmentShader, format))
	if err != nil {
		return Owned[GraphicsPipeline]{}, pipelineError(err, "create graphics pipeline")
	}

	Logger().WithField("format", format).Info("Graphics pipeline created successfully")
	return OwnGraphicsPipeline(device, pipeline), nil
}
