package gpu_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/gputriangle/gpu"
	"github.com/vkngwrapper/gputriangle/gpu/gputest"
)

func newShaders(t *testing.T, device *gputest.Device) (gpu.Owned[gpu.Shader], gpu.Owned[gpu.Shader]) {
	t.Helper()

	vert, err := gpu.CreateShader(device, gpu.ShaderStageVertex, "vs", []byte{3, 2, 35, 7})
	require.NoError(t, err)
	frag, err := gpu.CreateShader(device, gpu.ShaderStageFragment, "fs", []byte{3, 2, 35, 7})
	require.NoError(t, err)
	return vert, frag
}

func TestBuildPipelineDescriptor(t *testing.T) {
	device := gputest.NewDevice()
	device.SwapchainFormat = gpu.TextureFormatR8G8B8A8UNorm
	surface := device.NewSurface("window")
	vert, frag := newShaders(t, device)

	pipeline, err := gpu.BuildPipeline(device, surface, vert.Get(), frag.Get())
	require.NoError(t, err)
	require.True(t, pipeline.Valid())

	infos := device.Pipelines()
	require.Len(t, infos, 1)
	info := infos[0]

	require.Same(t, vert.Get(), info.VertexShader)
	require.Same(t, frag.Get(), info.FragmentShader)
	require.Equal(t, gpu.PrimitiveTypeTriangleList, info.PrimitiveType)
	require.Equal(t, gpu.RasterizerState{
		FillMode:  gpu.FillModeFill,
		CullMode:  gpu.CullModeNone,
		FrontFace: gpu.FrontFaceCounterClockwise,
	}, info.Rasterizer)
	require.Equal(t, gpu.SampleCount1, info.Multisample.SampleCount)
	require.Equal(t, []gpu.ColorTargetDescription{{Format: gpu.TextureFormatR8G8B8A8UNorm}}, info.ColorTargets)

	require.Equal(t, []gpu.VertexBufferDescription{
		{Slot: 0, Pitch: 24, InputRate: gpu.VertexInputRateVertex},
	}, info.VertexInput.Buffers)
	require.Equal(t, []gpu.VertexAttribute{
		{Location: 0, BufferSlot: 0, Format: gpu.VertexElementFormatFloat3, Offset: 0},
		{Location: 1, BufferSlot: 0, Format: gpu.VertexElementFormatFloat3, Offset: 12},
	}, info.VertexInput.Attributes)

	// Building does not take the shaders.
	pipeline.Release()
	require.Zero(t, device.Released(gputest.KindShader))
	vert.Release()
	frag.Release()
	require.Zero(t, device.Live())
}

func TestBuildPipelineRejected(t *testing.T) {
	device := gputest.NewDevice()
	surface := device.NewSurface("window")
	vert, frag := newShaders(t, device)
	defer vert.Release()
	defer frag.Release()

	device.FailNext(gputest.OpCreateGraphicsPipeline, nil)
	pipeline, err := gpu.BuildPipeline(device, surface, vert.Get(), frag.Get())

	require.False(t, pipeline.Valid())
	require.True(t, errors.Is(err, gpu.ErrPipelineCreation))
	require.True(t, errors.Is(err, gpu.ErrResourceCreation))
}

func TestBuildPipelineUnclaimedSurface(t *testing.T) {
	device := gputest.NewDevice()
	device.SwapchainFormat = gpu.TextureFormatInvalid
	vert, frag := newShaders(t, device)
	defer vert.Release()
	defer frag.Release()

	_, err := gpu.BuildPipeline(device, device.NewSurface("window"), vert.Get(), frag.Get())
	require.True(t, errors.Is(err, gpu.ErrPipelineCreation))
	require.Zero(t, device.Created(gputest.KindPipeline))
}

func TestVertexLayoutStride(t *testing.T) {
	layout := gpu.TriangleVertexLayout()

	size := 0
	for _, attr := range layout.Attributes {
		size += attr.Format.Size()
	}
	require.Equal(t, layout.Buffers[0].Pitch, size)
	require.Equal(t, gpu.VertexStride, size)
}
