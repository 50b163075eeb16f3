package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/gputriangle/gpu"
)

func TestTextureFormatRoundTrip(t *testing.T) {
	for format := range textureFormats {
		vk, ok := toVkFormat(format)
		assert.True(t, ok, format.String())
		assert.Equal(t, format, fromVkFormat(vk))
	}

	_, ok := toVkFormat(gpu.TextureFormatInvalid)
	assert.False(t, ok)
	assert.Equal(t, gpu.TextureFormatInvalid, fromVkFormat(core1_0.FormatR32SignedFloat))
}

func TestChooseSwapSurfaceFormat(t *testing.T) {
	srgb := khr_surface.SurfaceFormat{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	unorm := khr_surface.SurfaceFormat{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}
	unknown := khr_surface.SurfaceFormat{Format: core1_0.FormatR32SignedFloat, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear}

	assert.Equal(t, srgb, chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{unknown, unorm, srgb}))
	assert.Equal(t, unorm, chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{unknown, unorm}))
	assert.Equal(t, unknown, chooseSwapSurfaceFormat([]khr_surface.SurfaceFormat{unknown}))
}

func TestChooseSwapPresentMode(t *testing.T) {
	assert.Equal(t, khr_surface.PresentModeMailbox, chooseSwapPresentMode([]khr_surface.PresentMode{
		khr_surface.PresentModeFIFO, khr_surface.PresentModeMailbox,
	}))
	assert.Equal(t, khr_surface.PresentModeFIFO, chooseSwapPresentMode([]khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
	}))
}

func TestChooseSwapExtent(t *testing.T) {
	fixed := &khr_surface.SurfaceCapabilities{
		CurrentExtent: core1_0.Extent2D{Width: 800, Height: 600},
	}
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, chooseSwapExtent(fixed, 1280, 720))

	free := &khr_surface.SurfaceCapabilities{
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 64, Height: 64},
		MaxImageExtent: core1_0.Extent2D{Width: 1024, Height: 1024},
	}
	assert.Equal(t, core1_0.Extent2D{Width: 1024, Height: 720}, chooseSwapExtent(free, 1280, 720))
	assert.Equal(t, core1_0.Extent2D{Width: 64, Height: 64}, chooseSwapExtent(free, 10, 0))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, 3, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2}))
	assert.Equal(t, 2, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
	assert.Equal(t, 4, chooseImageCount(&khr_surface.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 8}))
}

func TestPipelineStateTables(t *testing.T) {
	assert.Equal(t, core1_0.PrimitiveTopologyTriangleList, topologies[gpu.PrimitiveTypeTriangleList])
	assert.Equal(t, core1_0.CullModeFlags(0), cullModes[gpu.CullModeNone])
	assert.Equal(t, core1_0.FrontFaceCounterClockwise, frontFaces[gpu.FrontFaceCounterClockwise])
	assert.Equal(t, core1_0.FormatR32G32B32SignedFloat, vertexFormats[gpu.VertexElementFormatFloat3])
	assert.Equal(t, core1_0.Samples1, sampleCounts[gpu.SampleCount1])
}

func TestVertexInputState(t *testing.T) {
	info, err := vertexInputState(gpu.VertexInputState{
		Buffers: []gpu.VertexBufferDescription{{Slot: 0, Pitch: 24, InputRate: gpu.VertexInputRateVertex}},
		Attributes: []gpu.VertexAttribute{
			{Location: 0, BufferSlot: 0, Format: gpu.VertexElementFormatFloat3, Offset: 0},
			{Location: 1, BufferSlot: 0, Format: gpu.VertexElementFormatFloat3, Offset: 12},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, info.VertexBindingDescriptions, 1)
	assert.Equal(t, 24, info.VertexBindingDescriptions[0].Stride)
	assert.Len(t, info.VertexAttributeDescriptions, 2)
	assert.Equal(t, 12, info.VertexAttributeDescriptions[1].Offset)

	_, err = vertexInputState(gpu.VertexInputState{
		Attributes: []gpu.VertexAttribute{{Format: gpu.VertexElementFormatInvalid}},
	})
	assert.Error(t, err)
}
