package vulkan

import (
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"

	"github.com/vkngwrapper/gputriangle/gpu"
)

var textureFormats = map[gpu.TextureFormat]core1_0.Format{
	gpu.TextureFormatB8G8R8A8UNorm: core1_0.FormatB8G8R8A8UnsignedNormalized,
	gpu.TextureFormatB8G8R8A8SRGB:  core1_0.FormatB8G8R8A8SRGB,
	gpu.TextureFormatR8G8B8A8UNorm: core1_0.FormatR8G8B8A8UnsignedNormalized,
	gpu.TextureFormatR8G8B8A8SRGB:  core1_0.FormatR8G8B8A8SRGB,
}

func toVkFormat(format gpu.TextureFormat) (core1_0.Format, bool) {
	f, ok := textureFormats[format]
	return f, ok
}

func fromVkFormat(format core1_0.Format) gpu.TextureFormat {
	for gf, vf := range textureFormats {
		if vf == format {
			return gf
		}
	}
	return gpu.TextureFormatInvalid
}

var vertexFormats = map[gpu.VertexElementFormat]core1_0.Format{
	gpu.VertexElementFormatFloat2: core1_0.FormatR32G32SignedFloat,
	gpu.VertexElementFormatFloat3: core1_0.FormatR32G32B32SignedFloat,
	gpu.VertexElementFormatFloat4: core1_0.FormatR32G32B32A32SignedFloat,
}

var topologies = map[gpu.PrimitiveType]core1_0.PrimitiveTopology{
	gpu.PrimitiveTypeTriangleList:  core1_0.PrimitiveTopologyTriangleList,
	gpu.PrimitiveTypeTriangleStrip: core1_0.PrimitiveTopologyTriangleStrip,
	gpu.PrimitiveTypeLineList:      core1_0.PrimitiveTopologyLineList,
	gpu.PrimitiveTypePointList:     core1_0.PrimitiveTopologyPointList,
}

var polygonModes = map[gpu.FillMode]core1_0.PolygonMode{
	gpu.FillModeFill: core1_0.PolygonModeFill,
	gpu.FillModeLine: core1_0.PolygonModeLine,
}

// Vulkan has no named flag for culling nothing.
const cullModeNone core1_0.CullModeFlags = 0

var cullModes = map[gpu.CullMode]core1_0.CullModeFlags{
	gpu.CullModeNone:  cullModeNone,
	gpu.CullModeFront: core1_0.CullModeFront,
	gpu.CullModeBack:  core1_0.CullModeBack,
}

var frontFaces = map[gpu.FrontFace]core1_0.FrontFace{
	gpu.FrontFaceCounterClockwise: core1_0.FrontFaceCounterClockwise,
	gpu.FrontFaceClockwise:        core1_0.FrontFaceClockwise,
}

var sampleCounts = map[gpu.SampleCount]core1_0.SampleCountFlags{
	gpu.SampleCount1: core1_0.Samples1,
	gpu.SampleCount2: core1_0.Samples2,
	gpu.SampleCount4: core1_0.Samples4,
	gpu.SampleCount8: core1_0.Samples8,
}

var loadOps = map[gpu.LoadOp]core1_0.AttachmentLoadOp{
	gpu.LoadOpLoad:     core1_0.AttachmentLoadOpLoad,
	gpu.LoadOpClear:    core1_0.AttachmentLoadOpClear,
	gpu.LoadOpDontCare: core1_0.AttachmentLoadOpDontCare,
}

var storeOps = map[gpu.StoreOp]core1_0.AttachmentStoreOp{
	gpu.StoreOpStore:    core1_0.AttachmentStoreOpStore,
	gpu.StoreOpDontCare: core1_0.AttachmentStoreOpDontCare,
}

func chooseSwapSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	// Prefer anything the rest of the device can name over an unknown format.
	for _, format := range availableFormats {
		if fromVkFormat(format.Format) != gpu.TextureFormatInvalid {
			return format
		}
	}

	return availableFormats[0]
}

func chooseSwapPresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, drawableWidth, drawableHeight int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	width := clamp(drawableWidth, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width)
	height := clamp(drawableHeight, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height)
	return core1_0.Extent2D{Width: width, Height: height}
}

func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
