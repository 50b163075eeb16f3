package gpu

// Resource is implemented by every device-side object handle.
type Resource interface {
	// Label returns the debug name the object was created with.
	Label() string
}

// Shader is a compiled shader module.
type Shader interface {
	Resource
	Stage() ShaderStage
}

// GraphicsPipeline is an immutable bundle of shader stages and fixed-function state.
type GraphicsPipeline interface {
	Resource
}

// Buffer is device-resident memory.
type Buffer interface {
	Resource
	Size() int
}

// TransferBuffer is host-visible staging memory.
type TransferBuffer interface {
	Resource
	Size() int
}

// Fence signals that a submitted command buffer has finished executing.
type Fence interface {
	Resource
}

// Texture is an image that can be used as a render pass target.
type Texture interface {
	Resource
	Format() TextureFormat
}

// Surface is a platform window claimed by a Device for presentation.
type Surface interface {
	Resource
}

// Device creates and releases GPU objects and hands out command buffers.
//
// All methods must be called from the goroutine that owns the device.
// Release methods accept only handles created by the same Device.
type Device interface {
	CreateShader(info ShaderCreateInfo) (Shader, error)
	ReleaseShader(shader Shader)

	CreateGraphicsPipeline(info GraphicsPipelineCreateInfo) (GraphicsPipeline, error)
	ReleaseGraphicsPipeline(pipeline GraphicsPipeline)

	CreateBuffer(info BufferCreateInfo) (Buffer, error)
	ReleaseBuffer(buffer Buffer)

	CreateTransferBuffer(info TransferBufferCreateInfo) (TransferBuffer, error)
	ReleaseTransferBuffer(buffer TransferBuffer)

	// MapTransferBuffer returns the host-visible memory of the transfer
	// buffer. The slice is only valid until UnmapTransferBuffer.
	MapTransferBuffer(buffer TransferBuffer) ([]byte, error)
	UnmapTransferBuffer(buffer TransferBuffer)

	AcquireCommandBuffer() (CommandBuffer, error)

	// QueryFence reports whether the fence has been signalled. It never blocks.
	QueryFence(fence Fence) bool
	ReleaseFence(fence Fence)

	// SwapchainTextureFormat returns the presentation format negotiated for
	// the surface, or TextureFormatInvalid if the surface is not claimed.
	SwapchainTextureFormat(surface Surface) TextureFormat
}

// CommandBuffer records passes for a single submission.
//
// A command buffer is finished by exactly one of Submit,
// SubmitAndAcquireFence or Cancel. It must not be used afterwards.
type CommandBuffer interface {
	// AcquireSwapchainTexture returns the next presentable texture of the
	// surface. A nil texture with a nil error means there is nothing to
	// render into this frame; the command buffer must still be submitted.
	AcquireSwapchainTexture(surface Surface) (Texture, error)

	BeginCopyPass() CopyPass
	BeginRenderPass(targets ...ColorTargetInfo) RenderPass

	Submit() error
	SubmitAndAcquireFence() (Fence, error)
	Cancel()
}

// CopyPass records transfers between transfer buffers and device buffers.
type CopyPass interface {
	UploadToBuffer(source TransferBufferLocation, destination BufferRegion)
	End()
}

// RenderPass records draw commands against a set of color targets.
type RenderPass interface {
	BindGraphicsPipeline(pipeline GraphicsPipeline)
	BindVertexBuffers(firstSlot int, bindings ...BufferBinding)
	DrawPrimitives(numVertices, numInstances, firstVertex, firstInstance int)
	End()
}
