package gputest

import (
	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/gputriangle/gpu"
)

var errFinished = errors.New("gputest: command buffer already finished")

// Draw is one recorded DrawPrimitives call.
type Draw struct {
	Vertices, Instances, FirstVertex, FirstInstance int
}

// RenderPass records the commands of one render pass.
type RenderPass struct {
	Targets   []gpu.ColorTargetInfo
	Pipelines []gpu.GraphicsPipeline
	Bindings  []gpu.BufferBinding
	Draws     []Draw
	Ended     bool
}

func (p *RenderPass) BindGraphicsPipeline(pipeline gpu.GraphicsPipeline) {
	p.Pipelines = append(p.Pipelines, pipeline)
}

func (p *RenderPass) BindVertexBuffers(firstSlot int, bindings ...gpu.BufferBinding) {
	p.Bindings = append(p.Bindings, bindings...)
}

func (p *RenderPass) DrawPrimitives(numVertices, numInstances, firstVertex, firstInstance int) {
	p.Draws = append(p.Draws, Draw{numVertices, numInstances, firstVertex, firstInstance})
}

func (p *RenderPass) End() { p.Ended = true }

// Copy is one recorded UploadToBuffer call.
type Copy struct {
	Source      gpu.TransferBufferLocation
	Destination gpu.BufferRegion
}

// CopyPass records uploads. The bytes are copied into the destination
// buffer immediately.
type CopyPass struct {
	Copies []Copy
	Ended  bool
}

func (p *CopyPass) UploadToBuffer(source gpu.TransferBufferLocation, destination gpu.BufferRegion) {
	p.Copies = append(p.Copies, Copy{Source: source, Destination: destination})

	src := source.TransferBuffer.(*Handle).Data[source.Offset:]
	dst := destination.Buffer.(*Handle).Data[destination.Offset:]
	copy(dst[:destination.Size], src)
}

func (p *CopyPass) End() { p.Ended = true }

// CommandBuffer records the passes recorded into it and how it was finished.
type CommandBuffer struct {
	device *Device

	RenderPasses []*RenderPass
	CopyPasses   []*CopyPass
	Submitted    bool
	Cancelled    bool
	Fence        gpu.Fence
}

func (c *CommandBuffer) finished() bool {
	return c.Submitted || c.Cancelled
}

func (c *CommandBuffer) AcquireSwapchainTexture(surface gpu.Surface) (gpu.Texture, error) {
	if err := c.device.fail(OpAcquireSwapchainTexture); err != nil {
		return nil, err
	}
	if c.device.NoSwapchainTexture {
		return nil, nil
	}
	return &Handle{kind: KindTexture, label: surface.Label() + " image", format: c.device.SwapchainTextureFormat(surface)}, nil
}

func (c *CommandBuffer) BeginCopyPass() gpu.CopyPass {
	p := &CopyPass{}
	c.CopyPasses = append(c.CopyPasses, p)
	return p
}

func (c *CommandBuffer) BeginRenderPass(targets ...gpu.ColorTargetInfo) gpu.RenderPass {
	p := &RenderPass{Targets: targets}
	c.RenderPasses = append(c.RenderPasses, p)
	return p
}

func (c *CommandBuffer) Submit() error {
	if c.finished() {
		return errFinished
	}
	if err := c.device.fail(OpSubmit); err != nil {
		return err
	}
	c.Submitted = true
	return nil
}

func (c *CommandBuffer) SubmitAndAcquireFence() (gpu.Fence, error) {
	if c.finished() {
		return nil, errFinished
	}
	if err := c.device.fail(OpSubmitAndAcquireFence); err != nil {
		return nil, err
	}
	c.Submitted = true
	c.Fence = c.device.newHandle(KindFence, "upload fence")
	return c.Fence, nil
}

func (c *CommandBuffer) Cancel() {
	if !c.finished() {
		c.Cancelled = true
	}
}
