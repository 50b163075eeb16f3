package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/gputriangle/gpu"
)

// submission is a command buffer handed to the queue together with the
// fence that signals its completion. Internal submissions are retired as
// soon as their fence is seen signalled; user submissions are retired by
// ReleaseFence.
type submission struct {
	cb      core1_0.CommandBuffer
	fence   core1_0.Fence
	user    bool
	retired bool
}

type fence struct {
	sub *submission
}

func (f *fence) Label() string { return "submission fence" }

func (d *Device) signalled(sub *submission) bool {
	if sub.retired {
		return true
	}
	res, err := d.deviceDriver.WaitForFences(true, 0, sub.fence)
	return err == nil && res != core1_0.VKTimeout
}

func (d *Device) waitSubmission(sub *submission) error {
	if sub == nil || sub.retired {
		return nil
	}
	_, err := d.deviceDriver.WaitForFences(true, common.NoTimeout, sub.fence)
	if err != nil {
		return errors.Wrap(err, "wait for frame")
	}
	d.collect()
	return nil
}

func (d *Device) retire(sub *submission) {
	if sub.retired {
		return
	}
	d.deviceDriver.FreeCommandBuffers(sub.cb)
	d.deviceDriver.DestroyFence(sub.fence, nil)
	sub.retired = true
}

// collect retires every finished internal submission.
func (d *Device) collect() {
	live := d.submissions[:0]
	for _, sub := range d.submissions {
		if !sub.user && d.signalled(sub) {
			d.retire(sub)
		}
		if !sub.retired {
			live = append(live, sub)
		}
	}
	for i := len(live); i < len(d.submissions); i++ {
		d.submissions[i] = nil
	}
	d.submissions = live
}

func (d *Device) QueryFence(f gpu.Fence) bool {
	return d.signalled(f.(*fence).sub)
}

// ReleaseFence waits for the submission behind f and frees it.
func (d *Device) ReleaseFence(f gpu.Fence) {
	sub := f.(*fence).sub
	if sub.retired {
		return
	}
	if err := d.waitSubmission(sub); err != nil {
		d.log.WithError(err).Warn("Releasing fence of unfinished submission")
	}

	d.retire(sub)
	for i, s := range d.submissions {
		if s == sub {
			d.submissions = append(d.submissions[:i], d.submissions[i+1:]...)
			break
		}
	}
}

func (d *Device) AcquireCommandBuffer() (gpu.CommandBuffer, error) {
	d.collect()

	buffers, _, err := d.deviceDriver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        d.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, errors.Wrap(err, "allocate command buffer")
	}

	cb := buffers[0]
	_, err = d.deviceDriver.BeginCommandBuffer(cb, core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		d.deviceDriver.FreeCommandBuffers(cb)
		return nil, errors.Wrap(err, "begin command buffer")
	}

	return &commandBuffer{device: d, cb: cb, image: -1}, nil
}

type commandBuffer struct {
	device *Device
	cb     core1_0.CommandBuffer
	done   bool
	// err is the first recording failure. It is reported by Submit.
	err error

	surface      *Surface
	frame        int
	image        int
	presentReady bool
	// returning marks a command buffer that only hands a held image back
	// after another one failed.
	returning bool
}

func (c *commandBuffer) record(err error) {
	if err != nil && c.err == nil {
		c.err = err
	}
}

func (c *commandBuffer) AcquireSwapchainTexture(surface gpu.Surface) (gpu.Texture, error) {
	s, ok := surface.(*Surface)
	if !ok || s != c.device.surface {
		return nil, errors.New("surface is not claimed by this device")
	}
	if c.image >= 0 {
		return nil, errors.New("swapchain texture already acquired")
	}

	frame := s.currentFrame
	imageIndex, err := c.device.acquireImage(s)
	if imageIndex < 0 {
		return nil, err
	}

	c.surface = s
	c.frame = frame
	c.image = imageIndex
	if err != nil {
		// The image is held; hand it back before reporting the failure.
		if _, submitErr := c.finish(false); submitErr != nil {
			c.device.log.WithError(submitErr).Warn("Submit after failed swapchain acquire failed")
		}
		return nil, err
	}
	return &swapchainTexture{surface: s, index: imageIndex}, nil
}

func (c *commandBuffer) BeginCopyPass() gpu.CopyPass {
	return &copyPass{c: c}
}

func (c *commandBuffer) BeginRenderPass(targets ...gpu.ColorTargetInfo) gpu.RenderPass {
	if len(targets) != 1 {
		c.record(errors.Newf("render pass needs exactly one color target, got %d", len(targets)))
		return &renderPass{}
	}
	target := targets[0]
	tex, ok := target.Texture.(*swapchainTexture)
	if !ok || tex.surface != c.surface || tex.index != c.image {
		c.record(errors.New("render target is not the swapchain texture of this command buffer"))
		return &renderPass{}
	}

	if err := c.beginRenderPass(target.LoadOp, target.StoreOp, target.ClearColor); err != nil {
		c.record(err)
		return &renderPass{}
	}
	return &renderPass{c: c, active: true}
}

func (c *commandBuffer) beginRenderPass(loadOp gpu.LoadOp, storeOp gpu.StoreOp, clear gpu.Color) error {
	d := c.device
	s := c.surface

	key := renderPassKey{format: s.format, loadOp: loadOp, storeOp: storeOp}
	rp, err := d.renderPass(key)
	if err != nil {
		return err
	}
	framebuffer, err := d.framebuffer(s, key, rp, c.image)
	if err != nil {
		return err
	}

	err = d.deviceDriver.CmdBeginRenderPass(c.cb, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  rp,
			Framebuffer: framebuffer,
			RenderArea: core1_0.Rect2D{
				Offset: core1_0.Offset2D{X: 0, Y: 0},
				Extent: s.extent,
			},
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{clear.R, clear.G, clear.B, clear.A},
			},
		})
	if err != nil {
		return errors.Wrap(err, "begin render pass")
	}

	c.presentReady = true
	return nil
}

// finish ends recording and submits. An acquired swapchain image is
// presented; if nothing was rendered into it, it is cleared first so it
// reaches the presentable layout.
func (c *commandBuffer) finish(user bool) (*submission, error) {
	d := c.device
	if c.done {
		return nil, errors.New("command buffer already submitted")
	}
	c.done = true

	if c.image >= 0 && !c.presentReady {
		if err := c.beginRenderPass(gpu.LoadOpClear, gpu.StoreOpStore, gpu.Color{A: 1}); err != nil {
			c.record(err)
		} else {
			d.deviceDriver.CmdEndRenderPass(c.cb)
		}
	}

	_, err := d.deviceDriver.EndCommandBuffer(c.cb)
	c.record(errors.Wrap(err, "end command buffer"))
	if c.err != nil {
		d.deviceDriver.FreeCommandBuffers(c.cb)
		c.returnImage()
		return nil, c.err
	}

	vkFence, _, err := d.deviceDriver.CreateFence(nil, core1_0.FenceCreateInfo{})
	if err != nil {
		d.deviceDriver.FreeCommandBuffers(c.cb)
		c.returnImage()
		return nil, errors.Wrap(err, "create fence")
	}
	sub := &submission{cb: c.cb, fence: vkFence, user: user}

	info := core1_0.SubmitInfo{
		CommandBuffers: []core1_0.CommandBuffer{c.cb},
	}
	if c.image >= 0 {
		info.WaitSemaphores = []core1_0.Semaphore{c.surface.imageAvailable[c.frame]}
		info.WaitDstStageMask = []core1_0.PipelineStageFlags{core1_0.PipelineStageColorAttachmentOutput}
		info.SignalSemaphores = []core1_0.Semaphore{c.surface.renderFinished[c.image]}
	}

	_, err = d.deviceDriver.QueueSubmit(d.graphicsQueue, &vkFence, info)
	if err != nil {
		d.deviceDriver.DestroyFence(vkFence, nil)
		d.deviceDriver.FreeCommandBuffers(c.cb)
		c.returnImage()
		return nil, errors.Wrap(err, "queue submit")
	}
	d.submissions = append(d.submissions, sub)

	if c.image >= 0 {
		if err := d.present(c.surface, c.frame, c.image, sub); err != nil {
			return sub, err
		}
	}
	return sub, nil
}

// returnImage hands a held swapchain image back after c failed to submit.
// A fresh command buffer waits on the acquire semaphore, clears the image
// and presents it. If that is impossible too, the frame slot is skipped so
// the next acquire uses the other semaphore.
func (c *commandBuffer) returnImage() {
	if c.image < 0 {
		return
	}
	d := c.device
	s, frame, image := c.surface, c.frame, c.image
	c.image = -1

	if c.returning {
		d.log.WithField("image", image).Warn("Could not return swapchain image, skipping frame slot")
		s.advance(frame)
		return
	}

	cmd, err := d.AcquireCommandBuffer()
	if err != nil {
		d.log.WithError(err).WithField("image", image).Warn("Could not return swapchain image, skipping frame slot")
		s.advance(frame)
		return
	}

	replacement := cmd.(*commandBuffer)
	replacement.surface = s
	replacement.frame = frame
	replacement.image = image
	replacement.returning = true
	if _, err := replacement.finish(false); err != nil {
		d.log.WithError(err).WithField("image", image).Warn("Present of returned swapchain image failed")
	}
}

func (c *commandBuffer) Submit() error {
	_, err := c.finish(false)
	return err
}

func (c *commandBuffer) SubmitAndAcquireFence() (gpu.Fence, error) {
	sub, err := c.finish(true)
	if sub == nil {
		return nil, err
	}
	// A failed present does not undo the submission; the fence still
	// belongs to the caller.
	return &fence{sub: sub}, err
}

// Cancel discards the recorded commands. A command buffer that already
// holds a swapchain image cannot be cancelled and is submitted instead.
func (c *commandBuffer) Cancel() {
	if c.done {
		return
	}
	if c.image >= 0 {
		c.device.log.Warn("Cancelling a command buffer with an acquired swapchain image, submitting instead")
		if err := c.Submit(); err != nil {
			c.device.log.WithError(err).Warn("Submit of cancelled command buffer failed")
		}
		return
	}

	c.done = true
	_, _ = c.device.deviceDriver.EndCommandBuffer(c.cb)
	c.device.deviceDriver.FreeCommandBuffers(c.cb)
}

type copyPass struct {
	c *commandBuffer
}

func (p *copyPass) UploadToBuffer(source gpu.TransferBufferLocation, destination gpu.BufferRegion) {
	src := source.TransferBuffer.(*transferBuffer)
	dst := destination.Buffer.(*buffer)

	err := p.c.device.deviceDriver.CmdCopyBuffer(p.c.cb, src.buffer.buffer, dst.buffer,
		core1_0.BufferCopy{
			SrcOffset: source.Offset,
			DstOffset: destination.Offset,
			Size:      destination.Size,
		},
	)
	p.c.record(errors.Wrap(err, "copy buffer"))
}

// End makes the copies visible to vertex input of later submissions.
func (p *copyPass) End() {
	err := p.c.device.deviceDriver.CmdPipelineBarrier(p.c.cb,
		core1_0.PipelineStageTransfer, core1_0.PipelineStageVertexInput, 0,
		[]core1_0.MemoryBarrier{
			{
				SrcAccessMask: core1_0.AccessTransferWrite,
				DstAccessMask: core1_0.AccessVertexAttributeRead,
			},
		}, nil, nil)
	p.c.record(errors.Wrap(err, "copy barrier"))
}

// renderPass records into an open Vulkan render pass. An inactive pass
// belongs to a failed BeginRenderPass and ignores everything.
type renderPass struct {
	c      *commandBuffer
	active bool
}

func (p *renderPass) BindGraphicsPipeline(pl gpu.GraphicsPipeline) {
	if !p.active {
		return
	}
	p.c.device.deviceDriver.CmdBindPipeline(p.c.cb, core1_0.PipelineBindPointGraphics, pl.(*pipeline).pipeline)
}

func (p *renderPass) BindVertexBuffers(firstSlot int, bindings ...gpu.BufferBinding) {
	if !p.active || len(bindings) == 0 {
		return
	}

	buffers := make([]core1_0.Buffer, 0, len(bindings))
	offsets := make([]int, 0, len(bindings))
	for _, b := range bindings {
		buffers = append(buffers, b.Buffer.(*buffer).buffer)
		offsets = append(offsets, b.Offset)
	}
	p.c.device.deviceDriver.CmdBindVertexBuffers(p.c.cb, firstSlot, buffers, offsets)
}

func (p *renderPass) DrawPrimitives(numVertices, numInstances, firstVertex, firstInstance int) {
	if !p.active {
		return
	}
	p.c.device.deviceDriver.CmdDraw(p.c.cb, numVertices, numInstances, uint32(firstVertex), uint32(firstInstance))
}

func (p *renderPass) End() {
	if !p.active {
		return
	}
	p.c.device.deviceDriver.CmdEndRenderPass(p.c.cb)
	p.active = false
}
