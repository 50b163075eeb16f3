package gpu

// Owned holds a handle together with the call that releases it. The zero
// value holds nothing and releasing it is a no-op.
type Owned[T Resource] struct {
	handle  T
	release func(T)
	valid   bool
}

// Own takes ownership of handle. release is called at most once.
func Own[T Resource](handle T, release func(T)) Owned[T] {
	return Owned[T]{handle: handle, release: release, valid: release != nil}
}

// Get returns the held handle, or the zero value if nothing is held.
func (o *Owned[T]) Get() T {
	return o.handle
}

// Valid reports whether the wrapper still holds a handle.
func (o *Owned[T]) Valid() bool {
	return o.valid
}

// Release gives the handle back to the device that created it. Calling it
// again, or on an empty wrapper, does nothing.
func (o *Owned[T]) Release() {
	if !o.valid {
		return
	}

	release := o.release
	handle := o.handle
	o.reset()
	release(handle)
}

// Take moves ownership out of o into a new wrapper and leaves o empty.
func (o *Owned[T]) Take() Owned[T] {
	taken := *o
	o.reset()
	return taken
}

func (o *Owned[T]) reset() {
	var zero T
	o.handle = zero
	o.release = nil
	o.valid = false
}

func OwnShader(device Device, shader Shader) Owned[Shader] {
	return Own(shader, device.ReleaseShader)
}

func OwnGraphicsPipeline(device Device, pipeline GraphicsPipeline) Owned[GraphicsPipeline] {
	return Own(pipeline, device.ReleaseGraphicsPipeline)
}

func OwnBuffer(device Device, buffer Buffer) Owned[Buffer] {
	return Own(buffer, device.ReleaseBuffer)
}

func OwnTransferBuffer(device Device, buffer TransferBuffer) Owned[TransferBuffer] {
	return Own(buffer, device.ReleaseTransferBuffer)
}

func OwnFence(device Device, fence Fence) Owned[Fence] {
	return Own(fence, device.ReleaseFence)
}
