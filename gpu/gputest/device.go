// Package gputest provides an in-memory gpu.Device that records every call
// made against it. It never talks to a real GPU.
package gputest

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/vkngwrapper/gputriangle/gpu"
)

// Kind identifies the type of object a Handle stands for.
type Kind int

const (
	KindShader Kind = iota
	KindPipeline
	KindBuffer
	KindTransferBuffer
	KindFence
	KindTexture
	KindSurface
)

var kindNames = map[Kind]string{
	KindShader:         "shader",
	KindPipeline:       "pipeline",
	KindBuffer:         "buffer",
	KindTransferBuffer: "transfer buffer",
	KindFence:          "fence",
	KindTexture:        "texture",
	KindSurface:        "surface",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Op names a device or command buffer call that can be made to fail.
type Op string

const (
	OpCreateShader            Op = "CreateShader"
	OpCreateGraphicsPipeline  Op = "CreateGraphicsPipeline"
	OpCreateBuffer            Op = "CreateBuffer"
	OpCreateTransferBuffer    Op = "CreateTransferBuffer"
	OpMapTransferBuffer       Op = "MapTransferBuffer"
	OpAcquireCommandBuffer    Op = "AcquireCommandBuffer"
	OpAcquireSwapchainTexture Op = "AcquireSwapchainTexture"
	OpSubmit                  Op = "Submit"
	OpSubmitAndAcquireFence   Op = "SubmitAndAcquireFence"
)

// Handle implements every gpu handle interface.
type Handle struct {
	kind     Kind
	id       int
	label    string
	stage    gpu.ShaderStage
	size     int
	format   gpu.TextureFormat
	released bool
	queries  int

	// Data is the content of a buffer or transfer buffer.
	Data []byte
	// Info is the create info the object was made from, if any.
	Info any
}

func (h *Handle) Label() string { return h.label }
func (h *Handle) Stage() gpu.ShaderStage { return h.stage }
func (h *Handle) Size() int { return h.size }
func (h *Handle) Format() gpu.TextureFormat { return h.format }
func (h *Handle) Kind() Kind { return h.kind }
func (h *Handle) Released() bool { return h.released }
func (h *Handle) String() string { return fmt.Sprintf("%s#%d(%s)", h.kind, h.id, h.label) }

// Device is a fake gpu.Device.
//
// Fences returned by SubmitAndAcquireFence report signalled on their
// SignalAfterPolls-th query, or never if NeverSignal is set.
type Device struct {
	SwapchainFormat  gpu.TextureFormat
	SignalAfterPolls int
	NeverSignal      bool
	// NoSwapchainTexture makes AcquireSwapchainTexture return no texture
	// and no error, as a minimized window does.
	NoSwapchainTexture bool

	nextID         int
	failures       map[Op]*failure
	created        map[Kind]int
	released       map[Kind]int
	calls          []string
	doubleReleases int
	pipelines      []gpu.GraphicsPipelineCreateInfo
	commandBuffers []*CommandBuffer
}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a device negotiating B8G8R8A8SRGB for every surface.
func NewDevice() *Device {
	return &Device{
		SwapchainFormat:  gpu.TextureFormatB8G8R8A8SRGB,
		SignalAfterPolls: 1,
		failures:         map[Op]*failure{},
		created:          map[Kind]int{},
		released:         map[Kind]int{},
	}
}

// NewSurface returns a surface claimed by the device.
func (d *Device) NewSurface(label string) *Handle {
	return d.newHandle(KindSurface, label)
}

type failure struct {
	remaining int
	err       error
}

// FailNext makes the next call of op return err. A nil err uses a generic one.
func (d *Device) FailNext(op Op, err error) {
	d.FailAt(op, 1, err)
}

// FailAt makes the n-th call of op from now on return err.
func (d *Device) FailAt(op Op, n int, err error) {
	if err == nil {
		err = errors.Newf("injected %s failure", op)
	}
	d.failures[op] = &failure{remaining: n, err: err}
}

func (d *Device) fail(op Op) error {
	f, ok := d.failures[op]
	if !ok {
		return nil
	}
	f.remaining--
	if f.remaining > 0 {
		return nil
	}
	delete(d.failures, op)
	d.record("%s failed", op)
	return f.err
}

func (d *Device) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *Device) newHandle(kind Kind, label string) *Handle {
	d.nextID++
	d.created[kind]++
	h := &Handle{kind: kind, id: d.nextID, label: label}
	d.record("create %s", h)
	return h
}

func (d *Device) release(kind Kind, r gpu.Resource) {
	h, ok := r.(*Handle)
	if !ok || h == nil || h.kind != kind {
		panic(fmt.Sprintf("gputest: release of foreign %s %v", kind, r))
	}
	if h.released {
		d.doubleReleases++
		d.record("double release %s", h)
		return
	}
	h.released = true
	d.released[kind]++
	d.record("release %s", h)
}

// Created returns how many objects of kind have been created.
func (d *Device) Created(kind Kind) int { return d.created[kind] }

// Released returns how many objects of kind have been released.
func (d *Device) Released(kind Kind) int { return d.released[kind] }

// Live returns the number of created objects of the releasable kinds that
// have not been released.
func (d *Device) Live() int {
	live := 0
	for _, kind := range []Kind{KindShader, KindPipeline, KindBuffer, KindTransferBuffer, KindFence} {
		live += d.created[kind] - d.released[kind]
	}
	return live
}

// DoubleReleases counts releases of already released handles.
func (d *Device) DoubleReleases() int { return d.doubleReleases }

// Calls returns the log of create, release and failure events in order.
func (d *Device) Calls() []string { return append([]string(nil), d.calls...) }

// Pipelines returns the create infos of every pipeline created.
func (d *Device) Pipelines() []gpu.GraphicsPipelineCreateInfo { return d.pipelines }

// CommandBuffers returns every command buffer acquired, in order.
func (d *Device) CommandBuffers() []*CommandBuffer { return d.commandBuffers }

func (d *Device) CreateShader(info gpu.ShaderCreateInfo) (gpu.Shader, error) {
	if err := d.fail(OpCreateShader); err != nil {
		return nil, err
	}
	h := d.newHandle(KindShader, info.Label)
	h.stage = info.Stage
	h.Info = info
	return h, nil
}

func (d *Device) ReleaseShader(shader gpu.Shader) { d.release(KindShader, shader) }

func (d *Device) CreateGraphicsPipeline(info gpu.GraphicsPipelineCreateInfo) (gpu.GraphicsPipeline, error) {
	if err := d.fail(OpCreateGraphicsPipeline); err != nil {
		return nil, err
	}
	h := d.newHandle(KindPipeline, info.Label)
	h.Info = info
	d.pipelines = append(d.pipelines, info)
	return h, nil
}

func (d *Device) ReleaseGraphicsPipeline(pipeline gpu.GraphicsPipeline) {
	d.release(KindPipeline, pipeline)
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	if err := d.fail(OpCreateBuffer); err != nil {
		return nil, err
	}
	h := d.newHandle(KindBuffer, info.Label)
	h.size = info.Size
	h.Data = make([]byte, info.Size)
	h.Info = info
	return h, nil
}

func (d *Device) ReleaseBuffer(buffer gpu.Buffer) { d.release(KindBuffer, buffer) }

func (d *Device) CreateTransferBuffer(info gpu.TransferBufferCreateInfo) (gpu.TransferBuffer, error) {
	if err := d.fail(OpCreateTransferBuffer); err != nil {
		return nil, err
	}
	h := d.newHandle(KindTransferBuffer, info.Label)
	h.size = info.Size
	h.Data = make([]byte, info.Size)
	h.Info = info
	return h, nil
}

func (d *Device) ReleaseTransferBuffer(buffer gpu.TransferBuffer) {
	d.release(KindTransferBuffer, buffer)
}

func (d *Device) MapTransferBuffer(buffer gpu.TransferBuffer) ([]byte, error) {
	if err := d.fail(OpMapTransferBuffer); err != nil {
		return nil, err
	}
	return buffer.(*Handle).Data, nil
}

func (d *Device) UnmapTransferBuffer(gpu.TransferBuffer) {}

func (d *Device) AcquireCommandBuffer() (gpu.CommandBuffer, error) {
	if err := d.fail(OpAcquireCommandBuffer); err != nil {
		return nil, err
	}
	cb := &CommandBuffer{device: d}
	d.commandBuffers = append(d.commandBuffers, cb)
	return cb, nil
}

func (d *Device) QueryFence(fence gpu.Fence) bool {
	h := fence.(*Handle)
	h.queries++
	if d.NeverSignal {
		return false
	}
	return h.queries >= d.SignalAfterPolls
}

// FenceQueries returns how often fence has been queried.
func (d *Device) FenceQueries(fence gpu.Fence) int {
	return fence.(*Handle).queries
}

func (d *Device) ReleaseFence(fence gpu.Fence) { d.release(KindFence, fence) }

func (d *Device) SwapchainTextureFormat(surface gpu.Surface) gpu.TextureFormat {
	h, ok := surface.(*Handle)
	if !ok || h == nil || h.kind != KindSurface {
		return gpu.TextureFormatInvalid
	}
	return d.SwapchainFormat
}
