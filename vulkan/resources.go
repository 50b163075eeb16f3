package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"

	"github.com/vkngwrapper/gputriangle/gpu"
)

type shader struct {
	label  string
	stage  gpu.ShaderStage
	entry  string
	module core1_0.ShaderModule
}

func (s *shader) Label() string          { return s.label }
func (s *shader) Stage() gpu.ShaderStage { return s.stage }

type buffer struct {
	label  string
	size   int
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
}

func (b *buffer) Label() string { return b.label }
func (b *buffer) Size() int     { return b.size }

type transferBuffer struct {
	buffer
	mapped bool
}

func (d *Device) CreateShader(info gpu.ShaderCreateInfo) (gpu.Shader, error) {
	if info.Format != gpu.ShaderFormatSPIRV {
		return nil, errors.Newf("shader %q: unsupported format %d", info.Label, info.Format)
	}

	code, err := bytesToBytecode(info.Code)
	if err != nil {
		return nil, errors.Wrapf(err, "shader %q", info.Label)
	}

	module, _, err := d.deviceDriver.CreateShaderModule(nil, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create shader module %q", info.Label)
	}

	entry := info.Entrypoint
	if entry == "" {
		entry = gpu.ShaderEntrypoint
	}
	return &shader{label: info.Label, stage: info.Stage, entry: entry, module: module}, nil
}

func (d *Device) ReleaseShader(s gpu.Shader) {
	sh := s.(*shader)
	if sh.module.Initialized() {
		d.deviceDriver.DestroyShaderModule(sh.module, nil)
		sh.module = core1_0.ShaderModule{}
	}
}

func (d *Device) createBuffer(size int, usage core1_0.BufferUsageFlags, properties core1_0.MemoryPropertyFlags) (core1_0.Buffer, core1_0.DeviceMemory, error) {
	buf, _, err := d.deviceDriver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memRequirements := d.deviceDriver.GetBufferMemoryRequirements(buf)
	memoryTypeIndex, err := d.findMemoryType(memRequirements.MemoryTypeBits, properties)
	if err != nil {
		d.deviceDriver.DestroyBuffer(buf, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	memory, _, err := d.deviceDriver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  memRequirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		d.deviceDriver.DestroyBuffer(buf, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}

	_, err = d.deviceDriver.BindBufferMemory(buf, memory, 0)
	if err != nil {
		d.deviceDriver.DestroyBuffer(buf, nil)
		d.deviceDriver.FreeMemory(memory, nil)
		return core1_0.Buffer{}, core1_0.DeviceMemory{}, err
	}
	return buf, memory, nil
}

func (d *Device) destroyBuffer(b *buffer) {
	if b.buffer.Initialized() {
		d.deviceDriver.DestroyBuffer(b.buffer, nil)
		b.buffer = core1_0.Buffer{}
	}
	if b.memory.Initialized() {
		d.deviceDriver.FreeMemory(b.memory, nil)
		b.memory = core1_0.DeviceMemory{}
	}
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	if info.Size <= 0 {
		return nil, errors.Newf("buffer %q: invalid size %d", info.Label, info.Size)
	}

	usage := core1_0.BufferUsageTransferDst
	if info.Usage&gpu.BufferUsageVertex != 0 {
		usage |= core1_0.BufferUsageVertexBuffer
	}
	if info.Usage&gpu.BufferUsageIndex != 0 {
		usage |= core1_0.BufferUsageIndexBuffer
	}

	buf, memory, err := d.createBuffer(info.Size, usage, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, errors.Wrapf(err, "create buffer %q", info.Label)
	}
	return &buffer{label: info.Label, size: info.Size, buffer: buf, memory: memory}, nil
}

func (d *Device) ReleaseBuffer(b gpu.Buffer) {
	d.destroyBuffer(b.(*buffer))
}

func (d *Device) CreateTransferBuffer(info gpu.TransferBufferCreateInfo) (gpu.TransferBuffer, error) {
	if info.Size <= 0 {
		return nil, errors.Newf("transfer buffer %q: invalid size %d", info.Label, info.Size)
	}

	usage := core1_0.BufferUsageTransferSrc
	if info.Usage == gpu.TransferBufferUsageDownload {
		usage = core1_0.BufferUsageTransferDst
	}

	buf, memory, err := d.createBuffer(info.Size, usage,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, errors.Wrapf(err, "create transfer buffer %q", info.Label)
	}
	return &transferBuffer{buffer: buffer{label: info.Label, size: info.Size, buffer: buf, memory: memory}}, nil
}

func (d *Device) ReleaseTransferBuffer(b gpu.TransferBuffer) {
	tb := b.(*transferBuffer)
	d.UnmapTransferBuffer(tb)
	d.destroyBuffer(&tb.buffer)
}

func (d *Device) MapTransferBuffer(b gpu.TransferBuffer) ([]byte, error) {
	tb := b.(*transferBuffer)
	if tb.mapped {
		return nil, errors.Newf("transfer buffer %q is already mapped", tb.label)
	}

	ptr, _, err := d.deviceDriver.MapMemory(tb.memory, 0, tb.size, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "map transfer buffer %q", tb.label)
	}
	tb.mapped = true
	return unsafe.Slice((*byte)(ptr), tb.size), nil
}

func (d *Device) UnmapTransferBuffer(b gpu.TransferBuffer) {
	tb := b.(*transferBuffer)
	if tb.mapped {
		d.deviceDriver.UnmapMemory(tb.memory)
		tb.mapped = false
	}
}
