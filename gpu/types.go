package gpu

import "fmt"

// ShaderStage identifies the pipeline stage a shader runs in.
type ShaderStage int

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case ShaderStageVertex:
		return "vertex"
	case ShaderStageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderStage(%d)", int(s))
	}
}

// ShaderFormat is the intermediate representation of shader bytecode.
type ShaderFormat int

const (
	ShaderFormatSPIRV ShaderFormat = iota
)

// TextureFormat is the pixel format of a texture or color target.
type TextureFormat int

const (
	TextureFormatInvalid TextureFormat = iota
	TextureFormatB8G8R8A8UNorm
	TextureFormatB8G8R8A8SRGB
	TextureFormatR8G8B8A8UNorm
	TextureFormatR8G8B8A8SRGB
)

func (f TextureFormat) String() string {
	switch f {
	case TextureFormatInvalid:
		return "Invalid"
	case TextureFormatB8G8R8A8UNorm:
		return "B8G8R8A8UNorm"
	case TextureFormatB8G8R8A8SRGB:
		return "B8G8R8A8SRGB"
	case TextureFormatR8G8B8A8UNorm:
		return "R8G8B8A8UNorm"
	case TextureFormatR8G8B8A8SRGB:
		return "R8G8B8A8SRGB"
	default:
		return fmt.Sprintf("TextureFormat(%d)", int(f))
	}
}

// VertexElementFormat is the format of a single vertex attribute.
type VertexElementFormat int

const (
	VertexElementFormatInvalid VertexElementFormat = iota
	VertexElementFormatFloat2
	VertexElementFormatFloat3
	VertexElementFormatFloat4
)

// Size returns the size of one element in bytes.
func (f VertexElementFormat) Size() int {
	switch f {
	case VertexElementFormatFloat2:
		return 8
	case VertexElementFormatFloat3:
		return 12
	case VertexElementFormatFloat4:
		return 16
	default:
		return 0
	}
}

func (f VertexElementFormat) String() string {
	switch f {
	case VertexElementFormatFloat2:
		return "Float2"
	case VertexElementFormatFloat3:
		return "Float3"
	case VertexElementFormatFloat4:
		return "Float4"
	default:
		return fmt.Sprintf("VertexElementFormat(%d)", int(f))
	}
}

type VertexInputRate int

const (
	VertexInputRateVertex VertexInputRate = iota
	VertexInputRateInstance
)

type PrimitiveType int

const (
	PrimitiveTypeTriangleList PrimitiveType = iota
	PrimitiveTypeTriangleStrip
	PrimitiveTypeLineList
	PrimitiveTypePointList
)

type FillMode int

const (
	FillModeFill FillMode = iota
	FillModeLine
)

type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

type FrontFace int

const (
	FrontFaceCounterClockwise FrontFace = iota
	FrontFaceClockwise
)

type SampleCount int

const (
	SampleCount1 SampleCount = iota
	SampleCount2
	SampleCount4
	SampleCount8
)

type LoadOp int

const (
	LoadOpLoad LoadOp = iota
	LoadOpClear
	LoadOpDontCare
)

type StoreOp int

const (
	StoreOpStore StoreOp = iota
	StoreOpDontCare
)

// BufferUsage describes how a device buffer will be bound.
type BufferUsage int

const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
)

// TransferBufferUsage describes the direction of a transfer buffer.
type TransferBufferUsage int

const (
	TransferBufferUsageUpload TransferBufferUsage = iota
	TransferBufferUsageDownload
)

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

type ShaderCreateInfo struct {
	Label      string
	Code       []byte
	Entrypoint string
	Format     ShaderFormat
	Stage      ShaderStage
}

type VertexBufferDescription struct {
	Slot      int
	Pitch     int
	InputRate VertexInputRate
}

type VertexAttribute struct {
	Location   int
	BufferSlot int
	Format     VertexElementFormat
	Offset     int
}

type VertexInputState struct {
	Buffers    []VertexBufferDescription
	Attributes []VertexAttribute
}

type ColorTargetDescription struct {
	Format       TextureFormat
	BlendEnabled bool
}

type RasterizerState struct {
	FillMode  FillMode
	CullMode  CullMode
	FrontFace FrontFace
}

type MultisampleState struct {
	SampleCount SampleCount
}

type GraphicsPipelineCreateInfo struct {
	Label          string
	VertexShader   Shader
	FragmentShader Shader
	VertexInput    VertexInputState
	PrimitiveType  PrimitiveType
	Rasterizer     RasterizerState
	Multisample    MultisampleState
	ColorTargets   []ColorTargetDescription
}

type BufferCreateInfo struct {
	Label string
	Usage BufferUsage
	Size  int
}

type TransferBufferCreateInfo struct {
	Label string
	Usage TransferBufferUsage
	Size  int
}

type TransferBufferLocation struct {
	TransferBuffer TransferBuffer
	Offset         int
}

type BufferRegion struct {
	Buffer Buffer
	Offset int
	Size   int
}

type BufferBinding struct {
	Buffer Buffer
	Offset int
}

// ColorTargetInfo describes one color attachment of a render pass.
type ColorTargetInfo struct {
	Texture    Texture
	ClearColor Color
	LoadOp     LoadOp
	StoreOp    StoreOp
}
