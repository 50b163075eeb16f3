package renderer

import (
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/gputriangle/gpu"
)

const (
	DefaultShaderDir      = "shaders"
	DefaultVertexShader   = "triangle.vert.spv"
	DefaultFragmentShader = "triangle.frag.spv"
)

// DefaultClearColor is the background behind the triangle.
var DefaultClearColor = gpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1.0}

type options struct {
	shaderDir    string
	vertexName   string
	fragmentName string
	clearColor   gpu.Color
	log          *logrus.Entry
}

type Option func(*options)

// WithShaderDir sets the directory the shader blobs are read from. Relative
// paths are relative to the working directory.
func WithShaderDir(dir string) Option {
	return func(o *options) {
		o.shaderDir = dir
	}
}

func WithShaderNames(vertex, fragment string) Option {
	return func(o *options) {
		o.vertexName = vertex
		o.fragmentName = fragment
	}
}

func WithLogger(entry *logrus.Entry) Option {
	return func(o *options) {
		o.log = entry
	}
}

func WithClearColor(color gpu.Color) Option {
	return func(o *options) {
		o.clearColor = color
	}
}
