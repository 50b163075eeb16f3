// Package renderer draws a single colored triangle. The vertex data is
// uploaded asynchronously; frames rendered before the upload finishes only
// clear the target.
package renderer

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"github.com/vkngwrapper/gputriangle/gpu"
)

// ErrInitialization marks every error returned by Initialize. The cause
// keeps its own gpu error kind.
var ErrInitialization = errors.New("renderer: initialization failed")

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDrawing
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDrawing:
		return "drawing"
	case StateTornDown:
		return "torn down"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Renderer owns the shaders, pipeline and vertex buffer of the triangle.
// The device and surface passed to Initialize are borrowed and must outlive
// the renderer.
type Renderer struct {
	opts  options
	log   *logrus.Entry
	state State

	vertexShader   gpu.Owned[gpu.Shader]
	fragmentShader gpu.Owned[gpu.Shader]
	pipeline       gpu.Owned[gpu.GraphicsPipeline]
	vertexBuffer   gpu.Owned[gpu.Buffer]
	upload         *gpu.Upload
}

func New(opts ...Option) *Renderer {
	o := options{
		shaderDir:    DefaultShaderDir,
		vertexName:   DefaultVertexShader,
		fragmentName: DefaultFragmentShader,
		clearColor:   DefaultClearColor,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = gpu.Logger()
	}

	return &Renderer{
		opts: o,
		log:  o.log.WithField("component", "renderer"),
	}
}

func (r *Renderer) State() State {
	return r.state
}

// UploadComplete reports whether the vertex upload has been observed
// complete by a previous frame.
func (r *Renderer) UploadComplete() bool {
	return r.upload.Completed()
}

// Initialize loads the shaders, builds the pipeline and starts the vertex
// upload. On failure everything created so far is released and the
// renderer stays uninitialized.
func (r *Renderer) Initialize(device gpu.Device, surface gpu.Surface) (err error) {
	switch r.state {
	case StateUninitialized:
	case StateTornDown:
		return errors.Mark(errors.New("renderer has been destroyed"), ErrInitialization)
	default:
		return errors.Mark(errors.Newf("renderer is already %s", r.state), ErrInitialization)
	}
	if device == nil || surface == nil {
		return errors.Mark(errors.New("no device or surface"), ErrInitialization)
	}

	defer func() {
		if err != nil {
			r.release()
			err = errors.Mark(errors.Wrap(err, "initialize renderer"), ErrInitialization)
		}
	}()

	dir := r.opts.shaderDir
	vertexCode, fragmentCode, err := gpu.ReadShaderBlobs(dir, r.opts.vertexName, r.opts.fragmentName)
	if err != nil {
		return err
	}

	r.vertexShader, err = gpu.CreateShader(device, gpu.ShaderStageVertex, r.opts.vertexName, vertexCode)
	if err != nil {
		return err
	}
	r.fragmentShader, err = gpu.CreateShader(device, gpu.ShaderStageFragment, r.opts.fragmentName, fragmentCode)
	if err != nil {
		return err
	}
	r.log.Infof("Shaders loaded successfully from %s", dir)

	r.pipeline, err = gpu.BuildPipeline(device, surface, r.vertexShader.Get(), r.fragmentShader.Get())
	if err != nil {
		return err
	}

	r.vertexBuffer, r.upload, err = gpu.BeginUpload(device, EncodeVertices(TriangleVertices[:]),
		gpu.WithUploadLabel("triangle vertices"),
		gpu.WithUploadLogger(r.log))
	if err != nil {
		return err
	}

	r.state = StateReady
	r.log.Info("Renderer initialized successfully")
	return nil
}

// RenderFrame records one frame into cmd targeting target. The target is
// always cleared; the triangle is drawn once the vertex upload is complete.
// The command buffer is not submitted.
func (r *Renderer) RenderFrame(cmd gpu.CommandBuffer, target gpu.Texture) {
	if r.state != StateReady || cmd == nil || target == nil {
		return
	}

	r.state = StateDrawing
	defer func() { r.state = StateReady }()

	uploaded := r.upload.Poll() == gpu.UploadStatusCompleted

	pass := cmd.BeginRenderPass(gpu.ColorTargetInfo{
		Texture:    target,
		ClearColor: r.opts.clearColor,
		LoadOp:     gpu.LoadOpClear,
		StoreOp:    gpu.StoreOpStore,
	})
	if uploaded {
		pass.BindGraphicsPipeline(r.pipeline.Get())
		pass.BindVertexBuffers(0, gpu.BufferBinding{Buffer: r.vertexBuffer.Get()})
		pass.DrawPrimitives(len(TriangleVertices), 1, 0, 0)
	}
	pass.End()
}

// Destroy releases every resource the renderer owns. The device must be
// idle. Calling Destroy more than once does nothing.
func (r *Renderer) Destroy() {
	if r.state == StateTornDown {
		return
	}
	r.release()
	r.state = StateTornDown
}

func (r *Renderer) release() {
	r.upload.Release()
	r.upload = nil
	r.vertexBuffer.Release()
	r.pipeline.Release()
	r.fragmentShader.Release()
	r.vertexShader.Release()
}
