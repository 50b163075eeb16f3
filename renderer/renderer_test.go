package renderer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkngwrapper/gputriangle/gpu"
	"github.com/vkngwrapper/gputriangle/gpu/gputest"
	"github.com/vkngwrapper/gputriangle/renderer"
)

// spirvMagic is enough for the fake device, which never parses shaders.
var spirvMagic = []byte{0x03, 0x02, 0x23, 0x07}

func shaderDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{renderer.DefaultVertexShader, renderer.DefaultFragmentShader} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), spirvMagic, 0o644))
	}
	return dir
}

func newRenderer(t *testing.T) *renderer.Renderer {
	t.Helper()
	return renderer.New(renderer.WithShaderDir(shaderDir(t)))
}

func frame(t *testing.T, device *gputest.Device, surface gpu.Surface, r *renderer.Renderer) *gputest.RenderPass {
	t.Helper()

	cmd, err := device.AcquireCommandBuffer()
	require.NoError(t, err)
	target, err := cmd.AcquireSwapchainTexture(surface)
	require.NoError(t, err)

	r.RenderFrame(cmd, target)
	require.NoError(t, cmd.Submit())

	cb := cmd.(*gputest.CommandBuffer)
	require.Len(t, cb.RenderPasses, 1)
	return cb.RenderPasses[0]
}

func TestInitializeOwnsFiveHandles(t *testing.T) {
	device := gputest.NewDevice()
	surface := device.NewSurface("window")
	r := newRenderer(t)

	require.NoError(t, r.Initialize(device, surface))
	require.Equal(t, renderer.StateReady, r.State())
	require.False(t, r.UploadComplete())

	assert.Equal(t, 2, device.Created(gputest.KindShader))
	assert.Equal(t, 1, device.Created(gputest.KindPipeline))
	assert.Equal(t, 1, device.Created(gputest.KindBuffer))
	assert.Equal(t, 1, device.Created(gputest.KindTransferBuffer))
	assert.Equal(t, 1, device.Created(gputest.KindFence))
	// Shaders, pipeline, vertex buffer and the upload's fence and staging buffer.
	assert.Equal(t, 6, device.Live())

	r.Destroy()
	require.Zero(t, device.Live())
	require.Equal(t, renderer.StateTornDown, r.State())
}

func TestInitializeFailuresReleaseEverything(t *testing.T) {
	cases := []struct {
		op   gputest.Op
		kind error
	}{
		{gputest.OpCreateShader, gpu.ErrResourceCreation},
		{gputest.OpCreateGraphicsPipeline, gpu.ErrPipelineCreation},
		{gputest.OpCreateBuffer, gpu.ErrResourceCreation},
		{gputest.OpCreateTransferBuffer, gpu.ErrResourceCreation},
		{gputest.OpMapTransferBuffer, gpu.ErrResourceCreation},
		{gputest.OpAcquireCommandBuffer, gpu.ErrSubmission},
		{gputest.OpSubmitAndAcquireFence, gpu.ErrSubmission},
	}

	for _, tc := range cases {
		t.Run(string(tc.op), func(t *testing.T) {
			device := gputest.NewDevice()
			device.FailNext(tc.op, nil)
			r := newRenderer(t)

			err := r.Initialize(device, device.NewSurface("window"))
			require.Error(t, err)
			require.True(t, errors.Is(err, renderer.ErrInitialization), "%+v", err)
			require.True(t, errors.Is(err, tc.kind), "%+v", err)

			require.Equal(t, renderer.StateUninitialized, r.State())
			require.Zero(t, device.Live())
			require.Zero(t, device.DoubleReleases())
		})
	}
}

func TestInitializeFragmentShaderFails(t *testing.T) {
	device := gputest.NewDevice()
	device.FailAt(gputest.OpCreateShader, 2, nil)
	r := newRenderer(t)

	err := r.Initialize(device, device.NewSurface("window"))
	require.True(t, errors.Is(err, gpu.ErrResourceCreation), "%+v", err)

	require.Equal(t, 1, device.Created(gputest.KindShader))
	require.Equal(t, 1, device.Released(gputest.KindShader))
	require.Zero(t, device.Created(gputest.KindPipeline))
}

func TestMissingShaderFile(t *testing.T) {
	device := gputest.NewDevice()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, renderer.DefaultVertexShader), spirvMagic, 0o644))

	r := renderer.New(renderer.WithShaderDir(dir))
	err := r.Initialize(device, device.NewSurface("window"))

	require.True(t, errors.Is(err, gpu.ErrIO), "%+v", err)
	require.True(t, errors.Is(err, renderer.ErrInitialization))
	require.Zero(t, device.Created(gputest.KindShader))
	require.Zero(t, device.Created(gputest.KindPipeline))
	require.Zero(t, device.Created(gputest.KindBuffer))
	require.Equal(t, renderer.StateUninitialized, r.State())
}

func TestInitializeRejectsMissingDevice(t *testing.T) {
	device := gputest.NewDevice()
	r := newRenderer(t)

	require.True(t, errors.Is(r.Initialize(nil, device.NewSurface("window")), renderer.ErrInitialization))
	require.True(t, errors.Is(r.Initialize(device, nil), renderer.ErrInitialization))
	require.Empty(t, device.CommandBuffers())
}

func TestInitializeTwice(t *testing.T) {
	device := gputest.NewDevice()
	surface := device.NewSurface("window")
	r := newRenderer(t)

	require.NoError(t, r.Initialize(device, surface))
	live := device.Live()

	err := r.Initialize(device, surface)
	require.True(t, errors.Is(err, renderer.ErrInitialization))
	require.Equal(t, live, device.Live())

	r.Destroy()
	err = r.Initialize(device, surface)
	require.True(t, errors.Is(err, renderer.ErrInitialization))
	require.Zero(t, device.Live())
}

func TestPendingUploadClearsOnly(t *testing.T) {
	device := gputest.NewDevice()
	device.NeverSignal = true
	surface := device.NewSurface("window")
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, surface))
	defer r.Destroy()

	for i := 0; i < 4; i++ {
		pass := frame(t, device, surface, r)

		require.True(t, pass.Ended)
		require.Len(t, pass.Targets, 1)
		assert.Equal(t, gpu.LoadOpClear, pass.Targets[0].LoadOp)
		assert.Equal(t, gpu.StoreOpStore, pass.Targets[0].StoreOp)
		assert.Equal(t, gpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, pass.Targets[0].ClearColor)
		assert.Empty(t, pass.Pipelines)
		assert.Empty(t, pass.Bindings)
		assert.Empty(t, pass.Draws)
	}
	require.Equal(t, renderer.StateReady, r.State())
}

func TestCompletedUploadDrawsOncePerFrame(t *testing.T) {
	device := gputest.NewDevice()
	surface := device.NewSurface("window")
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, surface))
	defer r.Destroy()

	for i := 0; i < 3; i++ {
		pass := frame(t, device, surface, r)

		require.Equal(t, []gputest.Draw{{Vertices: 3, Instances: 1}}, pass.Draws)
		require.Len(t, pass.Pipelines, 1)
		require.Len(t, pass.Bindings, 1)
		assert.Zero(t, pass.Bindings[0].Offset)
		assert.Equal(t, 3*gpu.VertexStride, pass.Bindings[0].Buffer.Size())
		require.True(t, pass.Ended)
	}
	require.True(t, r.UploadComplete())
}

func TestFenceSignalsOnThirdPoll(t *testing.T) {
	device := gputest.NewDevice()
	device.SignalAfterPolls = 3
	surface := device.NewSurface("window")
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, surface))

	for i := 1; i <= 5; i++ {
		pass := frame(t, device, surface, r)
		require.Len(t, pass.Targets, 1, "frame %d", i)

		if i < 3 {
			require.Empty(t, pass.Draws, "frame %d", i)
			require.Zero(t, device.Released(gputest.KindTransferBuffer), "frame %d", i)
		} else {
			require.Len(t, pass.Draws, 1, "frame %d", i)
		}
	}
	require.Equal(t, 1, device.Released(gputest.KindTransferBuffer))
	require.Equal(t, 1, device.Released(gputest.KindFence))

	r.Destroy()
	require.Equal(t, 1, device.Released(gputest.KindTransferBuffer))
	require.Zero(t, device.Live())
}

func TestVertexDataReachesBuffer(t *testing.T) {
	device := gputest.NewDevice()
	surface := device.NewSurface("window")
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, surface))
	defer r.Destroy()

	pass := frame(t, device, surface, r)
	require.Len(t, pass.Bindings, 1)

	buffer := pass.Bindings[0].Buffer.(*gputest.Handle)
	require.Equal(t, renderer.EncodeVertices(renderer.TriangleVertices[:]), buffer.Data)
}

func TestRenderFrameIgnoresMissingTarget(t *testing.T) {
	device := gputest.NewDevice()
	device.NoSwapchainTexture = true
	surface := device.NewSurface("window")
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, surface))
	defer r.Destroy()

	cmd, err := device.AcquireCommandBuffer()
	require.NoError(t, err)
	target, err := cmd.AcquireSwapchainTexture(surface)
	require.NoError(t, err)
	require.Nil(t, target)

	r.RenderFrame(cmd, target)
	require.Empty(t, cmd.(*gputest.CommandBuffer).RenderPasses)
}

func TestRenderFrameIgnoresMissingCommandBuffer(t *testing.T) {
	device := gputest.NewDevice()
	surface := device.NewSurface("window")
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, surface))

	cmd, err := device.AcquireCommandBuffer()
	require.NoError(t, err)
	target, err := cmd.AcquireSwapchainTexture(surface)
	require.NoError(t, err)
	require.NotNil(t, target)

	fence := device.CommandBuffers()[0].Fence
	r.RenderFrame(nil, target)

	require.Zero(t, device.FenceQueries(fence))
	require.Equal(t, renderer.StateReady, r.State())
	require.Empty(t, cmd.(*gputest.CommandBuffer).RenderPasses)

	r.Destroy()
	r.Destroy()
	require.Zero(t, device.Live())
	require.Zero(t, device.DoubleReleases())
}

func TestRenderFrameBeforeInitialize(t *testing.T) {
	device := gputest.NewDevice()
	r := newRenderer(t)

	cmd, err := device.AcquireCommandBuffer()
	require.NoError(t, err)
	target, err := cmd.AcquireSwapchainTexture(device.NewSurface("window"))
	require.NoError(t, err)

	r.RenderFrame(cmd, target)
	require.Empty(t, cmd.(*gputest.CommandBuffer).RenderPasses)
}

func TestDestroyTwice(t *testing.T) {
	device := gputest.NewDevice()
	device.NeverSignal = true
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, device.NewSurface("window")))

	r.Destroy()
	calls := len(device.Calls())
	r.Destroy()

	require.Len(t, device.Calls(), calls)
	require.Zero(t, device.Live())
	require.Zero(t, device.DoubleReleases())
}

func TestDestroyReleaseOrder(t *testing.T) {
	device := gputest.NewDevice()
	device.NeverSignal = true
	r := newRenderer(t)
	require.NoError(t, r.Initialize(device, device.NewSurface("window")))

	before := len(device.Calls())
	r.Destroy()
	calls := device.Calls()[before:]

	want := []string{"fence", "transfer buffer", "buffer", "pipeline", "shader", "shader"}
	require.Len(t, calls, len(want))
	for i, kind := range want {
		require.Contains(t, calls[i], "release "+kind+"#", "step %d", i)
	}
	require.Contains(t, calls[4], renderer.DefaultFragmentShader)
	require.Contains(t, calls[5], renderer.DefaultVertexShader)
}

func TestInitializeLogs(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	device := gputest.NewDevice()
	r := renderer.New(
		renderer.WithShaderDir(shaderDir(t)),
		renderer.WithLogger(logrus.NewEntry(log)),
	)

	require.NoError(t, r.Initialize(device, device.NewSurface("window")))
	defer r.Destroy()

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "Renderer initialized successfully", last.Message)
	assert.Equal(t, "renderer", last.Data["component"])
}

func TestClearColorOption(t *testing.T) {
	device := gputest.NewDevice()
	surface := device.NewSurface("window")
	color := gpu.Color{R: 1, A: 1}
	r := renderer.New(renderer.WithShaderDir(shaderDir(t)), renderer.WithClearColor(color))
	require.NoError(t, r.Initialize(device, surface))
	defer r.Destroy()

	pass := frame(t, device, surface, r)
	require.Equal(t, color, pass.Targets[0].ClearColor)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ready", renderer.StateReady.String())
	assert.Equal(t, "torn down", renderer.StateTornDown.String())
}
