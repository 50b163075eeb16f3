package main

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/vkngwrapper/gputriangle/gpu"
	"github.com/vkngwrapper/gputriangle/renderer"
	"github.com/vkngwrapper/gputriangle/vulkan"
)

// Application owns the window, the GPU device and the renderer.
type Application struct {
	cfg Config
	log *log.Entry

	sdlReady bool
	window   *sdl.Window
	device   *vulkan.Device
	surface  gpu.Surface
	renderer *renderer.Renderer
	stats    *frameStats

	minimized bool
	// waitEvent blocks for the next event while the window is minimized.
	waitEvent func(timeout int) sdl.Event
}

// minimizedWait is how long, in milliseconds, a minimized window waits for
// an event before checking again.
const minimizedWait = 100

func NewApplication(cfg Config, entry *log.Entry) *Application {
	return &Application{cfg: cfg, log: entry, waitEvent: sdl.WaitEventTimeout}
}

// shaderDir places a relative shader directory under the directory the
// executable was run from. SDL reports an empty base path when it cannot
// determine it; dir is then used as given.
func shaderDir(basePath, dir string) string {
	if filepath.IsAbs(dir) || basePath == "" {
		return dir
	}
	return filepath.Join(basePath, dir)
}

// Init brings up SDL, the window, the device and the renderer. On failure
// whatever was created is left for Cleanup.
func (app *Application) Init() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return errors.Mark(errors.Wrap(err, "initialize SDL"), gpu.ErrPlatformInit)
	}
	app.sdlReady = true

	window, err := sdl.CreateWindow(app.cfg.Title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(app.cfg.Width), int32(app.cfg.Height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "create window"), gpu.ErrPlatformInit)
	}
	app.window = window

	app.device, err = vulkan.Open(window, vulkan.Options{
		ApplicationName: app.cfg.Title,
		Validation:      app.cfg.Validation,
		Logger:          app.log,
	})
	if err != nil {
		return err
	}

	app.surface, err = app.device.ClaimWindow(window)
	if err != nil {
		return err
	}

	app.renderer = renderer.New(
		renderer.WithShaderDir(shaderDir(sdl.GetBasePath(), app.cfg.ShaderDir)),
		renderer.WithLogger(app.log),
	)
	if err := app.renderer.Initialize(app.device, app.surface); err != nil {
		return err
	}

	app.stats = newFrameStats(app.log, app.cfg.FrameStatsInterval)
	return nil
}

// Run processes events and draws frames until the window is closed or
// Escape is pressed.
func (app *Application) Run() {
	for {
		if app.pollEvents() {
			return
		}
		if app.minimized {
			if app.idle() {
				return
			}
			continue
		}

		app.drawFrame()
		app.stats.Frame()
	}
}

// idle waits briefly for an event while minimized. The event that ends the
// wait is handled like any other.
func (app *Application) idle() (quit bool) {
	if event := app.waitEvent(minimizedWait); event != nil {
		return app.handleEvent(event)
	}
	return false
}

func (app *Application) pollEvents() (quit bool) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		if app.handleEvent(event) {
			return true
		}
	}
	return false
}

func (app *Application) handleEvent(event sdl.Event) (quit bool) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		return true
	case *sdl.KeyboardEvent:
		if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
			return true
		}
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_HIDDEN:
			app.minimized = true
		case sdl.WINDOWEVENT_RESTORED, sdl.WINDOWEVENT_MAXIMIZED,
			sdl.WINDOWEVENT_SHOWN, sdl.WINDOWEVENT_EXPOSED:
			app.minimized = false
		}
	}
	return false
}

// drawFrame records and submits one frame. Failures are logged and the
// frame is dropped.
func (app *Application) drawFrame() {
	cmd, err := app.device.AcquireCommandBuffer()
	if err != nil {
		app.log.WithError(err).Error("Failed to acquire command buffer")
		return
	}

	texture, err := cmd.AcquireSwapchainTexture(app.surface)
	if err != nil {
		app.log.WithError(err).Error("Failed to acquire swapchain texture")
		cmd.Cancel()
		return
	}

	if texture != nil {
		app.renderer.RenderFrame(cmd, texture)
	}

	if err := cmd.Submit(); err != nil {
		app.log.WithError(err).Error("Failed to submit command buffer")
	}
}

// Cleanup tears everything down in reverse order of creation. It is safe
// after a partial Init.
func (app *Application) Cleanup() {
	if app.device != nil {
		if err := app.device.WaitIdle(); err != nil {
			app.log.WithError(err).Warn("Device did not go idle before teardown")
		}
	}

	if app.renderer != nil {
		app.renderer.Destroy()
		app.renderer = nil
	}

	if app.surface != nil {
		app.device.ReleaseWindow(app.surface)
		app.surface = nil
	}

	if app.device != nil {
		app.device.Destroy()
		app.device = nil
	}

	if app.window != nil {
		_ = app.window.Destroy()
		app.window = nil
	}

	if app.sdlReady {
		sdl.Quit()
		app.sdlReady = false
	}
}
