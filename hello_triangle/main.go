// Command hello_triangle opens an SDL2 window and draws a single colored
// triangle with Vulkan. The vertex data is uploaded asynchronously; frames
// only clear the window until the upload has finished.
package main

import (
	"os"
	"runtime"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vkngwrapper/gputriangle/gpu"
)

func main() {
	// SDL and the Vulkan surface must stay on the main thread.
	runtime.LockOSThread()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := LoadConfig()
	if err != nil {
		log.Errorf("%+v", err)
		return 1
	}
	if exit, code := processCommandLineArgs(args, &cfg, os.Stdout); exit {
		return code
	}

	entry := newLogger(cfg).WithField("session", uuid.NewString())
	gpu.SetLogger(entry)

	app := NewApplication(cfg, entry)
	defer app.Cleanup()

	if err := app.Init(); err != nil {
		entry.Errorf("%+v", err)
		return 1
	}

	app.Run()
	entry.Info("Shutting down")
	return 0
}

func newLogger(cfg Config) *log.Logger {
	logger := log.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return logger
}
