package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"
)

const (
	envWidth      = "TRIANGLE_WIDTH"
	envHeight     = "TRIANGLE_HEIGHT"
	envTitle      = "TRIANGLE_TITLE"
	envShaderDir  = "TRIANGLE_SHADER_DIR"
	envValidation = "TRIANGLE_VALIDATION"
	envLogLevel   = "TRIANGLE_LOG_LEVEL"
	envFrameStats = "TRIANGLE_FRAME_STATS"
)

type Config struct {
	Width     int
	Height    int
	Title     string
	ShaderDir string
	// Validation enables the Vulkan validation layer.
	Validation bool
	LogLevel   log.Level
	// FrameStatsInterval is how often frame timing is logged. Zero disables it.
	FrameStatsInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Width:              1280,
		Height:             720,
		Title:              "SDL2 GPU + Vulkan",
		ShaderDir:          "shaders",
		Validation:         false,
		LogLevel:           log.InfoLevel,
		FrameStatsInterval: 5 * time.Second,
	}
}

// LoadConfig reads the configuration from the environment and any .env file.
func LoadConfig() (Config, error) {
	return loadConfig(envy.Get)
}

func loadConfig(get func(key, fallback string) string) (Config, error) {
	cfg := DefaultConfig()
	var err error

	if cfg.Width, err = positiveInt(get, envWidth, cfg.Width); err != nil {
		return cfg, err
	}
	if cfg.Height, err = positiveInt(get, envHeight, cfg.Height); err != nil {
		return cfg, err
	}

	cfg.Title = get(envTitle, cfg.Title)
	cfg.ShaderDir = get(envShaderDir, cfg.ShaderDir)
	if strings.TrimSpace(cfg.ShaderDir) == "" {
		return cfg, errors.Newf("%s must not be empty", envShaderDir)
	}

	if v := get(envValidation, ""); v != "" {
		if cfg.Validation, err = strconv.ParseBool(v); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", envValidation)
		}
	}

	if v := get(envLogLevel, ""); v != "" {
		if cfg.LogLevel, err = log.ParseLevel(v); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", envLogLevel)
		}
	}

	if v := get(envFrameStats, ""); v != "" {
		if cfg.FrameStatsInterval, err = time.ParseDuration(v); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", envFrameStats)
		}
		if cfg.FrameStatsInterval < 0 {
			return cfg, errors.Newf("%s must not be negative", envFrameStats)
		}
	}

	return cfg, nil
}

func positiveInt(get func(key, fallback string) string, key string, fallback int) (int, error) {
	v := get(key, "")
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", key)
	}
	if n <= 0 {
		return 0, errors.Newf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
