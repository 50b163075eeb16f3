package main

import (
	"testing"
	"time"

	"github.com/gobuffalo/envy"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(values map[string]string) func(string, string) string {
	return func(key, fallback string) string {
		if v, ok := values[key]; ok {
			return v
		}
		return fallback
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(lookup(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.Equal(t, "SDL2 GPU + Vulkan", cfg.Title)
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(lookup(map[string]string{
		envWidth:      "640",
		envHeight:     "480",
		envTitle:      "triangle",
		envShaderDir:  "/opt/shaders",
		envValidation: "true",
		envLogLevel:   "debug",
		envFrameStats: "1s",
	}))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Width:              640,
		Height:             480,
		Title:              "triangle",
		ShaderDir:          "/opt/shaders",
		Validation:         true,
		LogLevel:           log.DebugLevel,
		FrameStatsInterval: time.Second,
	}, cfg)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := map[string]map[string]string{
		"width not a number": {envWidth: "wide"},
		"zero height":        {envHeight: "0"},
		"negative width":     {envWidth: "-5"},
		"empty shader dir":   {envShaderDir: " "},
		"validation":         {envValidation: "sometimes"},
		"log level":          {envLogLevel: "loud"},
		"frame stats":        {envFrameStats: "often"},
		"negative stats":     {envFrameStats: "-1s"},
	}

	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(lookup(values))
			require.Error(t, err)
		})
	}
}

func TestLoadConfigFromEnvy(t *testing.T) {
	envy.Temp(func() {
		envy.Set(envTitle, "from env")
		envy.Set(envWidth, "800")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "from env", cfg.Title)
		assert.Equal(t, 800, cfg.Width)
	})
}
