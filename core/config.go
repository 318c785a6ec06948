// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/lumin3d/lumin/gfx"
)

// WindowConfiguration describes the application window
type WindowConfiguration struct {
	Title  string
	Width  uint32
	Height uint32

	// X and Y position the window, zero means undefined
	X int32
	Y int32

	// Flags are extra window system flags. The resizable and Vulkan
	// capable flags are always set on top of these.
	Flags uint32
}

// Hooks are the override points an embedding application fills in.
// Every hook is optional.
type Hooks struct {
	// Init runs once after the GPU stack came up, before the loop
	Init func() error

	// Update runs every iteration with the frame delta in seconds
	Update func(dt float64)

	// Render runs with a frame in progress, recording into the
	// renderer's current command buffer
	Render func()

	// Event receives every window system event after the shell
	// handled its own
	Event func(event interface{})

	// Resize runs when the drawable pixel size changed
	Resize func(width, height uint32)

	// Cleanup runs during shutdown, before GPU teardown
	Cleanup func()
}

// Configuration defines a global engine configuration setting
type Configuration struct {
	Window   WindowConfiguration
	Instance gfx.InstanceConfiguration
	Renderer gfx.RendererConfiguration
	Time     TimeConfiguration
	Hooks    Hooks
}

// DefaultConfiguration returns a runnable starting point
func DefaultConfiguration() Configuration {
	return Configuration{
		Window: WindowConfiguration{
			Title:  "Lumin3D",
			Width:  800,
			Height: 600,
		},
		Renderer: gfx.RendererConfiguration{
			SwapchainSize:     gfx.DefaultSwapchainSize,
			MaxFramesInFlight: gfx.DefaultMaxFramesInFlight,
			DeviceExtensions:  []string{"VK_KHR_swapchain"},
		},
		Time: TimeConfiguration{
			FrameTimeSampleCount: DefaultFrameTimeSampleCount,
		},
	}
}

// Environment variables recognized by ApplyEnvironment
const (
	EnvValidation  = "LUMIN_VALIDATION"
	EnvVSync       = "LUMIN_VSYNC"
	EnvWidth       = "LUMIN_WIDTH"
	EnvHeight      = "LUMIN_HEIGHT"
	EnvFramesAhead = "LUMIN_FRAMES_IN_FLIGHT"
)

// ApplyEnvironment overlays LUMIN_* environment variables onto cfg.
// An optional .env file in the working directory is honored first.
// Values that fail to parse are logged and skipped, a bad environment
// never breaks startup.
func ApplyEnvironment(cfg Configuration) Configuration {
	// Best effort, running without a .env file is the normal case
	_ = godotenv.Load()

	cfg.Instance.Validation = envBool(EnvValidation, cfg.Instance.Validation)
	cfg.Renderer.VSync = envBool(EnvVSync, cfg.Renderer.VSync)
	cfg.Window.Width = envUint32(EnvWidth, cfg.Window.Width)
	cfg.Window.Height = envUint32(EnvHeight, cfg.Window.Height)

	if raw := envy.Get(EnvFramesAhead, ""); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cfg.Renderer.MaxFramesInFlight = parsed
		} else {
			log.WithField("var", EnvFramesAhead).Warn("ignoring unparseable value: ", raw)
		}
	}
	return cfg
}

func envBool(name string, fallback bool) bool {
	raw := envy.Get(name, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		log.WithField("var", name).Warn("ignoring unparseable value: ", raw)
		return fallback
	}
	return parsed
}

func envUint32(name string, fallback uint32) uint32 {
	raw := envy.Get(name, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || parsed == 0 {
		log.WithField("var", name).Warn("ignoring unparseable value: ", raw)
		return fallback
	}
	return uint32(parsed)
}
