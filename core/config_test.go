// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	"github.com/gobuffalo/envy"
)

func clearEnvironment() {
	for _, name := range []string{EnvValidation, EnvVSync, EnvWidth, EnvHeight, EnvFramesAhead} {
		envy.Set(name, "")
	}
}

func TestApplyEnvironmentDefaults(t *testing.T) {
	envy.Temp(func() {
		clearEnvironment()

		cfg := ApplyEnvironment(DefaultConfiguration())
		if cfg.Instance.Validation {
			t.Error("validation should default to off")
		}
		if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
			t.Errorf("unexpected default window size %dx%d", cfg.Window.Width, cfg.Window.Height)
		}
		if cfg.Renderer.MaxFramesInFlight != DefaultConfiguration().Renderer.MaxFramesInFlight {
			t.Error("frames in flight changed without environment input")
		}
	})
}

func TestApplyEnvironmentOverrides(t *testing.T) {
	envy.Temp(func() {
		clearEnvironment()
		envy.Set(EnvValidation, "true")
		envy.Set(EnvWidth, "1920")
		envy.Set(EnvHeight, "1080")
		envy.Set(EnvFramesAhead, "3")

		cfg := ApplyEnvironment(DefaultConfiguration())
		if !cfg.Instance.Validation {
			t.Error("expected validation enabled")
		}
		if cfg.Window.Width != 1920 || cfg.Window.Height != 1080 {
			t.Errorf("expected 1920x1080, got %dx%d", cfg.Window.Width, cfg.Window.Height)
		}
		if cfg.Renderer.MaxFramesInFlight != 3 {
			t.Errorf("expected 3 frames in flight, got %d", cfg.Renderer.MaxFramesInFlight)
		}
	})
}

func TestApplyEnvironmentIgnoresGarbage(t *testing.T) {
	envy.Temp(func() {
		clearEnvironment()
		envy.Set(EnvWidth, "not-a-number")
		envy.Set(EnvFramesAhead, "-2")

		cfg := ApplyEnvironment(DefaultConfiguration())
		if cfg.Window.Width != 800 {
			t.Errorf("garbage width should be ignored, got %d", cfg.Window.Width)
		}
		if cfg.Renderer.MaxFramesInFlight != DefaultConfiguration().Renderer.MaxFramesInFlight {
			t.Errorf("non-positive frame count should be ignored, got %d", cfg.Renderer.MaxFramesInFlight)
		}
	})
}
