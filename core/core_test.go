// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/lumin3d/lumin/gfx"
)

// fakeRenderer satisfies gfx.Renderer without touching the GPU.
type fakeRenderer struct {
	destroyed int
	events    *[]string
}

func (f *fakeRenderer) Initialise() error               { return nil }
func (f *fakeRenderer) BeginFrame() (bool, error)       { return true, nil }
func (f *fakeRenderer) EndFrame() (bool, error)         { return true, nil }
func (f *fakeRenderer) CommandBuffer() vk.CommandBuffer { return nil }
func (f *fakeRenderer) Resize(width, height uint32)     {}
func (f *fakeRenderer) RenderPass() vk.RenderPass       { return vk.NullRenderPass }
func (f *fakeRenderer) Framebuffer() vk.Framebuffer     { return vk.NullFramebuffer }
func (f *fakeRenderer) Extent() vk.Extent2D             { return vk.Extent2D{} }
func (f *fakeRenderer) Swapchain() *gfx.Swapchain       { return nil }
func (f *fakeRenderer) FrameCount() uint64              { return 0 }

func (f *fakeRenderer) Destroy() {
	f.destroyed++
	if f.events != nil {
		*f.events = append(*f.events, "renderer")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	fake := &fakeRenderer{}
	app := NewApp(DefaultConfiguration())
	app.renderer = fake
	app.ready = true

	app.Shutdown()
	app.Shutdown()
	app.Shutdown()

	if fake.destroyed != 1 {
		t.Errorf("renderer destroyed %d times, want 1", fake.destroyed)
	}
	if app.ready {
		t.Error("app still marked ready after shutdown")
	}
}

func TestShutdownRunsCleanupHookFirst(t *testing.T) {
	var events []string
	cfg := DefaultConfiguration()
	cfg.Hooks.Cleanup = func() {
		events = append(events, "cleanup")
	}

	app := NewApp(cfg)
	app.renderer = &fakeRenderer{events: &events}
	app.Shutdown()

	if len(events) != 2 || events[0] != "cleanup" || events[1] != "renderer" {
		t.Errorf("unexpected teardown order %v", events)
	}
}

func TestShutdownWithNothingInitialized(t *testing.T) {
	app := NewApp(DefaultConfiguration())
	// Must not panic with every member nil
	app.Shutdown()
}

func TestRunRefusesWithoutInitialize(t *testing.T) {
	app := NewApp(DefaultConfiguration())
	// Returns immediately instead of dereferencing nil members
	app.Run()
	if app.running {
		t.Error("loop flag set without initialization")
	}
}

func TestFrameCountWithoutRenderer(t *testing.T) {
	app := NewApp(DefaultConfiguration())
	if app.FrameCount() != 0 {
		t.Error("expected zero frame count before initialization")
	}
}

var _ gfx.Renderer = (*fakeRenderer)(nil)
