// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core hosts the application shell: window and event loop
// ownership, frame timing and the lifecycle that brings the GPU stack
// up and tears it down in reverse order.
package core

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/lumin3d/lumin/gfx"
)

// slowPumpThreshold flags event pump stalls, usually a hook doing
// blocking work on the loop thread.
const slowPumpThreshold = 100 * time.Millisecond

// App owns the window, the GPU stack and the main loop. Create one
// with NewApp, then Initialize, Run, Shutdown. All of it must happen
// on the same OS thread, lock it in the program's init.
type App struct {
	configuration Configuration

	video    *VideoRuntime
	window   *sdl.Window
	instance gfx.Instance
	surface  *gfx.Surface
	device   *gfx.Device
	renderer gfx.Renderer

	timer   *FrameTimer
	running bool
	ready   bool
	down    bool
}

// NewApp builds an uninitialized application shell around cfg.
func NewApp(cfg Configuration) *App {
	return &App{
		configuration: cfg,
		timer:         NewFrameTimer(cfg.Time.FrameTimeSampleCount),
	}
}

// Initialize brings up the window system and the whole GPU stack.
// On failure everything already created is torn down and false is
// returned, with details in the log.
func (a *App) Initialize() bool {
	if a.ready {
		return true
	}
	a.down = false
	if err := a.initialize(); err != nil {
		log.WithField("component", "core").Error(err)
		a.Shutdown()
		return false
	}
	a.ready = true
	return true
}

func (a *App) initialize() error {
	video, err := InitVideo()
	if err != nil {
		return err
	}
	a.video = video

	if err := a.createWindow(); err != nil {
		return err
	}

	extensions := a.window.VulkanGetInstanceExtensions()
	instanceCfg := a.configuration.Instance
	instanceCfg.Extensions = append(instanceCfg.Extensions, extensions...)

	instance, err := gfx.NewVulkanInstance(
		gfx.DefaultApplicationInfo,
		sdl.VulkanGetVkGetInstanceProcAddr(),
		instanceCfg,
	)
	if err != nil {
		return err
	}
	a.instance = instance

	surface, err := gfx.NewSurface(instance, a.window)
	if err != nil {
		return err
	}
	a.surface = surface

	physical, err := gfx.SelectPhysicalDevice(
		instance.AvailableDevices(),
		surface.Handle(),
		a.configuration.Renderer.DeviceExtensions,
	)
	if err != nil {
		return err
	}

	device, err := gfx.NewDevice(physical, surface.Handle(), a.configuration.Renderer.DeviceExtensions)
	if err != nil {
		return err
	}
	a.device = device

	rendererCfg := a.configuration.Renderer
	width, height := a.window.VulkanGetDrawableSize()
	rendererCfg.ScreenWidth = uint32(width)
	rendererCfg.ScreenHeight = uint32(height)

	renderer, err := gfx.NewVulkanRenderer(device, surface, rendererCfg)
	if err != nil {
		return err
	}
	if err := renderer.Initialise(); err != nil {
		renderer.Destroy()
		return err
	}
	a.renderer = renderer

	if a.configuration.Hooks.Init != nil {
		if err := a.configuration.Hooks.Init(); err != nil {
			return errors.New("init hook: " + err.Error())
		}
	}
	return nil
}

func (a *App) createWindow() error {
	wCfg := a.configuration.Window
	x, y := int32(sdl.WINDOWPOS_UNDEFINED), int32(sdl.WINDOWPOS_UNDEFINED)
	if wCfg.X != 0 || wCfg.Y != 0 {
		x, y = wCfg.X, wCfg.Y
	}

	window, err := sdl.CreateWindow(
		wCfg.Title, x, y,
		int32(wCfg.Width), int32(wCfg.Height),
		wCfg.Flags|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE,
	)
	if err != nil {
		return errors.New("sdl.CreateWindow(): " + err.Error())
	}
	a.window = window
	return nil
}

// Run executes the main loop until the window closes or Stop is
// called. Initialize must have succeeded first.
func (a *App) Run() {
	if !a.ready {
		log.WithField("component", "core").Error("Run() called before Initialize()")
		return
	}

	a.running = true
	for a.running {
		a.pumpEvents()
		if !a.running {
			break
		}

		delta := a.timer.Tick()
		if a.configuration.Hooks.Update != nil {
			a.configuration.Hooks.Update(delta)
		}

		start := time.Now()
		ok, err := a.renderer.BeginFrame()
		if err != nil {
			log.WithField("component", "core").Error("BeginFrame(): ", err)
			continue
		}
		if !ok {
			// Swapchain is being recreated, skip this iteration
			continue
		}

		if a.configuration.Hooks.Render != nil {
			a.configuration.Hooks.Render()
		}

		if _, err := a.renderer.EndFrame(); err != nil {
			log.WithField("component", "core").Error("EndFrame(): ", err)
			a.running = false
			break
		}
		a.timer.Push(time.Since(start).Seconds())
	}
}

// Stop makes the main loop exit after the current iteration.
func (a *App) Stop() {
	a.running = false
}

func (a *App) pumpEvents() {
	start := time.Now()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			a.running = false
		case *sdl.WindowEvent:
			a.handleWindowEvent(ev)
		}
		if a.configuration.Hooks.Event != nil {
			a.configuration.Hooks.Event(event)
		}
	}
	if elapsed := time.Since(start); elapsed > slowPumpThreshold {
		log.WithField("component", "core").Warn("slow event pump: ", elapsed)
	}
}

func (a *App) handleWindowEvent(ev *sdl.WindowEvent) {
	windowID, err := a.window.GetID()
	if err != nil || ev.WindowID != windowID {
		return
	}
	switch ev.Event {
	case sdl.WINDOWEVENT_CLOSE:
		a.running = false
	case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED:
		width, height := a.window.VulkanGetDrawableSize()
		a.renderer.Resize(uint32(width), uint32(height))
		if a.configuration.Hooks.Resize != nil {
			a.configuration.Hooks.Resize(uint32(width), uint32(height))
		}
	}
}

// Shutdown tears everything down in reverse creation order. Safe to
// call more than once and safe after a partial Initialize.
func (a *App) Shutdown() {
	if a.down {
		return
	}
	a.down = true
	a.ready = false
	a.running = false

	if a.configuration.Hooks.Cleanup != nil {
		a.configuration.Hooks.Cleanup()
	}
	if a.renderer != nil {
		a.renderer.Destroy()
		a.renderer = nil
	}
	if a.device != nil {
		a.device.Destroy()
		a.device = nil
	}
	if a.surface != nil {
		a.surface.Destroy()
		a.surface = nil
	}
	if a.instance != nil {
		a.instance.Destroy()
		a.instance = nil
	}
	if a.window != nil {
		if err := a.window.Destroy(); err != nil {
			log.WithField("component", "core").Warn("window destroy: ", err)
		}
		a.window = nil
	}
	if a.video != nil {
		a.video.Teardown()
		a.video = nil
	}
}

// DeltaTime returns the last frame delta in seconds.
func (a *App) DeltaTime() float64 {
	return a.timer.Delta()
}

// AverageFrameTime returns the rolling mean render time in seconds.
func (a *App) AverageFrameTime() float64 {
	return a.timer.Average()
}

// FrameCount returns the monotonic total frame counter.
func (a *App) FrameCount() uint64 {
	if a.renderer == nil {
		return 0
	}
	return a.renderer.FrameCount()
}

// Device exposes the logical device to hooks, nil until Initialize
// succeeded.
func (a *App) Device() *gfx.Device {
	return a.device
}

// Renderer exposes the frame orchestrator to hooks.
func (a *App) Renderer() gfx.Renderer {
	return a.renderer
}

// Window exposes the native window, nil until Initialize succeeded.
func (a *App) Window() *sdl.Window {
	return a.window
}
