// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"sync"

	"github.com/veandco/go-sdl2/sdl"
)

// The SDL video subsystem and the Vulkan loader are process wide.
// videoRuntime refcounts them behind a scoped guard so the engine can
// be brought up and torn down repeatedly without relying on static
// init flags.
var videoRuntime struct {
	mu   sync.Mutex
	refs int
}

// VideoRuntime is a scoped acquisition of the window system and the
// Vulkan loader. Teardown releases the reference exactly once no
// matter how often it is called.
type VideoRuntime struct {
	once sync.Once
}

// InitVideo acquires the process wide video runtime. Each successful
// call must be paired with one Teardown.
func InitVideo() (*VideoRuntime, error) {
	videoRuntime.mu.Lock()
	defer videoRuntime.mu.Unlock()

	if videoRuntime.refs == 0 {
		if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
			return nil, errors.New("sdl.Init(): " + err.Error())
		}
		if err := sdl.VulkanLoadLibrary(""); err != nil {
			sdl.Quit()
			return nil, errors.New("sdl.VulkanLoadLibrary(): " + err.Error())
		}
	}
	videoRuntime.refs++
	return &VideoRuntime{}, nil
}

// Teardown releases the runtime reference. The subsystem quits when
// the last reference goes away.
func (v *VideoRuntime) Teardown() {
	v.once.Do(func() {
		videoRuntime.mu.Lock()
		defer videoRuntime.mu.Unlock()
		videoRuntime.refs--
		if videoRuntime.refs == 0 {
			sdl.VulkanUnloadLibrary()
			sdl.Quit()
		}
	})
}
