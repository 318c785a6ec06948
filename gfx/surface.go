// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// Surface owns a window system surface. It is tied to exactly one
// native window and its validity is bounded by the instance it was
// created from. It must outlive any swapchain built on it.
type Surface struct {
	instance vk.Instance
	surface  vk.Surface
}

// NewSurface creates a presentable surface for src, typically the SDL
// window owned by the application shell.
func NewSurface(instance Instance, src SurfaceSource) (*Surface, error) {
	if instance == nil || src == nil {
		return nil, errors.New("gfx.NewSurface(): nil instance or window")
	}
	ptr, err := src.VulkanCreateSurface(instance.Handle())
	if err != nil {
		return nil, errors.New("VulkanCreateSurface(): " + err.Error())
	}
	return &Surface{
		instance: instance.Handle(),
		surface:  vk.SurfaceFromPointer(uintptr(ptr)),
	}, nil
}

// Handle returns the inner vk.Surface
func (s *Surface) Handle() vk.Surface {
	if s == nil || s.surface == vk.NullSurface {
		return vk.NullSurface
	}
	return s.surface
}

// Destroy releases the surface. Safe to call more than once.
func (s *Surface) Destroy() {
	if s == nil || s.surface == vk.NullSurface {
		return
	}
	vk.DestroySurface(s.instance, s.surface, nil)
	s.surface = vk.NullSurface
}
