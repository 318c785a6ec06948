// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// Fence is a CPU waitable signal that the GPU finished all work of a
// submission. Its validity is bounded by the device it was created on.
type Fence struct {
	device vk.Device
	fence  vk.Fence
}

// NewFence creates a fence. Frame slot fences start signaled so the
// first wait on a never used slot does not block forever.
func NewFence(device *Device, signaled bool) (*Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(device.Handle(), &fci, nil, &fence)); err != nil {
		return nil, errors.New("vk.CreateFence(): " + err.Error())
	}
	return &Fence{device: device.Handle(), fence: fence}, nil
}

// Handle returns the inner vk.Fence
func (f *Fence) Handle() vk.Fence {
	return f.fence
}

// Wait blocks until the fence is signaled or timeout elapses
func (f *Fence) Wait(timeout uint64) error {
	return vk.Error(vk.WaitForFences(f.device, 1, []vk.Fence{f.fence}, vk.True, timeout))
}

// Reset returns the fence to the unsignaled state
func (f *Fence) Reset() error {
	return vk.Error(vk.ResetFences(f.device, 1, []vk.Fence{f.fence}))
}

// Destroy releases the fence. Safe to call more than once.
func (f *Fence) Destroy() {
	if f == nil || f.fence == vk.NullFence {
		return
	}
	vk.DestroyFence(f.device, f.fence, nil)
	f.fence = vk.NullFence
}

// Semaphore is a GPU only ordering signal between queue operations.
type Semaphore struct {
	device    vk.Device
	semaphore vk.Semaphore
}

// NewSemaphore creates an unsignaled binary semaphore
func NewSemaphore(device *Device) (*Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(device.Handle(), &sci, nil, &semaphore)); err != nil {
		return nil, errors.New("vk.CreateSemaphore(): " + err.Error())
	}
	return &Semaphore{device: device.Handle(), semaphore: semaphore}, nil
}

// Handle returns the inner vk.Semaphore
func (s *Semaphore) Handle() vk.Semaphore {
	return s.semaphore
}

// Destroy releases the semaphore. Safe to call more than once.
func (s *Semaphore) Destroy() {
	if s == nil || s.semaphore == vk.NullSemaphore {
		return
	}
	vk.DestroySemaphore(s.device, s.semaphore, nil)
	s.semaphore = vk.NullSemaphore
}
