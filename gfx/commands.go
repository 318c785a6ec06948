// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"

	vk "github.com/vulkan-go/vulkan"
)

// CommandPool owns per frame command recording resources. Each frame
// slot gets its own pool so resetting one slot never disturbs buffers
// the GPU is still consuming from another.
type CommandPool struct {
	device vk.Device
	pool   vk.CommandPool
}

// NewCommandPool creates a command pool on the given queue family with
// individually resettable buffers.
func NewCommandPool(device *Device, queueFamily uint32) (*CommandPool, error) {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device.Handle(), &cpci, nil, &pool)); err != nil {
		return nil, errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	return &CommandPool{device: device.Handle(), pool: pool}, nil
}

// Handle returns the inner vk.CommandPool
func (p *CommandPool) Handle() vk.CommandPool {
	return p.pool
}

// AllocateBuffer allocates one primary command buffer from the pool
func (p *CommandPool) AllocateBuffer() (vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	buffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(p.device, &cbai, buffers)); err != nil {
		return nil, errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	return buffers[0], nil
}

// Destroy releases the pool and every buffer allocated from it. Safe
// to call more than once.
func (p *CommandPool) Destroy() {
	if p == nil || p.pool == vk.NullCommandPool {
		return
	}
	vk.DestroyCommandPool(p.device, p.pool, nil)
	p.pool = vk.NullCommandPool
}

// beginOneTime resets cmd and begins recording with the one time
// submit usage hint.
func beginOneTime(cmd vk.CommandBuffer) error {
	if err := vk.Error(vk.ResetCommandBuffer(cmd, 0)); err != nil {
		return errors.New("vk.ResetCommandBuffer(): " + err.Error())
	}
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmd, &cbbi)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}
	return nil
}
