// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// Buffer owns a Vulkan buffer together with its backing memory.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer
	memory vk.DeviceMemory
	size   vk.DeviceSize
}

// NewHostBuffer creates a host visible, host coherent buffer of size
// bytes for the given usage. Suitable for vertex and uniform data the
// CPU rewrites; device local staging is out of scope here.
func NewHostBuffer(device *Device, size int, usage vk.BufferUsageFlagBits) (*Buffer, error) {
	bci := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(device.Handle(), &bci, nil, &buffer)); err != nil {
		return nil, errors.New("vk.CreateBuffer(): " + err.Error())
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device.Handle(), buffer, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := findMemoryType(device.Physical(), memoryRequirements.MemoryTypeBits,
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		vk.DestroyBuffer(device.Handle(), buffer, nil)
		return nil, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(device.Handle(), &mai, nil, &memory)); err != nil {
		vk.DestroyBuffer(device.Handle(), buffer, nil)
		return nil, errors.New("vk.AllocateMemory(): " + err.Error())
	}

	if err := vk.Error(vk.BindBufferMemory(device.Handle(), buffer, memory, 0)); err != nil {
		vk.FreeMemory(device.Handle(), memory, nil)
		vk.DestroyBuffer(device.Handle(), buffer, nil)
		return nil, errors.New("vk.BindBufferMemory(): " + err.Error())
	}

	return &Buffer{
		device: device.Handle(),
		buffer: buffer,
		memory: memory,
		size:   vk.DeviceSize(size),
	}, nil
}

// Upload copies data into the buffer through a mapped range
func (b *Buffer) Upload(data []byte) error {
	if vk.DeviceSize(len(data)) > b.size {
		return errors.New("gfx: upload larger than buffer")
	}
	var mapped unsafe.Pointer
	if err := vk.Error(vk.MapMemory(b.device, b.memory, 0, vk.DeviceSize(len(data)), 0, &mapped)); err != nil {
		return errors.New("vk.MapMemory(): " + err.Error())
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(b.device, b.memory)
	return nil
}

// Handle returns the inner vk.Buffer
func (b *Buffer) Handle() vk.Buffer {
	return b.buffer
}

// Size returns the buffer size in bytes
func (b *Buffer) Size() vk.DeviceSize {
	return b.size
}

// Destroy releases the buffer and its memory. Safe to call more than
// once.
func (b *Buffer) Destroy() {
	if b == nil || b.buffer == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.device, b.buffer, nil)
	vk.FreeMemory(b.device, b.memory, nil)
	b.buffer = vk.NullBuffer
}

// findMemoryType selects a memory type index satisfying both the type
// filter of an allocation and the requested property flags.
func findMemoryType(device vk.PhysicalDevice, typeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device, &memoryProperties)
	memoryProperties.Deref()

	for idx := uint32(0); idx < memoryProperties.MemoryTypeCount; idx++ {
		if (typeBits & 1) == 1 {
			memoryProperties.MemoryTypes[idx].Deref()
			if (memoryProperties.MemoryTypes[idx].PropertyFlags & properties) == properties {
				return idx, nil
			}
		}
		typeBits >>= 1
	}
	return 0, errors.New("gfx: requested memory type not found")
}
