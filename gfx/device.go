// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// QueueFamilies holds the resolved queue family indices of a device.
// Compute and Transfer fall back to the graphics family when no
// dedicated family exists.
type QueueFamilies struct {
	Graphics uint32
	Present  uint32
	Compute  uint32
	Transfer uint32
}

// Device exclusively owns a logical device handle, its queues and one
// transient command pool for short lived submissions. Every object
// created from it must be destroyed before the device is.
type Device struct {
	physical vk.PhysicalDevice
	device   vk.Device
	families QueueFamilies

	graphicsQueue vk.Queue
	presentQueue  vk.Queue

	transientPool vk.CommandPool
}

// resolveQueueFamilies walks the queue families of device and picks
// indices for each role. Present prefers the graphics family when it
// can present, otherwise any family that can.
func resolveQueueFamilies(device vk.PhysicalDevice, surface vk.Surface) (QueueFamilies, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return QueueFamilies{}, ErrNoGraphicsQueue
	}
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	var (
		families                                  QueueFamilies
		hasGraphics, hasPresent                   bool
		hasDedicatedCompute, hasDedicatedTransfer bool
	)
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		flags := queueFamilies[i].QueueFlags

		if !hasGraphics && flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 {
			families.Graphics = i
			hasGraphics = true
		}
		if !hasDedicatedCompute && flags&vk.QueueFlags(vk.QueueComputeBit) != 0 &&
			flags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			families.Compute = i
			hasDedicatedCompute = true
		}
		if !hasDedicatedTransfer && flags&vk.QueueFlags(vk.QueueTransferBit) != 0 &&
			flags&vk.QueueFlags(vk.QueueGraphicsBit|vk.QueueComputeBit) == 0 {
			families.Transfer = i
			hasDedicatedTransfer = true
		}

		if surface != vk.NullSurface {
			var supported vk.Bool32
			vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supported)
			if supported.B() {
				if !hasPresent || i == families.Graphics {
					families.Present = i
					hasPresent = true
				}
			}
		}
	}

	if !hasGraphics {
		return QueueFamilies{}, ErrNoGraphicsQueue
	}
	if surface != vk.NullSurface && !hasPresent {
		return QueueFamilies{}, ErrNoPresentQueue
	}
	if !hasDedicatedCompute {
		families.Compute = families.Graphics
	}
	if !hasDedicatedTransfer {
		families.Transfer = families.Graphics
	}
	return families, nil
}

// NewDevice creates a logical device on physical with the given device
// extensions, resolving queue family indices against surface.
func NewDevice(physical vk.PhysicalDevice, surface vk.Surface, extensions []string) (*Device, error) {
	families, err := resolveQueueFamilies(physical, surface)
	if err != nil {
		return nil, err
	}

	uniqueFamilies := []uint32{families.Graphics}
	if families.Present != families.Graphics {
		uniqueFamilies = append(uniqueFamilies, families.Present)
	}

	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(uniqueFamilies))
	for _, family := range uniqueFamilies {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}

	var device vk.Device
	if err := vk.Error(vk.CreateDevice(physical, &dci, nil, &device)); err != nil {
		return nil, errors.New("vk.CreateDevice(): " + err.Error())
	}

	d := &Device{
		physical: physical,
		device:   device,
		families: families,
	}
	vk.GetDeviceQueue(device, families.Graphics, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(device, families.Present, 0, &d.presentQueue)

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: families.Graphics,
		Flags: vk.CommandPoolCreateFlags(
			vk.CommandPoolCreateTransientBit | vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(device, &cpci, nil, &pool)); err != nil {
		vk.DestroyDevice(device, nil)
		return nil, errors.New("vk.CreateCommandPool(): " + err.Error())
	}
	d.transientPool = pool

	return d, nil
}

// Handle returns the inner vk.Device
func (d *Device) Handle() vk.Device {
	return d.device
}

// Physical returns the physical device this device was created on
func (d *Device) Physical() vk.PhysicalDevice {
	return d.physical
}

// GraphicsQueue returns the graphics queue
func (d *Device) GraphicsQueue() vk.Queue {
	return d.graphicsQueue
}

// PresentQueue returns the present queue. May equal the graphics queue.
func (d *Device) PresentQueue() vk.Queue {
	return d.presentQueue
}

// QueueFamilies returns the resolved queue family indices
func (d *Device) QueueFamilies() QueueFamilies {
	return d.families
}

// WaitIdle blocks until all queues of the device drained. Must be
// called before destroying any resource the GPU may still be reading.
func (d *Device) WaitIdle() error {
	return vk.Error(vk.DeviceWaitIdle(d.device))
}

// WithSingleTimeCommands allocates a one off command buffer from the
// transient pool, lets record fill it, submits it to the graphics
// queue and waits for the queue to drain before freeing the buffer.
func (d *Device) WithSingleTimeCommands(record func(vk.CommandBuffer) error) error {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.transientPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, commandBuffers)); err != nil {
		return errors.New("vk.AllocateCommandBuffers(): " + err.Error())
	}
	defer vk.FreeCommandBuffers(d.device, d.transientPool, 1, commandBuffers)

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(commandBuffers[0], &cbbi)); err != nil {
		return errors.New("vk.BeginCommandBuffer(): " + err.Error())
	}

	if err := record(commandBuffers[0]); err != nil {
		return err
	}

	if err := vk.Error(vk.EndCommandBuffer(commandBuffers[0])); err != nil {
		return errors.New("vk.EndCommandBuffer(): " + err.Error())
	}

	submit := []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    commandBuffers,
	}}
	if err := vk.Error(vk.QueueSubmit(d.graphicsQueue, 1, submit, vk.NullFence)); err != nil {
		return errors.New("vk.QueueSubmit(): " + err.Error())
	}
	return vk.Error(vk.QueueWaitIdle(d.graphicsQueue))
}

// Destroy waits for the device to drain and releases the transient
// pool and the device. Safe to call more than once.
func (d *Device) Destroy() {
	if d == nil || d.device == nil {
		return
	}
	if err := vk.Error(vk.DeviceWaitIdle(d.device)); err != nil {
		log.WithField("component", "device").Warn("wait idle during teardown: ", err)
	}
	vk.DestroyCommandPool(d.device, d.transientPool, nil)
	vk.DestroyDevice(d.device, nil)
	d.device = nil
}
