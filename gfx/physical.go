// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDeviceInfo describes available physical properties of a
// rendering device. It is a plain value, it owns no GPU resources and
// is immutable after collection.
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Discrete      bool
	Invalid       bool
	Extensions    []string
	Layers        []string
	Memory        uint
}

func collectDeviceInfo(device vk.PhysicalDevice) PhysicalDeviceInfo {
	var pdi PhysicalDeviceInfo

	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numDeviceExtensions, nil)); err != nil {
		pdi.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numDeviceExtensions, deviceExt)); err != nil {
		pdi.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		pdi.Extensions = append(pdi.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numDeviceLayers, nil)); err != nil {
		pdi.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numDeviceLayers, deviceLayers)); err != nil {
		pdi.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		pdi.Layers = append(pdi.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		pdi.Memory = pdi.Memory + uint(memoryProperties.MemoryHeaps[iMem].Size)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	pdi.ID = int(properties.DeviceID)
	pdi.VendorID = int(properties.VendorID)
	pdi.Name = vk.ToString(properties.DeviceName[:])
	pdi.DriverVersion = int(properties.DriverVersion)
	pdi.Discrete = properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu

	return pdi
}

// SelectPhysicalDevice scores every candidate against the surface and
// the required device extensions and returns the best one. Candidates
// that cannot present to the surface or lack a required extension are
// rejected outright.
func SelectPhysicalDevice(devices []vk.PhysicalDevice, surface vk.Surface, requiredExtensions []string) (vk.PhysicalDevice, error) {
	var (
		best      vk.PhysicalDevice
		bestScore uint64
	)
	for _, device := range devices {
		info := collectDeviceInfo(device)
		if info.Invalid {
			continue
		}
		if !supportsExtensions(info.Extensions, requiredExtensions) {
			continue
		}
		if !canPresent(device, surface) {
			continue
		}

		score := uint64(info.Memory)
		if info.Discrete {
			score += 1 << 40
		}
		if best == nil || score > bestScore {
			best = device
			bestScore = score
		}
	}
	if best == nil {
		return nil, ErrNoSuitableDevice
	}
	return best, nil
}

func supportsExtensions(available, required []string) bool {
	for _, req := range required {
		found := false
		for _, ext := range available {
			if ext == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func canPresent(device vk.PhysicalDevice, surface vk.Surface) bool {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	for i := uint32(0); i < queueFamilyCount; i++ {
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supported)
		if supported.B() {
			return true
		}
	}
	return false
}
