// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// Shader wraps a shader module built from a precompiled SPIR-V blob.
// The blob format belongs to the graphics API, the engine treats it as
// opaque bytes.
type Shader struct {
	name       string
	shaderType ShaderType
	device     vk.Device
	module     vk.ShaderModule
}

// NewShader creates a shader module from blob. The blob must be whole
// SPIR-V words, which is how every compiler emits it.
func NewShader(device *Device, name string, shaderType ShaderType, blob []byte) (*Shader, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, ErrShaderAlignment
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(blob)),
		PCode:    sliceUint32(blob),
	}

	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device.Handle(), &smci, nil, &module)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(%s): %s", name, err.Error())
	}

	return &Shader{
		name:       name,
		shaderType: shaderType,
		device:     device.Handle(),
		module:     module,
	}, nil
}

// Name returns the shader name given at creation
func (s *Shader) Name() string {
	return s.name
}

// Type returns the shader stage type
func (s *Shader) Type() ShaderType {
	return s.shaderType
}

// Handle returns the inner vk.ShaderModule
func (s *Shader) Handle() vk.ShaderModule {
	return s.module
}

// StageFlag maps the shader type onto its pipeline stage bit
func (s *Shader) StageFlag() (vk.ShaderStageFlagBits, error) {
	switch s.shaderType {
	case VertexShaderType:
		return vk.ShaderStageVertexBit, nil
	case FragmentShaderType:
		return vk.ShaderStageFragmentBit, nil
	default:
		return 0, errors.New("gfx: unsupported shader type")
	}
}

// Destroy releases the shader module. Safe to call more than once.
func (s *Shader) Destroy() {
	if s == nil || s.module == vk.NullShaderModule {
		return
	}
	vk.DestroyShaderModule(s.device, s.module, nil)
	s.module = vk.NullShaderModule
}
