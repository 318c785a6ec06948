// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the vertex formats the renderer understands and
// the scene object contract bridging gameplay code and the GPU.
package model

import (
	"sync"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Object represents the engine supported model
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Vertices returns the vertices for Renderer use,
	// so it has to match the descriptors exactly
	Vertices() []Vertex
}

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// VertexSize is the byte stride of one Vertex in a GPU buffer
const VertexSize = int(unsafe.Sizeof(Vertex{}))

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// Mesh is a static vertex list with a thread-safe transform. It is
// the simplest Object the renderer can draw.
type Mesh struct {
	mu       sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

// NewMesh wraps vertices in a Mesh with identity transforms. The
// slice is not copied, the caller hands over ownership.
func NewMesh(vertices []Vertex) *Mesh {
	return &Mesh{
		position: glm.Ident4(),
		rotation: glm.Ident4(),
		vertices: vertices,
	}
}

// SetPosition implements Object
func (m *Mesh) SetPosition(pos glm.Mat4) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
}

// Position implements Object
func (m *Mesh) Position() glm.Mat4 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// SetRotation implements Object
func (m *Mesh) SetRotation(rot glm.Mat4) {
	m.mu.Lock()
	m.rotation = rot
	m.mu.Unlock()
}

// Rotation implements Object
func (m *Mesh) Rotation() glm.Mat4 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rotation
}

// Vertices implements Object
func (m *Mesh) Vertices() []Vertex {
	return m.vertices
}

// VertexBytes exposes vertices as a raw byte slice for buffer upload.
// The slice aliases the vertex memory, keep the vertices alive while
// the upload runs.
func VertexBytes(vertices []Vertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), len(vertices)*VertexSize)
}

// VertexBindingDescriptions return Vulkan Vertex descriptors
func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(VertexSize),
		InputRate: vk.VertexInputRateVertex,
	}}
}

// VertexAttributeDescriptions return Vulkan attribute descriptors
func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{
			Binding:  0,
			Location: 0,
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Pos)),
		},
		{
			Binding:  0,
			Location: 1,
			Format:   vk.FormatR32g32b32a32Sfloat,
			Offset:   uint32(unsafe.Offsetof(Vertex{}.Color)),
		},
	}
}
