// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"sync"
	"testing"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"
)

func TestVertexDescriptorsMatchLayout(t *testing.T) {
	bindings := VertexBindingDescriptions()
	if len(bindings) != 1 {
		t.Fatalf("expected a single binding, got %d", len(bindings))
	}
	if bindings[0].Stride != uint32(unsafe.Sizeof(Vertex{})) {
		t.Errorf("binding stride %d does not match Vertex size %d",
			bindings[0].Stride, unsafe.Sizeof(Vertex{}))
	}

	attrs := VertexAttributeDescriptions()
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Offset != uint32(unsafe.Offsetof(Vertex{}.Pos)) {
		t.Error("position attribute offset drifted from struct layout")
	}
	if attrs[1].Offset != uint32(unsafe.Offsetof(Vertex{}.Color)) {
		t.Error("color attribute offset drifted from struct layout")
	}
}

func TestVertexBytes(t *testing.T) {
	if VertexBytes(nil) != nil {
		t.Error("empty vertex list should produce no bytes")
	}

	vertices := []Vertex{
		{Pos: glm.Vec3{0, -0.5, 0}, Color: glm.Vec4{1, 0, 0, 1}},
		{Pos: glm.Vec3{0.5, 0.5, 0}, Color: glm.Vec4{0, 1, 0, 1}},
	}
	raw := VertexBytes(vertices)
	if len(raw) != 2*VertexSize {
		t.Errorf("expected %d bytes, got %d", 2*VertexSize, len(raw))
	}
}

func TestMeshTransformConcurrency(t *testing.T) {
	mesh := NewMesh([]Vertex{{}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mesh.SetPosition(glm.Translate3D(1, 2, 3))
				_ = mesh.Position()
				mesh.SetRotation(glm.HomogRotate3DZ(0.5))
				_ = mesh.Rotation()
			}
		}()
	}
	wg.Wait()

	if mesh.Position() != glm.Translate3D(1, 2, 3) {
		t.Error("position lost after concurrent writes")
	}
}
