// Copyright (c) 2020 lumin3d
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Command lumin is the engine demo. It spins up the whole stack and
// renders a colored triangle, with shader blobs loaded from a packr
// box or an optional pak archive.
package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/lumin3d/lumin/core"
	"github.com/lumin3d/lumin/gfx"
	"github.com/lumin3d/lumin/model"
	"github.com/lumin3d/lumin/util/pak"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	pakFile      = flag.String("pak", "", "Load shader blobs from a pak archive instead of the built-in box")
)

var shaderBox = packr.NewBox("./shaders")

// demo holds everything the hooks create on top of the engine
type demo struct {
	app *core.App

	mesh     *model.Mesh
	vertices *gfx.Buffer
	pipeline *gfx.Pipeline
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := trace.Start(f); err != nil {
			log.Fatal(err)
		}
		defer trace.Stop()
	}

	cfg := core.ApplyEnvironment(core.DefaultConfiguration())
	if *debug {
		cfg.Instance.Validation = true
	}

	d := &demo{}
	cfg.Hooks = core.Hooks{
		Init:    d.setup,
		Render:  d.render,
		Cleanup: d.cleanup,
	}

	d.app = core.NewApp(cfg)
	defer d.app.Shutdown()
	if !d.app.Initialize() {
		os.Exit(1)
	}
	d.app.Run()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
	}
}

func loadShader(name string) ([]byte, error) {
	if *pakFile != "" {
		f, err := os.Open(*pakFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		archive, err := pak.Open(f)
		if err != nil {
			return nil, err
		}
		return archive.ReadAll(name)
	}
	return shaderBox.Find(name)
}

func (d *demo) setup() error {
	device := d.app.Device()
	renderer := d.app.Renderer()

	vertBlob, err := loadShader("triangle.vert.spv")
	if err != nil {
		return err
	}
	fragBlob, err := loadShader("triangle.frag.spv")
	if err != nil {
		return err
	}

	vert, err := gfx.NewShader(device, "triangle.vert", gfx.VertexShaderType, vertBlob)
	if err != nil {
		return err
	}
	defer vert.Destroy()

	frag, err := gfx.NewShader(device, "triangle.frag", gfx.FragmentShaderType, fragBlob)
	if err != nil {
		return err
	}
	defer frag.Destroy()

	d.pipeline, err = gfx.NewPipeline(device, renderer.RenderPass(), gfx.PipelineConfiguration{
		Shaders:          []*gfx.Shader{vert, frag},
		VertexBindings:   model.VertexBindingDescriptions(),
		VertexAttributes: model.VertexAttributeDescriptions(),
	})
	if err != nil {
		return err
	}

	d.mesh = model.NewMesh([]model.Vertex{
		{Pos: glm.Vec3{0.0, -0.5, 0.0}, Color: glm.Vec4{1, 0, 0, 1}},
		{Pos: glm.Vec3{0.5, 0.5, 0.0}, Color: glm.Vec4{0, 1, 0, 1}},
		{Pos: glm.Vec3{-0.5, 0.5, 0.0}, Color: glm.Vec4{0, 0, 1, 1}},
	})

	raw := model.VertexBytes(d.mesh.Vertices())
	d.vertices, err = gfx.NewHostBuffer(device, len(raw), vk.BufferUsageVertexBufferBit)
	if err != nil {
		return err
	}
	return d.vertices.Upload(raw)
}

func (d *demo) render() {
	renderer := d.app.Renderer()
	cmd := renderer.CommandBuffer()
	extent := renderer.Extent()

	clearValues := make([]vk.ClearValue, 1)
	clearValues[0].SetColor([]float32{0.01, 0.01, 0.02, 1.0})
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  renderer.RenderPass(),
		Framebuffer: renderer.Framebuffer(),
		RenderArea: vk.Rect2D{
			Extent: extent,
		},
		ClearValueCount: 1,
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, d.pipeline.Handle())
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MaxDepth: 1.0,
	}})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{Extent: extent}})

	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{d.vertices.Handle()}, []vk.DeviceSize{0})
	vk.CmdDraw(cmd, uint32(len(d.mesh.Vertices())), 1, 0, 0)

	vk.CmdEndRenderPass(cmd)
}

func (d *demo) cleanup() {
	if d.pipeline != nil {
		d.pipeline.Destroy()
	}
	if d.vertices != nil {
		d.vertices.Destroy()
	}
}
