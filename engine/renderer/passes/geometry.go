// Package passes holds the stages of the deferred pipeline: the geometry
// pass filling the G-buffer and the lighting pass rendering shadow cascades
// and compositing the final image.
package passes

import (
	"encoding/binary"
	"errors"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// geometryVertexShader is the shared vertex stage of every material variant.
const geometryVertexShader = "geometry"

// GeometryRenderer rasterizes every scene mesh into the G-buffer. Pipelines
// are cached per material variant; a variant is its fragment shader plus its
// push-constant and binding shape.
type GeometryRenderer struct {
	pipelines map[string]metadata.PipelineHandle
}

func NewGeometryRenderer() *GeometryRenderer {
	return &GeometryRenderer{
		pipelines: make(map[string]metadata.PipelineHandle),
	}
}

func (g *GeometryRenderer) Execute(backend renderer.Backend, frame *renderer.FrameData, scene *renderer.RenderScene) error {
	colorAttachments := []metadata.ImageHandle{frame.Albedo, frame.Normal}
	backend.BeginRendering(colorAttachments, &frame.Depth, 0)

	var meshIndex [4]byte
	for i := range scene.Meshes {
		mesh := &scene.Meshes[i]

		pipeline, err := g.pipelineForVariant(backend, frame, mesh)
		if err != nil {
			backend.EndRendering()
			return err
		}

		backend.BindPipeline(pipeline)
		backend.BindDescriptorSets(pipeline, 0, []metadata.DescriptorSetHandle{frame.FrameSet, mesh.MaterialSet})
		backend.BindVertexBuffer(mesh.Gpu.VertexBuffer)
		backend.BindIndexBuffer(mesh.Gpu.IndexBuffer)

		// The vertex stage indexes the model storage buffer with the draw's
		// position in the scene; the fragment stage gets the material block.
		binary.LittleEndian.PutUint32(meshIndex[:], uint32(i))
		backend.UpdatePushConstants(pipeline, metadata.ShaderStageVertex, 0, meshIndex[:])
		backend.UpdatePushConstants(pipeline, metadata.ShaderStageFragment, materialPushConstantOffset, mesh.PushConstants)

		backend.DrawIndexed(mesh.Gpu.IndexCount, 0, 0)
		core.MetricsCountDraw()
	}

	backend.EndRendering()
	return nil
}

// materialPushConstantOffset keeps the fragment material block clear of the
// vertex stage's mesh index, aligned to 16 bytes.
const materialPushConstantOffset = 16

func (g *GeometryRenderer) pipelineForVariant(backend renderer.Backend, frame *renderer.FrameData, mesh *renderer.SceneMesh) (metadata.PipelineHandle, error) {
	if p, ok := g.pipelines[mesh.Variant.Name]; ok {
		return p, nil
	}

	desc := metadata.PipelineDesc{
		Name:               mesh.Variant.Name,
		VertexShaderName:   geometryVertexShader,
		FragmentShaderName: mesh.Variant.Name,
		ColorAttachments:   []metadata.ImageHandle{frame.Albedo, frame.Normal},
		DepthAttachment:    &frame.Depth,
		DescriptorLayouts:  []metadata.DescriptorLayoutHandle{frame.FrameLayout, mesh.MaterialLayout},
		PushConstantRanges: []metadata.PushConstantRange{
			{Stages: metadata.ShaderStageVertex, Offset: 0, Size: materialPushConstantOffset},
			{Stages: metadata.ShaderStageFragment, Offset: materialPushConstantOffset, Size: mesh.Variant.PushConstantSize},
		},
		HasVertexInput:   true,
		CullMode:         metadata.CullModeBack,
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		DepthCompareOp:   metadata.CompareOpLess,
	}

	p, err := backend.CreateGraphicsPipeline(desc)
	if err != nil {
		if errors.Is(err, core.ErrShaderNotFound) {
			core.LogFatal("geometry pass: %s", err)
		}
		return 0, err
	}
	g.pipelines[mesh.Variant.Name] = p
	return p, nil
}

// InvalidateShader drops cached pipelines built from the named shader. The
// shared vertex shader invalidates every variant.
func (g *GeometryRenderer) InvalidateShader(name string) {
	if name == geometryVertexShader {
		g.pipelines = make(map[string]metadata.PipelineHandle)
		return
	}
	delete(g.pipelines, name)
}
