package passes

import (
	"encoding/binary"
	"errors"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/renderer"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

const (
	shadowVertexShader     = "shadow"
	lightingVertexShader   = "fullscreen"
	lightingFragmentShader = "lighting"
)

// LightingRenderer renders the sun's shadow cascades and then composites the
// lit image from the G-buffer: a depth-only pass per cascade followed by one
// full-screen triangle.
type LightingRenderer struct {
	shadowPipeline    metadata.PipelineHandle
	hasShadowPipeline bool

	compositePipeline    metadata.PipelineHandle
	hasCompositePipeline bool
}

func NewLightingRenderer() *LightingRenderer {
	return &LightingRenderer{}
}

func (l *LightingRenderer) Execute(backend renderer.Backend, frame *renderer.FrameData, scene *renderer.RenderScene) error {
	cascades := ComputeCascades(scene.Camera, scene.Light.Direction)

	var viewProj [renderer.ShadowCascadeCount]math.Mat4
	var splits math.Vec4
	splitValues := []*float32{&splits.X, &splits.Y, &splits.Z, &splits.W}
	for i := range cascades {
		viewProj[i] = cascades[i].ViewProj
		*splitValues[i] = cascades[i].SplitDepth
	}
	frame.UploadCascades(backend, viewProj, splits)

	if err := l.renderShadowMaps(backend, frame, scene); err != nil {
		return err
	}
	return l.renderComposite(backend, frame)
}

func (l *LightingRenderer) renderShadowMaps(backend renderer.Backend, frame *renderer.FrameData, scene *renderer.RenderScene) error {
	pipeline, err := l.shadowPipelineHandle(backend, frame)
	if err != nil {
		return err
	}

	// Push constants: the draw's model index and the cascade being rendered.
	var push [8]byte
	for cascade := 0; cascade < renderer.ShadowCascadeCount; cascade++ {
		resolution := renderer.ShadowCascadeResolutions[cascade]
		backend.BeginRenderingWithExtent(nil, &frame.ShadowMaps[cascade], 0, resolution, resolution)
		backend.BindPipeline(pipeline)
		backend.BindDescriptorSets(pipeline, 0, []metadata.DescriptorSetHandle{frame.ShadowSet})

		for i := range scene.Meshes {
			mesh := &scene.Meshes[i]
			backend.BindVertexBuffer(mesh.Gpu.VertexBuffer)
			backend.BindIndexBuffer(mesh.Gpu.IndexBuffer)
			binary.LittleEndian.PutUint32(push[0:], uint32(i))
			binary.LittleEndian.PutUint32(push[4:], uint32(cascade))
			backend.UpdatePushConstants(pipeline, metadata.ShaderStageVertex, 0, push[:])
			backend.DrawIndexed(mesh.Gpu.IndexCount, 0, 0)
			core.MetricsCountDraw()
		}

		backend.EndRendering()
	}
	return nil
}

func (l *LightingRenderer) renderComposite(backend renderer.Backend, frame *renderer.FrameData) error {
	pipeline, err := l.compositePipelineHandle(backend, frame)
	if err != nil {
		return err
	}

	// Everything the composite samples has to be readable first.
	backend.TransitionImage(frame.Albedo, metadata.TransitionShaderRead)
	backend.TransitionImage(frame.Normal, metadata.TransitionShaderRead)
	backend.TransitionImage(frame.Depth, metadata.TransitionShaderRead)
	for i := 0; i < renderer.ShadowCascadeCount; i++ {
		backend.TransitionImage(frame.ShadowMaps[i], metadata.TransitionShaderRead)
	}

	backend.BeginRendering([]metadata.ImageHandle{frame.Draw}, nil, 0)
	backend.BindPipeline(pipeline)
	backend.BindDescriptorSets(pipeline, 0, []metadata.DescriptorSetHandle{frame.LightingSet})
	backend.Draw(3)
	core.MetricsCountDraw()
	backend.EndRendering()
	return nil
}

func (l *LightingRenderer) shadowPipelineHandle(backend renderer.Backend, frame *renderer.FrameData) (metadata.PipelineHandle, error) {
	if l.hasShadowPipeline {
		return l.shadowPipeline, nil
	}

	desc := metadata.PipelineDesc{
		Name:             "shadow",
		VertexShaderName: shadowVertexShader,
		// Depth-only: no fragment stage, no color attachments.
		DepthAttachment:   &frame.ShadowMaps[0],
		DescriptorLayouts: []metadata.DescriptorLayoutHandle{frame.ShadowLayout},
		PushConstantRanges: []metadata.PushConstantRange{
			{Stages: metadata.ShaderStageVertex, Offset: 0, Size: 8},
		},
		HasVertexInput:   true,
		CullMode:         metadata.CullModeFront,
		DepthTestEnable:  true,
		DepthWriteEnable: true,
		DepthCompareOp:   metadata.CompareOpLess,
		// Clamp instead of clipping geometry between the light and the
		// near plane, so close casters still shadow.
		DepthClampEnable: true,
	}

	p, err := backend.CreateGraphicsPipeline(desc)
	if err != nil {
		if errors.Is(err, core.ErrShaderNotFound) {
			core.LogFatal("lighting pass: %s", err)
		}
		return 0, err
	}
	l.shadowPipeline = p
	l.hasShadowPipeline = true
	return p, nil
}

func (l *LightingRenderer) compositePipelineHandle(backend renderer.Backend, frame *renderer.FrameData) (metadata.PipelineHandle, error) {
	if l.hasCompositePipeline {
		return l.compositePipeline, nil
	}

	desc := metadata.PipelineDesc{
		Name:               "lighting",
		VertexShaderName:   lightingVertexShader,
		FragmentShaderName: lightingFragmentShader,
		ColorAttachments:   []metadata.ImageHandle{frame.Draw},
		DescriptorLayouts:  []metadata.DescriptorLayoutHandle{frame.LightingLayout},
		// Full-screen triangle generated in the vertex shader.
		HasVertexInput: false,
		CullMode:       metadata.CullModeNone,
	}

	p, err := backend.CreateGraphicsPipeline(desc)
	if err != nil {
		if errors.Is(err, core.ErrShaderNotFound) {
			core.LogFatal("lighting pass: %s", err)
		}
		return 0, err
	}
	l.compositePipeline = p
	l.hasCompositePipeline = true
	return p, nil
}

// InvalidateShader drops whichever cached pipeline the shader feeds.
func (l *LightingRenderer) InvalidateShader(name string) {
	switch name {
	case shadowVertexShader:
		l.hasShadowPipeline = false
	case lightingVertexShader, lightingFragmentShader:
		l.hasCompositePipeline = false
	}
}
