package renderer

import (
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/materials"
	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// SceneMesh is one draw of the frame with everything resolved to GPU
// handles: buffers, the material's descriptor set and its push constants.
type SceneMesh struct {
	Gpu            GpuMesh
	Transform      math.Mat4
	Variant        *materials.MaterialVariant
	MaterialLayout metadata.DescriptorLayoutHandle
	MaterialSet    metadata.DescriptorSetHandle
	PushConstants  []byte
}

// RenderScene is the fully resolved frame: camera, light and the draws the
// passes iterate. Draw order matches the model buffer upload order, so a
// mesh's index in Meshes is its index into the model storage buffer.
type RenderScene struct {
	Camera CameraData
	Light  LightData
	Meshes []SceneMesh
}

// sceneBuilder resolves collected render data against the GPU caches. It
// memoizes descriptor layouts by shader path and descriptor sets by material
// handle so they are created exactly once.
type sceneBuilder struct {
	backend   Backend
	resources *ResourceManager
	materials *materials.MaterialManager

	layoutsByShader map[string]metadata.DescriptorLayoutHandle
	setsByMaterial  map[materials.MaterialHandle]metadata.DescriptorSetHandle
}

func newSceneBuilder(backend Backend, resources *ResourceManager, materialManager *materials.MaterialManager) *sceneBuilder {
	return &sceneBuilder{
		backend:         backend,
		resources:       resources,
		materials:       materialManager,
		layoutsByShader: make(map[string]metadata.DescriptorLayoutHandle),
		setsByMaterial:  make(map[materials.MaterialHandle]metadata.DescriptorSetHandle),
	}
}

// build resolves every collected mesh draw. A draw whose mesh, material or
// textures cannot be resolved is skipped with an error log; the frame still
// renders.
func (sb *sceneBuilder) build(data *RenderData, frame *FrameData) *RenderScene {
	scene := &RenderScene{
		Camera: data.Camera,
		Light:  data.Light,
		Meshes: make([]SceneMesh, 0, len(data.Meshes)),
	}

	for i := range data.Meshes {
		// The model buffer has MaxMeshes rows and the passes push a draw's
		// scene index; anything past the last row cannot be drawn.
		if len(scene.Meshes) == MaxMeshes {
			core.LogWarn("render scene: dropping %d draws past the %d model slots", len(data.Meshes)-i, MaxMeshes)
			break
		}
		draw := &data.Meshes[i]

		gpu, ok := sb.resources.GetMesh(draw.Mesh)
		if !ok {
			core.LogError("render scene: skipping draw, mesh %d is not loaded", draw.Mesh)
			continue
		}

		material := sb.materials.GetMaterial(draw.Material)
		variant := sb.materials.GetVariant(draw.Material)
		if material == nil || variant == nil {
			core.LogError("render scene: skipping draw, material %d is not registered", draw.Material)
			continue
		}

		layout := sb.layoutForVariant(variant)
		set, ok := sb.setForMaterial(draw.Material, material, layout, frame)
		if !ok {
			continue
		}

		scene.Meshes = append(scene.Meshes, SceneMesh{
			Gpu:            gpu,
			Transform:      draw.Transform,
			Variant:        variant,
			MaterialLayout: layout,
			MaterialSet:    set,
			PushConstants:  material.PushConstantData(),
		})
	}

	return scene
}

func (sb *sceneBuilder) layoutForVariant(variant *materials.MaterialVariant) metadata.DescriptorLayoutHandle {
	if h, ok := sb.layoutsByShader[variant.Name]; ok {
		return h
	}
	h := sb.backend.CreateDescriptorLayout(metadata.DescriptorLayoutDesc{
		Bindings: variant.BindingInfo,
	})
	sb.layoutsByShader[variant.Name] = h
	return h
}

func (sb *sceneBuilder) setForMaterial(handle materials.MaterialHandle, material materials.Material, layout metadata.DescriptorLayoutHandle, frame *FrameData) (metadata.DescriptorSetHandle, bool) {
	if set, ok := sb.setsByMaterial[handle]; ok {
		return set, true
	}

	writes := make([]metadata.DescriptorWrite, 0, len(material.Bindings()))
	for _, binding := range material.Bindings() {
		texture, ok := sb.resources.GetTexture(binding.Image)
		if !ok {
			core.LogError("render scene: skipping draw, texture %d of material %d is not loaded", binding.Image, handle)
			return 0, false
		}
		writes = append(writes, metadata.DescriptorWrite{
			Binding: binding.Binding,
			Type:    metadata.DescriptorCombinedImageSampler,
			Image:   texture.Image,
			Sampler: frame.BasicSampler,
		})
	}

	set := sb.backend.AllocateDescriptorSet(layout)
	if len(writes) > 0 {
		sb.backend.UpdateDescriptorSet(set, writes)
	}
	sb.setsByMaterial[handle] = set
	return set, true
}
