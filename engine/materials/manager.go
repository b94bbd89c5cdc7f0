package materials

import (
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// MaterialHandle is an index into the manager's material list.
type MaterialHandle uint32

// MaterialVariant is the pipeline shape a material compiles to: shader path,
// push-constant size and the sampled-image binding slots. One variant maps
// to one cached pipeline in the geometry pass.
type MaterialVariant struct {
	Name             string
	PushConstantSize uint32
	BindingInfo      []metadata.BindingDesc
}

// MaterialManager owns all registered materials and de-duplicates their
// shader variants by shader path.
type MaterialManager struct {
	materials []Material
	variants  map[string]*MaterialVariant
}

func NewMaterialManager() *MaterialManager {
	return &MaterialManager{
		variants: make(map[string]*MaterialVariant),
	}
}

// AddMaterialInstance registers a material and ensures its shader variant
// exists. Materials sharing a shader path share one variant.
func (mm *MaterialManager) AddMaterialInstance(material Material) MaterialHandle {
	shaderPath := material.ShaderPath()
	if _, ok := mm.variants[shaderPath]; !ok {
		mm.variants[shaderPath] = newVariant(material)
		core.LogDebug("material manager: new shader variant %s", shaderPath)
	}

	h := MaterialHandle(len(mm.materials))
	mm.materials = append(mm.materials, material)
	return h
}

func newVariant(material Material) *MaterialVariant {
	bindings := material.Bindings()
	info := make([]metadata.BindingDesc, 0, len(bindings))
	for _, b := range bindings {
		info = append(info, metadata.BindingDesc{
			Binding: b.Binding,
			Type:    metadata.DescriptorCombinedImageSampler,
			Stages:  metadata.ShaderStageFragment,
			Count:   1,
		})
	}
	return &MaterialVariant{
		Name:             material.ShaderPath(),
		PushConstantSize: uint32(len(material.PushConstantData())),
		BindingInfo:      info,
	}
}

// GetMaterial returns the material behind a handle, or nil when out of range.
func (mm *MaterialManager) GetMaterial(h MaterialHandle) Material {
	if int(h) >= len(mm.materials) {
		return nil
	}
	return mm.materials[h]
}

// GetVariant returns the shader variant for a material handle, or nil when
// the handle is unknown.
func (mm *MaterialManager) GetVariant(h MaterialHandle) *MaterialVariant {
	m := mm.GetMaterial(h)
	if m == nil {
		return nil
	}
	return mm.variants[m.ShaderPath()]
}

// Variants returns every distinct shader variant.
func (mm *MaterialManager) Variants() []*MaterialVariant {
	out := make([]*MaterialVariant, 0, len(mm.variants))
	for _, v := range mm.variants {
		out = append(out, v)
	}
	return out
}

// MaterialCount returns the number of registered material instances.
func (mm *MaterialManager) MaterialCount() int {
	return len(mm.materials)
}
