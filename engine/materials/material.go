package materials

import (
	"bytes"
	"encoding/binary"

	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/math"
)

// Feature bits baked into a material's push constants so the shader can tell
// which parameters arrive as textures and which as constants.
const (
	PbrFeatureColorTexture uint32 = 1 << iota
	PbrFeatureNormalTexture
	PbrFeatureOrmTexture
)

// TextureBinding maps a descriptor binding slot to an image asset.
type TextureBinding struct {
	Binding uint32
	Image   assets.ImageHandle
}

// Material is anything the geometry pass can draw with: a shader, the
// textures its descriptor set needs, and a push-constant blob of parameters.
type Material interface {
	ShaderPath() string
	Bindings() []TextureBinding
	PushConstantData() []byte
	FeatureBits() uint32
}

// ColorParameter is either a texture or a constant color.
type ColorParameter struct {
	Texture  *assets.ImageHandle
	Constant math.Vec4
}

func ColorFromTexture(h assets.ImageHandle) ColorParameter {
	return ColorParameter{Texture: &h}
}

func ColorFromConstant(c math.Vec4) ColorParameter {
	return ColorParameter{Constant: c}
}

// ScalarParameter is either a single channel of a texture or a constant.
type ScalarParameter struct {
	Texture  *assets.ImageHandle
	Constant float32
}

func ScalarFromTexture(h assets.ImageHandle) ScalarParameter {
	return ScalarParameter{Texture: &h}
}

func ScalarFromConstant(v float32) ScalarParameter {
	return ScalarParameter{Constant: v}
}

// PbrMaterial is the standard physically-based material: base color, normal
// map and the occlusion/metallic/roughness/specular parameter set.
type PbrMaterial struct {
	Shader           string
	BaseColor        ColorParameter
	Normal           ColorParameter
	AmbientOcclusion ScalarParameter
	Metallic         ScalarParameter
	Roughness        ScalarParameter
	Specular         ScalarParameter
}

// NewPbrMaterial returns a material with neutral constants: opaque white
// base color, full roughness, no metallic.
func NewPbrMaterial(shader string) *PbrMaterial {
	return &PbrMaterial{
		Shader:    shader,
		BaseColor: ColorFromConstant(math.NewVec4(1, 1, 1, 1)),
		Roughness: ScalarFromConstant(1.0),
	}
}

func (m *PbrMaterial) ShaderPath() string {
	return m.Shader
}

// Descriptor binding slots inside the material set (set 1).
const (
	pbrBindingBaseColor = 0
	pbrBindingNormal    = 1
	pbrBindingOrm       = 2
)

func (m *PbrMaterial) Bindings() []TextureBinding {
	var out []TextureBinding
	if m.BaseColor.Texture != nil {
		out = append(out, TextureBinding{Binding: pbrBindingBaseColor, Image: *m.BaseColor.Texture})
	}
	if m.Normal.Texture != nil {
		out = append(out, TextureBinding{Binding: pbrBindingNormal, Image: *m.Normal.Texture})
	}
	if orm := m.ormTexture(); orm != nil {
		out = append(out, TextureBinding{Binding: pbrBindingOrm, Image: *orm})
	}
	return out
}

// ormTexture returns the first texture among the packed ORM channels; the
// channels are expected to share one packed image.
func (m *PbrMaterial) ormTexture() *assets.ImageHandle {
	for _, p := range []ScalarParameter{m.AmbientOcclusion, m.Metallic, m.Roughness, m.Specular} {
		if p.Texture != nil {
			return p.Texture
		}
	}
	return nil
}

// pbrPushConstants mirrors the fragment-stage push constant block:
// two vec4 colors, four scalars, the feature bits and padding to a
// 16-byte-aligned size.
type pbrPushConstants struct {
	BaseColor        math.Vec4
	AmbientOcclusion float32
	Metallic         float32
	Roughness        float32
	Specular         float32
	Features         uint32
	_                [3]uint32
}

// PbrPushConstantSize is the byte size of the fragment push constant block.
const PbrPushConstantSize = 16 + 16 + 16

func (m *PbrMaterial) PushConstantData() []byte {
	pc := pbrPushConstants{
		BaseColor:        m.BaseColor.Constant,
		AmbientOcclusion: m.AmbientOcclusion.Constant,
		Metallic:         m.Metallic.Constant,
		Roughness:        m.Roughness.Constant,
		Specular:         m.Specular.Constant,
		Features:         m.FeatureBits(),
	}
	buf := bytes.NewBuffer(make([]byte, 0, PbrPushConstantSize))
	// fixed-size struct of float32/uint32, Write cannot fail
	binary.Write(buf, binary.LittleEndian, &pc)
	return buf.Bytes()
}

func (m *PbrMaterial) FeatureBits() uint32 {
	var features uint32
	if m.BaseColor.Texture != nil {
		features |= PbrFeatureColorTexture
	}
	if m.Normal.Texture != nil {
		features |= PbrFeatureNormalTexture
	}
	if m.ormTexture() != nil {
		features |= PbrFeatureOrmTexture
	}
	return features
}
