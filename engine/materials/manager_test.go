package materials

import (
	"encoding/binary"
	stdmath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/math"
)

func TestVariantDedupByShaderPath(t *testing.T) {
	mm := NewMaterialManager()

	h1 := mm.AddMaterialInstance(NewPbrMaterial("mesh"))
	h2 := mm.AddMaterialInstance(NewPbrMaterial("mesh"))
	h3 := mm.AddMaterialInstance(NewPbrMaterial("mesh_skinned"))

	assert.NotEqual(t, h1, h2, "every instance gets its own handle")
	assert.Len(t, mm.Variants(), 2, "same shader path shares one variant")

	v1 := mm.GetVariant(h1)
	v2 := mm.GetVariant(h2)
	require.NotNil(t, v1)
	assert.Same(t, v1, v2)
	assert.NotSame(t, v1, mm.GetVariant(h3))
}

func TestVariantShapeFollowsTextures(t *testing.T) {
	mm := NewMaterialManager()

	plain := NewPbrMaterial("mesh")
	textured := NewPbrMaterial("mesh_textured")
	textured.BaseColor = ColorFromTexture(assets.ImageHandle(7))
	textured.Roughness = ScalarFromTexture(assets.ImageHandle(8))

	hPlain := mm.AddMaterialInstance(plain)
	hTex := mm.AddMaterialInstance(textured)

	assert.Empty(t, mm.GetVariant(hPlain).BindingInfo)

	info := mm.GetVariant(hTex).BindingInfo
	require.Len(t, info, 2)
	assert.Equal(t, uint32(0), info[0].Binding)
	assert.Equal(t, uint32(2), info[1].Binding, "scalar textures land in the packed ORM slot")
}

func TestPushConstantLayout(t *testing.T) {
	m := NewPbrMaterial("mesh")
	m.BaseColor = ColorFromConstant(math.NewVec4(0.5, 0.25, 0.125, 1))
	m.Metallic = ScalarFromConstant(0.75)

	data := m.PushConstantData()
	require.Len(t, data, PbrPushConstantSize)

	baseColorX := mathFromBits(binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, float32(0.5), baseColorX)

	metallic := mathFromBits(binary.LittleEndian.Uint32(data[20:24]))
	assert.Equal(t, float32(0.75), metallic)

	features := binary.LittleEndian.Uint32(data[32:36])
	assert.Zero(t, features, "constant-only material advertises no texture features")
}

func TestFeatureBits(t *testing.T) {
	m := NewPbrMaterial("mesh")
	assert.Zero(t, m.FeatureBits())

	m.BaseColor = ColorFromTexture(assets.ImageHandle(1))
	m.Normal = ColorFromTexture(assets.ImageHandle(2))
	m.AmbientOcclusion = ScalarFromTexture(assets.ImageHandle(3))

	bits := m.FeatureBits()
	assert.Equal(t, PbrFeatureColorTexture|PbrFeatureNormalTexture|PbrFeatureOrmTexture, bits)
}

func mathFromBits(bits uint32) float32 {
	return stdmath.Float32frombits(bits)
}
