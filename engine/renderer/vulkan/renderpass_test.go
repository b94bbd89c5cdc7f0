package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

func TestRenderPassKeyDistinguishesAttachmentSignatures(t *testing.T) {
	clearColor := &vulkanImage{Desc: metadata.ImageDesc{
		Format:     metadata.FormatR16G16B16A16Float,
		ClearValue: &math.Vec4{},
	}}
	loadColor := &vulkanImage{Desc: metadata.ImageDesc{
		Format: metadata.FormatR16G16B16A16Float,
	}}
	depth := &vulkanImage{Desc: metadata.ImageDesc{
		Format:     metadata.FormatD32Float,
		ClearValue: &math.Vec4{X: 1},
	}}

	gbuffer := passKey([]*vulkanImage{clearColor, clearColor}, depth)
	composite := passKey([]*vulkanImage{loadColor}, nil)
	shadow := passKey(nil, depth)

	// One cached pass per attachment signature; the geometry, composite and
	// shadow scopes must never collide.
	assert.NotEqual(t, gbuffer, composite)
	assert.NotEqual(t, gbuffer, shadow)
	assert.NotEqual(t, composite, shadow)

	assert.Equal(t, gbuffer, passKey([]*vulkanImage{clearColor, clearColor}, depth), "same signature reuses the cached pass")
	assert.NotEqual(t,
		passKey([]*vulkanImage{clearColor}, nil),
		passKey([]*vulkanImage{loadColor}, nil),
		"load op is part of the signature")
}
