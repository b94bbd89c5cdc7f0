package renderer

import (
	"bytes"
	"encoding/binary"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/math"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

const (
	// MaxMeshes bounds the per-frame model matrix storage buffer.
	MaxMeshes = 1024

	// ShadowCascadeCount is the number of shadow map cascades the sun light
	// renders.
	ShadowCascadeCount = 4
)

// ShadowCascadeResolutions are the per-cascade shadow map sizes, nearest
// cascade first.
var ShadowCascadeResolutions = [ShadowCascadeCount]uint32{2048, 2048, 1024, 1024}

// Descriptor set layouts the passes share. Set 0 of the geometry pass is the
// frame set; set 1 is the per-material set owned by the scene builder.
const (
	frameBindingCamera = 0
	frameBindingModels = 1

	shadowBindingCascades = 0
	shadowBindingModels   = 1

	lightingBindingAlbedo      = 0
	lightingBindingNormal      = 1
	lightingBindingDepth       = 2
	lightingBindingShadowFirst = 3 // bindings 3..6, one per cascade
	lightingBindingCascades    = 7
	lightingBindingLight       = 8
	lightingBindingCamera      = 9
)

// cameraUniform mirrors the camera UBO layout in the shaders.
type cameraUniform struct {
	View        math.Mat4
	Projection  math.Mat4
	InvViewProj math.Mat4
	Position    math.Vec4
}

const cameraUniformSize = 3*64 + 16

// cascadeUniform mirrors the shadow cascade UBO: one light view-projection
// per cascade plus the view-space split depths packed into a vec4.
type cascadeUniform struct {
	ViewProj [ShadowCascadeCount]math.Mat4
	Splits   math.Vec4
}

const cascadeUniformSize = ShadowCascadeCount*64 + 16

// lightingUniform mirrors the lighting composite UBO.
type lightingUniform struct {
	Direction math.Vec4
	Color     math.Vec4
	Ambient   math.Vec4
}

const lightingUniformSize = 3 * 16

// FrameData owns the per-frame GPU resources of the deferred pipeline: the
// G-buffer, the draw target the composite renders into, the shadow cascade
// maps and the uniform/storage buffers the passes read.
type FrameData struct {
	// G-buffer attachments and the final draw target.
	Albedo metadata.ImageHandle
	Normal metadata.ImageHandle
	Depth  metadata.ImageHandle
	Draw   metadata.ImageHandle

	// One depth image per cascade; resolutions differ so they cannot share
	// array layers.
	ShadowMaps [ShadowCascadeCount]metadata.ImageHandle

	CameraBuffer   metadata.BufferHandle
	ModelBuffer    metadata.BufferHandle
	CascadeBuffer  metadata.BufferHandle
	LightingBuffer metadata.BufferHandle

	BasicSampler  metadata.SamplerHandle
	ShadowSampler metadata.SamplerHandle

	FrameLayout    metadata.DescriptorLayoutHandle
	ShadowLayout   metadata.DescriptorLayoutHandle
	LightingLayout metadata.DescriptorLayoutHandle

	FrameSet    metadata.DescriptorSetHandle
	ShadowSet   metadata.DescriptorSetHandle
	LightingSet metadata.DescriptorSetHandle

	Width  uint32
	Height uint32
}

// NewFrameData creates every image, buffer, sampler, layout and descriptor
// set the passes need. GPU allocation failure is fatal inside the backend.
func NewFrameData(backend Backend, width, height uint32) *FrameData {
	fd := &FrameData{Width: width, Height: height}

	fd.createRenderTargets(backend, width, height)

	for i := 0; i < ShadowCascadeCount; i++ {
		res := ShadowCascadeResolutions[i]
		fd.ShadowMaps[i] = backend.CreateImage(metadata.ImageDesc{
			Width:      res,
			Height:     res,
			Format:     metadata.FormatD32Float,
			Usage:      metadata.ImageUsageDepthStencilAttachment | metadata.ImageUsageSampled,
			Aspect:     metadata.ImageAspectDepth,
			ClearValue: &math.Vec4{X: 1},
		})
	}

	fd.CameraBuffer = backend.CreateBuffer(metadata.BufferDesc{
		Size:       cameraUniformSize,
		Usage:      metadata.BufferUsageUniform,
		MemoryHint: metadata.MemoryCPUWritable,
	})
	fd.ModelBuffer = backend.CreateBuffer(metadata.BufferDesc{
		Size:       MaxMeshes * 64,
		Usage:      metadata.BufferUsageStorage,
		MemoryHint: metadata.MemoryCPUWritable,
	})
	fd.CascadeBuffer = backend.CreateBuffer(metadata.BufferDesc{
		Size:       cascadeUniformSize,
		Usage:      metadata.BufferUsageUniform,
		MemoryHint: metadata.MemoryCPUWritable,
	})
	fd.LightingBuffer = backend.CreateBuffer(metadata.BufferDesc{
		Size:       lightingUniformSize,
		Usage:      metadata.BufferUsageUniform,
		MemoryHint: metadata.MemoryCPUWritable,
	})

	fd.BasicSampler = backend.CreateSampler(metadata.SamplerDesc{
		MinFilter:   metadata.FilterLinear,
		MagFilter:   metadata.FilterLinear,
		AddressMode: metadata.AddressModeRepeat,
	})
	// Clamp-to-border with a white border reads "fully lit" outside the
	// cascade's footprint.
	fd.ShadowSampler = backend.CreateSampler(metadata.SamplerDesc{
		MinFilter:   metadata.FilterLinear,
		MagFilter:   metadata.FilterLinear,
		AddressMode: metadata.AddressModeClampToBorder,
	})

	fd.FrameLayout = backend.CreateDescriptorLayout(metadata.DescriptorLayoutDesc{
		Bindings: []metadata.BindingDesc{
			{Binding: frameBindingCamera, Type: metadata.DescriptorUniformBuffer, Stages: metadata.ShaderStageVertex | metadata.ShaderStageFragment},
			{Binding: frameBindingModels, Type: metadata.DescriptorStorageBuffer, Stages: metadata.ShaderStageVertex},
		},
	})
	fd.ShadowLayout = backend.CreateDescriptorLayout(metadata.DescriptorLayoutDesc{
		Bindings: []metadata.BindingDesc{
			{Binding: shadowBindingCascades, Type: metadata.DescriptorUniformBuffer, Stages: metadata.ShaderStageVertex},
			{Binding: shadowBindingModels, Type: metadata.DescriptorStorageBuffer, Stages: metadata.ShaderStageVertex},
		},
	})

	lightingBindings := []metadata.BindingDesc{
		{Binding: lightingBindingAlbedo, Type: metadata.DescriptorCombinedImageSampler, Stages: metadata.ShaderStageFragment},
		{Binding: lightingBindingNormal, Type: metadata.DescriptorCombinedImageSampler, Stages: metadata.ShaderStageFragment},
		{Binding: lightingBindingDepth, Type: metadata.DescriptorCombinedImageSampler, Stages: metadata.ShaderStageFragment},
	}
	for i := 0; i < ShadowCascadeCount; i++ {
		lightingBindings = append(lightingBindings, metadata.BindingDesc{
			Binding: lightingBindingShadowFirst + uint32(i),
			Type:    metadata.DescriptorCombinedImageSampler,
			Stages:  metadata.ShaderStageFragment,
		})
	}
	lightingBindings = append(lightingBindings,
		metadata.BindingDesc{Binding: lightingBindingCascades, Type: metadata.DescriptorUniformBuffer, Stages: metadata.ShaderStageFragment},
		metadata.BindingDesc{Binding: lightingBindingLight, Type: metadata.DescriptorUniformBuffer, Stages: metadata.ShaderStageFragment},
		metadata.BindingDesc{Binding: lightingBindingCamera, Type: metadata.DescriptorUniformBuffer, Stages: metadata.ShaderStageFragment},
	)
	fd.LightingLayout = backend.CreateDescriptorLayout(metadata.DescriptorLayoutDesc{Bindings: lightingBindings})

	fd.FrameSet = backend.AllocateDescriptorSet(fd.FrameLayout)
	fd.ShadowSet = backend.AllocateDescriptorSet(fd.ShadowLayout)
	fd.LightingSet = backend.AllocateDescriptorSet(fd.LightingLayout)

	backend.UpdateDescriptorSet(fd.FrameSet, []metadata.DescriptorWrite{
		{Binding: frameBindingCamera, Type: metadata.DescriptorUniformBuffer, Buffer: fd.CameraBuffer},
		{Binding: frameBindingModels, Type: metadata.DescriptorStorageBuffer, Buffer: fd.ModelBuffer},
	})
	backend.UpdateDescriptorSet(fd.ShadowSet, []metadata.DescriptorWrite{
		{Binding: shadowBindingCascades, Type: metadata.DescriptorUniformBuffer, Buffer: fd.CascadeBuffer},
		{Binding: shadowBindingModels, Type: metadata.DescriptorStorageBuffer, Buffer: fd.ModelBuffer},
	})
	fd.writeLightingSet(backend)

	return fd
}

// Resize recreates the extent-sized render targets and points the lighting
// set at them. Old images stay in the registry until shutdown; the registry
// never evicts.
func (fd *FrameData) Resize(backend Backend, width, height uint32) {
	if width == fd.Width && height == fd.Height {
		return
	}
	core.LogInfo("frame data: resizing render targets to %dx%d", width, height)
	fd.Width = width
	fd.Height = height
	fd.createRenderTargets(backend, width, height)
	fd.writeLightingSet(backend)
}

func (fd *FrameData) createRenderTargets(backend Backend, width, height uint32) {
	gbufferDesc := metadata.ImageDesc{
		Width:      width,
		Height:     height,
		Format:     metadata.FormatR16G16B16A16Float,
		Usage:      metadata.ImageUsageColorAttachment | metadata.ImageUsageSampled,
		Aspect:     metadata.ImageAspectColor,
		ClearValue: &math.Vec4{},
	}
	fd.Albedo = backend.CreateImage(gbufferDesc)
	fd.Normal = backend.CreateImage(gbufferDesc)
	fd.Depth = backend.CreateImage(metadata.ImageDesc{
		Width:      width,
		Height:     height,
		Format:     metadata.FormatD32Float,
		Usage:      metadata.ImageUsageDepthStencilAttachment | metadata.ImageUsageSampled,
		Aspect:     metadata.ImageAspectDepth,
		ClearValue: &math.Vec4{X: 1},
	})
	fd.Draw = backend.CreateImage(metadata.ImageDesc{
		Width:  width,
		Height: height,
		Format: metadata.FormatR16G16B16A16Float,
		Usage:  metadata.ImageUsageColorAttachment | metadata.ImageUsageTransferSrc,
		Aspect: metadata.ImageAspectColor,
	})
}

func (fd *FrameData) writeLightingSet(backend Backend) {
	writes := []metadata.DescriptorWrite{
		{Binding: lightingBindingAlbedo, Type: metadata.DescriptorCombinedImageSampler, Image: fd.Albedo, Sampler: fd.BasicSampler},
		{Binding: lightingBindingNormal, Type: metadata.DescriptorCombinedImageSampler, Image: fd.Normal, Sampler: fd.BasicSampler},
		{Binding: lightingBindingDepth, Type: metadata.DescriptorCombinedImageSampler, Image: fd.Depth, Sampler: fd.BasicSampler},
	}
	for i := 0; i < ShadowCascadeCount; i++ {
		writes = append(writes, metadata.DescriptorWrite{
			Binding: lightingBindingShadowFirst + uint32(i),
			Type:    metadata.DescriptorCombinedImageSampler,
			Image:   fd.ShadowMaps[i],
			Sampler: fd.ShadowSampler,
		})
	}
	writes = append(writes,
		metadata.DescriptorWrite{Binding: lightingBindingCascades, Type: metadata.DescriptorUniformBuffer, Buffer: fd.CascadeBuffer},
		metadata.DescriptorWrite{Binding: lightingBindingLight, Type: metadata.DescriptorUniformBuffer, Buffer: fd.LightingBuffer},
		metadata.DescriptorWrite{Binding: lightingBindingCamera, Type: metadata.DescriptorUniformBuffer, Buffer: fd.CameraBuffer},
	)
	backend.UpdateDescriptorSet(fd.LightingSet, writes)
}

// UploadCamera writes the camera UBO for the frame.
func (fd *FrameData) UploadCamera(backend Backend, camera CameraData) {
	viewProj := camera.ViewProjection()
	u := cameraUniform{
		View:        camera.View,
		Projection:  camera.Projection,
		InvViewProj: viewProj.Inverse(),
		Position:    camera.Position.ToVec4(1),
	}
	backend.UpdateBuffer(fd.CameraBuffer, 0, marshalUniform(&u, cameraUniformSize))
}

// UploadModels writes the resolved scene's transforms into the model storage
// buffer in draw order; the vertex shader indexes it with the push-constant
// mesh index, so row i must belong to scene mesh i. The scene builder bounds
// the scene to MaxMeshes.
func (fd *FrameData) UploadModels(backend Backend, meshes []SceneMesh) {
	if len(meshes) == 0 {
		return
	}
	buf := bytes.NewBuffer(make([]byte, 0, len(meshes)*64))
	for i := range meshes {
		binary.Write(buf, binary.LittleEndian, &meshes[i].Transform)
	}
	backend.UpdateBuffer(fd.ModelBuffer, 0, buf.Bytes())
}

// UploadCascades writes the shadow cascade UBO.
func (fd *FrameData) UploadCascades(backend Backend, viewProj [ShadowCascadeCount]math.Mat4, splits math.Vec4) {
	u := cascadeUniform{ViewProj: viewProj, Splits: splits}
	backend.UpdateBuffer(fd.CascadeBuffer, 0, marshalUniform(&u, cascadeUniformSize))
}

// UploadLighting writes the lighting UBO.
func (fd *FrameData) UploadLighting(backend Backend, light LightData) {
	u := lightingUniform{
		Direction: light.Direction.ToVec4(0),
		Color:     light.Color.ToVec4(1),
		Ambient:   light.Ambient.ToVec4(1),
	}
	backend.UpdateBuffer(fd.LightingBuffer, 0, marshalUniform(&u, lightingUniformSize))
}

// marshalUniform serializes a fixed-size struct of float32 fields.
func marshalUniform(v any, size int) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	// fixed-size numeric struct, Write cannot fail
	binary.Write(buf, binary.LittleEndian, v)
	return buf.Bytes()
}
