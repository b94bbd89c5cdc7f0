package renderer

import (
	"unsafe"

	"github.com/pellucidar/keel/engine/assets"
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// GpuMesh is a mesh asset uploaded to device-local vertex/index buffers.
type GpuMesh struct {
	VertexBuffer metadata.BufferHandle
	IndexBuffer  metadata.BufferHandle
	IndexCount   uint32
}

// GpuTexture is an image asset uploaded to a sampled GPU image.
type GpuTexture struct {
	Image metadata.ImageHandle
}

// ResourceManager caches the GPU side of assets: the first request for a
// mesh or image uploads it, every later request returns the cached handle.
// Nothing is ever evicted; GPU resources live until backend shutdown.
type ResourceManager struct {
	backend Backend
	assets  *assets.AssetManager

	meshes   map[assets.MeshHandle]GpuMesh
	textures map[assets.ImageHandle]GpuTexture
}

func NewResourceManager(backend Backend, assetManager *assets.AssetManager) *ResourceManager {
	return &ResourceManager{
		backend:  backend,
		assets:   assetManager,
		meshes:   make(map[assets.MeshHandle]GpuMesh),
		textures: make(map[assets.ImageHandle]GpuTexture),
	}
}

// GetMesh returns the GPU buffers for a mesh asset, uploading on first use.
// A handle the asset manager does not know yields ok=false.
func (rm *ResourceManager) GetMesh(h assets.MeshHandle) (GpuMesh, bool) {
	if gpu, ok := rm.meshes[h]; ok {
		return gpu, true
	}

	asset := rm.assets.GetMeshByHandle(h)
	if asset == nil || len(asset.Vertices) == 0 || len(asset.Indices) == 0 {
		core.LogError("resource manager: no mesh asset behind handle %d", h)
		return GpuMesh{}, false
	}

	vertexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&asset.Vertices[0])), len(asset.Vertices)*metadata.VertexSize)
	indexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&asset.Indices[0])), len(asset.Indices)*4)

	gpu := GpuMesh{IndexCount: uint32(len(asset.Indices))}
	gpu.VertexBuffer = rm.backend.CreateBuffer(metadata.BufferDesc{
		Size:       uint64(len(vertexBytes)),
		Usage:      metadata.BufferUsageVertex,
		MemoryHint: metadata.MemoryGPUOnly,
	})
	rm.backend.UpdateBuffer(gpu.VertexBuffer, 0, vertexBytes)

	gpu.IndexBuffer = rm.backend.CreateBuffer(metadata.BufferDesc{
		Size:       uint64(len(indexBytes)),
		Usage:      metadata.BufferUsageIndex,
		MemoryHint: metadata.MemoryGPUOnly,
	})
	rm.backend.UpdateBuffer(gpu.IndexBuffer, 0, indexBytes)

	rm.meshes[h] = gpu
	core.LogDebug("resource manager: uploaded mesh %s (%d indices)", asset.Path, gpu.IndexCount)
	return gpu, true
}

// GetTexture returns the GPU image for an image asset, uploading on first
// use. A handle the asset manager does not know yields ok=false.
func (rm *ResourceManager) GetTexture(h assets.ImageHandle) (GpuTexture, bool) {
	if gpu, ok := rm.textures[h]; ok {
		return gpu, true
	}

	asset := rm.assets.GetImageByHandle(h)
	if asset == nil || len(asset.Pixels) == 0 {
		core.LogError("resource manager: no image asset behind handle %d", h)
		return GpuTexture{}, false
	}

	gpu := GpuTexture{}
	gpu.Image = rm.backend.CreateImage(metadata.ImageDesc{
		Width:  asset.Width,
		Height: asset.Height,
		Format: metadata.FormatR8G8B8A8Unorm,
		Usage:  metadata.ImageUsageSampled | metadata.ImageUsageTransferDst,
		Aspect: metadata.ImageAspectColor,
	})
	rm.backend.UpdateImageData(gpu.Image, asset.Pixels)

	rm.textures[h] = gpu
	core.LogDebug("resource manager: uploaded texture %s (%dx%d)", asset.Path, asset.Width, asset.Height)
	return gpu, true
}

// MeshCount reports how many meshes have been uploaded.
func (rm *ResourceManager) MeshCount() int {
	return len(rm.meshes)
}

// TextureCount reports how many textures have been uploaded.
func (rm *ResourceManager) TextureCount() int {
	return len(rm.textures)
}
