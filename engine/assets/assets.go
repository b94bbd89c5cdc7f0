package assets

import (
	"github.com/google/uuid"

	"github.com/pellucidar/keel/engine/assets/loaders"
	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// MeshHandle identifies one decoded mesh asset for the process lifetime.
type MeshHandle uint64

// ImageHandle identifies one decoded image asset for the process lifetime.
type ImageHandle uint64

// MeshAsset is a decoded mesh ready for GPU upload.
type MeshAsset struct {
	GUID     uuid.UUID
	Path     string
	Vertices []metadata.Vertex
	Indices  []uint32
}

// ImageAsset is a decoded raster image, tightly packed RGBA8.
type ImageAsset struct {
	GUID   uuid.UUID
	Path   string
	Pixels []byte
	Width  uint32
	Height uint32
}

// AssetManager memoizes decoded assets by path. Handles are dense ids shared
// across asset kinds; a decode failure logs and returns ok=false, it never
// terminates the process.
type AssetManager struct {
	pathToMesh  map[string]MeshHandle
	pathToImage map[string]ImageHandle
	meshes      map[MeshHandle]*MeshAsset
	images      map[ImageHandle]*ImageAsset
	nextID      uint64
}

func NewAssetManager() *AssetManager {
	return &AssetManager{
		pathToMesh:  make(map[string]MeshHandle),
		pathToImage: make(map[string]ImageHandle),
		meshes:      make(map[MeshHandle]*MeshAsset),
		images:      make(map[ImageHandle]*ImageAsset),
	}
}

// GetMesh returns the handle for the mesh at path, decoding it on first use.
func (am *AssetManager) GetMesh(path string) (MeshHandle, bool) {
	if h, ok := am.pathToMesh[path]; ok {
		return h, true
	}

	vertices, indices, err := loaders.LoadOBJ(path)
	if err != nil {
		core.LogError("asset manager: failed to load mesh %s: %v", path, err)
		return 0, false
	}

	h := MeshHandle(am.nextID)
	am.nextID++
	am.pathToMesh[path] = h
	am.meshes[h] = &MeshAsset{
		GUID:     uuid.New(),
		Path:     path,
		Vertices: vertices,
		Indices:  indices,
	}
	core.LogInfo("asset manager: loaded mesh %s (%d vertices, %d indices)", path, len(vertices), len(indices))
	return h, true
}

// GetImage returns the handle for the image at path, decoding it on first use.
func (am *AssetManager) GetImage(path string) (ImageHandle, bool) {
	if h, ok := am.pathToImage[path]; ok {
		return h, true
	}

	pixels, width, height, err := loaders.LoadImageRGBA(path)
	if err != nil {
		core.LogError("asset manager: failed to load image %s: %v", path, err)
		return 0, false
	}

	h := ImageHandle(am.nextID)
	am.nextID++
	am.pathToImage[path] = h
	am.images[h] = &ImageAsset{
		GUID:   uuid.New(),
		Path:   path,
		Pixels: pixels,
		Width:  width,
		Height: height,
	}
	core.LogInfo("asset manager: loaded image %s (%dx%d)", path, width, height)
	return h, true
}

// GetMeshByHandle returns the decoded mesh, or nil for an unknown handle.
func (am *AssetManager) GetMeshByHandle(h MeshHandle) *MeshAsset {
	return am.meshes[h]
}

// GetImageByHandle returns the decoded image, or nil for an unknown handle.
func (am *AssetManager) GetImageByHandle(h ImageHandle) *ImageAsset {
	return am.images[h]
}
