package metadata

import "github.com/pellucidar/keel/engine/math"

// ImageHandle is an opaque index into the resource registry's image list.
// Handles stay valid for the lifetime of the backend that issued them.
type ImageHandle uint32

type TextureFormat uint32

const (
	FormatUndefined TextureFormat = iota
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
	FormatR16G16B16A16Float
	FormatR32G32B32A32Float
	FormatD32Float
)

// IsDepth reports whether the format belongs to a depth attachment.
func (f TextureFormat) IsDepth() bool {
	return f == FormatD32Float
}

type ImageAspect uint32

const (
	ImageAspectColor ImageAspect = iota
	ImageAspectDepth
)

type ImageUsageFlags uint32

const (
	ImageUsageSampled ImageUsageFlags = 1 << iota
	ImageUsageStorage
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
	ImageUsageTransferSrc
	ImageUsageTransferDst
)

// ImageTransition names the layout an image should be moved to. Which
// barrier masks that implies is the backend's business.
type ImageTransition uint32

const (
	// TransitionShaderRead prepares the image for sampling in a shader.
	TransitionShaderRead ImageTransition = iota
	// TransitionAttachment prepares the image for use as a color or depth
	// attachment, depending on its aspect.
	TransitionAttachment
	// TransitionTransferSrc prepares the image to be blitted from.
	TransitionTransferSrc
)

// ImageDesc describes a GPU image to create. Zero MipLevels/ArrayLayers are
// treated as 1.
type ImageDesc struct {
	Width       uint32
	Height      uint32
	Depth       uint32
	MipLevels   uint32
	ArrayLayers uint32
	IsCubemap   bool
	Format      TextureFormat
	Usage       ImageUsageFlags
	Aspect      ImageAspect
	ClearValue  *math.Vec4
}
