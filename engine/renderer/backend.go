package renderer

import (
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// Backend is the GPU abstraction the renderer records frames against.
// Handles are opaque indices owned by the backend; resources live for the
// lifetime of the backend and are only reclaimed at Shutdown.
//
// Frame flow: BeginFrame acquires the next swapchain image and opens the
// frame's command buffer. Rendering happens between BeginRendering/
// EndRendering spans, and EndFrame submits and presents. BeginFrame
// returning core.ErrSwapchainOutOfDate means the frame must be skipped;
// it is not a failure.
type Backend interface {
	Initialize(appName string, width, height uint32) error
	Shutdown() error
	Resized(width, height uint32)

	// Resource creation. All of these are fatal on GPU allocation failure
	// except where an error return says otherwise.
	CreateImage(desc metadata.ImageDesc) metadata.ImageHandle
	CreateBuffer(desc metadata.BufferDesc) metadata.BufferHandle
	CreateSampler(desc metadata.SamplerDesc) metadata.SamplerHandle
	CreateDescriptorLayout(desc metadata.DescriptorLayoutDesc) metadata.DescriptorLayoutHandle
	AllocateDescriptorSet(layout metadata.DescriptorLayoutHandle) metadata.DescriptorSetHandle
	CreateGraphicsPipeline(desc metadata.PipelineDesc) (metadata.PipelineHandle, error)

	// Data upload.
	UpdateBuffer(buffer metadata.BufferHandle, offset uint64, data []byte)
	UpdateImageData(image metadata.ImageHandle, pixels []byte)
	UpdateDescriptorSet(set metadata.DescriptorSetHandle, writes []metadata.DescriptorWrite)

	// Frame lifecycle.
	BeginFrame() error
	EndFrame(presentImage metadata.ImageHandle) error

	// Dynamic-rendering spans. BeginRendering derives the render area from
	// the first attachment; the WithExtent variant overrides it, which the
	// shadow pass uses to render into a layer-sized viewport.
	BeginRendering(colorAttachments []metadata.ImageHandle, depthAttachment *metadata.ImageHandle, layer uint32)
	BeginRenderingWithExtent(colorAttachments []metadata.ImageHandle, depthAttachment *metadata.ImageHandle, layer, width, height uint32)
	EndRendering()

	// Recording. Only valid between BeginFrame and EndFrame.
	BindPipeline(pipeline metadata.PipelineHandle)
	BindVertexBuffer(buffer metadata.BufferHandle)
	BindIndexBuffer(buffer metadata.BufferHandle)
	BindDescriptorSets(pipeline metadata.PipelineHandle, firstSet uint32, sets []metadata.DescriptorSetHandle)
	UpdatePushConstants(pipeline metadata.PipelineHandle, stages metadata.ShaderStageFlags, offset uint32, data []byte)
	Draw(vertexCount uint32)
	DrawIndexed(indexCount, firstIndex uint32, vertexOffset int32)

	// TransitionImage moves an image to the layout a following read or
	// attachment use expects.
	TransitionImage(image metadata.ImageHandle, transition metadata.ImageTransition)

	// FramebufferExtent is the current swapchain extent in pixels.
	FramebufferExtent() (uint32, uint32)
}
