package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// vulkanImage is a GPU image plus the bookkeeping the render loop needs:
// the whole-image view, one view per array layer for attachment use, and
// the layout it was last transitioned to.
type vulkanImage struct {
	Handle     vk.Image
	Memory     vk.DeviceMemory
	View       vk.ImageView
	LayerViews []vk.ImageView
	Desc       metadata.ImageDesc
	Layout     vk.ImageLayout
}

type vulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Desc   metadata.BufferDesc
	// Non-nil only for CPU-writable buffers, which stay mapped for their
	// whole lifetime.
	Mapped []byte
}

type vulkanSampler struct {
	Handle vk.Sampler
	Desc   metadata.SamplerDesc
}

type vulkanDescriptorLayout struct {
	Handle   vk.DescriptorSetLayout
	Bindings []metadata.BindingDesc
}

type vulkanPipeline struct {
	Handle vk.Pipeline
	Layout vk.PipelineLayout
	Desc   metadata.PipelineDesc
}

// resourceRegistry maps the opaque metadata handles to live Vulkan objects.
// Slices are append-only: a handle is the index at creation time and stays
// valid until shutdown.
type resourceRegistry struct {
	images    []vulkanImage
	buffers   []vulkanBuffer
	samplers  []vulkanSampler
	layouts   []vulkanDescriptorLayout
	sets      []vk.DescriptorSet
	pipelines []vulkanPipeline
}

func (r *resourceRegistry) addImage(img vulkanImage) metadata.ImageHandle {
	r.images = append(r.images, img)
	return metadata.ImageHandle(len(r.images) - 1)
}

func (r *resourceRegistry) image(h metadata.ImageHandle) *vulkanImage {
	if int(h) >= len(r.images) {
		core.LogFatal("resource registry: image handle %d out of range (%d images)", h, len(r.images))
	}
	return &r.images[h]
}

func (r *resourceRegistry) addBuffer(buf vulkanBuffer) metadata.BufferHandle {
	r.buffers = append(r.buffers, buf)
	return metadata.BufferHandle(len(r.buffers) - 1)
}

func (r *resourceRegistry) buffer(h metadata.BufferHandle) *vulkanBuffer {
	if int(h) >= len(r.buffers) {
		core.LogFatal("resource registry: buffer handle %d out of range (%d buffers)", h, len(r.buffers))
	}
	return &r.buffers[h]
}

func (r *resourceRegistry) addSampler(s vulkanSampler) metadata.SamplerHandle {
	r.samplers = append(r.samplers, s)
	return metadata.SamplerHandle(len(r.samplers) - 1)
}

func (r *resourceRegistry) sampler(h metadata.SamplerHandle) *vulkanSampler {
	if int(h) >= len(r.samplers) {
		core.LogFatal("resource registry: sampler handle %d out of range (%d samplers)", h, len(r.samplers))
	}
	return &r.samplers[h]
}

func (r *resourceRegistry) addLayout(l vulkanDescriptorLayout) metadata.DescriptorLayoutHandle {
	r.layouts = append(r.layouts, l)
	return metadata.DescriptorLayoutHandle(len(r.layouts) - 1)
}

func (r *resourceRegistry) layout(h metadata.DescriptorLayoutHandle) *vulkanDescriptorLayout {
	if int(h) >= len(r.layouts) {
		core.LogFatal("resource registry: descriptor layout handle %d out of range (%d layouts)", h, len(r.layouts))
	}
	return &r.layouts[h]
}

func (r *resourceRegistry) addSet(s vk.DescriptorSet) metadata.DescriptorSetHandle {
	r.sets = append(r.sets, s)
	return metadata.DescriptorSetHandle(len(r.sets) - 1)
}

func (r *resourceRegistry) set(h metadata.DescriptorSetHandle) vk.DescriptorSet {
	if int(h) >= len(r.sets) {
		core.LogFatal("resource registry: descriptor set handle %d out of range (%d sets)", h, len(r.sets))
	}
	return r.sets[h]
}

func (r *resourceRegistry) addPipeline(p vulkanPipeline) metadata.PipelineHandle {
	r.pipelines = append(r.pipelines, p)
	return metadata.PipelineHandle(len(r.pipelines) - 1)
}

func (r *resourceRegistry) pipeline(h metadata.PipelineHandle) *vulkanPipeline {
	if int(h) >= len(r.pipelines) {
		core.LogFatal("resource registry: pipeline handle %d out of range (%d pipelines)", h, len(r.pipelines))
	}
	return &r.pipelines[h]
}
