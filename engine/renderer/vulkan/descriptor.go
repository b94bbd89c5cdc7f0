package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// maxSetsPerPool is the allocation budget of one descriptor pool chunk;
// when a chunk fills up a fresh one is opened and allocation carries on.
const maxSetsPerPool = 1000

type descriptorPoolChunk struct {
	handle    vk.DescriptorPool
	allocated uint32
	// full marks a chunk the driver refused to allocate from; allocated
	// keeps the true count so the chunks always account for every live set.
	full bool
}

type descriptorAllocator struct {
	chunks []descriptorPoolChunk
}

// reusableChunk returns the open chunk with room, or nil when a fresh pool
// is needed.
func (da *descriptorAllocator) reusableChunk() *descriptorPoolChunk {
	if n := len(da.chunks); n > 0 && !da.chunks[n-1].full && da.chunks[n-1].allocated < maxSetsPerPool {
		return &da.chunks[n-1]
	}
	return nil
}

// allocatedSets is the number of live descriptor sets across every chunk.
func (da *descriptorAllocator) allocatedSets() uint32 {
	var total uint32
	for i := range da.chunks {
		total += da.chunks[i].allocated
	}
	return total
}

func (da *descriptorAllocator) currentPool(context *VulkanContext) (*descriptorPoolChunk, error) {
	if chunk := da.reusableChunk(); chunk != nil {
		return chunk, nil
	}

	poolSizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: maxSetsPerPool},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: maxSetsPerPool},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: 4 * maxSetsPerPool},
		{Type: vk.DescriptorTypeStorageImage, DescriptorCount: maxSetsPerPool},
	}
	poolCreateInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
		MaxSets:       maxSetsPerPool,
	}

	var pool vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		err := fmt.Errorf("vkCreateDescriptorPool failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	da.chunks = append(da.chunks, descriptorPoolChunk{handle: pool})
	core.LogDebug("descriptor allocator: opened pool chunk %d", len(da.chunks))
	return &da.chunks[len(da.chunks)-1], nil
}

func (da *descriptorAllocator) allocate(context *VulkanContext, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	chunk, err := da.currentPool(context)
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     chunk.handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}

	sets := make([]vk.DescriptorSet, 1)
	res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0])
	if res == vk.ErrorOutOfPoolMemory || res == vk.ErrorFragmentedPool {
		// Retire the chunk and spill into a fresh one.
		chunk.full = true
		chunk, err = da.currentPool(context)
		if err != nil {
			return nil, err
		}
		allocateInfo.DescriptorPool = chunk.handle
		res = vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0])
	}
	if res != vk.Success {
		err := fmt.Errorf("vkAllocateDescriptorSets failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	chunk.allocated++
	return sets[0], nil
}

func (da *descriptorAllocator) destroy(context *VulkanContext) {
	for _, chunk := range da.chunks {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, chunk.handle, context.Allocator)
	}
	da.chunks = nil
}

func createDescriptorLayout(context *VulkanContext, desc metadata.DescriptorLayoutDesc) (vulkanDescriptorLayout, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, 0, len(desc.Bindings))
	for _, b := range desc.Bindings {
		count := b.Count
		if count == 0 {
			count = 1
		}
		bindings = append(bindings, vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vulkanDescriptorType(b.Type),
			DescriptorCount: count,
			StageFlags:      vulkanShaderStages(b.Stages),
		})
	}

	layoutCreateInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	out := vulkanDescriptorLayout{Bindings: desc.Bindings}
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &layoutCreateInfo, context.Allocator, &out.Handle); res != vk.Success {
		err := fmt.Errorf("vkCreateDescriptorSetLayout failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return out, err
	}
	return out, nil
}

// writeDescriptorSet translates metadata writes into one batched
// vkUpdateDescriptorSets call.
func writeDescriptorSet(context *VulkanContext, registry *resourceRegistry, set vk.DescriptorSet, writes []metadata.DescriptorWrite) {
	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))

	for _, w := range writes {
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorCount: 1,
			DescriptorType:  vulkanDescriptorType(w.Type),
		}

		switch w.Type {
		case metadata.DescriptorUniformBuffer, metadata.DescriptorStorageBuffer:
			buf := registry.buffer(w.Buffer)
			write.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: buf.Handle,
				Offset: 0,
				Range:  vk.DeviceSize(buf.Desc.Size),
			}}
		case metadata.DescriptorCombinedImageSampler:
			img := registry.image(w.Image)
			sampler := registry.sampler(w.Sampler)
			write.PImageInfo = []vk.DescriptorImageInfo{{
				Sampler:     sampler.Handle,
				ImageView:   img.View,
				ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
			}}
		case metadata.DescriptorStorageImage:
			img := registry.image(w.Image)
			write.PImageInfo = []vk.DescriptorImageInfo{{
				ImageView:   img.View,
				ImageLayout: vk.ImageLayoutGeneral,
			}}
		}

		vkWrites = append(vkWrites, write)
	}

	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(vkWrites)), vkWrites, 0, nil)
}
