package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// createBuffer allocates a GPU buffer. CPU-writable buffers live in
// host-visible coherent memory and stay mapped forever; GPU-only buffers
// live in device-local memory and get transfer-dst usage so staging
// uploads can reach them.
func createBuffer(context *VulkanContext, desc metadata.BufferDesc) (vulkanBuffer, error) {
	usage := vulkanBufferUsage(desc.Usage)
	var memoryFlags vk.MemoryPropertyFlags
	if desc.MemoryHint == metadata.MemoryCPUWritable {
		memoryFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	} else {
		memoryFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
		usage |= vk.BufferUsageFlags(vk.BufferUsageTransferDstBit)
	}

	buf := vulkanBuffer{Desc: desc}

	handle, memory, err := allocateRawBuffer(context, desc.Size, usage, memoryFlags)
	if err != nil {
		return buf, err
	}
	buf.Handle = handle
	buf.Memory = memory

	if desc.MemoryHint == metadata.MemoryCPUWritable {
		var data unsafe.Pointer
		if res := vk.MapMemory(context.Device.LogicalDevice, buf.Memory, 0, vk.DeviceSize(desc.Size), 0, &data); res != vk.Success {
			err := fmt.Errorf("vkMapMemory failed with %s", VulkanResultString(res))
			core.LogError(err.Error())
			return buf, err
		}
		buf.Mapped = unsafe.Slice((*byte)(data), desc.Size)
	}

	return buf, nil
}

func allocateRawBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, memoryFlags vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var handle vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("vkCreateBuffer failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, nil, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(memoryFlags))
	if memoryType == -1 {
		err := fmt.Errorf("required memory type not found; buffer not valid")
		core.LogError(err.Error())
		return nil, nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &memory); res != vk.Success {
		err := fmt.Errorf("vkAllocateMemory for buffer failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, nil, err
	}
	if res := vk.BindBufferMemory(context.Device.LogicalDevice, handle, memory, 0); res != vk.Success {
		err := fmt.Errorf("vkBindBufferMemory failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, nil, err
	}

	return handle, memory, nil
}

// uploadToBuffer writes data into a GPU-only buffer through a throwaway
// staging buffer and a blocking transfer.
func uploadToBuffer(context *VulkanContext, dst *vulkanBuffer, offset uint64, data []byte) error {
	stagingHandle, stagingMemory, err := allocateRawBuffer(
		context,
		uint64(len(data)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer func() {
		vk.DestroyBuffer(context.Device.LogicalDevice, stagingHandle, context.Allocator)
		vk.FreeMemory(context.Device.LogicalDevice, stagingMemory, context.Allocator)
	}()

	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, stagingMemory, 0, vk.DeviceSize(len(data)), 0, &mapped); res != vk.Success {
		err := fmt.Errorf("vkMapMemory for staging buffer failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	vk.Memcopy(mapped, data)
	vk.UnmapMemory(context.Device.LogicalDevice, stagingMemory)

	cmd, err := beginSingleUseCommands(context)
	if err != nil {
		return err
	}
	region := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: vk.DeviceSize(offset),
		Size:      vk.DeviceSize(len(data)),
	}
	vk.CmdCopyBuffer(cmd, stagingHandle, dst.Handle, 1, []vk.BufferCopy{region})
	return endSingleUseCommands(context, cmd)
}

// uploadToImage copies tightly packed pixels into the image and leaves it
// in shader-read layout.
func uploadToImage(context *VulkanContext, img *vulkanImage, pixels []byte) error {
	stagingHandle, stagingMemory, err := allocateRawBuffer(
		context,
		uint64(len(pixels)),
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		return err
	}
	defer func() {
		vk.DestroyBuffer(context.Device.LogicalDevice, stagingHandle, context.Allocator)
		vk.FreeMemory(context.Device.LogicalDevice, stagingMemory, context.Allocator)
	}()

	var mapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, stagingMemory, 0, vk.DeviceSize(len(pixels)), 0, &mapped); res != vk.Success {
		err := fmt.Errorf("vkMapMemory for staging buffer failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	vk.Memcopy(mapped, pixels)
	vk.UnmapMemory(context.Device.LogicalDevice, stagingMemory)

	cmd, err := beginSingleUseCommands(context)
	if err != nil {
		return err
	}

	recordImageTransition(cmd, img, vk.ImageLayoutTransferDstOptimal)

	region := vk.BufferImageCopy{
		BufferOffset:      0,
		BufferRowLength:   0,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vulkanAspect(img.Desc.Aspect),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{
			Width:  img.Desc.Width,
			Height: img.Desc.Height,
			Depth:  1,
		},
	}
	vk.CmdCopyBufferToImage(cmd, stagingHandle, img.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})

	recordImageTransition(cmd, img, vk.ImageLayoutShaderReadOnlyOptimal)

	return endSingleUseCommands(context, cmd)
}

// beginSingleUseCommands allocates and begins a one-shot command buffer on
// the graphics queue's pool.
func beginSingleUseCommands(context *VulkanContext) (vk.CommandBuffer, error) {
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        context.CommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, commandBuffers); res != vk.Success {
		err := fmt.Errorf("failed to allocate single-use command buffer")
		core.LogError(err.Error())
		return nil, err
	}

	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if res := vk.BeginCommandBuffer(commandBuffers[0], &beginInfo); res != vk.Success {
		err := fmt.Errorf("failed to begin single-use command buffer")
		core.LogError(err.Error())
		return nil, err
	}

	return commandBuffers[0], nil
}

// endSingleUseCommands submits, waits for the queue to drain and frees the
// command buffer.
func endSingleUseCommands(context *VulkanContext, cmd vk.CommandBuffer) error {
	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		err := fmt.Errorf("failed to end single-use command buffer")
		core.LogError(err.Error())
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cmd},
	}
	if res := vk.QueueSubmit(context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		err := fmt.Errorf("failed to submit single-use command buffer")
		core.LogError(err.Error())
		return err
	}
	if res := vk.QueueWaitIdle(context.Device.GraphicsQueue); res != vk.Success {
		err := fmt.Errorf("queue failed to wait in idle mode")
		core.LogError(err.Error())
		return err
	}

	vk.FreeCommandBuffers(context.Device.LogicalDevice, context.CommandPool, 1, []vk.CommandBuffer{cmd})
	return nil
}

func destroyBuffer(context *VulkanContext, buf *vulkanBuffer) {
	if buf.Mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, buf.Memory)
		buf.Mapped = nil
	}
	if buf.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, buf.Handle, context.Allocator)
	}
	if buf.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, buf.Memory, context.Allocator)
	}
}
