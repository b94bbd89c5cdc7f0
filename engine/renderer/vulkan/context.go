package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
)

// VulkanContext carries the state shared by every part of the backend:
// instance, device, swapchain, the frame's command buffer and the sync
// objects for the single frame in flight.
type VulkanContext struct {
	// The framebuffer's current width and height.
	FramebufferWidth  uint32
	FramebufferHeight uint32
	// Bumped on every resize; when it differs from the last-created
	// generation the swapchain is stale and gets recreated.
	FramebufferSizeGeneration     uint64
	FramebufferSizeLastGeneration uint64

	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugMessenger vk.DebugReportCallback

	Device    *VulkanDevice
	Swapchain *VulkanSwapchain

	CommandPool   vk.CommandPool
	CommandBuffer vk.CommandBuffer

	// One frame in flight.
	ImageAvailableSemaphore vk.Semaphore
	RenderCompleteSemaphore vk.Semaphore
	InFlightFence           vk.Fence

	ImageIndex          uint32
	RecreatingSwapchain bool
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}
