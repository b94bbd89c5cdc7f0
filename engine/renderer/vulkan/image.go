package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

func createImage(context *VulkanContext, desc metadata.ImageDesc) (vulkanImage, error) {
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	if desc.ArrayLayers == 0 {
		desc.ArrayLayers = 1
	}
	if desc.Depth == 0 {
		desc.Depth = 1
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  desc.Width,
			Height: desc.Height,
			Depth:  desc.Depth,
		},
		MipLevels:     desc.MipLevels,
		ArrayLayers:   desc.ArrayLayers,
		Format:        vulkanFormat(desc.Format),
		Tiling:        vk.ImageTilingOptimal,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         vulkanImageUsage(desc.Usage),
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}
	if desc.IsCubemap {
		imageCreateInfo.Flags = vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit)
	}

	img := vulkanImage{Desc: desc, Layout: vk.ImageLayoutUndefined}

	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &img.Handle); res != vk.Success {
		err := fmt.Errorf("vkCreateImage failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return img, err
	}

	// Query memory requirements.
	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, img.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if memoryType == -1 {
		err := fmt.Errorf("required memory type not found; image not valid")
		core.LogError(err.Error())
		return img, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &img.Memory); res != vk.Success {
		err := fmt.Errorf("vkAllocateMemory for image failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return img, err
	}
	if res := vk.BindImageMemory(context.Device.LogicalDevice, img.Handle, img.Memory, 0); res != vk.Success {
		err := fmt.Errorf("vkBindImageMemory failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return img, err
	}

	viewType := vk.ImageViewType2d
	if desc.IsCubemap {
		viewType = vk.ImageViewTypeCube
	} else if desc.ArrayLayers > 1 {
		viewType = vk.ImageViewType2dArray
	}

	view, err := createImageView(context, img.Handle, viewType, vulkanFormat(desc.Format), vulkanAspect(desc.Aspect), 0, desc.ArrayLayers, desc.MipLevels)
	if err != nil {
		return img, err
	}
	img.View = view

	// One view per layer so render spans can target a single cascade.
	if desc.ArrayLayers > 1 {
		img.LayerViews = make([]vk.ImageView, desc.ArrayLayers)
		for layer := uint32(0); layer < desc.ArrayLayers; layer++ {
			lv, err := createImageView(context, img.Handle, vk.ImageViewType2d, vulkanFormat(desc.Format), vulkanAspect(desc.Aspect), layer, 1, desc.MipLevels)
			if err != nil {
				return img, err
			}
			img.LayerViews[layer] = lv
		}
	}

	return img, nil
}

func createImageView(context *VulkanContext, image vk.Image, viewType vk.ImageViewType, format vk.Format, aspect vk.ImageAspectFlags, baseLayer, layerCount, mipLevels uint32) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: viewType,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: baseLayer,
			LayerCount:     layerCount,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
		err := fmt.Errorf("vkCreateImageView failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	return view, nil
}

// attachmentLayout is the layout an image uses while bound as a render
// attachment, depending on its aspect.
func attachmentLayout(desc metadata.ImageDesc) vk.ImageLayout {
	if desc.Aspect == metadata.ImageAspectDepth {
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	}
	return vk.ImageLayoutColorAttachmentOptimal
}

// recordImageTransition emits the barrier to move an image from its tracked
// layout to newLayout and updates the tracking. A no-op when already there.
func recordImageTransition(cmd vk.CommandBuffer, img *vulkanImage, newLayout vk.ImageLayout) {
	if img.Layout == newLayout {
		return
	}

	srcAccess, srcStage := layoutAccess(img.Layout, img.Desc.Aspect)
	dstAccess, dstStage := layoutAccess(newLayout, img.Desc.Aspect)

	layerCount := img.Desc.ArrayLayers
	if layerCount == 0 {
		layerCount = 1
	}
	mipLevels := img.Desc.MipLevels
	if mipLevels == 0 {
		mipLevels = 1
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           img.Layout,
		NewLayout:           newLayout,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vulkanAspect(img.Desc.Aspect),
			BaseMipLevel:   0,
			LevelCount:     mipLevels,
			BaseArrayLayer: 0,
			LayerCount:     layerCount,
		},
	}

	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	img.Layout = newLayout
}

func layoutAccess(layout vk.ImageLayout, aspect metadata.ImageAspect) (vk.AccessFlags, vk.PipelineStageFlags) {
	switch layout {
	case vk.ImageLayoutUndefined:
		return 0, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	case vk.ImageLayoutTransferDstOptimal:
		return vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutTransferSrcOptimal:
		return vk.AccessFlags(vk.AccessTransferReadBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutShaderReadOnlyOptimal:
		return vk.AccessFlags(vk.AccessShaderReadBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case vk.ImageLayoutColorAttachmentOptimal:
		return vk.AccessFlags(vk.AccessColorAttachmentWriteBit), vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
	default:
		if aspect == metadata.ImageAspectDepth {
			return vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit), vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit)
		}
		return vk.AccessFlags(vk.AccessMemoryReadBit) | vk.AccessFlags(vk.AccessMemoryWriteBit), vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit)
	}
}

func destroyImage(context *VulkanContext, img *vulkanImage) {
	for _, lv := range img.LayerViews {
		vk.DestroyImageView(context.Device.LogicalDevice, lv, context.Allocator)
	}
	if img.View != nil {
		vk.DestroyImageView(context.Device.LogicalDevice, img.View, context.Allocator)
	}
	if img.Handle != nil {
		vk.DestroyImage(context.Device.LogicalDevice, img.Handle, context.Allocator)
	}
	if img.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, img.Memory, context.Allocator)
	}
}
