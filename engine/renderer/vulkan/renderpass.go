package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
)

// renderPassCache memoizes render pass and framebuffer objects by attachment
// signature. The binding wraps no dynamic-rendering commands, so every
// rendering scope runs through a cached pass/framebuffer pair instead. The
// cache never evicts; superseded framebuffers stay until shutdown like every
// other registry resource.
type renderPassCache struct {
	passes       map[string]vk.RenderPass
	framebuffers map[string]vk.Framebuffer
}

func newRenderPassCache() renderPassCache {
	return renderPassCache{
		passes:       make(map[string]vk.RenderPass),
		framebuffers: make(map[string]vk.Framebuffer),
	}
}

// passKey identifies a render pass by what determines its creation: the
// attachment formats and their load ops.
func passKey(colors []*vulkanImage, depth *vulkanImage) string {
	key := ""
	for _, img := range colors {
		key += fmt.Sprintf("c%d:%t|", img.Desc.Format, img.Desc.ClearValue != nil)
	}
	if depth != nil {
		key += fmt.Sprintf("d%d:%t", depth.Desc.Format, depth.Desc.ClearValue != nil)
	}
	return key
}

// renderPass returns the cached pass for the attachment combination,
// creating it on first use. Attachments are expected in attachment-optimal
// layout on entry and are left there afterwards; the caller owns the
// transitions.
func (rc *renderPassCache) renderPass(context *VulkanContext, colors []*vulkanImage, depth *vulkanImage) (vk.RenderPass, error) {
	key := passKey(colors, depth)
	if pass, ok := rc.passes[key]; ok {
		return pass, nil
	}

	attachments := make([]vk.AttachmentDescription, 0, len(colors)+1)
	colorRefs := make([]vk.AttachmentReference, 0, len(colors))
	for i, img := range colors {
		loadOp := vk.AttachmentLoadOpLoad
		if img.Desc.ClearValue != nil {
			loadOp = vk.AttachmentLoadOpClear
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vulkanFormat(img.Desc.Format),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         loadOp,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		})
		colorRefs = append(colorRefs, vk.AttachmentReference{
			Attachment: uint32(i),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}

	if depth != nil {
		loadOp := vk.AttachmentLoadOpLoad
		if depth.Desc.ClearValue != nil {
			loadOp = vk.AttachmentLoadOpClear
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vulkanFormat(depth.Desc.Format),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         loadOp,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		depthRef := vk.AttachmentReference{
			Attachment: uint32(len(attachments) - 1),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		subpass.PDepthStencilAttachment = &depthRef
	}

	dependencies := make([]vk.SubpassDependency, 0, 2)
	if len(colors) > 0 {
		dependencies = append(dependencies, vk.SubpassDependency{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask: 0,
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
		})
	}
	if depth != nil {
		dependencies = append(dependencies, vk.SubpassDependency{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
			SrcAccessMask: 0,
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit) | vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
			DstAccessMask: vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
		})
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	var pass vk.RenderPass
	if res := vk.CreateRenderPass(context.Device.LogicalDevice, &createInfo, context.Allocator, &pass); res != vk.Success {
		err := fmt.Errorf("vkCreateRenderPass failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	rc.passes[key] = pass
	core.LogDebug("render pass cache: created pass for [%s]", key)
	return pass, nil
}

// framebuffer returns the cached framebuffer for the view set and extent,
// creating it on first use.
func (rc *renderPassCache) framebuffer(context *VulkanContext, pass vk.RenderPass, views []vk.ImageView, width, height uint32) (vk.Framebuffer, error) {
	key := fmt.Sprintf("%p|%dx%d", pass, width, height)
	for _, v := range views {
		key += fmt.Sprintf("|%p", v)
	}
	if fb, ok := rc.framebuffers[key]; ok {
		return fb, nil
	}

	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	var fb vk.Framebuffer
	if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &createInfo, context.Allocator, &fb); res != vk.Success {
		err := fmt.Errorf("vkCreateFramebuffer failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}

	rc.framebuffers[key] = fb
	return fb, nil
}

func (rc *renderPassCache) destroy(context *VulkanContext) {
	for _, fb := range rc.framebuffers {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, fb, context.Allocator)
	}
	for _, pass := range rc.passes {
		vk.DestroyRenderPass(context.Device.LogicalDevice, pass, context.Allocator)
	}
	rc.framebuffers = nil
	rc.passes = nil
}
