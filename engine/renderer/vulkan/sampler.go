package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

func createSampler(context *VulkanContext, desc metadata.SamplerDesc) (vulkanSampler, error) {
	samplerInfo := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vulkanFilter(desc.MagFilter),
		MinFilter:               vulkanFilter(desc.MinFilter),
		AddressModeU:            vulkanAddressMode(desc.AddressMode),
		AddressModeV:            vulkanAddressMode(desc.AddressMode),
		AddressModeW:            vulkanAddressMode(desc.AddressMode),
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1.0,
		BorderColor:             vk.BorderColorFloatOpaqueWhite,
		UnnormalizedCoordinates: vk.False,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		MipLodBias:              0,
		MinLod:                  0,
		MaxLod:                  0,
	}

	out := vulkanSampler{Desc: desc}
	if res := vk.CreateSampler(context.Device.LogicalDevice, &samplerInfo, context.Allocator, &out.Handle); res != vk.Success {
		err := fmt.Errorf("vkCreateSampler failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return out, err
	}
	return out, nil
}
