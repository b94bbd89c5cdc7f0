package vulkan

import (
	"fmt"
	"os"
	"path/filepath"

	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// loadShaderModule reads "<name>.spv" from the shader directory and wraps it
// in a shader module. A missing file maps to core.ErrShaderNotFound.
func loadShaderModule(context *VulkanContext, shaderDir, name string) (vk.ShaderModule, error) {
	path := filepath.Join(shaderDir, name+".spv")
	code, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrShaderNotFound, path)
		}
		return nil, fmt.Errorf("failed to read shader %s: %w", path, err)
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("shader %s is not valid SPIR-V (%d bytes)", path, len(code))
	}

	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    bytesToUint32(code),
	}

	var module vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &module); res != vk.Success {
		err := fmt.Errorf("vkCreateShaderModule for %s failed with %s", path, VulkanResultString(res))
		core.LogError(err.Error())
		return nil, err
	}
	return module, nil
}

// vertexAttributes mirrors the metadata.Vertex layout.
func vertexAttributes() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},  // position
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 12}, // color
		{Location: 2, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 24},    // texcoord
		{Location: 3, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 32}, // normal
		{Location: 4, Binding: 0, Format: vk.FormatR32Uint, Offset: 44},         // texture index
	}
}

func createGraphicsPipeline(context *VulkanContext, registry *resourceRegistry, shaderDir string, renderPass vk.RenderPass, desc metadata.PipelineDesc) (vulkanPipeline, error) {
	out := vulkanPipeline{Desc: desc}

	vertModule, err := loadShaderModule(context, shaderDir, desc.VertexShaderName)
	if err != nil {
		return out, err
	}
	defer vk.DestroyShaderModule(context.Device.LogicalDevice, vertModule, context.Allocator)

	stages := []vk.PipelineShaderStageCreateInfo{{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  vk.ShaderStageVertexBit,
		Module: vertModule,
		PName:  VulkanSafeString("main"),
	}}

	// Depth-only pipelines skip the fragment stage entirely.
	if desc.FragmentShaderName != "" {
		fragModule, err := loadShaderModule(context, shaderDir, desc.FragmentShaderName)
		if err != nil {
			return out, err
		}
		defer vk.DestroyShaderModule(context.Device.LogicalDevice, fragModule, context.Allocator)
		stages = append(stages, vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragModule,
			PName:  VulkanSafeString("main"),
		})
	}

	// Vertex input
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if desc.HasVertexInput {
		bindingDescription := vk.VertexInputBindingDescription{
			Binding:   0,
			Stride:    metadata.VertexSize,
			InputRate: vk.VertexInputRateVertex,
		}
		attributes := vertexAttributes()
		vertexInputInfo.VertexBindingDescriptionCount = 1
		vertexInputInfo.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{bindingDescription}
		vertexInputInfo.VertexAttributeDescriptionCount = uint32(len(attributes))
		vertexInputInfo.PVertexAttributeDescriptions = attributes
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are dynamic; the counts still have to be set.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vulkanCullMode(desc.CullMode),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
	}
	if desc.DepthClampEnable {
		rasterizerCreateInfo.DepthClampEnable = vk.True
	}

	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:             vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:   vk.False,
		DepthWriteEnable:  vk.False,
		DepthCompareOp:    vulkanCompareOp(desc.DepthCompareOp),
		StencilTestEnable: vk.False,
	}
	if desc.DepthTestEnable {
		depthStencil.DepthTestEnable = vk.True
	}
	if desc.DepthWriteEnable {
		depthStencil.DepthWriteEnable = vk.True
	}

	// One blend state per color attachment.
	attachmentStates := make([]vk.PipelineColorBlendAttachmentState, 0, len(desc.ColorAttachments))
	for range desc.ColorAttachments {
		state := vk.PipelineColorBlendAttachmentState{
			BlendEnable: vk.False,
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
				vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
		}
		if desc.BlendEnable {
			state.BlendEnable = vk.True
			state.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
			state.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
			state.ColorBlendOp = vk.BlendOpAdd
			state.SrcAlphaBlendFactor = vk.BlendFactorSrcAlpha
			state.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
			state.AlphaBlendOp = vk.BlendOpAdd
		}
		attachmentStates = append(attachmentStates, state)
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(attachmentStates)),
		PAttachments:    attachmentStates,
	}

	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Pipeline layout
	setLayouts := make([]vk.DescriptorSetLayout, 0, len(desc.DescriptorLayouts))
	for _, h := range desc.DescriptorLayouts {
		setLayouts = append(setLayouts, registry.layout(h).Handle)
	}

	pushRanges := make([]vk.PushConstantRange, 0, len(desc.PushConstantRanges))
	for _, r := range desc.PushConstantRanges {
		pushRanges = append(pushRanges, vk.PushConstantRange{
			StageFlags: vulkanShaderStages(r.Stages),
			Offset:     r.Offset,
			Size:       r.Size,
		})
	}

	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pushRanges)),
		PPushConstantRanges:    pushRanges,
	}

	if res := vk.CreatePipelineLayout(
		context.Device.LogicalDevice,
		&pipelineLayoutCreateInfo,
		context.Allocator,
		&out.Layout); res != vk.Success {
		err := fmt.Errorf("vkCreatePipelineLayout for %s failed with %s", desc.Name, VulkanResultString(res))
		core.LogError(err.Error())
		return out, err
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		Layout:              out.Layout,
		RenderPass:          renderPass,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if res := vk.CreateGraphicsPipelines(
		context.Device.LogicalDevice,
		vk.NullPipelineCache,
		1,
		[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
		context.Allocator,
		pipelines); res != vk.Success {
		err := fmt.Errorf("vkCreateGraphicsPipelines for %s failed with %s", desc.Name, VulkanResultString(res))
		core.LogError(err.Error())
		return out, err
	}
	out.Handle = pipelines[0]

	core.LogDebug("Graphics pipeline '%s' created.", desc.Name)
	return out, nil
}

func destroyPipeline(context *VulkanContext, pipeline *vulkanPipeline) {
	if pipeline.Handle != nil {
		vk.DestroyPipeline(context.Device.LogicalDevice, pipeline.Handle, context.Allocator)
		pipeline.Handle = nil
	}
	if pipeline.Layout != nil {
		vk.DestroyPipelineLayout(context.Device.LogicalDevice, pipeline.Layout, context.Allocator)
		pipeline.Layout = nil
	}
}
