package vulkan

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/pellucidar/keel/engine/core"
	"github.com/pellucidar/keel/engine/platform"
	"github.com/pellucidar/keel/engine/renderer/metadata"
)

// VulkanBackend implements the renderer's backend contract. One frame in
// flight, one graphics command buffer; rendering scopes run through cached
// render pass/framebuffer pairs and all resources live in the registry until
// Shutdown.
type VulkanBackend struct {
	platform     *platform.Platform
	context      *VulkanContext
	registry     *resourceRegistry
	descriptors  *descriptorAllocator
	renderPasses renderPassCache
	shaderDir    string

	FrameNumber             uint64
	cachedFramebufferWidth  uint32
	cachedFramebufferHeight uint32

	debug bool
}

func New(p *platform.Platform, shaderDir string) *VulkanBackend {
	return &VulkanBackend{
		platform:     p,
		shaderDir:    shaderDir,
		context:      &VulkanContext{},
		registry:     &resourceRegistry{},
		descriptors:  &descriptorAllocator{},
		renderPasses: newRenderPassCache(),
		debug:        true,
	}
}

func (vb *VulkanBackend) Initialize(appName string, width, height uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		core.LogFatal("GetInstanceProcAddress is nil")
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogFatal("failed to initialize vk: %s", err)
		return err
	}

	vb.context.Allocator = nil
	vb.context.FramebufferWidth = width
	vb.context.FramebufferHeight = height

	// Setup Vulkan instance.
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 3, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Keel Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	// Obtain a list of required extensions
	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vb.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
	}

	if vb.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	// Validation layers should only be enabled on non-release builds.
	requiredValidationLayerNames := []string{}
	if vb.debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}

		if runtime.GOOS == "darwin" {
			createInfo.Flags |= 1
		}

		var availableLayerCount uint32
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layer properties")
			core.LogError(err.Error())
			return err
		}
		availableLayers := make([]vk.LayerProperties, availableLayerCount)
		if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
			err := fmt.Errorf("failed to enumerate instance layer properties")
			core.LogError(err.Error())
			return err
		}

		for _, required := range requiredValidationLayerNames {
			found := false
			for j := range availableLayers {
				availableLayers[j].Deref()
				end := FindFirstZeroInByteArray(availableLayers[j].LayerName[:])
				if required == vk.ToString(availableLayers[j].LayerName[:end+1]) {
					found = true
					break
				}
			}
			if !found {
				core.LogWarn("Validation layer %s is missing, continuing without validation.", required)
				requiredValidationLayerNames = nil
				break
			}
		}
	}

	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	if res := vk.CreateInstance(&createInfo, vb.context.Allocator, &vb.context.Instance); res != vk.Success {
		err := fmt.Errorf("failed in creating the Vulkan Instance with error `%s`", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}
	if err := vk.InitInstance(vb.context.Instance); err != nil {
		core.LogError(err.Error())
		return err
	}
	core.LogInfo("Vulkan Instance created.")

	// Debugger
	if vb.debug {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}

		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(vb.context.Instance, &debugCreateInfo, nil, &dbg)); err != nil {
			core.LogError("vk.CreateDebugReportCallback failed with %s", err)
			return err
		}
		vb.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}

	// Surface
	core.LogDebug("Creating Vulkan surface...")
	surface, err := vb.platform.Window.CreateWindowSurface(vb.context.Instance, nil)
	if err != nil {
		core.LogError("Vulkan surface creation failed: %s", err)
		return err
	}
	vb.context.Surface = vk.SurfaceFromPointer(surface)
	core.LogDebug("Vulkan surface created.")

	// Device creation
	vb.context.Device = &VulkanDevice{
		GraphicsQueueIndex: -1,
		PresentQueueIndex:  -1,
		TransferQueueIndex: -1,
	}
	if err := DeviceCreate(vb.context); err != nil {
		core.LogError("Failed to create device!")
		return err
	}

	// Command pool for the frame buffer and single-use uploads.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(vb.context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(vb.context.Device.LogicalDevice, &poolCreateInfo, vb.context.Allocator, &vb.context.CommandPool); res != vk.Success {
		err := fmt.Errorf("failed to create graphics command pool")
		core.LogError(err.Error())
		return err
	}

	// Swapchain
	sc, err := SwapchainCreate(vb.context, vb.context.FramebufferWidth, vb.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vb.context.Swapchain = sc
	vb.context.FramebufferWidth = sc.Extent.Width
	vb.context.FramebufferHeight = sc.Extent.Height

	// The frame's command buffer.
	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vb.context.CommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}
	commandBuffers := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(vb.context.Device.LogicalDevice, &allocateInfo, commandBuffers); res != vk.Success {
		err := fmt.Errorf("failed to allocate frame command buffer")
		core.LogError(err.Error())
		return err
	}
	vb.context.CommandBuffer = commandBuffers[0]

	// Sync objects for the single frame in flight.
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if res := vk.CreateSemaphore(vb.context.Device.LogicalDevice, &semaphoreCreateInfo, vb.context.Allocator, &vb.context.ImageAvailableSemaphore); res != vk.Success {
		err := fmt.Errorf("failed to create semaphore on image available")
		core.LogError(err.Error())
		return err
	}
	if res := vk.CreateSemaphore(vb.context.Device.LogicalDevice, &semaphoreCreateInfo, vb.context.Allocator, &vb.context.RenderCompleteSemaphore); res != vk.Success {
		err := fmt.Errorf("failed to create semaphore on render complete")
		core.LogError(err.Error())
		return err
	}

	// Created signaled so the first frame does not block forever.
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
		Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
	}
	if res := vk.CreateFence(vb.context.Device.LogicalDevice, &fenceCreateInfo, vb.context.Allocator, &vb.context.InFlightFence); res != vk.Success {
		err := fmt.Errorf("failed to create in-flight fence")
		core.LogError(err.Error())
		return err
	}

	core.LogInfo("Vulkan backend initialized successfully.")
	return nil
}

func (vb *VulkanBackend) Shutdown() error {
	vk.DeviceWaitIdle(vb.context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	for i := range vb.registry.pipelines {
		destroyPipeline(vb.context, &vb.registry.pipelines[i])
	}
	vb.renderPasses.destroy(vb.context)
	vb.descriptors.destroy(vb.context)
	for i := range vb.registry.layouts {
		vk.DestroyDescriptorSetLayout(vb.context.Device.LogicalDevice, vb.registry.layouts[i].Handle, vb.context.Allocator)
	}
	for i := range vb.registry.samplers {
		vk.DestroySampler(vb.context.Device.LogicalDevice, vb.registry.samplers[i].Handle, vb.context.Allocator)
	}
	for i := range vb.registry.buffers {
		destroyBuffer(vb.context, &vb.registry.buffers[i])
	}
	for i := range vb.registry.images {
		destroyImage(vb.context, &vb.registry.images[i])
	}
	vb.registry = &resourceRegistry{}

	if vb.context.InFlightFence != vk.NullFence {
		vk.DestroyFence(vb.context.Device.LogicalDevice, vb.context.InFlightFence, vb.context.Allocator)
	}
	if vb.context.RenderCompleteSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(vb.context.Device.LogicalDevice, vb.context.RenderCompleteSemaphore, vb.context.Allocator)
	}
	if vb.context.ImageAvailableSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(vb.context.Device.LogicalDevice, vb.context.ImageAvailableSemaphore, vb.context.Allocator)
	}

	if vb.context.CommandBuffer != nil {
		vk.FreeCommandBuffers(vb.context.Device.LogicalDevice, vb.context.CommandPool, 1, []vk.CommandBuffer{vb.context.CommandBuffer})
		vb.context.CommandBuffer = nil
	}
	vk.DestroyCommandPool(vb.context.Device.LogicalDevice, vb.context.CommandPool, vb.context.Allocator)

	vb.context.Swapchain.SwapchainDestroy(vb.context)

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vb.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vb.context.Surface != vk.NullSurface {
		vk.DestroySurface(vb.context.Instance, vb.context.Surface, vb.context.Allocator)
		vb.context.Surface = vk.NullSurface
	}

	if vb.debug && vb.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vb.context.Instance, vb.context.debugMessenger, vb.context.Allocator)
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vb.context.Instance, vb.context.Allocator)

	return nil
}

// Resized marks the framebuffer size stale; the swapchain is recreated on
// the next BeginFrame.
func (vb *VulkanBackend) Resized(width, height uint32) {
	vb.cachedFramebufferWidth = width
	vb.cachedFramebufferHeight = height
	vb.context.FramebufferSizeGeneration++

	core.LogInfo("Vulkan backend resized: w/h/gen: %d/%d/%d", width, height, vb.context.FramebufferSizeGeneration)
}

func (vb *VulkanBackend) CreateImage(desc metadata.ImageDesc) metadata.ImageHandle {
	img, err := createImage(vb.context, desc)
	if err != nil {
		core.LogFatal("failed to create image: %s", err)
	}
	return vb.registry.addImage(img)
}

func (vb *VulkanBackend) CreateBuffer(desc metadata.BufferDesc) metadata.BufferHandle {
	buf, err := createBuffer(vb.context, desc)
	if err != nil {
		core.LogFatal("failed to create buffer: %s", err)
	}
	return vb.registry.addBuffer(buf)
}

func (vb *VulkanBackend) CreateSampler(desc metadata.SamplerDesc) metadata.SamplerHandle {
	s, err := createSampler(vb.context, desc)
	if err != nil {
		core.LogFatal("failed to create sampler: %s", err)
	}
	return vb.registry.addSampler(s)
}

func (vb *VulkanBackend) CreateDescriptorLayout(desc metadata.DescriptorLayoutDesc) metadata.DescriptorLayoutHandle {
	layout, err := createDescriptorLayout(vb.context, desc)
	if err != nil {
		core.LogFatal("failed to create descriptor layout: %s", err)
	}
	return vb.registry.addLayout(layout)
}

func (vb *VulkanBackend) AllocateDescriptorSet(layout metadata.DescriptorLayoutHandle) metadata.DescriptorSetHandle {
	set, err := vb.descriptors.allocate(vb.context, vb.registry.layout(layout).Handle)
	if err != nil {
		core.LogFatal("failed to allocate descriptor set: %s", err)
	}
	return vb.registry.addSet(set)
}

func (vb *VulkanBackend) CreateGraphicsPipeline(desc metadata.PipelineDesc) (metadata.PipelineHandle, error) {
	// The pipeline needs a pass compatible with the attachments it will
	// render into; the cache hands back the same object BeginRendering uses.
	colors := make([]*vulkanImage, 0, len(desc.ColorAttachments))
	for _, h := range desc.ColorAttachments {
		colors = append(colors, vb.registry.image(h))
	}
	var depth *vulkanImage
	if desc.DepthAttachment != nil {
		depth = vb.registry.image(*desc.DepthAttachment)
	}
	pass, err := vb.renderPasses.renderPass(vb.context, colors, depth)
	if err != nil {
		return 0, err
	}

	pipeline, err := createGraphicsPipeline(vb.context, vb.registry, vb.shaderDir, pass, desc)
	if err != nil {
		return 0, err
	}
	return vb.registry.addPipeline(pipeline), nil
}

func (vb *VulkanBackend) UpdateBuffer(buffer metadata.BufferHandle, offset uint64, data []byte) {
	buf := vb.registry.buffer(buffer)
	if buf.Mapped != nil {
		copy(buf.Mapped[offset:], data)
		return
	}
	if err := uploadToBuffer(vb.context, buf, offset, data); err != nil {
		core.LogError("buffer upload failed: %s", err)
	}
}

func (vb *VulkanBackend) UpdateImageData(image metadata.ImageHandle, pixels []byte) {
	img := vb.registry.image(image)
	if err := uploadToImage(vb.context, img, pixels); err != nil {
		core.LogError("image upload failed: %s", err)
	}
}

func (vb *VulkanBackend) UpdateDescriptorSet(set metadata.DescriptorSetHandle, writes []metadata.DescriptorWrite) {
	writeDescriptorSet(vb.context, vb.registry, vb.registry.set(set), writes)
}

// BeginFrame waits for the previous frame, acquires the next swapchain
// image and opens the command buffer. core.ErrSwapchainOutOfDate means the
// caller should skip this frame.
func (vb *VulkanBackend) BeginFrame() error {
	device := vb.context.Device

	if vb.context.RecreatingSwapchain {
		if result := vk.DeviceWaitIdle(device.LogicalDevice); !VulkanResultIsSuccess(result) {
			err := fmt.Errorf("BeginFrame vkDeviceWaitIdle (1) failed: '%s'", VulkanResultString(result))
			core.LogError(err.Error())
			return err
		}
		core.LogInfo("Recreating swapchain, booting.")
		return core.ErrSwapchainOutOfDate
	}

	// A resize happened since the last frame; rebuild the swapchain first.
	if vb.context.FramebufferSizeGeneration != vb.context.FramebufferSizeLastGeneration {
		if result := vk.DeviceWaitIdle(device.LogicalDevice); !VulkanResultIsSuccess(result) {
			err := fmt.Errorf("BeginFrame vkDeviceWaitIdle (2) failed: '%s'", VulkanResultString(result))
			core.LogError(err.Error())
			return err
		}
		if !vb.recreateSwapchain() {
			err := fmt.Errorf("failed to recreate the swapchain")
			core.LogError(err.Error())
			return err
		}
		core.LogInfo("Resized, booting.")
		return core.ErrSwapchainOutOfDate
	}

	// Wait for the execution of the previous frame to complete.
	fences := []vk.Fence{vb.context.InFlightFence}
	if res := vk.WaitForFences(device.LogicalDevice, 1, fences, vk.True, math.MaxUint64); res != vk.Success {
		err := fmt.Errorf("in-flight fence wait failure: %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}

	imageIndex, err := vb.context.Swapchain.SwapchainAcquireNextImageIndex(vb.context, math.MaxUint64, vb.context.ImageAvailableSemaphore, vk.NullFence)
	if err != nil {
		if err == core.ErrSwapchainOutOfDate {
			vb.recreateSwapchain()
		}
		return err
	}
	vb.context.ImageIndex = imageIndex

	// Only reset the fence once we know work will be submitted.
	vk.ResetFences(device.LogicalDevice, 1, fences)

	vk.ResetCommandBuffer(vb.context.CommandBuffer, 0)
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	if res := vk.BeginCommandBuffer(vb.context.CommandBuffer, &beginInfo); res != vk.Success {
		err := fmt.Errorf("failed to begin frame command buffer")
		core.LogError(err.Error())
		return err
	}

	return nil
}

// EndFrame blits the finished frame into the acquired swapchain image,
// submits and presents.
func (vb *VulkanBackend) EndFrame(presentImage metadata.ImageHandle) error {
	cmd := vb.context.CommandBuffer
	src := vb.registry.image(presentImage)
	swapchainImage := vb.context.Swapchain.Images[vb.context.ImageIndex]

	recordImageTransition(cmd, src, vk.ImageLayoutTransferSrcOptimal)
	rawImageBarrier(cmd, swapchainImage, vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)

	blit := vk.ImageBlit{
		SrcSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		SrcOffsets: [2]vk.Offset3D{
			{},
			{X: int32(src.Desc.Width), Y: int32(src.Desc.Height), Z: 1},
		},
		DstSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		DstOffsets: [2]vk.Offset3D{
			{},
			{X: int32(vb.context.Swapchain.Extent.Width), Y: int32(vb.context.Swapchain.Extent.Height), Z: 1},
		},
	}
	vk.CmdBlitImage(cmd, src.Handle, vk.ImageLayoutTransferSrcOptimal, swapchainImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageBlit{blit}, vk.FilterLinear)

	rawImageBarrier(cmd, swapchainImage, vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutPresentSrc)

	if res := vk.EndCommandBuffer(cmd); res != vk.Success {
		err := fmt.Errorf("failed to end frame command buffer")
		core.LogError(err.Error())
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vb.context.ImageAvailableSemaphore},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vb.context.RenderCompleteSemaphore},
	}
	if res := vk.QueueSubmit(vb.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vb.context.InFlightFence); res != vk.Success {
		err := fmt.Errorf("vkQueueSubmit failed with %s", VulkanResultString(res))
		core.LogError(err.Error())
		return err
	}

	err := vb.context.Swapchain.SwapchainPresent(vb.context, vb.context.Device.PresentQueue, vb.context.RenderCompleteSemaphore, vb.context.ImageIndex)
	if err == core.ErrSwapchainOutOfDate {
		vb.recreateSwapchain()
		err = nil
	}

	vb.FrameNumber++
	return err
}

func (vb *VulkanBackend) BeginRendering(colorAttachments []metadata.ImageHandle, depthAttachment *metadata.ImageHandle, layer uint32) {
	width, height := uint32(0), uint32(0)
	if len(colorAttachments) > 0 {
		first := vb.registry.image(colorAttachments[0])
		width, height = first.Desc.Width, first.Desc.Height
	} else if depthAttachment != nil {
		first := vb.registry.image(*depthAttachment)
		width, height = first.Desc.Width, first.Desc.Height
	}
	vb.BeginRenderingWithExtent(colorAttachments, depthAttachment, layer, width, height)
}

func (vb *VulkanBackend) BeginRenderingWithExtent(colorAttachments []metadata.ImageHandle, depthAttachment *metadata.ImageHandle, layer, width, height uint32) {
	cmd := vb.context.CommandBuffer

	colors := make([]*vulkanImage, 0, len(colorAttachments))
	views := make([]vk.ImageView, 0, len(colorAttachments)+1)
	clearValues := make([]vk.ClearValue, 0, len(colorAttachments)+1)
	for _, h := range colorAttachments {
		img := vb.registry.image(h)
		recordImageTransition(cmd, img, vk.ImageLayoutColorAttachmentOptimal)
		colors = append(colors, img)
		views = append(views, attachmentView(img, layer))

		var clear vk.ClearValue
		if cv := img.Desc.ClearValue; cv != nil {
			clear.SetColor([]float32{cv.X, cv.Y, cv.Z, cv.W})
		}
		clearValues = append(clearValues, clear)
	}

	var depth *vulkanImage
	if depthAttachment != nil {
		img := vb.registry.image(*depthAttachment)
		recordImageTransition(cmd, img, vk.ImageLayoutDepthStencilAttachmentOptimal)
		depth = img
		views = append(views, attachmentView(img, layer))

		var clear vk.ClearValue
		if cv := img.Desc.ClearValue; cv != nil {
			clear.SetDepthStencil(cv.X, 0)
		}
		clearValues = append(clearValues, clear)
	}

	pass, err := vb.renderPasses.renderPass(vb.context, colors, depth)
	if err != nil {
		core.LogFatal("failed to create render pass: %s", err)
	}
	framebuffer, err := vb.renderPasses.framebuffer(vb.context, pass, views, width, height)
	if err != nil {
		core.LogFatal("failed to create framebuffer: %s", err)
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  pass,
		Framebuffer: framebuffer,
		RenderArea: vk.Rect2D{
			Extent: vk.Extent2D{Width: width, Height: height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(cmd, &beginInfo, vk.SubpassContentsInline)

	viewports := []vk.Viewport{{
		X: 0, Y: 0,
		Width:    float32(width),
		Height:   float32(height),
		MinDepth: 0,
		MaxDepth: 1,
	}}
	vk.CmdSetViewport(cmd, 0, 1, viewports)
	scissors := []vk.Rect2D{{Extent: vk.Extent2D{Width: width, Height: height}}}
	vk.CmdSetScissor(cmd, 0, 1, scissors)
}

func (vb *VulkanBackend) EndRendering() {
	vk.CmdEndRenderPass(vb.context.CommandBuffer)
}

func (vb *VulkanBackend) BindPipeline(pipeline metadata.PipelineHandle) {
	vk.CmdBindPipeline(vb.context.CommandBuffer, vk.PipelineBindPointGraphics, vb.registry.pipeline(pipeline).Handle)
}

func (vb *VulkanBackend) BindVertexBuffer(buffer metadata.BufferHandle) {
	vk.CmdBindVertexBuffers(vb.context.CommandBuffer, 0, 1, []vk.Buffer{vb.registry.buffer(buffer).Handle}, []vk.DeviceSize{0})
}

func (vb *VulkanBackend) BindIndexBuffer(buffer metadata.BufferHandle) {
	vk.CmdBindIndexBuffer(vb.context.CommandBuffer, vb.registry.buffer(buffer).Handle, 0, vk.IndexTypeUint32)
}

func (vb *VulkanBackend) BindDescriptorSets(pipeline metadata.PipelineHandle, firstSet uint32, sets []metadata.DescriptorSetHandle) {
	vkSets := make([]vk.DescriptorSet, 0, len(sets))
	for _, h := range sets {
		vkSets = append(vkSets, vb.registry.set(h))
	}
	vk.CmdBindDescriptorSets(
		vb.context.CommandBuffer,
		vk.PipelineBindPointGraphics,
		vb.registry.pipeline(pipeline).Layout,
		firstSet,
		uint32(len(vkSets)),
		vkSets,
		0,
		nil)
}

func (vb *VulkanBackend) UpdatePushConstants(pipeline metadata.PipelineHandle, stages metadata.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(
		vb.context.CommandBuffer,
		vb.registry.pipeline(pipeline).Layout,
		vulkanShaderStages(stages),
		offset,
		uint32(len(data)),
		unsafe.Pointer(&data[0]))
}

func (vb *VulkanBackend) Draw(vertexCount uint32) {
	vk.CmdDraw(vb.context.CommandBuffer, vertexCount, 1, 0, 0)
}

func (vb *VulkanBackend) DrawIndexed(indexCount, firstIndex uint32, vertexOffset int32) {
	vk.CmdDrawIndexed(vb.context.CommandBuffer, indexCount, 1, firstIndex, vertexOffset, 0)
}

func (vb *VulkanBackend) TransitionImage(image metadata.ImageHandle, transition metadata.ImageTransition) {
	img := vb.registry.image(image)
	var layout vk.ImageLayout
	switch transition {
	case metadata.TransitionAttachment:
		layout = attachmentLayout(img.Desc)
	case metadata.TransitionTransferSrc:
		layout = vk.ImageLayoutTransferSrcOptimal
	default:
		layout = vk.ImageLayoutShaderReadOnlyOptimal
	}
	recordImageTransition(vb.context.CommandBuffer, img, layout)
}

func (vb *VulkanBackend) FramebufferExtent() (uint32, uint32) {
	return vb.context.FramebufferWidth, vb.context.FramebufferHeight
}

func (vb *VulkanBackend) recreateSwapchain() bool {
	if vb.context.RecreatingSwapchain {
		core.LogDebug("recreateSwapchain called when already recreating. Booting.")
		return false
	}

	width := vb.cachedFramebufferWidth
	height := vb.cachedFramebufferHeight
	if width == 0 {
		width = vb.context.FramebufferWidth
	}
	if height == 0 {
		height = vb.context.FramebufferHeight
	}

	// Window is minimized; wait for a real size before recreating.
	if width == 0 || height == 0 {
		core.LogDebug("recreateSwapchain called when window is < 1 in a dimension. Booting.")
		return false
	}

	vb.context.RecreatingSwapchain = true
	vk.DeviceWaitIdle(vb.context.Device.LogicalDevice)

	sc, err := vb.context.Swapchain.SwapchainRecreate(vb.context, width, height)
	if err != nil {
		core.LogError("swapchain recreation failed: %s", err)
		vb.context.RecreatingSwapchain = false
		return false
	}
	vb.context.Swapchain = sc
	vb.context.FramebufferWidth = sc.Extent.Width
	vb.context.FramebufferHeight = sc.Extent.Height
	vb.cachedFramebufferWidth = 0
	vb.cachedFramebufferHeight = 0
	vb.context.FramebufferSizeLastGeneration = vb.context.FramebufferSizeGeneration
	vb.context.RecreatingSwapchain = false

	return true
}

// attachmentView picks the per-layer view for layered images so a render
// span can target a single cascade.
func attachmentView(img *vulkanImage, layer uint32) vk.ImageView {
	if len(img.LayerViews) > 0 {
		if int(layer) >= len(img.LayerViews) {
			core.LogFatal("attachment layer %d out of range (%d layers)", layer, len(img.LayerViews))
		}
		return img.LayerViews[layer]
	}
	return img.View
}

// rawImageBarrier transitions images the registry does not track, which is
// only ever the swapchain's.
func rawImageBarrier(cmd vk.CommandBuffer, image vk.Image, oldLayout, newLayout vk.ImageLayout) {
	srcAccess, srcStage := layoutAccess(oldLayout, metadata.ImageAspectColor)
	dstAccess, dstStage := layoutAccess(newLayout, metadata.ImageAspectColor)
	if newLayout == vk.ImageLayoutPresentSrc {
		dstAccess = vk.AccessFlags(vk.AccessMemoryReadBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	}

	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
