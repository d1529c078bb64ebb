package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
	m "github.com/spaghettifunk/helios/engine/math"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the
// GPU. Sync objects and per frame resources are sized by it.
const MaxFramesInFlight = 2

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

type VulkanSwapchain struct {
	Handle vk.Swapchain

	ImageFormat vk.SurfaceFormat
	DepthFormat vk.Format
	Extent      vk.Extent2D

	ImageCount   uint32
	Images       []vk.Image
	ImageViews   []vk.ImageView
	DepthImages  []*VulkanImage
	Framebuffers []*VulkanFramebuffer

	Renderpass *VulkanRenderpass

	// Per in-flight-frame sync objects.
	ImageAvailableSemaphores []vk.Semaphore
	RenderFinishedSemaphores []vk.Semaphore
	InFlightFences           []*VulkanFence
	// Tracks which in-flight fence guards each swapchain image, nil if the
	// image has never been acquired.
	ImagesInFlight []*VulkanFence

	currentFrame uint32
}

// SwapchainCreate creates a swapchain for the surface in context, along with
// the renderpass, depth buffers, framebuffers and sync objects that belong to
// its lifetime.
func SwapchainCreate(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	return swapchainCreateInternal(context, width, height, nil)
}

// SwapchainRecreate replaces old with a new swapchain for the same surface,
// handing the old handle to the driver so in-flight presents can complete.
// The image format must not drift across recreation. Pipelines are compiled
// against it, so a drift is unrecoverable and reported as
// core.ErrFormatChanged.
func SwapchainRecreate(context *VulkanContext, width, height uint32, old *VulkanSwapchain) (*VulkanSwapchain, error) {
	swapchain, err := swapchainCreateInternal(context, width, height, old)
	if err != nil {
		return nil, err
	}
	if !SwapchainCompareFormats(old, swapchain) {
		core.LogError("swapchain image or depth format has changed on recreation")
		return nil, core.ErrFormatChanged
	}
	old.Destroy(context)
	return swapchain, nil
}

// SwapchainCompareFormats reports whether two swapchains share the same
// colour and depth formats.
func SwapchainCompareFormats(a, b *VulkanSwapchain) bool {
	return a.ImageFormat.Format == b.ImageFormat.Format &&
		a.ImageFormat.ColorSpace == b.ImageFormat.ColorSpace &&
		a.DepthFormat == b.DepthFormat
}

func swapchainCreateInternal(context *VulkanContext, width, height uint32, old *VulkanSwapchain) (*VulkanSwapchain, error) {
	swapchain := &VulkanSwapchain{}

	if err := DeviceQuerySwapchainSupport(context.Device.PhysicalDevice, context.Surface, &context.Device.SwapchainSupport); err != nil {
		return nil, err
	}
	support := &context.Device.SwapchainSupport

	// Choose a surface format, preferring B8G8R8A8 sRGB.
	swapchain.ImageFormat = support.Formats[0]
	for _, format := range support.Formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			swapchain.ImageFormat = format
			break
		}
	}

	// Mailbox allows replacing queued images, FIFO is the guaranteed
	// fallback.
	presentMode := vk.PresentModeFifo
	for _, mode := range support.PresentModes {
		if mode == vk.PresentModeMailbox {
			presentMode = mode
			break
		}
	}

	support.Capabilities.Deref()
	swapchainExtent := vk.Extent2D{Width: width, Height: height}
	if support.Capabilities.CurrentExtent.Width != vk.MaxUint32 {
		support.Capabilities.CurrentExtent.Deref()
		swapchainExtent = support.Capabilities.CurrentExtent
	}

	// Clamp to the value allowed by the GPU.
	min := support.Capabilities.MinImageExtent
	max := support.Capabilities.MaxImageExtent
	min.Deref()
	max.Deref()
	swapchainExtent.Width = m.Clamp(swapchainExtent.Width, min.Width, max.Width)
	swapchainExtent.Height = m.Clamp(swapchainExtent.Height, min.Height, max.Height)
	swapchain.Extent = swapchainExtent

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}

	createInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
	}

	// Setup the queue family indices
	if context.Device.GraphicsQueueIndex != context.Device.PresentQueueIndex {
		queueFamilyIndices := []uint32{
			uint32(context.Device.GraphicsQueueIndex),
			uint32(context.Device.PresentQueueIndex),
		}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = queueFamilyIndices
	} else {
		createInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	if old != nil {
		createInfo.OldSwapchain = old.Handle
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create swapchain with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Handle = handle

	// Images are owned by the swapchain, only views need cleanup.
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain image count")
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		err := fmt.Errorf("failed to get swapchain images")
		core.LogError(err.Error())
		return nil, err
	}

	swapchain.ImageViews = make([]vk.ImageView, swapchain.ImageCount)
	for i := uint32(0); i < swapchain.ImageCount; i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		var view vk.ImageView
		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &view); res != vk.Success {
			err := fmt.Errorf("failed to create swapchain image view")
			core.LogError(err.Error())
			return nil, err
		}
		swapchain.ImageViews[i] = view
	}

	// Depth resources.
	if !DeviceDetectDepthFormat(context.Device) {
		context.Device.DepthFormat = vk.FormatUndefined
		err := fmt.Errorf("failed to find a supported depth format")
		core.LogError(err.Error())
		return nil, err
	}
	swapchain.DepthFormat = context.Device.DepthFormat

	swapchain.DepthImages = make([]*VulkanImage, swapchain.ImageCount)
	for i := uint32(0); i < swapchain.ImageCount; i++ {
		depthImage, err := ImageCreate(
			context,
			vk.ImageType2d,
			swapchainExtent.Width,
			swapchainExtent.Height,
			swapchain.DepthFormat,
			vk.ImageTilingOptimal,
			vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
			vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
			true,
			vk.ImageAspectFlags(vk.ImageAspectDepthBit))
		if err != nil {
			return nil, err
		}
		swapchain.DepthImages[i] = depthImage
	}

	// Renderpass and per image framebuffers.
	renderpass, err := RenderpassCreate(
		context,
		swapchain.ImageFormat.Format,
		swapchain.DepthFormat,
		0, 0, float32(swapchainExtent.Width), float32(swapchainExtent.Height),
		0.01, 0.01, 0.01, 1.0,
		1.0,
		0)
	if err != nil {
		return nil, err
	}
	swapchain.Renderpass = renderpass

	swapchain.Framebuffers = make([]*VulkanFramebuffer, swapchain.ImageCount)
	for i := uint32(0); i < swapchain.ImageCount; i++ {
		attachments := []vk.ImageView{swapchain.ImageViews[i], swapchain.DepthImages[i].View}
		framebuffer, err := FramebufferCreate(context, renderpass, swapchainExtent.Width, swapchainExtent.Height, attachments)
		if err != nil {
			return nil, err
		}
		swapchain.Framebuffers[i] = framebuffer
	}

	// Sync objects.
	swapchain.ImageAvailableSemaphores = make([]vk.Semaphore, MaxFramesInFlight)
	swapchain.RenderFinishedSemaphores = make([]vk.Semaphore, MaxFramesInFlight)
	swapchain.InFlightFences = make([]*VulkanFence, MaxFramesInFlight)
	swapchain.ImagesInFlight = make([]*VulkanFence, swapchain.ImageCount)

	for i := 0; i < MaxFramesInFlight; i++ {
		semaphoreCreateInfo := vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}
		var imageAvailable, renderFinished vk.Semaphore
		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &imageAvailable); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore")
			core.LogError(err.Error())
			return nil, err
		}
		if res := vk.CreateSemaphore(context.Device.LogicalDevice, &semaphoreCreateInfo, context.Allocator, &renderFinished); res != vk.Success {
			err := fmt.Errorf("failed to create semaphore")
			core.LogError(err.Error())
			return nil, err
		}
		swapchain.ImageAvailableSemaphores[i] = imageAvailable
		swapchain.RenderFinishedSemaphores[i] = renderFinished

		// The fence starts signalled so the first frame does not block.
		fence, err := NewFence(context, true)
		if err != nil {
			return nil, err
		}
		swapchain.InFlightFences[i] = fence
	}

	core.LogInfo("Swapchain created successfully.")
	return swapchain, nil
}

func (vs *VulkanSwapchain) Destroy(context *VulkanContext) {
	for _, fence := range vs.InFlightFences {
		fence.FenceDestroy(context)
	}
	vs.InFlightFences = nil
	vs.ImagesInFlight = nil

	for i := range vs.ImageAvailableSemaphores {
		vk.DestroySemaphore(context.Device.LogicalDevice, vs.ImageAvailableSemaphores[i], context.Allocator)
		vk.DestroySemaphore(context.Device.LogicalDevice, vs.RenderFinishedSemaphores[i], context.Allocator)
	}
	vs.ImageAvailableSemaphores = nil
	vs.RenderFinishedSemaphores = nil

	for _, framebuffer := range vs.Framebuffers {
		framebuffer.Destroy(context)
	}
	vs.Framebuffers = nil

	vs.Renderpass.Destroy(context)
	vs.Renderpass = nil

	for _, depthImage := range vs.DepthImages {
		depthImage.ImageDestroy(context)
	}
	vs.DepthImages = nil

	for _, view := range vs.ImageViews {
		vk.DestroyImageView(context.Device.LogicalDevice, view, context.Allocator)
	}
	vs.ImageViews = nil
	vs.Images = nil

	if vs.Handle != nil {
		vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
		vs.Handle = nil
	}
}

// ExtentAspectRatio returns width over height of the swapchain extent.
func (vs *VulkanSwapchain) ExtentAspectRatio() float32 {
	return float32(vs.Extent.Width) / float32(vs.Extent.Height)
}

// AcquireNextImage blocks until the current in-flight frame's fence signals,
// then acquires the next presentable image index. It returns
// core.ErrSwapchainOutOfDate when the surface no longer matches the
// swapchain and the caller must recreate it.
func (vs *VulkanSwapchain) AcquireNextImage(context *VulkanContext) (uint32, error) {
	if !vs.InFlightFences[vs.currentFrame].FenceWait(context, math.MaxUint64) {
		return 0, fmt.Errorf("in flight fence wait failed")
	}

	var imageIndex uint32
	result := vk.AcquireNextImage(
		context.Device.LogicalDevice,
		vs.Handle,
		math.MaxUint64,
		vs.ImageAvailableSemaphores[vs.currentFrame],
		vk.NullFence,
		&imageIndex)

	switch result {
	case vk.Success:
		return imageIndex, nil
	case vk.Suboptimal:
		// Still presentable, let the caller decide whether to recreate.
		return imageIndex, core.ErrSwapchainSuboptimal
	case vk.ErrorOutOfDate:
		return 0, core.ErrSwapchainOutOfDate
	default:
		err := fmt.Errorf("failed to acquire swapchain image with error `%s`", VulkanResultString(result, true))
		core.LogError(err.Error())
		return 0, err
	}
}

// SubmitAndPresent submits the recorded command buffer for imageIndex,
// queues the present and advances the in-flight frame counter. It returns
// core.ErrSwapchainOutOfDate or core.ErrSwapchainSuboptimal when the caller
// must recreate the swapchain.
func (vs *VulkanSwapchain) SubmitAndPresent(context *VulkanContext, commandBuffer *VulkanCommandBuffer, imageIndex uint32) error {
	// If a previous frame is still using this image, wait on its fence.
	if vs.ImagesInFlight[imageIndex] != nil {
		vs.ImagesInFlight[imageIndex].FenceWait(context, math.MaxUint64)
	}
	// Mark the image as now being guarded by this frame's fence.
	vs.ImagesInFlight[imageIndex] = vs.InFlightFences[vs.currentFrame]

	if err := vs.InFlightFences[vs.currentFrame].FenceReset(context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vs.ImageAvailableSemaphores[vs.currentFrame]},
		PWaitDstStageMask: []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vs.RenderFinishedSemaphores[vs.currentFrame]},
	}

	if res := vk.QueueSubmit(context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vs.InFlightFences[vs.currentFrame].Handle); res != vk.Success {
		err := fmt.Errorf("failed to submit draw command buffer with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	commandBuffer.UpdateSubmitted()

	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vs.RenderFinishedSemaphores[vs.currentFrame]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{imageIndex},
	}

	result := vk.QueuePresent(context.Device.PresentQueue, &presentInfo)

	vs.currentFrame = (vs.currentFrame + 1) % MaxFramesInFlight

	switch result {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return core.ErrSwapchainSuboptimal
	case vk.ErrorOutOfDate:
		return core.ErrSwapchainOutOfDate
	default:
		err := fmt.Errorf("failed to present swapchain image with error `%s`", VulkanResultString(result, true))
		core.LogError(err.Error())
		return err
	}
}
