package renderer

import (
	"errors"
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/platform"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
)

// Renderer drives the per frame protocol: acquire an image, record into the
// frame's primary command buffer, submit and present. It owns the swapchain
// and recreates it when the surface changes.
//
// The protocol is strict. BeginFrame, BeginRenderPass, EndRenderPass and
// EndFrame must be called in order with the same command buffer, and a
// violation is a programming error that panics.
type Renderer struct {
	context  *vulkan.VulkanContext
	platform *platform.Platform

	swapchain      *vulkan.VulkanSwapchain
	commandBuffers []*vulkan.VulkanCommandBuffer

	currentImageIndex uint32
	currentFrameIndex uint32
	isFrameStarted    bool
}

func NewRenderer(context *vulkan.VulkanContext, p *platform.Platform) (*Renderer, error) {
	renderer := &Renderer{
		context:  context,
		platform: p,
	}

	width, height := p.FramebufferExtent()
	swapchain, err := vulkan.SwapchainCreate(context, width, height)
	if err != nil {
		return nil, err
	}
	renderer.swapchain = swapchain

	// One primary command buffer per in-flight frame, reused each time the
	// frame slot comes around.
	renderer.commandBuffers = make([]*vulkan.VulkanCommandBuffer, vulkan.MaxFramesInFlight)
	for i := 0; i < vulkan.MaxFramesInFlight; i++ {
		commandBuffer, err := vulkan.CommandBufferAllocate(context, context.Device.GraphicsCommandPool, true)
		if err != nil {
			return nil, err
		}
		renderer.commandBuffers[i] = commandBuffer
	}

	return renderer, nil
}

func (r *Renderer) Shutdown() {
	for _, commandBuffer := range r.commandBuffers {
		commandBuffer.Free(r.context, r.context.Device.GraphicsCommandPool)
	}
	r.commandBuffers = nil
	if r.swapchain != nil {
		r.swapchain.Destroy(r.context)
		r.swapchain = nil
	}
}

// RenderPass returns the handle of the swapchain's renderpass. Pipelines and
// secondary command buffer inheritance are built against it.
func (r *Renderer) RenderPass() vk.RenderPass {
	return r.swapchain.Renderpass.Handle
}

// CurrentFramebuffer returns the framebuffer of the acquired image. Only
// valid between BeginFrame and EndFrame.
func (r *Renderer) CurrentFramebuffer() vk.Framebuffer {
	if !r.isFrameStarted {
		panic("CurrentFramebuffer called outside a frame")
	}
	return r.swapchain.Framebuffers[r.currentImageIndex].Handle
}

// CurrentFrameIndex returns the in-flight frame slot, in
// [0, MaxFramesInFlight). Only valid between BeginFrame and EndFrame.
func (r *Renderer) CurrentFrameIndex() uint32 {
	if !r.isFrameStarted {
		panic("CurrentFrameIndex called outside a frame")
	}
	return r.currentFrameIndex
}

func (r *Renderer) IsFrameStarted() bool {
	return r.isFrameStarted
}

func (r *Renderer) AspectRatio() float32 {
	return r.swapchain.ExtentAspectRatio()
}

func (r *Renderer) Extent() (uint32, uint32) {
	return r.swapchain.Extent.Width, r.swapchain.Extent.Height
}

// BeginFrame acquires the next swapchain image and begins the frame's
// primary command buffer. It returns (nil, nil) when the swapchain had to be
// recreated and the frame should be skipped.
func (r *Renderer) BeginFrame() (*vulkan.VulkanCommandBuffer, error) {
	if r.isFrameStarted {
		panic("BeginFrame called while a frame is already in progress")
	}

	imageIndex, err := r.swapchain.AcquireNextImage(r.context)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainOutOfDate) {
			if err := r.recreateSwapchain(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		if !errors.Is(err, core.ErrSwapchainSuboptimal) {
			return nil, err
		}
		// Suboptimal images are still presentable, carry on.
	}
	r.currentImageIndex = imageIndex
	r.isFrameStarted = true

	commandBuffer := r.commandBuffers[r.currentFrameIndex]
	commandBuffer.Reset()
	if err := commandBuffer.Begin(false, false, false); err != nil {
		r.isFrameStarted = false
		return nil, err
	}
	return commandBuffer, nil
}

// BeginRenderPass begins the swapchain renderpass on the frame's command
// buffer. Draw commands come from executed secondary buffers, so inline
// recording between BeginRenderPass and EndRenderPass is not allowed.
func (r *Renderer) BeginRenderPass(commandBuffer *vulkan.VulkanCommandBuffer) {
	if !r.isFrameStarted {
		panic("BeginRenderPass called outside a frame")
	}
	if commandBuffer != r.commandBuffers[r.currentFrameIndex] {
		panic("BeginRenderPass called with a command buffer from a different frame")
	}

	renderpass := r.swapchain.Renderpass
	renderpass.W = float32(r.swapchain.Extent.Width)
	renderpass.H = float32(r.swapchain.Extent.Height)
	renderpass.Begin(commandBuffer, r.CurrentFramebuffer(), vk.SubpassContentsSecondaryCommandBuffers)
}

func (r *Renderer) EndRenderPass(commandBuffer *vulkan.VulkanCommandBuffer) {
	if !r.isFrameStarted {
		panic("EndRenderPass called outside a frame")
	}
	if commandBuffer != r.commandBuffers[r.currentFrameIndex] {
		panic("EndRenderPass called with a command buffer from a different frame")
	}
	r.swapchain.Renderpass.End(commandBuffer)
}

// EndFrame ends the command buffer, submits it and presents the image. The
// frame slot advances regardless of whether presentation succeeded.
func (r *Renderer) EndFrame(commandBuffer *vulkan.VulkanCommandBuffer) error {
	if !r.isFrameStarted {
		panic("EndFrame called outside a frame")
	}
	if commandBuffer != r.commandBuffers[r.currentFrameIndex] {
		panic("EndFrame called with a command buffer from a different frame")
	}

	if err := commandBuffer.End(); err != nil {
		return err
	}

	err := r.swapchain.SubmitAndPresent(r.context, commandBuffer, r.currentImageIndex)

	r.isFrameStarted = false
	r.advanceFrameSlot()

	if errors.Is(err, core.ErrSwapchainOutOfDate) || errors.Is(err, core.ErrSwapchainSuboptimal) || r.platform.WasResized() {
		r.platform.ResetResizedFlag()
		return r.recreateSwapchain()
	}
	return err
}

// advanceFrameSlot rotates the in-flight frame slot. Frame K lands on slot
// K mod MaxFramesInFlight.
func (r *Renderer) advanceFrameSlot() {
	r.currentFrameIndex = (r.currentFrameIndex + 1) % vulkan.MaxFramesInFlight
}

// recreateSwapchain rebuilds the swapchain for the current framebuffer
// extent, blocking while the window is minimised.
func (r *Renderer) recreateSwapchain() error {
	width, height := r.platform.FramebufferExtent()
	for width == 0 || height == 0 {
		r.platform.WaitEvents()
		width, height = r.platform.FramebufferExtent()
	}

	r.context.WaitIdle()

	swapchain, err := vulkan.SwapchainRecreate(r.context, width, height, r.swapchain)
	if err != nil {
		if errors.Is(err, core.ErrFormatChanged) {
			// Every pipeline is compiled against the old formats, there is
			// no way to continue.
			return fmt.Errorf("swapchain recreation changed image formats: %w", err)
		}
		return err
	}
	r.swapchain = swapchain
	r.context.FramebufferWidth = width
	r.context.FramebufferHeight = height

	core.LogDebug("Swapchain recreated (%dx%d).", width, height)
	return nil
}
