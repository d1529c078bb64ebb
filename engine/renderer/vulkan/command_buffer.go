package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type VulkanCommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState
}

func CommandBufferAllocate(context *VulkanContext, pool vk.CommandPool, isPrimary bool) (*VulkanCommandBuffer, error) {
	commandBuffer := &VulkanCommandBuffer{
		State: COMMAND_BUFFER_STATE_NOT_ALLOCATED,
	}

	level := vk.CommandBufferLevelPrimary
	if !isPrimary {
		level = vk.CommandBufferLevelSecondary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              level,
		CommandBufferCount: 1,
	}

	handles := make([]vk.CommandBuffer, 1)
	if res := vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles); res != vk.Success {
		err := fmt.Errorf("failed to allocate command buffer with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	commandBuffer.Handle = handles[0]
	commandBuffer.State = COMMAND_BUFFER_STATE_READY
	return commandBuffer, nil
}

func (vcb *VulkanCommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	if vcb.Handle != nil {
		vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{vcb.Handle})
		vcb.Handle = nil
	}
	vcb.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (vcb *VulkanCommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: 0,
	}
	if isSingleUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		beginInfo.Flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if res := vk.BeginCommandBuffer(vcb.Handle, &beginInfo); res != vk.Success {
		err := fmt.Errorf("failed to begin command buffer with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vcb.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

// BeginSecondary starts recording a secondary command buffer that continues
// the given render pass. The buffer may only execute inside that pass.
func (vcb *VulkanCommandBuffer) BeginSecondary(renderpass vk.RenderPass, framebuffer vk.Framebuffer) error {
	inheritanceInfo := vk.CommandBufferInheritanceInfo{
		SType:       vk.StructureTypeCommandBufferInheritanceInfo,
		RenderPass:  renderpass,
		Subpass:     0,
		Framebuffer: framebuffer,
	}
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit) |
			vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit),
		PInheritanceInfo: []vk.CommandBufferInheritanceInfo{inheritanceInfo},
	}

	if res := vk.BeginCommandBuffer(vcb.Handle, &beginInfo); res != vk.Success {
		err := fmt.Errorf("failed to begin secondary command buffer with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vcb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
	return nil
}

func (vcb *VulkanCommandBuffer) End() error {
	if res := vk.EndCommandBuffer(vcb.Handle); res != vk.Success {
		err := fmt.Errorf("failed to end command buffer with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vcb.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (vcb *VulkanCommandBuffer) UpdateSubmitted() {
	vcb.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (vcb *VulkanCommandBuffer) Reset() {
	vcb.State = COMMAND_BUFFER_STATE_READY
}

// AllocateAndBeginSingleUse allocates a throwaway primary buffer from pool and
// begins recording it, for one-off transfer work.
func AllocateAndBeginSingleUse(context *VulkanContext, pool vk.CommandPool) (*VulkanCommandBuffer, error) {
	commandBuffer, err := CommandBufferAllocate(context, pool, true)
	if err != nil {
		return nil, err
	}
	if err := commandBuffer.Begin(true, false, false); err != nil {
		commandBuffer.Free(context, pool)
		return nil, err
	}
	return commandBuffer, nil
}

// EndSingleUse ends the buffer, submits it to queue, waits for completion and
// frees it.
func (vcb *VulkanCommandBuffer) EndSingleUse(context *VulkanContext, pool vk.CommandPool, queue vk.Queue) error {
	if err := vcb.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{vcb.Handle},
	}
	if res := vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, vk.NullFence); res != vk.Success {
		err := fmt.Errorf("failed to submit single use command buffer with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}

	// Wait for it to finish. A fence would allow overlap but single use
	// buffers are only hit on load paths.
	if res := vk.QueueWaitIdle(queue); res != vk.Success {
		err := fmt.Errorf("failed to wait on queue with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}

	vcb.Free(context, pool)
	return nil
}
