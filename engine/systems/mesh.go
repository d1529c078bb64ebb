package systems

import (
	"fmt"
	"path/filepath"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
	"github.com/spaghettifunk/helios/engine/renderer/metadata"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
)

// MeshRenderSystem draws every entity that carries geometry. Its
// RecordPartition method is handed to the draw recorder, so it must stay
// safe to call from several goroutines at once: all per draw state lives in
// the command buffer, the system itself is read only during recording.
type MeshRenderSystem struct {
	context        *vulkan.VulkanContext
	pipeline       *vulkan.VulkanPipeline
	pipelineLayout vk.PipelineLayout
}

func NewMeshRenderSystem(context *vulkan.VulkanContext, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout, shaderDir string) (*MeshRenderSystem, error) {
	system := &MeshRenderSystem{
		context: context,
	}

	pushConstantRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		Offset:     0,
		Size:       uint32(unsafe.Sizeof(metadata.PushConstantData{})),
	}

	layoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{globalSetLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges:    []vk.PushConstantRange{pushConstantRange},
	}
	var pipelineLayout vk.PipelineLayout
	if res := vk.CreatePipelineLayout(context.Device.LogicalDevice, &layoutCreateInfo, context.Allocator, &pipelineLayout); res != vk.Success {
		err := fmt.Errorf("failed to create mesh pipeline layout with error `%s`", vulkan.VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	system.pipelineLayout = pipelineLayout

	config := vulkan.DefaultPipelineConfig()
	config.PipelineLayout = pipelineLayout
	config.RenderPass = renderPass

	pipeline, err := vulkan.NewGraphicsPipeline(
		context,
		filepath.Join(shaderDir, "simple_shader.vert.spv"),
		filepath.Join(shaderDir, "simple_shader.frag.spv"),
		config)
	if err != nil {
		return nil, err
	}
	system.pipeline = pipeline

	return system, nil
}

func (s *MeshRenderSystem) Shutdown() {
	if s.pipeline != nil {
		s.pipeline.Destroy(s.context)
		s.pipeline = nil
	}
	if s.pipelineLayout != nil {
		vk.DestroyPipelineLayout(s.context.Device.LogicalDevice, s.pipelineLayout, s.context.Allocator)
		s.pipelineLayout = nil
	}
}

// RecordPartition records draws for frameInfo.Entities[start:end] into
// commandBuffer. Entities without geometry are skipped.
func (s *MeshRenderSystem) RecordPartition(commandBuffer *vulkan.VulkanCommandBuffer, frameInfo *metadata.FrameInfo, start, end int) error {
	s.pipeline.Bind(commandBuffer)
	bindDynamicState(commandBuffer, frameInfo)

	vk.CmdBindDescriptorSets(
		commandBuffer.Handle,
		vk.PipelineBindPointGraphics,
		s.pipelineLayout,
		0, 1,
		[]vk.DescriptorSet{frameInfo.GlobalDescriptorSet},
		0, nil)

	for _, entity := range frameInfo.Entities[start:end] {
		if entity.Mesh == nil {
			continue
		}

		push := metadata.PushConstantData{
			ModelMatrix:  entity.Transform.Matrix(),
			NormalMatrix: entity.Transform.NormalMatrix(),
		}
		vk.CmdPushConstants(
			commandBuffer.Handle,
			s.pipelineLayout,
			vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			0,
			uint32(unsafe.Sizeof(push)),
			unsafe.Pointer(&push))

		entity.Mesh.Bind(commandBuffer)
		entity.Mesh.Draw(commandBuffer)
	}
	return nil
}

// bindDynamicState sets the viewport and scissor, which are dynamic pipeline
// state and must be recorded into every secondary buffer.
func bindDynamicState(commandBuffer *vulkan.VulkanCommandBuffer, frameInfo *metadata.FrameInfo) {
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(frameInfo.Width),
		Height:   float32(frameInfo.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})

	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{Width: frameInfo.Width, Height: frameInfo.Height},
	}
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})
}
