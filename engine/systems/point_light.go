package systems

import (
	"fmt"
	"path/filepath"
	"sort"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
	m "github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/renderer/metadata"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
	"github.com/spaghettifunk/helios/engine/scene"
)

// rotationSpeed is the angular velocity of the light orbit, radians per
// second.
const rotationSpeed = 0.5

// PointLightSystem feeds the lights into the global uniform block and draws
// them as alpha blended billboards. Billboards are translucent, so they are
// drawn back to front after every opaque mesh.
type PointLightSystem struct {
	context        *vulkan.VulkanContext
	pipeline       *vulkan.VulkanPipeline
	pipelineLayout vk.PipelineLayout

	// Billboards record single threaded into their own per slot secondary.
	pools   []vk.CommandPool
	buffers []*vulkan.VulkanCommandBuffer
}

func NewPointLightSystem(context *vulkan.VulkanContext, renderPass vk.RenderPass, globalSetLayout vk.DescriptorSetLayout, shaderDir string) (*PointLightSystem, error) {
	system := &PointLightSystem{
		context: context,
	}

	pushConstantRange := vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit) | vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		Offset:     0,
		Size:       uint32(unsafe.Sizeof(metadata.PointLightPushConstants{})),
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
		err := fmt.Errorf("failed to create point light pipeline layout with error `%s`", vulkan.VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	system.pipelineLayout = pipelineLayout

	config := vulkan.DefaultPipelineConfig()
	config.EnableAlphaBlending()
	// The billboard quad is generated in the vertex shader.
	config.BindingDescriptions = nil
	config.AttributeDescriptions = nil
	config.PipelineLayout = pipelineLayout
	config.RenderPass = renderPass

	pipeline, err := vulkan.NewGraphicsPipeline(
		context,
		filepath.Join(shaderDir, "point_light.vert.spv"),
		filepath.Join(shaderDir, "point_light.frag.spv"),
		config)
	if err != nil {
		return nil, err
	}
	system.pipeline = pipeline

	system.pools = make([]vk.CommandPool, vulkan.MaxFramesInFlight)
	system.buffers = make([]*vulkan.VulkanCommandBuffer, vulkan.MaxFramesInFlight)
	for slot := 0; slot < vulkan.MaxFramesInFlight; slot++ {
		poolCreateInfo := vk.CommandPoolCreateInfo{
			SType:            vk.StructureTypeCommandPoolCreateInfo,
			QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
			Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
		}
		var pool vk.CommandPool
		if res := vk.CreateCommandPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
			err := fmt.Errorf("failed to create point light command pool")
			core.LogError(err.Error())
			return nil, err
		}
		system.pools[slot] = pool

		commandBuffer, err := vulkan.CommandBufferAllocate(context, pool, false)
		if err != nil {
			return nil, err
		}
		system.buffers[slot] = commandBuffer
	}

	return system, nil
}

func (s *PointLightSystem) Shutdown() {
	for slot := range s.pools {
		s.buffers[slot].Free(s.context, s.pools[slot])
		vk.DestroyCommandPool(s.context.Device.LogicalDevice, s.pools[slot], s.context.Allocator)
	}
	s.pools = nil
	s.buffers = nil

	if s.pipeline != nil {
		s.pipeline.Destroy(s.context)
		s.pipeline = nil
	}
	if s.pipelineLayout != nil {
		vk.DestroyPipelineLayout(s.context.Device.LogicalDevice, s.pipelineLayout, s.context.Allocator)
		s.pipelineLayout = nil
	}
}

// Update orbits the lights around the scene origin and writes them into ubo.
// Exceeding the uniform block's light capacity is a programming error and
// panics.
func (s *PointLightSystem) Update(frameInfo *metadata.FrameInfo, ubo *metadata.GlobalUbo) {
	rotation := m.NewMat4EulerY(rotationSpeed * float32(frameInfo.DeltaTime))

	lightIndex := uint32(0)
	for _, entity := range frameInfo.Entities {
		if entity.Light == nil {
			continue
		}
		if lightIndex >= metadata.MAX_LIGHTS {
			panic(fmt.Sprintf("point light count exceeds capacity of %d", metadata.MAX_LIGHTS))
		}

		entity.Transform.Translation = entity.Transform.Translation.Transform(rotation)

		ubo.PointLights[lightIndex] = metadata.GpuPointLight{
			Position: entity.Transform.Translation.ToVec4(1),
			Colour:   entity.Colour.ToVec4(entity.Light.Intensity),
		}
		lightIndex++
	}
	ubo.NumLights = lightIndex
}

// sortLightsBackToFront orders the light entities by descending squared
// distance from the viewer. Lights at exactly the same distance collide on
// the sort key, and only the last one of the colliding set is kept.
func sortLightsBackToFront(entities []*scene.Entity, viewerPosition m.Vec3) []scene.ID {
	byDistance := make(map[float32]scene.ID)
	for _, entity := range entities {
		if entity.Light == nil {
			continue
		}
		offset := viewerPosition.Sub(entity.Transform.Translation)
		byDistance[offset.LengthSquared()] = entity.ID
	}

	distances := make([]float32, 0, len(byDistance))
	for distance := range byDistance {
		distances = append(distances, distance)
	}
	sort.Slice(distances, func(i, j int) bool {
		return distances[i] > distances[j]
	})

	ordered := make([]scene.ID, len(distances))
	for i, distance := range distances {
		ordered[i] = byDistance[distance]
	}
	return ordered
}

// Render draws the light billboards back to front into the system's
// secondary buffer and executes it on the frame's primary.
func (s *PointLightSystem) Render(frameInfo *metadata.FrameInfo, renderPass vk.RenderPass, framebuffer vk.Framebuffer) error {
	ordered := sortLightsBackToFront(frameInfo.Entities, frameInfo.Camera.Position())
	if len(ordered) == 0 {
		return nil
	}

	byID := make(map[scene.ID]*scene.Entity, len(frameInfo.Entities))
	for _, entity := range frameInfo.Entities {
		byID[entity.ID] = entity
	}

	slot := frameInfo.FrameIndex
	if res := vk.ResetCommandPool(s.context.Device.LogicalDevice, s.pools[slot], 0); res != vk.Success {
		return fmt.Errorf("failed to reset point light command pool")
	}

	commandBuffer := s.buffers[slot]
	if err := commandBuffer.BeginSecondary(renderPass, framebuffer); err != nil {
		return err
	}

	s.pipeline.Bind(commandBuffer)
	bindDynamicState(commandBuffer, frameInfo)

	vk.CmdBindDescriptorSets(
		commandBuffer.Handle,
		vk.PipelineBindPointGraphics,
		s.pipelineLayout,
		0, 1,
		[]vk.DescriptorSet{frameInfo.GlobalDescriptorSet},
		0, nil)

	for _, id := range ordered {
		entity := byID[id]
		push := metadata.PointLightPushConstants{
			Position: entity.Transform.Translation.ToVec4(1),
			Colour:   entity.Colour.ToVec4(entity.Light.Intensity),
			Radius:   entity.Transform.Scale.X,
		}
		vk.CmdPushConstants(
			commandBuffer.Handle,
			s.pipelineLayout,
			vk.ShaderStageFlags(vk.ShaderStageVertexBit)|vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
			0,
			uint32(unsafe.Sizeof(push)),
			unsafe.Pointer(&push))

		// Two triangles, generated from gl_VertexIndex.
		vk.CmdDraw(commandBuffer.Handle, 6, 1, 0, 0)
	}

	if err := commandBuffer.End(); err != nil {
		return err
	}

	vk.CmdExecuteCommands(frameInfo.CommandBuffer.Handle, 1, []vk.CommandBuffer{commandBuffer.Handle})
	return nil
}
