package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
	m "github.com/spaghettifunk/helios/engine/math"
)

// VulkanPipelineConfig carries all fixed function state used to build a
// graphics pipeline. Fill it with DefaultPipelineConfig and override what the
// pipeline needs.
type VulkanPipelineConfig struct {
	BindingDescriptions   []vk.VertexInputBindingDescription
	AttributeDescriptions []vk.VertexInputAttributeDescription

	InputAssemblyInfo vk.PipelineInputAssemblyStateCreateInfo
	ViewportInfo      vk.PipelineViewportStateCreateInfo
	RasterizationInfo vk.PipelineRasterizationStateCreateInfo
	MultisampleInfo   vk.PipelineMultisampleStateCreateInfo

	ColorBlendAttachment vk.PipelineColorBlendAttachmentState
	DepthStencilInfo     vk.PipelineDepthStencilStateCreateInfo

	DynamicStateEnables []vk.DynamicState

	PipelineLayout vk.PipelineLayout
	RenderPass     vk.RenderPass
	Subpass        uint32
}

// DefaultPipelineConfig returns the state shared by most pipelines: triangle
// lists, back face culling off, depth test on, dynamic viewport and scissor.
func DefaultPipelineConfig() *VulkanPipelineConfig {
	config := &VulkanPipelineConfig{}

	config.InputAssemblyInfo = vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Viewport and scissor are dynamic, counts only.
	config.ViewportInfo = vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	config.RasterizationInfo = vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(vk.CullModeNone),
		FrontFace:               vk.FrontFaceClockwise,
		DepthBiasEnable:         vk.False,
	}

	config.MultisampleInfo = vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	config.ColorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) |
			vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) |
			vk.ColorComponentFlags(vk.ColorComponentABit),
		BlendEnable: vk.False,
	}

	config.DepthStencilInfo = vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.True,
		DepthWriteEnable:      vk.True,
		DepthCompareOp:        vk.CompareOpLess,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
	}

	config.DynamicStateEnables = []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}

	config.BindingDescriptions = Vertex3DBindingDescriptions()
	config.AttributeDescriptions = Vertex3DAttributeDescriptions()

	return config
}

// EnableAlphaBlending switches the config to standard source alpha blending,
// used for translucent billboards.
func (config *VulkanPipelineConfig) EnableAlphaBlending() {
	config.ColorBlendAttachment = vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) |
			vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) |
			vk.ColorComponentFlags(vk.ColorComponentABit),
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorZero,
		AlphaBlendOp:        vk.BlendOpAdd,
	}
}

func Vertex3DBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{
		{
			Binding:   0,
			Stride:    uint32(unsafe.Sizeof(m.Vertex3D{})),
			InputRate: vk.VertexInputRateVertex,
		},
	}
}

func Vertex3DAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(m.Vertex3D{}.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(m.Vertex3D{}.Colour))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(m.Vertex3D{}.Normal))},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(m.Vertex3D{}.Texcoord))},
	}
}

type VulkanPipeline struct {
	Handle       vk.Pipeline
	vertexShader vk.ShaderModule
	fragShader   vk.ShaderModule
}

// NewGraphicsPipeline builds a graphics pipeline from the compiled shaders at
// vertPath and fragPath and the given fixed function config. The config must
// carry a valid PipelineLayout and RenderPass.
func NewGraphicsPipeline(context *VulkanContext, vertPath, fragPath string, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	if config.PipelineLayout == nil {
		err := fmt.Errorf("cannot create pipeline: no pipeline layout provided in config")
		core.LogError(err.Error())
		return nil, err
	}
	if config.RenderPass == nil {
		err := fmt.Errorf("cannot create pipeline: no renderpass provided in config")
		core.LogError(err.Error())
		return nil, err
	}

	pipeline := &VulkanPipeline{}

	vertShader, err := ShaderModuleCreateFromFile(context, vertPath)
	if err != nil {
		return nil, err
	}
	pipeline.vertexShader = vertShader

	fragShader, err := ShaderModuleCreateFromFile(context, fragPath)
	if err != nil {
		vk.DestroyShaderModule(context.Device.LogicalDevice, vertShader, context.Allocator)
		return nil, err
	}
	pipeline.fragShader = fragShader

	shaderStages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertShader,
			PName:  VulkanSafeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragShader,
			PName:  VulkanSafeString("main"),
		},
	}

	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(config.BindingDescriptions)),
		PVertexBindingDescriptions:      config.BindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(config.AttributeDescriptions)),
		PVertexAttributeDescriptions:    config.AttributeDescriptions,
	}

	colorBlendInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{config.ColorBlendAttachment},
	}

	dynamicStateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(config.DynamicStateEnables)),
		PDynamicStates:    config.DynamicStateEnables,
	}

	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(shaderStages)),
		PStages:             shaderStages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &config.InputAssemblyInfo,
		PViewportState:      &config.ViewportInfo,
		PRasterizationState: &config.RasterizationInfo,
		PMultisampleState:   &config.MultisampleInfo,
		PColorBlendState:    &colorBlendInfo,
		PDepthStencilState:  &config.DepthStencilInfo,
		PDynamicState:       &dynamicStateInfo,
		Layout:              config.PipelineLayout,
		RenderPass:          config.RenderPass,
		Subpass:             config.Subpass,
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
		err := fmt.Errorf("failed to create graphics pipeline with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	pipeline.Handle = pipelines[0]

	core.LogDebug("Graphics pipeline created (`%s`, `%s`).", vertPath, fragPath)
	return pipeline, nil
}

// Bind binds the pipeline into commandBuffer for subsequent draws.
func (vp *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer) {
	vk.CmdBindPipeline(commandBuffer.Handle, vk.PipelineBindPointGraphics, vp.Handle)
}

func (vp *VulkanPipeline) Destroy(context *VulkanContext) {
	if vp.vertexShader != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, vp.vertexShader, context.Allocator)
		vp.vertexShader = vk.NullShaderModule
	}
	if vp.fragShader != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, vp.fragShader, context.Allocator)
		vp.fragShader = vk.NullShaderModule
	}
	if vp.Handle != nil {
		vk.DestroyPipeline(context.Device.LogicalDevice, vp.Handle, context.Allocator)
		vp.Handle = nil
	}
}
