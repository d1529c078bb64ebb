package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
)

type VulkanDescriptorSetLayout struct {
	Handle   vk.DescriptorSetLayout
	Bindings map[uint32]vk.DescriptorSetLayoutBinding
}

// NewDescriptorSetLayout creates a layout from bindings. Binding numbers must
// be unique.
func NewDescriptorSetLayout(context *VulkanContext, bindings []vk.DescriptorSetLayoutBinding) (*VulkanDescriptorSetLayout, error) {
	layout := &VulkanDescriptorSetLayout{
		Bindings: make(map[uint32]vk.DescriptorSetLayoutBinding, len(bindings)),
	}
	for _, binding := range bindings {
		if _, ok := layout.Bindings[binding.Binding]; ok {
			err := fmt.Errorf("descriptor binding %d declared twice", binding.Binding)
			core.LogError(err.Error())
			return nil, err
		}
		layout.Bindings[binding.Binding] = binding
	}

	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var handle vk.DescriptorSetLayout
	if res := vk.CreateDescriptorSetLayout(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor set layout with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	layout.Handle = handle
	return layout, nil
}

func (dsl *VulkanDescriptorSetLayout) Destroy(context *VulkanContext) {
	if dsl.Handle != nil {
		vk.DestroyDescriptorSetLayout(context.Device.LogicalDevice, dsl.Handle, context.Allocator)
		dsl.Handle = nil
	}
	dsl.Bindings = nil
}

type VulkanDescriptorPool struct {
	Handle vk.DescriptorPool
}

func NewDescriptorPool(context *VulkanContext, maxSets uint32, poolSizes []vk.DescriptorPoolSize) (*VulkanDescriptorPool, error) {
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var handle vk.DescriptorPool
	if res := vk.CreateDescriptorPool(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
		err := fmt.Errorf("failed to create descriptor pool with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return &VulkanDescriptorPool{Handle: handle}, nil
}

func (dp *VulkanDescriptorPool) Destroy(context *VulkanContext) {
	if dp.Handle != nil {
		vk.DestroyDescriptorPool(context.Device.LogicalDevice, dp.Handle, context.Allocator)
		dp.Handle = nil
	}
}

// AllocateDescriptorSet allocates one set of the given layout from the pool.
func (dp *VulkanDescriptorPool) AllocateDescriptorSet(context *VulkanContext, layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     dp.Handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}

	sets := make([]vk.DescriptorSet, 1)
	if res := vk.AllocateDescriptorSets(context.Device.LogicalDevice, &allocateInfo, &sets[0]); res != vk.Success {
		err := fmt.Errorf("failed to allocate descriptor set with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return nil, err
	}
	return sets[0], nil
}

func (dp *VulkanDescriptorPool) ResetPool(context *VulkanContext) {
	vk.ResetDescriptorPool(context.Device.LogicalDevice, dp.Handle, 0)
}

// VulkanDescriptorWriter accumulates buffer writes against a layout and
// flushes them into a descriptor set in one update call.
type VulkanDescriptorWriter struct {
	layout *VulkanDescriptorSetLayout
	pool   *VulkanDescriptorPool
	writes []vk.WriteDescriptorSet
}

func NewDescriptorWriter(layout *VulkanDescriptorSetLayout, pool *VulkanDescriptorPool) *VulkanDescriptorWriter {
	return &VulkanDescriptorWriter{
		layout: layout,
		pool:   pool,
	}
}

func (dw *VulkanDescriptorWriter) WriteBuffer(binding uint32, bufferInfo vk.DescriptorBufferInfo) *VulkanDescriptorWriter {
	layoutBinding, ok := dw.layout.Bindings[binding]
	if !ok {
		core.LogFatal("layout does not contain binding %d", binding)
	}

	dw.writes = append(dw.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DescriptorType:  layoutBinding.DescriptorType,
		DstBinding:      binding,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
		DescriptorCount: 1,
	})
	return dw
}

func (dw *VulkanDescriptorWriter) WriteImage(binding uint32, imageInfo vk.DescriptorImageInfo) *VulkanDescriptorWriter {
	layoutBinding, ok := dw.layout.Bindings[binding]
	if !ok {
		core.LogFatal("layout does not contain binding %d", binding)
	}

	dw.writes = append(dw.writes, vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DescriptorType:  layoutBinding.DescriptorType,
		DstBinding:      binding,
		PImageInfo:      []vk.DescriptorImageInfo{imageInfo},
		DescriptorCount: 1,
	})
	return dw
}

// Build allocates a set from the pool and applies the accumulated writes.
func (dw *VulkanDescriptorWriter) Build(context *VulkanContext) (vk.DescriptorSet, error) {
	set, err := dw.pool.AllocateDescriptorSet(context, dw.layout.Handle)
	if err != nil {
		return nil, err
	}
	dw.Overwrite(context, set)
	return set, nil
}

// Overwrite applies the accumulated writes to an existing set.
func (dw *VulkanDescriptorWriter) Overwrite(context *VulkanContext, set vk.DescriptorSet) {
	for i := range dw.writes {
		dw.writes[i].DstSet = set
	}
	vk.UpdateDescriptorSets(context.Device.LogicalDevice, uint32(len(dw.writes)), dw.writes, 0, nil)
}
