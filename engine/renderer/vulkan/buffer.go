package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/helios/engine/core"
)

// GetAlignment rounds instanceSize up to the next multiple of
// minOffsetAlignment. A minOffsetAlignment of zero leaves the size untouched.
func GetAlignment(instanceSize, minOffsetAlignment vk.DeviceSize) vk.DeviceSize {
	if minOffsetAlignment > 0 {
		return (instanceSize + minOffsetAlignment - 1) & ^(minOffsetAlignment - 1)
	}
	return instanceSize
}

// VulkanBuffer wraps a buffer handle together with its memory allocation. For
// uniform buffers holding one instance per in-flight frame, create it with
// instanceCount = MaxFramesInFlight and the device's
// minUniformBufferOffsetAlignment, then use the indexed accessors.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory

	// Host pointer while mapped, nil otherwise.
	mapped unsafe.Pointer

	BufferSize    vk.DeviceSize
	InstanceCount uint32
	InstanceSize  vk.DeviceSize
	AlignmentSize vk.DeviceSize

	UsageFlags          vk.BufferUsageFlags
	MemoryPropertyFlags vk.MemoryPropertyFlags
}

func NewBuffer(
	context *VulkanContext,
	instanceSize vk.DeviceSize,
	instanceCount uint32,
	usageFlags vk.BufferUsageFlags,
	memoryPropertyFlags vk.MemoryPropertyFlags,
	minOffsetAlignment vk.DeviceSize) (*VulkanBuffer, error) {

	buffer := &VulkanBuffer{
		InstanceCount:       instanceCount,
		InstanceSize:        instanceSize,
		AlignmentSize:       GetAlignment(instanceSize, minOffsetAlignment),
		UsageFlags:          usageFlags,
		MemoryPropertyFlags: memoryPropertyFlags,
	}
	buffer.BufferSize = buffer.AlignmentSize * vk.DeviceSize(instanceCount)

	handle, memory, err := DeviceCreateBuffer(context, buffer.BufferSize, usageFlags, memoryPropertyFlags)
	if err != nil {
		return nil, err
	}
	buffer.Handle = handle
	buffer.Memory = memory
	return buffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	vb.Unmap(context)
	if vb.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
	if vb.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
}

// Map makes the whole buffer host visible. The buffer must have been created
// with host visible memory.
func (vb *VulkanBuffer) Map(context *VulkanContext) error {
	var data unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, vb.Memory, 0, vb.BufferSize, 0, &data); res != vk.Success {
		err := fmt.Errorf("failed to map buffer memory with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	vb.mapped = data
	return nil
}

func (vb *VulkanBuffer) Unmap(context *VulkanContext) {
	if vb.mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		vb.mapped = nil
	}
}

func (vb *VulkanBuffer) IsMapped() bool {
	return vb.mapped != nil
}

// WriteToBuffer copies data into the mapped region at offset. The buffer
// must be mapped first.
func (vb *VulkanBuffer) WriteToBuffer(data []byte, offset vk.DeviceSize) {
	if vb.mapped == nil {
		panic("WriteToBuffer called on unmapped buffer")
	}
	vk.Memcopy(unsafe.Add(vb.mapped, offset), data)
}

// Flush makes writes in the given range visible to the device. Only needed
// for non coherent memory.
func (vb *VulkanBuffer) Flush(context *VulkanContext, size, offset vk.DeviceSize) error {
	mappedRange := vk.MappedMemoryRange{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: vb.Memory,
		Offset: offset,
		Size:   size,
	}
	if res := vk.FlushMappedMemoryRanges(context.Device.LogicalDevice, 1, []vk.MappedMemoryRange{mappedRange}); res != vk.Success {
		err := fmt.Errorf("failed to flush mapped memory range with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	return nil
}

// Invalidate makes device writes in the given range visible to the host.
func (vb *VulkanBuffer) Invalidate(context *VulkanContext, size, offset vk.DeviceSize) error {
	mappedRange := vk.MappedMemoryRange{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: vb.Memory,
		Offset: offset,
		Size:   size,
	}
	if res := vk.InvalidateMappedMemoryRanges(context.Device.LogicalDevice, 1, []vk.MappedMemoryRange{mappedRange}); res != vk.Success {
		err := fmt.Errorf("failed to invalidate mapped memory range with error `%s`", VulkanResultString(res, true))
		core.LogError(err.Error())
		return err
	}
	return nil
}

func (vb *VulkanBuffer) DescriptorInfo(size, offset vk.DeviceSize) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: vb.Handle,
		Offset: offset,
		Range:  size,
	}
}

// WriteToIndex copies one instance worth of data into the slot at index.
func (vb *VulkanBuffer) WriteToIndex(data []byte, index uint32) {
	vb.WriteToBuffer(data, vk.DeviceSize(index)*vb.AlignmentSize)
}

// FlushIndex flushes the slot at index.
func (vb *VulkanBuffer) FlushIndex(context *VulkanContext, index uint32) error {
	return vb.Flush(context, vb.AlignmentSize, vk.DeviceSize(index)*vb.AlignmentSize)
}

// DescriptorInfoForIndex describes the slot at index for descriptor writes.
func (vb *VulkanBuffer) DescriptorInfoForIndex(index uint32) vk.DescriptorBufferInfo {
	return vb.DescriptorInfo(vb.AlignmentSize, vk.DeviceSize(index)*vb.AlignmentSize)
}

// InvalidateIndex invalidates the slot at index.
func (vb *VulkanBuffer) InvalidateIndex(context *VulkanContext, index uint32) error {
	return vb.Invalidate(context, vb.AlignmentSize, vk.DeviceSize(index)*vb.AlignmentSize)
}
