package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/helios/engine/core"
	m "github.com/spaghettifunk/helios/engine/math"
)

// VulkanMesh holds device local vertex and optional index buffers for a piece
// of geometry. Geometry is uploaded once through a staging buffer.
type VulkanMesh struct {
	ID uuid.UUID

	vertexBuffer *VulkanBuffer
	vertexCount  uint32

	hasIndexBuffer bool
	indexBuffer    *VulkanBuffer
	indexCount     uint32
}

// NewMesh uploads vertices and indices to the GPU. An empty index slice
// produces a mesh drawn with a plain vertex draw.
func NewMesh(context *VulkanContext, vertices []m.Vertex3D, indices []uint32) (*VulkanMesh, error) {
	if len(vertices) < 3 {
		err := fmt.Errorf("mesh needs at least 3 vertices, got %d", len(vertices))
		core.LogError(err.Error())
		return nil, err
	}

	mesh := &VulkanMesh{
		ID:          uuid.New(),
		vertexCount: uint32(len(vertices)),
	}

	vertexSize := vk.DeviceSize(unsafe.Sizeof(m.Vertex3D{}))
	vertexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), int(vertexSize)*len(vertices))

	vertexBuffer, err := uploadThroughStaging(context, vertexBytes, vertexSize, uint32(len(vertices)),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, err
	}
	mesh.vertexBuffer = vertexBuffer

	if len(indices) > 0 {
		mesh.hasIndexBuffer = true
		mesh.indexCount = uint32(len(indices))

		indexBytes := unsafe.Slice((*byte)(unsafe.Pointer(&indices[0])), 4*len(indices))
		indexBuffer, err := uploadThroughStaging(context, indexBytes, 4, uint32(len(indices)),
			vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
		if err != nil {
			mesh.vertexBuffer.Destroy(context)
			return nil, err
		}
		mesh.indexBuffer = indexBuffer
	}

	return mesh, nil
}

// uploadThroughStaging copies data into a host visible staging buffer, then
// transfers it to a new device local buffer of the given usage.
func uploadThroughStaging(context *VulkanContext, data []byte, instanceSize vk.DeviceSize, instanceCount uint32, usage vk.BufferUsageFlags) (*VulkanBuffer, error) {
	staging, err := NewBuffer(
		context,
		instanceSize,
		instanceCount,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)|vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit),
		0)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(context)

	if err := staging.Map(context); err != nil {
		return nil, err
	}
	staging.WriteToBuffer(data, 0)
	staging.Unmap(context)

	deviceLocal, err := NewBuffer(
		context,
		instanceSize,
		instanceCount,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		0)
	if err != nil {
		return nil, err
	}

	commandBuffer, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		deviceLocal.Destroy(context)
		return nil, err
	}
	copyRegion := vk.BufferCopy{
		SrcOffset: 0,
		DstOffset: 0,
		Size:      staging.BufferSize,
	}
	vk.CmdCopyBuffer(commandBuffer.Handle, staging.Handle, deviceLocal.Handle, 1, []vk.BufferCopy{copyRegion})
	if err := commandBuffer.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue); err != nil {
		deviceLocal.Destroy(context)
		return nil, err
	}

	return deviceLocal, nil
}

// Bind binds the mesh's vertex and index buffers into commandBuffer.
func (vm *VulkanMesh) Bind(commandBuffer *VulkanCommandBuffer) {
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{vm.vertexBuffer.Handle}, []vk.DeviceSize{0})
	if vm.hasIndexBuffer {
		vk.CmdBindIndexBuffer(commandBuffer.Handle, vm.indexBuffer.Handle, 0, vk.IndexTypeUint32)
	}
}

// Draw issues the draw call for the bound mesh.
func (vm *VulkanMesh) Draw(commandBuffer *VulkanCommandBuffer) {
	if vm.hasIndexBuffer {
		vk.CmdDrawIndexed(commandBuffer.Handle, vm.indexCount, 1, 0, 0, 0)
	} else {
		vk.CmdDraw(commandBuffer.Handle, vm.vertexCount, 1, 0, 0)
	}
}

func (vm *VulkanMesh) Destroy(context *VulkanContext) {
	if vm.vertexBuffer != nil {
		vm.vertexBuffer.Destroy(context)
		vm.vertexBuffer = nil
	}
	if vm.indexBuffer != nil {
		vm.indexBuffer.Destroy(context)
		vm.indexBuffer = nil
	}
}
