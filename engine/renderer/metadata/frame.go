package metadata

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	m "github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/renderer/components"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
	"github.com/spaghettifunk/helios/engine/scene"
)

// MAX_LIGHTS is the point light capacity of the global uniform block. It must
// match the array size declared in the shaders.
const MAX_LIGHTS = 10

// GpuPointLight is the std140 layout of one light in the global uniform
// block. Position and Colour use the W components for padding and intensity
// respectively.
type GpuPointLight struct {
	Position m.Vec4
	// W carries the light intensity.
	Colour m.Vec4
}

// GlobalUbo is the per frame uniform block shared by every pipeline. Field
// order and padding must match the std140 declaration in the shaders.
type GlobalUbo struct {
	Projection    m.Mat4
	View          m.Mat4
	InverseView   m.Mat4
	AmbientColour m.Vec4
	PointLights   [MAX_LIGHTS]GpuPointLight
	NumLights     uint32
	_             [3]uint32
}

// Bytes returns the raw std140 bytes of the block for uniform buffer writes.
func (ubo *GlobalUbo) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ubo)), int(unsafe.Sizeof(*ubo)))
}

// FrameInfo carries everything a render system needs for one frame.
type FrameInfo struct {
	FrameIndex          uint32
	DeltaTime           float64
	Width               uint32
	Height              uint32
	CommandBuffer       *vulkan.VulkanCommandBuffer
	Camera              *components.Camera
	GlobalDescriptorSet vk.DescriptorSet
	Entities            []*scene.Entity
}

// PushConstantData is the per draw push constant block of the mesh pipeline.
type PushConstantData struct {
	ModelMatrix  m.Mat4
	NormalMatrix m.Mat4
}

func (pc *PushConstantData) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(pc)), int(unsafe.Sizeof(*pc)))
}

// PointLightPushConstants is the per draw push constant block of the light
// billboard pipeline.
type PointLightPushConstants struct {
	Position m.Vec4
	Colour   m.Vec4
	Radius   float32
	_        [3]float32
}

func (pc *PointLightPushConstants) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(pc)), int(unsafe.Sizeof(*pc)))
}
