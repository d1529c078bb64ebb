package scene

import (
	m "github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/renderer/vulkan"
)

// ID identifies an entity for its whole lifetime. IDs are never reused.
type ID uint32

// Mesh is drawable geometry. Implemented by vulkan.VulkanMesh.
type Mesh interface {
	Bind(commandBuffer *vulkan.VulkanCommandBuffer)
	Draw(commandBuffer *vulkan.VulkanCommandBuffer)
}

// PointLight marks an entity as a light emitter.
type PointLight struct {
	Intensity float32
}

// Entity is anything that lives in the scene: a mesh, a light, or both.
type Entity struct {
	ID        ID
	Colour    m.Vec3
	Transform m.Transform

	// Optional components.
	Mesh  Mesh
	Light *PointLight
}
