package scene

import (
	"sort"

	m "github.com/spaghettifunk/helios/engine/math"
)

// Registry owns every entity in the scene. IDs are handed out from a
// monotonic counter and never reused, so a stale ID can never silently
// resolve to a different entity.
type Registry struct {
	nextID   ID
	entities map[ID]*Entity
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[ID]*Entity),
	}
}

// CreateEntity adds an empty entity and returns it.
func (r *Registry) CreateEntity() *Entity {
	entity := &Entity{
		ID:        r.nextID,
		Colour:    m.NewVec3(1, 1, 1),
		Transform: m.NewTransform(),
	}
	r.nextID++
	r.entities[entity.ID] = entity
	return entity
}

// CreatePointLight adds an entity carrying a point light component. The
// light billboard radius is stored in the transform's X scale.
func (r *Registry) CreatePointLight(intensity, radius float32, colour m.Vec3) *Entity {
	entity := r.CreateEntity()
	entity.Colour = colour
	entity.Transform.Scale.X = radius
	entity.Light = &PointLight{Intensity: intensity}
	return entity
}

// Get returns the entity for id, or nil if it was never created or has been
// removed.
func (r *Registry) Get(id ID) *Entity {
	return r.entities[id]
}

// Remove deletes the entity for id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id ID) {
	delete(r.entities, id)
}

// Len returns the number of live entities.
func (r *Registry) Len() int {
	return len(r.entities)
}

// Snapshot returns the live entities ordered by ascending ID. Iteration over
// the snapshot is deterministic, unlike iteration over the backing map.
func (r *Registry) Snapshot() []*Entity {
	snapshot := make([]*Entity, 0, len(r.entities))
	for _, entity := range r.entities {
		snapshot = append(snapshot, entity)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID < snapshot[j].ID
	})
	return snapshot
}
