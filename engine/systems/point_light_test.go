package systems

import (
	"testing"

	m "github.com/spaghettifunk/helios/engine/math"
	"github.com/spaghettifunk/helios/engine/renderer/metadata"
	"github.com/spaghettifunk/helios/engine/scene"
)

func lightScene(count int) *scene.Registry {
	registry := scene.NewRegistry()
	for i := 0; i < count; i++ {
		light := registry.CreatePointLight(1.0, 0.1, m.NewVec3(1, 1, 1))
		light.Transform.Translation = m.NewVec3(float32(i), 0, 0)
	}
	return registry
}

func TestUpdateWithinCapacity(t *testing.T) {
	system := &PointLightSystem{}

	for count := 0; count <= metadata.MAX_LIGHTS; count++ {
		registry := lightScene(count)
		frameInfo := &metadata.FrameInfo{
			DeltaTime: 0.016,
			Entities:  registry.Snapshot(),
		}
		ubo := &metadata.GlobalUbo{}

		system.Update(frameInfo, ubo)
		if ubo.NumLights != uint32(count) {
			t.Errorf("NumLights = %d, want %d", ubo.NumLights, count)
		}
	}
}

func TestUpdateSkipsNonLightEntities(t *testing.T) {
	registry := lightScene(3)
	registry.CreateEntity()
	registry.CreateEntity()

	system := &PointLightSystem{}
	ubo := &metadata.GlobalUbo{}
	system.Update(&metadata.FrameInfo{DeltaTime: 0.016, Entities: registry.Snapshot()}, ubo)

	if ubo.NumLights != 3 {
		t.Errorf("NumLights = %d, want 3", ubo.NumLights)
	}
}

func TestUpdatePanicsBeyondCapacity(t *testing.T) {
	registry := lightScene(metadata.MAX_LIGHTS + 1)
	system := &PointLightSystem{}
	ubo := &metadata.GlobalUbo{}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic with %d lights", metadata.MAX_LIGHTS+1)
		}
	}()
	system.Update(&metadata.FrameInfo{DeltaTime: 0.016, Entities: registry.Snapshot()}, ubo)
}

func TestUpdateWritesIntensityIntoColourW(t *testing.T) {
	registry := scene.NewRegistry()
	light := registry.CreatePointLight(0.7, 0.1, m.NewVec3(0.2, 0.4, 0.6))
	light.Transform.Translation = m.NewVec3(0, -1, 0)

	system := &PointLightSystem{}
	ubo := &metadata.GlobalUbo{}
	system.Update(&metadata.FrameInfo{DeltaTime: 0, Entities: registry.Snapshot()}, ubo)

	got := ubo.PointLights[0]
	if got.Colour.W != 0.7 {
		t.Errorf("Colour.W = %f, want 0.7", got.Colour.W)
	}
	if got.Colour.X != 0.2 || got.Colour.Y != 0.4 || got.Colour.Z != 0.6 {
		t.Errorf("Colour = %+v, want (0.2, 0.4, 0.6)", got.Colour)
	}
	if got.Position.Y != -1 {
		t.Errorf("Position.Y = %f, want -1", got.Position.Y)
	}
}

func TestSortLightsBackToFront(t *testing.T) {
	registry := scene.NewRegistry()
	near := registry.CreatePointLight(1, 0.1, m.NewVec3(1, 1, 1))
	near.Transform.Translation = m.NewVec3(0, 0, 1)
	far := registry.CreatePointLight(1, 0.1, m.NewVec3(1, 1, 1))
	far.Transform.Translation = m.NewVec3(0, 0, 5)
	middle := registry.CreatePointLight(1, 0.1, m.NewVec3(1, 1, 1))
	middle.Transform.Translation = m.NewVec3(0, 0, 3)

	viewer := m.NewVec3(0, 0, 0)
	ordered := sortLightsBackToFront(registry.Snapshot(), viewer)

	want := []scene.ID{far.ID, middle.ID, near.ID}
	if len(ordered) != len(want) {
		t.Fatalf("ordered %d lights, want %d", len(ordered), len(want))
	}
	for i := range want {
		if ordered[i] != want[i] {
			t.Errorf("position %d: got entity %d, want %d", i, ordered[i], want[i])
		}
	}
}

// Two lights at exactly the same distance collide on the sort key and only
// one survives.
func TestSortLightsEqualDistanceCollision(t *testing.T) {
	registry := scene.NewRegistry()
	a := registry.CreatePointLight(1, 0.1, m.NewVec3(1, 0, 0))
	a.Transform.Translation = m.NewVec3(2, 0, 0)
	b := registry.CreatePointLight(1, 0.1, m.NewVec3(0, 1, 0))
	b.Transform.Translation = m.NewVec3(-2, 0, 0)

	ordered := sortLightsBackToFront(registry.Snapshot(), m.NewVec3(0, 0, 0))
	if len(ordered) != 1 {
		t.Fatalf("ordered %d lights after collision, want 1", len(ordered))
	}
}
