package scene

import (
	"testing"

	m "github.com/spaghettifunk/helios/engine/math"
)

func TestRegistryIDsAreMonotonic(t *testing.T) {
	registry := NewRegistry()

	first := registry.CreateEntity()
	second := registry.CreateEntity()
	if first.ID == second.ID {
		t.Fatalf("two entities share ID %d", first.ID)
	}
	if second.ID != first.ID+1 {
		t.Errorf("second ID = %d, want %d", second.ID, first.ID+1)
	}
}

func TestRegistryIDsAreNeverReused(t *testing.T) {
	registry := NewRegistry()

	first := registry.CreateEntity()
	registry.Remove(first.ID)

	replacement := registry.CreateEntity()
	if replacement.ID == first.ID {
		t.Fatalf("ID %d was reused after removal", first.ID)
	}
	if registry.Get(first.ID) != nil {
		t.Errorf("removed entity %d still resolves", first.ID)
	}
}

func TestRegistryRemoveUnknownIsNoOp(t *testing.T) {
	registry := NewRegistry()
	registry.CreateEntity()

	registry.Remove(9999)
	if registry.Len() != 1 {
		t.Errorf("Len = %d after removing unknown id, want 1", registry.Len())
	}
}

func TestRegistrySnapshotIsSortedByID(t *testing.T) {
	registry := NewRegistry()
	for i := 0; i < 20; i++ {
		registry.CreateEntity()
	}
	// Punch some holes so map iteration order would otherwise show through.
	registry.Remove(3)
	registry.Remove(11)
	registry.Remove(17)

	snapshot := registry.Snapshot()
	if len(snapshot) != 17 {
		t.Fatalf("snapshot length = %d, want 17", len(snapshot))
	}
	for i := 1; i < len(snapshot); i++ {
		if snapshot[i-1].ID >= snapshot[i].ID {
			t.Fatalf("snapshot not sorted: %d before %d", snapshot[i-1].ID, snapshot[i].ID)
		}
	}
}

func TestCreatePointLight(t *testing.T) {
	registry := NewRegistry()
	light := registry.CreatePointLight(0.8, 0.05, m.NewVec3(1, 0.2, 0.2))

	if light.Light == nil {
		t.Fatal("point light entity has no light component")
	}
	if light.Light.Intensity != 0.8 {
		t.Errorf("intensity = %f, want 0.8", light.Light.Intensity)
	}
	if light.Transform.Scale.X != 0.05 {
		t.Errorf("radius = %f, want 0.05", light.Transform.Scale.X)
	}
	if light.Mesh != nil {
		t.Error("point light should not carry a mesh")
	}
}
