package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/cliptrack/internal/timeline"
)

// Instance is one spawned prefab.
type Instance struct {
	ID       string
	Owner    string
	Prefab   string
	Position timeline.Vec2
	Rotation float64
	Scale    float64
}

// Spawner creates prefab instances. Hosts with a real scene implement it;
// Scene is the in-memory default.
type Spawner interface {
	Spawn(owner any, n *timeline.SpawnNotify) (Instance, error)
}

// SpawnHandler spawns a prefab when a spawn-prefab clip starts. Update and
// end are no-ops: instances outlive the clip.
type SpawnHandler struct {
	spawner Spawner
}

// NewSpawnHandler creates a SpawnHandler backed by s.
func NewSpawnHandler(s Spawner) *SpawnHandler {
	return &SpawnHandler{spawner: s}
}

func (h *SpawnHandler) Kind() string { return timeline.KindSpawn }

func (h *SpawnHandler) OnStart(owner any, n timeline.Notification) {
	sn, ok := n.(*timeline.SpawnNotify)
	if !ok || sn.Prefab == "" {
		return
	}
	inst, err := h.spawner.Spawn(owner, sn)
	if err != nil {
		slog.Error("spawn failed", "owner", OwnerName(owner), "prefab", sn.Prefab, "error", err)
		return
	}
	slog.Debug("spawned prefab", "owner", inst.Owner, "prefab", inst.Prefab, "id", inst.ID)
}

func (h *SpawnHandler) OnUpdate(owner any, n timeline.Notification, progress float64) {}

func (h *SpawnHandler) OnEnd(owner any, n timeline.Notification) {}

// Scene is an in-memory Spawner. Instance IDs are UUIDv7, so they sort in
// spawn order.
type Scene struct {
	mu        sync.Mutex
	instances []Instance
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

// Spawn records a new instance.
func (s *Scene) Spawn(owner any, n *timeline.SpawnNotify) (Instance, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Instance{}, fmt.Errorf("instance id: %w", err)
	}
	inst := Instance{
		ID:       id.String(),
		Owner:    OwnerName(owner),
		Prefab:   n.Prefab,
		Position: n.Position,
		Rotation: n.Rotation,
		Scale:    n.Scale,
	}

	s.mu.Lock()
	s.instances = append(s.instances, inst)
	s.mu.Unlock()
	return inst, nil
}

// Instances returns a copy of the spawned instances in spawn order.
func (s *Scene) Instances() []Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

// Clear removes every instance.
func (s *Scene) Clear() {
	s.mu.Lock()
	s.instances = nil
	s.mu.Unlock()
}
