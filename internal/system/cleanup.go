package system

import (
	"time"

	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/event"
	coresys "github.com/novaengine/nova/internal/core/system"
)

// CleanupSystem flushes the deferred entity destruction queue at frame end
// and announces each destroyed entity.
type CleanupSystem struct {
	world *ecs.World
	bus   *event.Bus
}

func NewCleanupSystem(world *ecs.World, bus *event.Bus) *CleanupSystem {
	return &CleanupSystem{world: world, bus: bus}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	for _, id := range s.world.FlushDestroyQueue() {
		event.Emit(s.bus, event.EntityDestroyed{ID: id})
	}
}
