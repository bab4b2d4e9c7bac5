package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novaengine/nova/internal/core/ecs"
	"github.com/novaengine/nova/internal/core/event"
	coresys "github.com/novaengine/nova/internal/core/system"
)

func TestCleanupAnnouncesDestroyedEntities(t *testing.T) {
	world := ecs.NewWorld()
	bus := event.NewBus()
	runner := coresys.NewRunner()
	runner.Register(NewCleanupSystem(world, bus))
	runner.Register(NewEventSystem(bus))

	var destroyed []ecs.EntityID
	event.Subscribe(bus, func(ev event.EntityDestroyed) { destroyed = append(destroyed, ev.ID) })

	obj := world.Spawn()
	keep := world.Spawn()
	obj.Destroy()

	runner.Tick(time.Millisecond)
	assert.False(t, obj.Alive())
	assert.True(t, keep.Alive())
	assert.Empty(t, destroyed, "announced on the following frame")

	runner.Tick(time.Millisecond)
	require.Len(t, destroyed, 1)
	assert.Equal(t, obj.ID(), destroyed[0])
}
