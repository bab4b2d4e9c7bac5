package system

import (
	"time"

	"github.com/novaengine/nova/internal/core/event"
	coresys "github.com/novaengine/nova/internal/core/system"
)

// EventSystem delivers the previous frame's events first thing each frame.
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
