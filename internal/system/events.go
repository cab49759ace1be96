package system

import (
	"time"

	"github.com/l1jgo/timeskip/internal/core/event"
	coresys "github.com/l1jgo/timeskip/internal/core/system"
)

// EventDispatchSystem rotates the event bus and delivers last tick's events.
// Phase 0 (Events): lifecycle callbacks run before any simulation this tick.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}
