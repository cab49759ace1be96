package system

import (
	"time"

	coresys "github.com/l1jgo/timeskip/internal/core/system"
	"github.com/l1jgo/timeskip/internal/world"
)

// WorldTickSystem advances the resident world one live step. Phase 1 (Update).
type WorldTickSystem struct {
	world *world.State
	ticks int64
}

func NewWorldTickSystem(ws *world.State) *WorldTickSystem {
	return &WorldTickSystem{world: ws}
}

func (s *WorldTickSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WorldTickSystem) Update(_ time.Duration) {
	s.world.TickLive()
	s.ticks++
}

// Ticks returns the number of live steps run since startup.
func (s *WorldTickSystem) Ticks() int64 { return s.ticks }
