package system

import (
	"context"
	"time"

	"github.com/l1jgo/timeskip/internal/catchup"
	coresys "github.com/l1jgo/timeskip/internal/core/system"
)

// CatchupSystem drains queued region catch-up within the per-tick budget and
// drives the periodic timestamp save. Phase 2 (Catchup), after the live step
// so a freshly loaded region is replayed before its first full live tick.
type CatchupSystem struct {
	coord *catchup.Coordinator
	last  catchup.DrainStats
}

func NewCatchupSystem(coord *catchup.Coordinator) *CatchupSystem {
	return &CatchupSystem{coord: coord}
}

func (s *CatchupSystem) Phase() coresys.Phase { return coresys.PhaseCatchup }

func (s *CatchupSystem) Update(_ time.Duration) {
	s.last = s.coord.Tick(context.Background())
}

// LastDrain returns the stats of the most recent drain.
func (s *CatchupSystem) LastDrain() catchup.DrainStats { return s.last }
