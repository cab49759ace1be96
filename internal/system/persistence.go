package system

import (
	"time"

	coresys "github.com/l1jgo/timeskip/internal/core/system"
	"github.com/l1jgo/timeskip/internal/world"
	"go.uber.org/zap"
)

// PersistenceSystem periodically writes the resident world, actors and their
// tags included, to the save file. Phase 3 (Persist).
type PersistenceSystem struct {
	world     *world.State
	path      string
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks; 0 disables
}

func NewPersistenceSystem(ws *world.State, path string, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		world:    ws,
		path:     path,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	_ = s.SaveNow()
}

// SaveNow writes the world immediately. Called for graceful shutdown.
func (s *PersistenceSystem) SaveNow() error {
	start := time.Now()
	sf := s.world.Snapshot()
	if err := world.WriteSave(s.path, sf); err != nil {
		s.log.Error("world save failed", zap.String("path", s.path), zap.Error(err))
		return err
	}
	regions := 0
	for _, d := range sf.Dimensions {
		regions += len(d.Regions)
	}
	s.log.Info("world saved",
		zap.Int("regions", regions),
		zap.Int("actors", len(sf.Actors)),
		zap.Duration("took", time.Since(start)))
	return nil
}
