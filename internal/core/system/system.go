package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseEvents  Phase = iota // 0: swap the event bus, deliver last tick's events
	PhaseUpdate               // 1: live simulation
	PhaseCatchup              // 2: drain offline catch-up work
	PhasePersist              // 3: timestamp and world saves
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
