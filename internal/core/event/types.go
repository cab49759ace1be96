package event

import "github.com/google/uuid"

// Lifecycle events emitted by the host world and consumed by catch-up.
// Region fields are kept primitive so this package stays below world.

type RegionLoaded struct {
	Dimension string
	Key       int64
}

type RegionUnloaded struct {
	Dimension string
	Key       int64
}

// ActorLoaded fires whenever an actor enters the world: spawned fresh or
// read back from a save.
type ActorLoaded struct {
	ActorID uuid.UUID
}

// ActorDestroyed fires when an actor is permanently removed (death, despawn),
// not when it is merely unloaded.
type ActorDestroyed struct {
	ActorID uuid.UUID
}
