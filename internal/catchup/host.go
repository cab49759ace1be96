package catchup

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/world"
)

// ResidencyChecker answers whether a region is currently loaded.
type ResidencyChecker interface {
	RegionResident(dim world.DimensionID, key world.RegionKey) bool
}

// RegionHost is the part of the live world the region replays read and write.
type RegionHost interface {
	ResidencyChecker
	ResidentRegions() []world.RegionRef
	RandomTickRate(dim world.DimensionID) int
	GrowthCells(dim world.DimensionID, key world.RegionKey) []world.CellPos
	Growable(dim world.DimensionID, pos world.CellPos) bool
	RandomTickCell(dim world.DimensionID, pos world.CellPos, rng *rand.Rand)
	Stations(dim world.DimensionID, key world.RegionKey) []world.Station
}

// ActorHost is the part of the live world the effect replay and the
// persistent marker read and write.
type ActorHost interface {
	ResidentActors() []uuid.UUID
	ActorEffects(id uuid.UUID) ([]world.Effect, bool)
	SetActorEffects(id uuid.UUID, effects []world.Effect) error
	ActorHasTag(id uuid.UUID, tag string) bool
	AddActorTag(id uuid.UUID, tag string) error
}

// Host is the full world surface catch-up needs. *world.State implements it.
// All calls happen on the game loop goroutine.
type Host interface {
	RegionHost
	ActorHost
}

var _ Host = (*world.State)(nil)
