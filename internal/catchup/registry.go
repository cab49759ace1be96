package catchup

import (
	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/world"
)

// Registry remembers which regions and actors already received catch-up in
// the running session. It is never persisted: Clear runs at every session
// boundary. Game loop only.
type Registry struct {
	regions map[world.DimensionID]map[world.RegionKey]struct{}
	actors  map[uuid.UUID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		regions: make(map[world.DimensionID]map[world.RegionKey]struct{}),
		actors:  make(map[uuid.UUID]struct{}, 256),
	}
}

// MarkRegionSeen records ref and returns true the first time ref is seen in
// this session, false afterwards.
func (r *Registry) MarkRegionSeen(ref world.RegionRef) bool {
	keys := r.regions[ref.Dimension]
	if keys == nil {
		keys = make(map[world.RegionKey]struct{}, 256)
		r.regions[ref.Dimension] = keys
	}
	if _, ok := keys[ref.Key]; ok {
		return false
	}
	keys[ref.Key] = struct{}{}
	return true
}

// MarkActorSeen records id and returns true the first time id is seen in
// this session, false afterwards.
func (r *Registry) MarkActorSeen(id uuid.UUID) bool {
	if _, ok := r.actors[id]; ok {
		return false
	}
	r.actors[id] = struct{}{}
	return true
}

func (r *Registry) ActorSeen(id uuid.UUID) bool {
	_, ok := r.actors[id]
	return ok
}

// UnmarkActor forgets a permanently destroyed actor.
func (r *Registry) UnmarkActor(id uuid.UUID) {
	delete(r.actors, id)
}

func (r *Registry) Clear() {
	clear(r.regions)
	clear(r.actors)
}

func (r *Registry) RegionCount() int {
	n := 0
	for _, keys := range r.regions {
		n += len(keys)
	}
	return n
}

func (r *Registry) ActorCount() int { return len(r.actors) }
