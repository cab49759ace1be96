package catchup

import (
	"testing"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/world"
	"github.com/stretchr/testify/assert"
)

func TestRegistryRegionsTrueOnce(t *testing.T) {
	r := NewRegistry()
	ref := world.RegionRef{Dimension: world.Overworld, Key: world.RegionPos{X: 3, Z: -2}.Key()}

	assert.True(t, r.MarkRegionSeen(ref))
	assert.False(t, r.MarkRegionSeen(ref))
	assert.False(t, r.MarkRegionSeen(ref))

	// Same key in another dimension is a different region.
	nether := world.RegionRef{Dimension: "nether", Key: ref.Key}
	assert.True(t, r.MarkRegionSeen(nether))
	assert.Equal(t, 2, r.RegionCount())
}

func TestRegistryActors(t *testing.T) {
	r := NewRegistry()
	id := uuid.New()

	assert.False(t, r.ActorSeen(id))
	assert.True(t, r.MarkActorSeen(id))
	assert.True(t, r.ActorSeen(id))
	assert.False(t, r.MarkActorSeen(id))
	assert.Equal(t, 1, r.ActorCount())

	r.UnmarkActor(id)
	assert.False(t, r.ActorSeen(id))
	assert.True(t, r.MarkActorSeen(id))
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry()
	ref := world.RegionRef{Dimension: world.Overworld, Key: 7}
	id := uuid.New()
	r.MarkRegionSeen(ref)
	r.MarkActorSeen(id)

	r.Clear()
	assert.Zero(t, r.RegionCount())
	assert.Zero(t, r.ActorCount())
	assert.True(t, r.MarkRegionSeen(ref))
	assert.True(t, r.MarkActorSeen(id))
}
