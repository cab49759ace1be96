package catchup

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/clock"
	"github.com/l1jgo/timeskip/internal/core/event"
	"github.com/l1jgo/timeskip/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dispatch(bus *event.Bus) int {
	bus.SwapBuffers()
	return bus.DispatchAll()
}

func TestStartCatchesUpResidentWorld(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	s := newWorld(t, fixedGrowth(1), bus)
	farms := []world.RegionRef{
		loadFarm(t, s, 0, 0, "wheat"),
		loadFarm(t, s, 1, 0, "wheat"),
		loadFarm(t, s, -1, 3, "wheat"),
	}
	veteran := spawn(s, true, world.Effect{ID: "speed", Duration: 200_000}, world.Effect{ID: "haste", Duration: 500})
	untagged := spawn(s, false, world.Effect{ID: "speed", Duration: 200_000})

	clk := &fakeClock{gap: gapOf(twoHours)}
	c := newCoordinator(s, clk, Options{})
	c.Subscribe(bus)

	rep := c.Start(ctx)
	assert.EqualValues(t, 144_000, rep.Gap.ElapsedTicks)
	assert.Equal(t, 3, rep.Regions)
	assert.Equal(t, 2, rep.Actors)
	assert.Zero(t, rep.Failed)
	assert.True(t, rep.Saved)
	assert.Equal(t, 1, clk.saves, "timestamp saved before Start returns")

	for _, ref := range farms {
		r := s.Region(ref.Dimension, ref.Key)
		assert.Equal(t, 7, r.Cells[world.CellPos{X: r.Pos.X * world.RegionSize, Y: 64, Z: r.Pos.Z * world.RegionSize}].Age)
		assert.Equal(t, 8, r.Furnaces[0].Output.Count)
	}
	eff, ok := s.Actor(veteran).Effect("speed")
	require.True(t, ok)
	assert.EqualValues(t, 56_000, eff.Duration)
	_, ok = s.Actor(veteran).Effect("haste")
	assert.False(t, ok)

	// Resident actors at startup were saved with the world, so they catch up
	// even when the marker is missing; the marker is attached for next time.
	assert.True(t, s.ActorHasTag(untagged, MarkerTag))
	eff, _ = s.Actor(untagged).Effect("speed")
	assert.EqualValues(t, 56_000, eff.Duration)

	// The load events from before Start arrive late and must not double-apply.
	assert.Positive(t, dispatch(bus))
	assert.Zero(t, c.Pending())
	assert.Equal(t, 3, c.Registry().RegionCount())
	assert.Equal(t, 2, c.Registry().ActorCount())
	eff, _ = s.Actor(veteran).Effect("speed")
	assert.EqualValues(t, 56_000, eff.Duration)
}

func TestNewActorGetsMarkerAndNoCatchup(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	s := newWorld(t, fixedGrowth(0), bus)
	c := newCoordinator(s, &fakeClock{gap: gapOf(twoHours)}, Options{})
	c.Subscribe(bus)
	c.Start(ctx)

	id := spawn(s, false, world.Effect{ID: "speed", Duration: 600})
	dispatch(bus)

	assert.True(t, s.ActorHasTag(id, MarkerTag))
	eff, ok := s.Actor(id).Effect("speed")
	require.True(t, ok)
	assert.EqualValues(t, 600, eff.Duration)
	assert.Equal(t, ActorAlreadySeen, c.ActorLoaded(id))
}

func TestActorLoadedOutcomes(t *testing.T) {
	s := newWorld(t, fixedGrowth(0), nil)
	c := newCoordinator(s, &fakeClock{gap: gapOf(50_000)}, Options{})
	c.Start(context.Background())
	require.EqualValues(t, 1000, c.OfflineTicks())

	id := spawn(s, true, world.Effect{ID: "speed", Duration: 1500})
	assert.Equal(t, ActorCaughtUp, c.ActorLoaded(id))
	assert.Equal(t, ActorAlreadySeen, c.ActorLoaded(id))
	eff, _ := s.Actor(id).Effect("speed")
	assert.EqualValues(t, 500, eff.Duration, "decay applied exactly once")

	// Destroyed then re-created under the same id is a new actor.
	c.ActorDestroyed(id)
	assert.False(t, c.Registry().ActorSeen(id))
	assert.Equal(t, ActorCaughtUp, c.ActorLoaded(id))

	assert.Equal(t, ActorFailed, c.ActorLoaded(uuid.New()), "unknown actors cannot be tagged")
}

func TestLateRegionLoadIsQueued(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	s := newWorld(t, fixedGrowth(1), bus)
	c := newCoordinator(s, &fakeClock{gap: gapOf(twoHours)}, Options{DrainPerTick: 2})
	c.Subscribe(bus)
	c.Start(ctx)

	var refs []world.RegionRef
	for x := int32(0); x < 5; x++ {
		refs = append(refs, loadFarm(t, s, x, 0, "wheat"))
	}
	dispatch(bus)
	assert.Equal(t, 5, c.Pending())

	// Reloading a region already queued this session adds nothing.
	assert.False(t, c.RegionLoaded(refs[0]))

	s.UnloadRegion(refs[1].Dimension, refs[1].Key)

	stats := c.Tick(ctx)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 3, c.Pending())

	stats = c.Tick(ctx)
	assert.Equal(t, 2, stats.Completed)
	stats = c.Tick(ctx)
	assert.Equal(t, 1, stats.Completed)
	assert.Zero(t, c.Pending())

	for _, ref := range []world.RegionRef{refs[0], refs[2], refs[3], refs[4]} {
		r := s.Region(ref.Dimension, ref.Key)
		assert.Equal(t, 8, r.Furnaces[0].Output.Count, "region %s", ref)
	}
}

func TestNoCatchupWithoutElapsedTicks(t *testing.T) {
	for name, gap := range map[string]clock.Gap{
		"unknown":    clock.ComputeGap(0, false, 1_000, clock.DefaultMsPerTick, 1),
		"tiny":       gapOf(30),
		"clock_back": gapOf(-60_000),
	} {
		t.Run(name, func(t *testing.T) {
			s := newWorld(t, fixedGrowth(1), nil)
			ref := loadFarm(t, s, 0, 0, "wheat")
			id := spawn(s, true, world.Effect{ID: "speed", Duration: 100})
			clk := &fakeClock{gap: gap}
			c := newCoordinator(s, clk, Options{})

			rep := c.Start(context.Background())
			assert.Zero(t, rep.Regions)
			assert.Zero(t, rep.Actors)
			assert.Equal(t, 1, clk.saves)

			assert.False(t, c.RegionLoaded(world.RegionRef{Dimension: world.Overworld, Key: 77}))
			assert.Zero(t, c.Pending())

			r := s.Region(ref.Dimension, ref.Key)
			assert.Zero(t, r.Furnaces[0].Output.Count)
			eff, _ := s.Actor(id).Effect("speed")
			assert.EqualValues(t, 100, eff.Duration)
		})
	}
}

func TestPeriodicTimestampSave(t *testing.T) {
	ctx := context.Background()
	s := newWorld(t, fixedGrowth(0), nil)
	clk := &fakeClock{gap: gapOf(0)}
	c := newCoordinator(s, clk, Options{SaveIntervalTicks: 3})
	c.Start(ctx)
	require.Equal(t, 1, clk.saves)

	for i := 0; i < 7; i++ {
		c.Tick(ctx)
	}
	assert.Equal(t, 3, clk.saves)
}

func TestStartReportsSaveFailure(t *testing.T) {
	s := newWorld(t, fixedGrowth(0), nil)
	clk := &fakeClock{gap: gapOf(twoHours), err: errors.New("disk full")}
	c := newCoordinator(s, clk, Options{})

	rep := c.Start(context.Background())
	assert.False(t, rep.Saved)
	assert.Equal(t, 1, clk.saves)
}

func TestStopClearsSession(t *testing.T) {
	ctx := context.Background()
	bus := event.NewBus()
	s := newWorld(t, fixedGrowth(0), bus)
	clk := &fakeClock{gap: gapOf(twoHours)}
	c := newCoordinator(s, clk, Options{})
	c.Subscribe(bus)
	c.Start(ctx)

	ref := loadFarm(t, s, 4, 4, "wheat")
	spawn(s, true)
	dispatch(bus)
	require.Equal(t, 1, c.Pending())

	c.Stop(ctx)
	assert.Equal(t, 2, clk.saves)
	assert.Zero(t, c.Pending())
	assert.Zero(t, c.Registry().RegionCount())
	assert.Zero(t, c.Registry().ActorCount())

	// A new session sees the region again.
	c.Start(ctx)
	assert.False(t, c.RegionLoaded(ref), "resident regions are handled by Start")
	assert.Equal(t, 1, c.Registry().RegionCount())
}
