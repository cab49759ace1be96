package catchup

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/clock"
	"github.com/l1jgo/timeskip/internal/core/event"
	"github.com/l1jgo/timeskip/internal/data"
	"github.com/l1jgo/timeskip/internal/scripting"
	"github.com/l1jgo/timeskip/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// twoHours is 7,200,000 ms, i.e. 144,000 ticks at 50 ms per tick.
const twoHours = 7_200_000

type fixedGrowth float64

func (g fixedGrowth) CropGrowthChance(scripting.GrowthContext) float64 { return float64(g) }

func newWorld(t *testing.T, growth world.GrowthRule, bus *event.Bus) *world.State {
	t.Helper()
	crops, err := data.NewCropTable([]data.Crop{
		{Name: "wheat", MaxAge: 7, MinLight: 9},
		{Name: "bamboo", MaxAge: 1000},
	})
	require.NoError(t, err)
	smelting, err := data.NewSmeltingTable(
		[]data.Recipe{{Input: "iron_ore", Output: "iron_ingot", Count: 1, CookTicks: 200}},
		[]data.Fuel{{Item: "coal", BurnTicks: 1600}},
	)
	require.NoError(t, err)
	s := world.NewState(crops, smelting, growth, bus)
	s.AddDimension(world.Overworld, 3)
	return s
}

// loadFarm makes a region resident with one crop cell and one furnace.
func loadFarm(t *testing.T, s *world.State, x, z int32, crop string) world.RegionRef {
	t.Helper()
	r := world.NewRegion(world.RegionPos{X: x, Z: z})
	base := world.CellPos{X: x * world.RegionSize, Y: 64, Z: z * world.RegionSize}
	require.True(t, r.SetCell(base, &world.Cell{Crop: crop, Light: 15}))
	require.True(t, r.AddFurnace(&world.Furnace{
		Pos:   world.CellPos{X: base.X + 1, Y: 64, Z: base.Z + 1},
		Input: world.ItemStack{Item: "iron_ore", Count: 8},
		Fuel:  world.ItemStack{Item: "coal", Count: 1},
	}))
	require.NoError(t, s.LoadRegion(world.Overworld, r))
	return world.RegionRef{Dimension: world.Overworld, Key: r.Key()}
}

func spawn(s *world.State, tagged bool, effects ...world.Effect) uuid.UUID {
	a := &world.Actor{ID: uuid.New(), Name: "steve", Dimension: world.Overworld, Effects: effects}
	if tagged {
		a.Tags = []string{MarkerTag}
	}
	s.SpawnActor(a)
	return a.ID
}

// countingHost records every random tick handed to a cell.
type countingHost struct {
	*world.State
	ticks map[world.CellPos]int
}

func (h *countingHost) RandomTickCell(dim world.DimensionID, pos world.CellPos, rng *rand.Rand) {
	h.ticks[pos]++
	h.State.RandomTickCell(dim, pos, rng)
}

// fakeClock is a Timekeeper with a canned gap.
type fakeClock struct {
	gap   clock.Gap
	saves int
	err   error
}

func (c *fakeClock) Gap(context.Context) clock.Gap { return c.gap }

func (c *fakeClock) Save(context.Context) error {
	c.saves++
	return c.err
}

func gapOf(elapsedMs int64) clock.Gap {
	const now = 1_700_000_000_000
	return clock.ComputeGap(now-elapsedMs, true, now, clock.DefaultMsPerTick, 1)
}

func newCoordinator(host Host, tk Timekeeper, opts Options) *Coordinator {
	log := zap.NewNop()
	engine := NewEngine(host, EngineConfig{GrowthCeiling: DefaultGrowthCeiling, Seed: 42}, log)
	return NewCoordinator(host, tk, engine, opts, log)
}
