package world

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/core/event"
	"github.com/l1jgo/timeskip/internal/data"
	"github.com/l1jgo/timeskip/internal/scripting"
)

// RandomTickDivisor is the number of cells per section competing for each
// random tick: a cell receives rate/RandomTickDivisor random ticks per step
// on average.
const RandomTickDivisor = 4096

// DefaultRandomTickRate is the random ticks per section per step of a new dimension.
const DefaultRandomTickRate = 3

var (
	ErrUnknownActor     = errors.New("unknown actor")
	ErrUnknownDimension = errors.New("unknown dimension")
)

// GrowthRule decides how likely a crop random tick is to advance the crop.
type GrowthRule interface {
	CropGrowthChance(ctx scripting.GrowthContext) float64
}

// Dimension holds the resident regions of one dimension and its world rules.
type Dimension struct {
	ID             DimensionID
	RandomTickRate int
	regions        map[RegionKey]*Region
}

// State is the live world. Accessed only from the game loop goroutine, so it holds no locks.
type State struct {
	dims     map[DimensionID]*Dimension
	actors   map[uuid.UUID]*Actor
	crops    *data.CropTable
	smelting *data.SmeltingTable
	growth   GrowthRule
	bus      *event.Bus // nil disables lifecycle events
	rng      *rand.Rand
}

func NewState(crops *data.CropTable, smelting *data.SmeltingTable, growth GrowthRule, bus *event.Bus) *State {
	return &State{
		dims:     make(map[DimensionID]*Dimension),
		actors:   make(map[uuid.UUID]*Actor),
		crops:    crops,
		smelting: smelting,
		growth:   growth,
		bus:      bus,
		rng:      rand.New(rand.NewSource(rand.Int63())),
	}
}

// AddDimension registers a dimension; an existing one keeps its regions and
// only has its random tick rate updated.
func (s *State) AddDimension(id DimensionID, randomTickRate int) *Dimension {
	if d, ok := s.dims[id]; ok {
		d.RandomTickRate = randomTickRate
		return d
	}
	d := &Dimension{ID: id, RandomTickRate: randomTickRate, regions: make(map[RegionKey]*Region)}
	s.dims[id] = d
	return d
}

// Dimensions returns dimension ids in sorted order.
func (s *State) Dimensions() []DimensionID {
	out := make([]DimensionID, 0, len(s.dims))
	for id := range s.dims {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ── Regions ────────────────────────────────────────────────────────

// LoadRegion makes r resident and announces it.
func (s *State) LoadRegion(dim DimensionID, r *Region) error {
	d, ok := s.dims[dim]
	if !ok {
		return fmt.Errorf("load region %s in %s: %w", r.Key(), dim, ErrUnknownDimension)
	}
	for _, f := range r.Furnaces {
		f.smelting = s.smelting
	}
	d.regions[r.Key()] = r
	if s.bus != nil {
		event.Emit(s.bus, event.RegionLoaded{Dimension: string(dim), Key: int64(r.Key())})
	}
	return nil
}

// UnloadRegion removes a region from residency and returns it.
func (s *State) UnloadRegion(dim DimensionID, key RegionKey) *Region {
	d, ok := s.dims[dim]
	if !ok {
		return nil
	}
	r := d.regions[key]
	if r == nil {
		return nil
	}
	delete(d.regions, key)
	if s.bus != nil {
		event.Emit(s.bus, event.RegionUnloaded{Dimension: string(dim), Key: int64(key)})
	}
	return r
}

func (s *State) Region(dim DimensionID, key RegionKey) *Region {
	d, ok := s.dims[dim]
	if !ok {
		return nil
	}
	return d.regions[key]
}

func (s *State) RegionResident(dim DimensionID, key RegionKey) bool {
	return s.Region(dim, key) != nil
}

// ResidentRegions lists every resident region, ordered by dimension then key.
func (s *State) ResidentRegions() []RegionRef {
	var out []RegionRef
	for _, id := range s.Dimensions() {
		d := s.dims[id]
		keys := make([]RegionKey, 0, len(d.regions))
		for k := range d.regions {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys {
			out = append(out, RegionRef{Dimension: id, Key: k})
		}
	}
	return out
}

func (s *State) RandomTickRate(dim DimensionID) int {
	if d, ok := s.dims[dim]; ok {
		return d.RandomTickRate
	}
	return 0
}

// ── Growth cells ───────────────────────────────────────────────────

// GrowthCells lists cells of a resident region that can currently grow.
func (s *State) GrowthCells(dim DimensionID, key RegionKey) []CellPos {
	r := s.Region(dim, key)
	if r == nil {
		return nil
	}
	var out []CellPos
	for _, p := range r.cellPositions() {
		if s.growable(r.Cells[p]) {
			out = append(out, p)
		}
	}
	return out
}

// Growable reports whether the cell still holds an immature crop.
func (s *State) Growable(dim DimensionID, pos CellPos) bool {
	return s.growable(s.cell(dim, pos))
}

// RandomTickCell gives one random tick to a growth cell.
func (s *State) RandomTickCell(dim DimensionID, pos CellPos, rng *rand.Rand) {
	c := s.cell(dim, pos)
	if !s.growable(c) {
		return
	}
	crop := s.crops.Get(c.Crop)
	chance := scripting.DefaultGrowthChance
	if s.growth != nil {
		chance = s.growth.CropGrowthChance(scripting.GrowthContext{
			Crop:     c.Crop,
			Age:      c.Age,
			MaxAge:   crop.MaxAge,
			Light:    c.Light,
			MinLight: crop.MinLight,
			Hydrated: c.Hydrated,
			Crowded:  s.crowded(dim, pos, c.Crop),
		})
	}
	if rng.Float64() < chance {
		c.Age++
	}
}

func (s *State) cell(dim DimensionID, pos CellPos) *Cell {
	r := s.Region(dim, pos.Region().Key())
	if r == nil {
		return nil
	}
	return r.Cells[pos]
}

func (s *State) growable(c *Cell) bool {
	if c == nil || s.crops == nil {
		return false
	}
	crop := s.crops.Get(c.Crop)
	return crop != nil && c.Age < crop.MaxAge
}

// crowded reports the same crop on both horizontal axes around pos.
func (s *State) crowded(dim DimensionID, pos CellPos, crop string) bool {
	same := func(dx, dz int32) bool {
		c := s.cell(dim, CellPos{X: pos.X + dx, Y: pos.Y, Z: pos.Z + dz})
		return c != nil && c.Crop == crop
	}
	return (same(-1, 0) || same(1, 0)) && (same(0, -1) || same(0, 1))
}

// ── Stations ───────────────────────────────────────────────────────

// Stations lists the processing stations of a resident region.
func (s *State) Stations(dim DimensionID, key RegionKey) []Station {
	r := s.Region(dim, key)
	if r == nil {
		return nil
	}
	out := make([]Station, 0, len(r.Furnaces))
	for _, f := range r.Furnaces {
		out = append(out, f)
	}
	return out
}

// ── Actors ─────────────────────────────────────────────────────────

// SpawnActor makes an actor resident and announces it. It is used both for
// fresh spawns and for actors read back from a save.
func (s *State) SpawnActor(a *Actor) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.actors[a.ID] = a
	if s.bus != nil {
		event.Emit(s.bus, event.ActorLoaded{ActorID: a.ID})
	}
}

// UnloadActor removes an actor from residency without destroying it.
func (s *State) UnloadActor(id uuid.UUID) *Actor {
	a := s.actors[id]
	delete(s.actors, id)
	return a
}

// DestroyActor permanently removes an actor (death, despawn).
func (s *State) DestroyActor(id uuid.UUID) *Actor {
	a, ok := s.actors[id]
	if !ok {
		return nil
	}
	delete(s.actors, id)
	if s.bus != nil {
		event.Emit(s.bus, event.ActorDestroyed{ActorID: id})
	}
	return a
}

func (s *State) Actor(id uuid.UUID) *Actor {
	return s.actors[id]
}

func (s *State) ActorCount() int { return len(s.actors) }

// ResidentActors lists resident actor ids in a stable order.
func (s *State) ResidentActors() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.actors))
	for id := range s.actors {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

// ActorEffects returns a copy of the actor's active effects.
func (s *State) ActorEffects(id uuid.UUID) ([]Effect, bool) {
	a, ok := s.actors[id]
	if !ok {
		return nil, false
	}
	out := make([]Effect, len(a.Effects))
	copy(out, a.Effects)
	return out, true
}

func (s *State) SetActorEffects(id uuid.UUID, effects []Effect) error {
	a, ok := s.actors[id]
	if !ok {
		return fmt.Errorf("set effects of %s: %w", id, ErrUnknownActor)
	}
	a.Effects = effects
	return nil
}

func (s *State) ActorHasTag(id uuid.UUID, tag string) bool {
	a, ok := s.actors[id]
	return ok && a.HasTag(tag)
}

func (s *State) AddActorTag(id uuid.UUID, tag string) error {
	a, ok := s.actors[id]
	if !ok {
		return fmt.Errorf("tag %s: %w", id, ErrUnknownActor)
	}
	a.AddTag(tag)
	return nil
}

// ── Live simulation ────────────────────────────────────────────────

// TickLive advances the resident world one simulation step: every furnace
// ticks once, every growth cell gets a random tick with probability
// rate/RandomTickDivisor, and effect durations count down.
func (s *State) TickLive() {
	for _, id := range s.Dimensions() {
		d := s.dims[id]
		p := float64(d.RandomTickRate) / RandomTickDivisor
		for _, r := range d.regions {
			for _, f := range r.Furnaces {
				f.Tick()
			}
			if p <= 0 {
				continue
			}
			for pos := range r.Cells {
				if s.rng.Float64() < p {
					s.RandomTickCell(id, pos, s.rng)
				}
			}
		}
	}
	for _, a := range s.actors {
		tickEffects(a)
	}
}

func tickEffects(a *Actor) {
	kept := a.Effects[:0]
	for _, e := range a.Effects {
		e.Duration--
		if e.Duration > 0 {
			kept = append(kept, e)
		}
	}
	a.Effects = kept
}
