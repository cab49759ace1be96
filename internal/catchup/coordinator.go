package catchup

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/clock"
	"github.com/l1jgo/timeskip/internal/core/event"
	"github.com/l1jgo/timeskip/internal/world"
	"go.uber.org/zap"
)

// MarkerTag is the persistent actor tag meaning "saved at least once".
// Actors without it were created this session and missed nothing.
const MarkerTag = "timeskip:seen_before"

// Timekeeper measures the offline gap and stamps the last-seen time.
// *clock.Tracker implements it.
type Timekeeper interface {
	Gap(ctx context.Context) clock.Gap
	Save(ctx context.Context) error
}

type Options struct {
	DrainPerTick      int // region tasks per tick
	SaveIntervalTicks int // periodic timestamp save; 0 disables
}

// ActorOutcome reports what ActorLoaded did.
type ActorOutcome uint8

const (
	ActorAlreadySeen ActorOutcome = iota // second sighting this session
	ActorFresh                           // no marker: tagged, no catch-up
	ActorCaughtUp                        // marker present: effects decayed
	ActorFailed                          // marker or catch-up errored
)

func (o ActorOutcome) String() string {
	switch o {
	case ActorAlreadySeen:
		return "already_seen"
	case ActorFresh:
		return "fresh"
	case ActorCaughtUp:
		return "caught_up"
	case ActorFailed:
		return "failed"
	}
	return "unknown"
}

// StartReport summarizes the startup catch-up.
type StartReport struct {
	Gap     clock.Gap
	Actors  int // actors decayed synchronously
	Regions int // regions replayed synchronously
	Failed  int
	Saved   bool
}

// Coordinator owns the session state of catch-up: the measured gap, the
// dedup registry and the work queue. Host lifecycle callbacks call into it;
// it never polls. Game loop only.
type Coordinator struct {
	host     Host
	clock    Timekeeper
	registry *Registry
	queue    *Queue
	engine   *Engine
	opts     Options
	log      *zap.Logger

	gap         clock.Gap
	ticks       int64 // last computed offline ticks, used for late loads
	tickCounter int
}

func NewCoordinator(host Host, tk Timekeeper, engine *Engine, opts Options, log *zap.Logger) *Coordinator {
	if opts.DrainPerTick <= 0 {
		opts.DrainPerTick = DefaultDrainPerTick
	}
	return &Coordinator{
		host:     host,
		clock:    tk,
		registry: NewRegistry(),
		queue:    NewQueue(host, log),
		engine:   engine,
		opts:     opts,
		log:      log,
	}
}

func (c *Coordinator) Gap() clock.Gap      { return c.gap }
func (c *Coordinator) OfflineTicks() int64 { return c.ticks }
func (c *Coordinator) Pending() int        { return c.queue.Len() }
func (c *Coordinator) Registry() *Registry { return c.registry }

// Start opens a session: it measures the offline gap and, when ticks were
// missed, replays every resident actor and region synchronously before the
// world goes live. The new timestamp is saved before Start returns.
func (c *Coordinator) Start(ctx context.Context) StartReport {
	c.registry.Clear()
	c.queue.Reset()
	c.tickCounter = 0

	c.gap = c.clock.Gap(ctx)
	c.ticks = max(c.gap.ElapsedTicks, 0)
	rep := StartReport{Gap: c.gap}

	switch {
	case !c.gap.Known:
		c.log.Info("no previous timestamp, creating tracker")
	case !c.gap.NeedsCatchup():
		c.log.Info("time difference too small to skip ticks", zap.Int64("elapsed_ms", c.gap.ElapsedMs))
	default:
		c.log.Info("offline time skipped", zap.String("gap", c.gap.String()))
		rep.Actors, rep.Regions, rep.Failed = c.catchUpResident()
		c.log.Info("startup catch-up done",
			zap.Int("actors", rep.Actors),
			zap.Int("regions", rep.Regions),
			zap.Int("failed", rep.Failed))
	}

	// Saved right away so a crash later this session does not replay the same gap.
	rep.Saved = c.clock.Save(ctx) == nil
	return rep
}

func (c *Coordinator) catchUpResident() (actors, regions, failed int) {
	for _, id := range c.host.ResidentActors() {
		if !c.registry.MarkActorSeen(id) {
			continue
		}
		if !c.host.ActorHasTag(id, MarkerTag) {
			if err := c.host.AddActorTag(id, MarkerTag); err != nil {
				c.log.Warn("attach actor marker failed", zap.Stringer("actor", id), zap.Error(err))
			}
		}
		if err := c.engine.Apply(EffectsOp(id), c.ticks); err != nil {
			c.log.Warn("startup effect catch-up failed", zap.Error(err))
			failed++
			continue
		}
		actors++
	}

	for _, ref := range c.host.ResidentRegions() {
		if !c.registry.MarkRegionSeen(ref) {
			continue
		}
		if err := c.runRegion(Task{Region: ref, Ticks: c.ticks}); err != nil {
			c.log.Warn("startup region catch-up failed", zap.Error(err))
			failed++
			continue
		}
		regions++
	}
	return actors, regions, failed
}

// runRegion executes the region replays of a task. Growth and stations are
// independent: a failure of one does not skip the other.
func (c *Coordinator) runRegion(t Task) error {
	return errors.Join(
		c.engine.Apply(GrowthOp(t.Region), t.Ticks),
		c.engine.Apply(StationsOp(t.Region), t.Ticks),
	)
}

// Stop closes the session: the timestamp is saved and all session state dropped.
func (c *Coordinator) Stop(ctx context.Context) {
	c.log.Info("world stopping, saving timestamp")
	_ = c.clock.Save(ctx)
	if n := c.queue.Reset(); n > 0 {
		c.log.Info("pending catch-up tasks dropped", zap.Int("tasks", n))
	}
	c.registry.Clear()
	c.tickCounter = 0
}

// Tick runs once per simulation step: it drains the queue within budget and
// saves the timestamp periodically as crash protection.
func (c *Coordinator) Tick(ctx context.Context) DrainStats {
	stats := c.queue.Drain(c.opts.DrainPerTick, c.runRegion)
	if stats.Ran() > 0 || stats.Discarded > 0 {
		c.log.Debug("catch-up drained",
			zap.Int("completed", stats.Completed),
			zap.Int("failed", stats.Failed),
			zap.Int("discarded", stats.Discarded),
			zap.Int("remaining", stats.Remaining),
			zap.Duration("took", stats.Elapsed))
	}

	if c.opts.SaveIntervalTicks > 0 {
		c.tickCounter++
		if c.tickCounter >= c.opts.SaveIntervalTicks {
			c.tickCounter = 0
			_ = c.clock.Save(ctx)
		}
	}
	return stats
}

// RegionLoaded queues catch-up for a region the first time it becomes
// resident this session. It reports whether a task was queued.
func (c *Coordinator) RegionLoaded(ref world.RegionRef) bool {
	if !c.registry.MarkRegionSeen(ref) {
		return false
	}
	return c.queue.Enqueue(Task{Region: ref, Ticks: c.ticks})
}

// ActorLoaded applies catch-up to an actor read back from a save. Actors
// without the marker were created this session: they get the marker and no
// catch-up.
func (c *Coordinator) ActorLoaded(id uuid.UUID) ActorOutcome {
	if !c.registry.MarkActorSeen(id) {
		return ActorAlreadySeen
	}
	if !c.host.ActorHasTag(id, MarkerTag) {
		if err := c.host.AddActorTag(id, MarkerTag); err != nil {
			c.log.Warn("attach actor marker failed", zap.Stringer("actor", id), zap.Error(err))
			return ActorFailed
		}
		return ActorFresh
	}
	if err := c.engine.Apply(EffectsOp(id), c.ticks); err != nil {
		c.log.Warn("actor catch-up failed", zap.Error(err))
		return ActorFailed
	}
	return ActorCaughtUp
}

// ActorDestroyed forgets a permanently removed actor.
func (c *Coordinator) ActorDestroyed(id uuid.UUID) {
	c.registry.UnmarkActor(id)
}

// Subscribe wires the coordinator to the host's lifecycle events.
func (c *Coordinator) Subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(ev event.RegionLoaded) {
		c.RegionLoaded(world.RegionRef{
			Dimension: world.DimensionID(ev.Dimension),
			Key:       world.RegionKey(ev.Key),
		})
	})
	event.Subscribe(bus, func(ev event.ActorLoaded) {
		c.ActorLoaded(ev.ActorID)
	})
	event.Subscribe(bus, func(ev event.ActorDestroyed) {
		c.ActorDestroyed(ev.ActorID)
	})
}
