package catchup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/timeskip/internal/world"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// DefaultGrowthCeiling bounds growth attempts per cell for one replay.
const DefaultGrowthCeiling = 64

var (
	ErrActorNotResident  = errors.New("actor not resident")
	ErrRegionNotResident = errors.New("region not resident")
)

// Kind is one of the catch-up replays.
type Kind uint8

const (
	KindEffects  Kind = iota // exact status-effect decay on an actor
	KindGrowth               // capped statistical growth estimation on a region
	KindStations             // exact, uncapped processing-station replay on a region
)

func (k Kind) String() string {
	switch k {
	case KindEffects:
		return "effects"
	case KindGrowth:
		return "growth"
	case KindStations:
		return "stations"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Op names a replay and its target: Actor for KindEffects, Region otherwise.
type Op struct {
	Kind   Kind
	Actor  uuid.UUID
	Region world.RegionRef
}

func EffectsOp(id uuid.UUID) Op         { return Op{Kind: KindEffects, Actor: id} }
func GrowthOp(ref world.RegionRef) Op   { return Op{Kind: KindGrowth, Region: ref} }
func StationsOp(ref world.RegionRef) Op { return Op{Kind: KindStations, Region: ref} }

func (o Op) target() string {
	if o.Kind == KindEffects {
		return o.Actor.String()
	}
	return o.Region.String()
}

// ReplayError reports a failed replay together with what it targeted.
type ReplayError struct {
	Op  Op
	Err error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("%s replay of %s: %v", e.Op.Kind, e.Op.target(), e.Err)
}

func (e *ReplayError) Unwrap() error { return e.Err }

// EffectResult reports what a decay replay changed.
type EffectResult struct {
	Shortened int
	Expired   int
}

// GrowthResult reports the work done by a growth estimation.
type GrowthResult struct {
	Cells           int
	AttemptsPerCell int
	Attempts        int
	Matured         int // cells no longer growable after the replay
}

// StationResult reports the work done by a station replay.
type StationResult struct {
	Stations int
	Ticks    int64 // station ticks executed in total
	Elapsed  time.Duration
}

type EngineConfig struct {
	GrowthCeiling  int
	Seed           int64
	SlowReplayWarn time.Duration // 0 disables the warning
}

// Engine runs the three replays against the live world. Game loop only.
type Engine struct {
	host Host
	cfg  EngineConfig
	log  *zap.Logger
}

func NewEngine(host Host, cfg EngineConfig, log *zap.Logger) *Engine {
	if cfg.GrowthCeiling < 0 {
		cfg.GrowthCeiling = 0
	}
	return &Engine{host: host, cfg: cfg, log: log}
}

// Apply dispatches op. Replays of zero or negative ticks do nothing.
func (e *Engine) Apply(op Op, ticks int64) error {
	var err error
	switch op.Kind {
	case KindEffects:
		_, err = e.DecayEffects(op.Actor, ticks)
	case KindGrowth:
		_, err = e.EstimateGrowth(op.Region, ticks)
	case KindStations:
		_, err = e.ReplayStations(op.Region, ticks)
	default:
		err = &ReplayError{Op: op, Err: errors.New("unknown replay kind")}
	}
	return err
}

// DecayEffects subtracts ticks from every active effect of an actor and
// removes the effects that ran out.
func (e *Engine) DecayEffects(id uuid.UUID, ticks int64) (EffectResult, error) {
	var res EffectResult
	if ticks <= 0 {
		return res, nil
	}
	op := EffectsOp(id)
	effects, ok := e.host.ActorEffects(id)
	if !ok {
		return res, &ReplayError{Op: op, Err: ErrActorNotResident}
	}
	if len(effects) == 0 {
		return res, nil
	}

	kept := make([]world.Effect, 0, len(effects))
	for _, eff := range effects {
		remaining := eff.Duration - ticks
		if remaining <= 0 {
			res.Expired++
			continue
		}
		eff.Duration = remaining
		kept = append(kept, eff)
		res.Shortened++
	}
	if err := e.host.SetActorEffects(id, kept); err != nil {
		return EffectResult{}, &ReplayError{Op: op, Err: err}
	}
	e.log.Debug("effects decayed",
		zap.Stringer("actor", id),
		zap.Int64("ticks", ticks),
		zap.Int("shortened", res.Shortened),
		zap.Int("expired", res.Expired))
	return res, nil
}

// GrowthAttempts converts a tick count into random-tick attempts per cell:
// ticks * rate / RandomTickDivisor, clamped to ceiling.
func GrowthAttempts(ticks int64, rate int, ceiling int) int {
	if ticks <= 0 || rate <= 0 || ceiling <= 0 {
		return 0
	}
	expected := float64(ticks) * (float64(rate) / world.RandomTickDivisor)
	if expected >= float64(ceiling) {
		return ceiling
	}
	return int(expected)
}

// EstimateGrowth approximates missed growth: every growth cell gets up to
// GrowthAttempts random ticks, stopping early once it stops being growable.
// Past the ceiling, growth is under-simulated relative to real elapsed time.
func (e *Engine) EstimateGrowth(ref world.RegionRef, ticks int64) (GrowthResult, error) {
	var res GrowthResult
	if ticks <= 0 {
		return res, nil
	}
	if !e.host.RegionResident(ref.Dimension, ref.Key) {
		return res, &ReplayError{Op: GrowthOp(ref), Err: ErrRegionNotResident}
	}
	res.AttemptsPerCell = GrowthAttempts(ticks, e.host.RandomTickRate(ref.Dimension), e.cfg.GrowthCeiling)
	if res.AttemptsPerCell == 0 {
		return res, nil
	}

	cells := e.host.GrowthCells(ref.Dimension, ref.Key)
	res.Cells = len(cells)
	rng := regionRNG(e.cfg.Seed, ref)
	for _, pos := range cells {
		for k := 0; k < res.AttemptsPerCell && e.host.Growable(ref.Dimension, pos); k++ {
			e.host.RandomTickCell(ref.Dimension, pos, rng)
			res.Attempts++
		}
		if !e.host.Growable(ref.Dimension, pos) {
			res.Matured++
		}
	}
	if res.Cells > 0 {
		e.log.Debug("growth estimated",
			zap.Stringer("region", ref),
			zap.Int("cells", res.Cells),
			zap.Int("attempts_per_cell", res.AttemptsPerCell),
			zap.Int("attempts", res.Attempts))
	}
	return res, nil
}

// ReplayStations ticks every station of the region once per missed tick.
// There is no cap: a long gap makes this the slowest part of catch-up.
func (e *Engine) ReplayStations(ref world.RegionRef, ticks int64) (StationResult, error) {
	var res StationResult
	if ticks <= 0 {
		return res, nil
	}
	if !e.host.RegionResident(ref.Dimension, ref.Key) {
		return res, &ReplayError{Op: StationsOp(ref), Err: ErrRegionNotResident}
	}
	stations := e.host.Stations(ref.Dimension, ref.Key)
	if len(stations) == 0 {
		return res, nil
	}

	start := time.Now()
	for _, st := range stations {
		for i := int64(0); i < ticks; i++ {
			st.Tick()
		}
		res.Ticks += ticks
	}
	res.Stations = len(stations)
	res.Elapsed = time.Since(start)

	fields := []zap.Field{
		zap.Stringer("region", ref),
		zap.Int("stations", res.Stations),
		zap.Int64("ticks", ticks),
		zap.Duration("took", res.Elapsed),
	}
	if e.cfg.SlowReplayWarn > 0 && res.Elapsed > e.cfg.SlowReplayWarn {
		e.log.Warn("station replay exceeded tick budget", fields...)
	} else {
		e.log.Debug("stations replayed", fields...)
	}
	return res, nil
}

// regionRNG derives a per-region random source from the engine seed so a
// world seed replays identically.
func regionRNG(seed int64, ref world.RegionRef) *rand.Rand {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(seed))
	binary.LittleEndian.PutUint64(buf[8:], uint64(ref.Key))
	h, _ := blake2b.New256(nil)
	h.Write(buf[:])
	h.Write([]byte(ref.Dimension))
	sum := h.Sum(nil)
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(sum[:8]))))
}
