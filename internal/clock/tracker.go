package clock

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Tracker reads and stamps the last-seen timestamp of a world. Storage
// failures never escape Gap: they degrade to first-run behavior.
type Tracker struct {
	store     Store
	now       func() time.Time
	msPerTick int64
	scale     int64
	log       *zap.Logger
}

// TrackerOption customizes a Tracker.
type TrackerOption func(*Tracker)

// WithNow replaces the wall clock source.
func WithNow(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// WithTimeScale multiplies every measured gap, for testing long absences quickly.
func WithTimeScale(scale int64) TrackerOption {
	return func(t *Tracker) { t.scale = scale }
}

func NewTracker(store Store, msPerTick int64, log *zap.Logger, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		store:     store,
		now:       time.Now,
		msPerTick: msPerTick,
		scale:     1,
		log:       log,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Now returns the tracker's current wall clock time in epoch ms.
func (t *Tracker) Now() int64 {
	return t.now().UnixMilli()
}

// Gap loads the stored timestamp and measures the offline interval up to now.
func (t *Tracker) Gap(ctx context.Context) Gap {
	now := t.Now()
	last, ok, err := t.store.Load(ctx)
	if err != nil {
		t.log.Error("load time tracker failed, treating as first run", zap.Error(err))
		ok = false
	}
	g := ComputeGap(last, ok, now, t.msPerTick, t.scale)
	if t.scale > 1 && g.Known {
		t.log.Warn("time scale active, offline gap multiplied", zap.Int64("scale", t.scale))
	}
	return g
}

// Save stamps the current time. The error is logged and returned so callers
// can count failures, but it is never fatal.
func (t *Tracker) Save(ctx context.Context) error {
	ts := t.Now()
	if err := t.store.Save(ctx, ts); err != nil {
		t.log.Error("save time tracker failed", zap.Int64("timestamp", ts), zap.Error(err))
		return err
	}
	t.log.Debug("time tracker saved", zap.Int64("timestamp", ts))
	return nil
}
