package catchup

import (
	"time"

	"go.uber.org/zap"
)

// DefaultDrainPerTick is the number of region tasks run per simulation tick.
const DefaultDrainPerTick = 2

// DrainStats summarizes one Drain call.
type DrainStats struct {
	Completed int
	Failed    int // completed with a replay error
	Discarded int
	Remaining int
	Elapsed   time.Duration
	Settled   []Task // tasks popped this call, in execution order
}

// Ran returns the number of tasks whose replay was executed.
func (s DrainStats) Ran() int { return s.Completed + s.Failed }

// Queue is a FIFO of pending region tasks drained under a per-tick budget.
// Game loop only.
type Queue struct {
	tasks     []Task
	residency ResidencyChecker
	log       *zap.Logger
}

func NewQueue(residency ResidencyChecker, log *zap.Logger) *Queue {
	return &Queue{
		tasks:     make([]Task, 0, 64),
		residency: residency,
		log:       log,
	}
}

// Enqueue appends t as pending. Tasks with nothing to simulate are dropped;
// the return value reports whether t was queued.
func (q *Queue) Enqueue(t Task) bool {
	if t.Ticks <= 0 {
		return false
	}
	t.State = TaskPending
	t.Err = nil
	q.tasks = append(q.tasks, t)
	return true
}

func (q *Queue) Len() int { return len(q.tasks) }

// Reset drops every pending task and returns how many were dropped.
func (q *Queue) Reset() int {
	n := len(q.tasks)
	clear(q.tasks)
	q.tasks = q.tasks[:0]
	return n
}

// Drain pops up to budget tasks in FIFO order. A task whose region is no longer
// resident is discarded without running; every other task is handed to run.
func (q *Queue) Drain(budget int, run func(Task) error) DrainStats {
	var stats DrainStats
	if len(q.tasks) == 0 || budget <= 0 {
		stats.Remaining = len(q.tasks)
		return stats
	}
	start := time.Now()
	for i := 0; i < budget && len(q.tasks) > 0; i++ {
		t := q.tasks[0]
		q.tasks[0] = Task{}
		q.tasks = q.tasks[1:]

		if !q.residency.RegionResident(t.Region.Dimension, t.Region.Key) {
			t.State = TaskDiscarded
			stats.Discarded++
			stats.Settled = append(stats.Settled, t)
			q.log.Debug("catch-up task discarded, region unloaded", zap.Stringer("region", t.Region))
			continue
		}

		t.State = TaskInProgress
		t.Err = run(t)
		t.State = TaskCompleted
		if t.Err != nil {
			stats.Failed++
			q.log.Warn("catch-up task failed", zap.Stringer("region", t.Region), zap.Error(t.Err))
		} else {
			stats.Completed++
		}
		stats.Settled = append(stats.Settled, t)
	}
	if len(q.tasks) == 0 {
		q.tasks = q.tasks[:0:0]
	}
	stats.Remaining = len(q.tasks)
	stats.Elapsed = time.Since(start)
	return stats
}
