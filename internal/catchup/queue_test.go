package catchup

import (
	"errors"
	"testing"

	"github.com/l1jgo/timeskip/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type residentSet map[world.RegionRef]bool

func (s residentSet) RegionResident(dim world.DimensionID, key world.RegionKey) bool {
	return s[world.RegionRef{Dimension: dim, Key: key}]
}

func refAt(x int32) world.RegionRef {
	return world.RegionRef{Dimension: world.Overworld, Key: world.RegionPos{X: x}.Key()}
}

func TestQueueRejectsNothingToSimulate(t *testing.T) {
	q := NewQueue(residentSet{}, zap.NewNop())
	assert.False(t, q.Enqueue(Task{Region: refAt(0), Ticks: 0}))
	assert.False(t, q.Enqueue(Task{Region: refAt(0), Ticks: -5}))
	assert.Zero(t, q.Len())
}

func TestQueueDrainsFIFOWithinBudget(t *testing.T) {
	resident := residentSet{}
	q := NewQueue(resident, zap.NewNop())
	for x := int32(0); x < 5; x++ {
		resident[refAt(x)] = true
		require.True(t, q.Enqueue(Task{Region: refAt(x), Ticks: 100}))
	}

	var ran []world.RegionRef
	run := func(task Task) error {
		assert.Equal(t, TaskInProgress, task.State)
		ran = append(ran, task.Region)
		return nil
	}

	stats := q.Drain(2, run)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 3, stats.Remaining)
	assert.Equal(t, []world.RegionRef{refAt(0), refAt(1)}, ran)
	for _, task := range stats.Settled {
		assert.Equal(t, TaskCompleted, task.State)
	}

	q.Drain(2, run)
	stats = q.Drain(2, run)
	assert.Equal(t, 1, stats.Completed)
	assert.Zero(t, stats.Remaining)
	assert.Equal(t, []world.RegionRef{refAt(0), refAt(1), refAt(2), refAt(3), refAt(4)}, ran)

	stats = q.Drain(2, run)
	assert.Zero(t, stats.Ran())
}

func TestQueueDiscardsUnloadedRegion(t *testing.T) {
	resident := residentSet{refAt(0): true, refAt(1): true}
	q := NewQueue(resident, zap.NewNop())
	q.Enqueue(Task{Region: refAt(0), Ticks: 10})
	q.Enqueue(Task{Region: refAt(1), Ticks: 10})
	resident[refAt(0)] = false

	calls := 0
	stats := q.Drain(2, func(Task) error { calls++; return nil })
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, stats.Discarded)
	assert.Equal(t, 1, stats.Completed)
	require.Len(t, stats.Settled, 2)
	assert.Equal(t, TaskDiscarded, stats.Settled[0].State)
	assert.Equal(t, TaskCompleted, stats.Settled[1].State)
}

func TestQueueFailedTaskSettles(t *testing.T) {
	q := NewQueue(residentSet{refAt(0): true}, zap.NewNop())
	q.Enqueue(Task{Region: refAt(0), Ticks: 10})

	boom := errors.New("boom")
	stats := q.Drain(1, func(Task) error { return boom })
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Completed)
	require.Len(t, stats.Settled, 1)
	assert.Equal(t, TaskCompleted, stats.Settled[0].State)
	assert.ErrorIs(t, stats.Settled[0].Err, boom)
	assert.Zero(t, q.Len(), "failed tasks are not retried")
}

func TestQueueReset(t *testing.T) {
	q := NewQueue(residentSet{}, zap.NewNop())
	q.Enqueue(Task{Region: refAt(0), Ticks: 1})
	q.Enqueue(Task{Region: refAt(1), Ticks: 1})
	assert.Equal(t, 2, q.Reset())
	assert.Zero(t, q.Len())
}
