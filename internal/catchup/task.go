package catchup

import "github.com/l1jgo/timeskip/internal/world"

// TaskState tracks a region task through the queue.
//
//	Pending → InProgress → Completed
//	Pending → Discarded (region unloaded before its turn)
type TaskState uint8

const (
	TaskPending TaskState = iota
	TaskInProgress
	TaskCompleted
	TaskDiscarded
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskInProgress:
		return "in_progress"
	case TaskCompleted:
		return "completed"
	case TaskDiscarded:
		return "discarded"
	}
	return "unknown"
}

// Task is the catch-up work for one region. Owned by the Queue from
// Enqueue until it settles.
type Task struct {
	Region world.RegionRef
	Ticks  int64
	State  TaskState
	Err    error // set when a completed task's replay failed
}
