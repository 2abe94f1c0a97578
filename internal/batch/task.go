package batch

import (
	"sync"

	"github.com/odunayo-falade/fleetdocs/constants"
)

// Task tracks one file's status across the batch run. Status writes come
// from the worker goroutine via the pipeline progress callback; reads may
// come from any goroutine polling batch progress.
type Task struct {
	Index    int
	Filename string

	mu     sync.Mutex
	status constants.TaskStatus
}

func NewTask(index int, filename string) *Task {
	return &Task{Index: index, Filename: filename, status: constants.TaskQueued}
}

func (t *Task) Status() constants.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Set advances the task status. Transitions are one-directional: once a
// terminal status is recorded, later writes are ignored.
func (t *Task) Set(next constants.TaskStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return
	}
	t.status = next
}
