package progress

import (
	"sync"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

// Task is a named slot holding at most one active Progress, enforcing
// spec.md §3's "at most one check and one archive task in progress
// globally" invariant.
type Task struct {
	mu       sync.Mutex
	progress *Progress
}

// NewTask returns an empty task slot.
func NewTask() *Task {
	return &Task{}
}

// Start installs progress as the task's active run, failing with
// fstoreerr.InProgress if one is already installed.
func (t *Task) Start(name string, progress *Progress) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.progress != nil {
		return fstoreerr.InProgress(name)
	}
	t.progress = progress
	return nil
}

// Clear empties the task slot.
func (t *Task) Clear() {
	t.mu.Lock()
	t.progress = nil
	t.mu.Unlock()
}

// Snapshot returns the task's current Progress handle, or nil if idle.
func (t *Task) Snapshot() *Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Guard ties a Progress's lifetime to its Task slot: dropping the guard
// finishes the Progress and clears the slot, guaranteed on every exit path
// via defer at the call site, mirroring the resource-scoping spec.md §9
// calls for around Parts, file locks, and ProgressGuards.
type Guard struct {
	task     *Task
	progress *Progress
	once     sync.Once
}

// StartGuarded installs a new Progress of the given total on task and
// returns a Guard for it, or fails with fstoreerr.InProgress.
func StartGuarded(task *Task, name string, total int64) (*Guard, *Progress, error) {
	p := New(total)
	if err := task.Start(name, p); err != nil {
		return nil, nil, err
	}
	return &Guard{task: task, progress: p}, p, nil
}

// Release finishes the Progress and clears the Task slot. Idempotent.
func (g *Guard) Release() {
	g.once.Do(func() {
		g.progress.finish()
		g.task.Clear()
	})
}
