// Package progress implements C8: an observable handle for an in-flight
// background job (check or archive), plus a Task slot enforcing at most one
// active job per name. Grounded on the teacher's lifecycle.Service shape
// (sync.Once-guarded single start, sync.WaitGroup-based join, small
// exported Stop/Start surface) adapted from process lifecycle to per-job
// progress tracking.
package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/fstore/pkg/metadata"
)

const errorFlushThreshold = 100

// Progress is an immutable handle backed by shared, synchronized state.
// Safe for concurrent use: counters are atomics, the message buffer is
// mutex-guarded, and Finished() can be awaited from multiple goroutines.
type Progress struct {
	started time.Time

	total     int64
	completed atomic.Int64
	errCount  atomic.Int64

	mu       sync.Mutex
	messages []metadata.ObjectError

	done     chan struct{}
	closeDone sync.Once
	endedAt  atomic.Pointer[time.Time]
}

// New creates a Progress for a job expected to process total items.
func New(total int64) *Progress {
	return &Progress{
		started: time.Now().UTC(),
		total:   total,
		done:    make(chan struct{}),
	}
}

// Completed returns the number of items processed so far.
func (p *Progress) Completed() int64 { return p.completed.Load() }

// Errors returns the number of items currently recorded as errored.
func (p *Progress) Errors() int64 { return p.errCount.Load() }

// Total returns the total item count the job was started with.
func (p *Progress) Total() int64 { return p.total }

// Elapsed returns the time since the job started (or, once finished, the
// time between start and finish).
func (p *Progress) Elapsed() time.Duration {
	if end := p.endedAt.Load(); end != nil {
		return end.Sub(p.started)
	}
	return time.Since(p.started)
}

// Finished blocks until the job completes.
func (p *Progress) Finished() {
	<-p.done
}

// Done reports whether the job has completed, without blocking.
func (p *Progress) Done() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Increment advances the completed counter by one. Called by the stream
// worker (C10) once per finished per-object action.
func (p *Progress) Increment() {
	p.completed.Add(1)
}

// RecordError appends a non-empty ObjectError message for id, returning a
// batch to flush immediately if the buffer has grown past
// errorFlushThreshold entries (spec.md §4.8's error buffer policy).
func (p *Progress) RecordError(id uuid.UUID, message string) []metadata.ObjectError {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errCount.Add(1)
	p.messages = append(p.messages, metadata.ObjectError{ObjectID: id, Message: message})
	return p.drainIfOverLocked()
}

// ClearError appends an empty-message ObjectError for id, marking it clean.
func (p *Progress) ClearError(id uuid.UUID) []metadata.ObjectError {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.messages = append(p.messages, metadata.ObjectError{ObjectID: id, Message: ""})
	return p.drainIfOverLocked()
}

func (p *Progress) drainIfOverLocked() []metadata.ObjectError {
	if len(p.messages) <= errorFlushThreshold {
		return nil
	}
	batch := p.messages
	p.messages = nil
	return batch
}

// Drain returns and clears any remaining buffered messages, used once after
// the object stream ends to flush the tail of the buffer.
func (p *Progress) Drain() []metadata.ObjectError {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.messages
	p.messages = nil
	return batch
}

// finish marks the Progress as ended and releases anyone blocked in
// Finished(). Safe to call more than once; only the first call has effect.
func (p *Progress) finish() {
	p.closeDone.Do(func() {
		now := time.Now().UTC()
		p.endedAt.Store(&now)
		close(p.done)
	})
}
