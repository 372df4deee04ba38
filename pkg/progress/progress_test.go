package progress

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

func TestTaskRejectsConcurrentStart(t *testing.T) {
	task := NewTask()

	guard, p, err := StartGuarded(task, "check", 10)
	require.NoError(t, err)
	require.NotNil(t, p)

	_, _, err = StartGuarded(task, "check", 5)
	require.Error(t, err)
	assert.Equal(t, fstoreerr.KindInProgress, fstoreerr.KindOf(err))

	guard.Release()

	_, _, err = StartGuarded(task, "check", 5)
	require.NoError(t, err)
}

func TestGuardReleaseFinishesProgress(t *testing.T) {
	task := NewTask()
	guard, p, err := StartGuarded(task, "archive", 1)
	require.NoError(t, err)

	p.Increment()
	guard.Release()

	p.Finished()
	assert.Equal(t, int64(1), p.Completed())
	assert.Nil(t, task.Snapshot())
}

func TestRecordErrorFlushesPastThreshold(t *testing.T) {
	p := New(int64(errorFlushThreshold + 1))

	for i := 0; i < errorFlushThreshold; i++ {
		batch := p.RecordError(uuid.New(), "boom")
		assert.Empty(t, batch)
	}

	batch := p.RecordError(uuid.New(), "boom")
	assert.Len(t, batch, errorFlushThreshold+1)

	remaining := p.Drain()
	assert.Empty(t, remaining)
}

func TestClearErrorAfterRecordError(t *testing.T) {
	p := New(2)
	id := uuid.New()

	p.RecordError(id, "mismatch")
	p.ClearError(id)

	batch := p.Drain()
	require.Len(t, batch, 2)
	assert.Equal(t, "mismatch", batch[0].Message)
	assert.Equal(t, "", batch[1].Message)
}
