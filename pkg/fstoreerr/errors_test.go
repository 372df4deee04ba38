package fstoreerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KindNotFound:   "NotFound",
		KindWriteLock:  "WriteLock",
		KindSQL:        "SQL",
		KindInProgress: "InProgress",
		KindInternal:   "Internal",
		Kind(99):       "Unknown(99)",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("bucket")))
	assert.Equal(t, KindWriteLock, KindOf(WriteLock("part-1")))
	assert.Equal(t, KindInProgress, KindOf(InProgress("archive")))

	cause := errors.New("boom")
	sqlErr := SQL(cause)
	assert.Equal(t, KindSQL, KindOf(sqlErr))
	assert.ErrorIs(t, sqlErr, cause)

	intErr := Internal("rename failed", cause)
	assert.Equal(t, KindInternal, KindOf(intErr))
	assert.Contains(t, intErr.Error(), "rename failed")
	assert.Contains(t, intErr.Error(), "boom")
}

func TestIs(t *testing.T) {
	err := NotFound("object")
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindInternal))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("wrapping: %w", NotFound("bucket"))
	assert.Equal(t, KindNotFound, KindOf(err))
}
