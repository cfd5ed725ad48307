package rigerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	err := New(Configuration, "test.Op", errors.New("boom"))
	assert.True(t, Is(err, Configuration))
	assert.False(t, Is(err, NotFound))
}

func TestErrCancelledIsCancellation(t *testing.T) {
	assert.True(t, Is(ErrCancelled, Cancellation))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(Subprocess, "test.Op", cause)
	assert.True(t, errors.Is(err, cause))
}
