package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapKeepsSentinel(t *testing.T) {
	sentinel := New("already exists")
	wrapped := sentinel.Wrapf("string %q", "foo")

	assert.True(t, Is(wrapped, sentinel))
	assert.Equal(t, `already exists: string "foo"`, wrapped.Error())
	assert.Equal(t, "already exists", sentinel.Error(), "sentinel must not be mutated")

	other := New("already exists")
	assert.False(t, Is(wrapped, other))
}

func TestWrapWithLog(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	l := zap.New(core)

	cause := New("disk full")
	err := New("append failed").WrapWithLog(l, cause, zap.String("commit", "x"))

	require.Error(t, err)
	assert.True(t, Is(err, cause))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "append failed: disk full", entry.Message)
	assert.Equal(t, "x", entry.ContextMap()["commit"])
}
