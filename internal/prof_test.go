package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStartCPUProfile(t *testing.T) {
	logger := zaptest.NewLogger(t)

	stop, err := StartCPUProfile("", logger)
	require.NoError(t, err)
	stop()

	path := filepath.Join(t.TempDir(), "cpu.prof")
	stop, err = StartCPUProfile(path, logger)
	require.NoError(t, err)
	stop()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	_, err = StartCPUProfile(filepath.Join(t.TempDir(), "missing", "cpu.prof"), logger)
	assert.Error(t, err)
}
