package memory

import (
	"context"
	"testing"
	"time"

	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/logtest"
	"github.com/oneconcern/amos/pkg/store/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog(t *testing.T) {
	logtest.Run(t, func(_ testing.TB) store.Log { return New() })
}

func TestClosed(t *testing.T) {
	l := New()
	require.NoError(t, l.Close())

	err := l.Append(context.Background(), model.Commit{ID: "x"}, nil)
	assert.True(t, errors.Is(err, status.ErrClosed))
	_, err = l.Records(context.Background(), model.SetKey{}, time.Now())
	assert.True(t, errors.Is(err, status.ErrClosed))
}

func TestReadersKeepTheirSnapshot(t *testing.T) {
	l := New()
	now := time.Now()
	require.NoError(t, l.Append(context.Background(), model.Commit{ID: "c1"}, []model.Record{
		{Component: "moodle", Language: "en", Version: 2000, StringID: "a", Text: "A", Modified: now},
	}))

	tree, err := l.snapshot()
	require.NoError(t, err)

	require.NoError(t, l.Append(context.Background(), model.Commit{ID: "c2"}, []model.Record{
		{Component: "moodle", Language: "en", Version: 2000, StringID: "b", Text: "B", Modified: now},
	}))

	count := 0
	tree.Root().WalkPrefix([]byte(recordPrefix), func(_ []byte, _ interface{}) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
