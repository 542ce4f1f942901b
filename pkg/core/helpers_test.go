package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/oneconcern/amos/pkg/metrics"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	v19 = model.MustVersion("MOODLE_19_STABLE")
	v20 = model.MustVersion("MOODLE_20_STABLE")
	v21 = model.MustVersion("MOODLE_21_STABLE")
	v22 = model.MustVersion("MOODLE_22_STABLE")
)

// testClock is a settable clock, starting on a whole second
type testClock struct {
	mx  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().Truncate(time.Second).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mx.Lock()
	defer c.mx.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func testRepository(t testing.TB, opts ...Option) (*Repository, *testClock, *metrics.M) {
	clock := newTestClock()
	m := metrics.MustNew(prometheus.NewRegistry())
	repo, err := New(memory.New(), append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(m),
		WithClock(clock.Now),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Log().Close() })
	return repo, clock, m
}

func set(name, lang string, version model.Version, strs ...model.String) *model.StringSet {
	return model.NewStringSet(name, lang, version).MustAdd(strs...)
}

// commitSets stages some sets and commits them as is
func commitSets(t testing.TB, repo *Repository, message string, opts []CommitOption, sets ...*model.StringSet) CommitResult {
	stage := repo.NewStage()
	for _, s := range sets {
		require.NoError(t, stage.Put(s, false))
	}
	res, err := stage.Commit(context.Background(), message, map[string]string{"source": "unittest"}, opts...)
	require.NoError(t, err)
	require.False(t, stage.HasComponent())
	return res
}
