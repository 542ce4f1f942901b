// Package logtest provides a conformance test suite for repository log backends.
package logtest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/oneconcern/amos/pkg/store/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh, empty log for a test
type Factory func(t testing.TB) store.Log

var baseTime = time.Date(2010, 6, 1, 12, 0, 0, 0, time.UTC)

func rec(component, lang string, version int, id, text string, modified time.Time) model.Record {
	return model.Record{
		Component: component,
		Language:  lang,
		Version:   version,
		StringID:  id,
		Text:      text,
		Modified:  modified,
	}
}

func deletion(r model.Record) model.Record {
	r.Deleted = true
	return r
}

func commit(t testing.TB, l store.Log, id string, records ...model.Record) {
	require.NoError(t, l.Append(context.Background(), model.Commit{ID: id, Message: "commit " + id, Committed: baseTime}, records))
}

// Run the conformance suite against a backend
func Run(t *testing.T, factory Factory) {
	t.Run("append and latest", func(t *testing.T) { testAppendLatest(t, factory(t)) })
	t.Run("tie-break on insertion order", func(t *testing.T) { testTieBreak(t, factory(t)) })
	t.Run("records as of some time", func(t *testing.T) { testRecords(t, factory(t)) })
	t.Run("distinct", func(t *testing.T) { testDistinct(t, factory(t)) })
	t.Run("count grouped", func(t *testing.T) { testCountGrouped(t, factory(t)) })
	t.Run("commits", func(t *testing.T) { testCommits(t, factory(t)) })
	t.Run("atomic append", func(t *testing.T) { testAtomicAppend(t, factory(t)) })
	t.Run("concurrent appends", func(t *testing.T) { testConcurrentAppends(t, factory(t)) })
}

func testAppendLatest(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	key := model.StringKey{SetKey: model.SetKey{Component: "moodle", Language: "cs", Version: 2000}, StringID: "welcome"}
	_, err := l.Latest(ctx, key, baseTime)
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))

	commit(t, l, "c1", rec("moodle", "cs", 2000, "welcome", "Vítejte", baseTime))

	r, err := l.Latest(ctx, key, baseTime)
	require.NoError(t, err)
	assert.Equal(t, "Vítejte", r.Text)
	assert.Equal(t, "c1", r.CommitID)
	assert.NotZero(t, r.Seq)
	assert.True(t, baseTime.Equal(r.Modified))

	_, err = l.Latest(ctx, key, baseTime.Add(-time.Second))
	assert.True(t, errors.Is(err, status.ErrNotFound), "nothing was recorded before")
}

func testTieBreak(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	key := model.StringKey{SetKey: model.SetKey{Component: "moodle", Language: "cs", Version: 2000}, StringID: "x"}
	commit(t, l, "c1", rec("moodle", "cs", 2000, "x", "First", baseTime))
	commit(t, l, "c2", rec("moodle", "cs", 2000, "x", "Second", baseTime))

	r, err := l.Latest(ctx, key, baseTime)
	require.NoError(t, err)
	assert.Equal(t, "Second", r.Text, "the most recently inserted record wins on equal times")

	// an older record inserted later does not win
	commit(t, l, "c3", rec("moodle", "cs", 2000, "x", "Yesterday", baseTime.Add(-24*time.Hour)))
	r, err = l.Latest(ctx, key, baseTime)
	require.NoError(t, err)
	assert.Equal(t, "Second", r.Text)

	// a deletion at the same time wins
	commit(t, l, "c4", deletion(rec("moodle", "cs", 2000, "x", "Second", baseTime)))
	r, err = l.Latest(ctx, key, baseTime)
	require.NoError(t, err)
	assert.True(t, r.Deleted)

	r, err = l.Latest(ctx, key, baseTime.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "Yesterday", r.Text)
}

func testRecords(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	commit(t, l, "c1",
		rec("auth", "cs", 2000, "two", "Dva", baseTime),
		rec("auth", "cs", 2000, "one", "Jedna", baseTime),
		rec("auth_ldap", "cs", 2000, "one", "Other component", baseTime),
		rec("auth", "cs", 2100, "one", "Other version", baseTime),
		rec("auth", "en", 2000, "one", "Other language", baseTime),
	)
	commit(t, l, "c2",
		deletion(rec("auth", "cs", 2000, "two", "Dva", baseTime.Add(time.Hour))),
		rec("auth", "cs", 2000, "one", "Jedna!", baseTime.Add(time.Hour)),
	)

	key := model.SetKey{Component: "auth", Language: "cs", Version: 2000}
	records, err := l.Records(ctx, key, baseTime)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "one", records[0].StringID)
	assert.Equal(t, "Jedna", records[0].Text)
	assert.Equal(t, "two", records[1].StringID)
	assert.False(t, records[1].Deleted)

	records, err = l.Records(ctx, key, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Jedna!", records[0].Text)
	assert.True(t, records[1].Deleted, "deletions are reported")

	records, err = l.Records(ctx, model.SetKey{Component: "nope", Language: "cs", Version: 2000}, baseTime)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func testDistinct(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	commit(t, l, "c1",
		rec("moodle", "en", 1900, "a", "A", baseTime),
		rec("moodle", "cs", 2000, "a", "A", baseTime),
		rec("workshop", "en", 2000, "a", "A", baseTime),
		rec("auth", "es", 10000, "a", "A", baseTime),
	)

	values, err := l.Distinct(ctx, store.DimensionVersion, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1900", "2000", "10000"}, values)

	values, err = l.Distinct(ctx, store.DimensionLanguage, store.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"cs", "en", "es"}, values)

	values, err = l.Distinct(ctx, store.DimensionComponent, store.Filter{Languages: []string{"en"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"moodle", "workshop"}, values)

	values, err = l.Distinct(ctx, store.DimensionLanguage, store.Filter{Versions: []int{2000}, Components: []string{"moodle", "auth"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"cs"}, values)

	values, err = l.Distinct(ctx, store.DimensionLanguage, store.Filter{Versions: []int{3000}})
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = l.Distinct(ctx, store.Dimension("stringid"), store.Filter{})
	assert.True(t, errors.Is(err, status.ErrUnknownDimension))
}

func testCountGrouped(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	commit(t, l, "c1",
		rec("moodle", "en", 2000, "a", "A", baseTime),
		rec("moodle", "en", 2000, "b", "B", baseTime),
		rec("moodle", "cs", 2000, "a", "A", baseTime),
		rec("workshop", "en", 2100, "a", "A", baseTime),
	)
	commit(t, l, "c2", deletion(rec("moodle", "en", 2000, "b", "B", baseTime.Add(time.Hour))))

	counts, err := l.CountGrouped(ctx, store.Filter{}, baseTime)
	require.NoError(t, err)
	assert.Equal(t, []store.GroupCount{
		{SetKey: model.SetKey{Component: "moodle", Language: "cs", Version: 2000}, Count: 1},
		{SetKey: model.SetKey{Component: "moodle", Language: "en", Version: 2000}, Count: 2},
		{SetKey: model.SetKey{Component: "workshop", Language: "en", Version: 2100}, Count: 1},
	}, counts)

	counts, err = l.CountGrouped(ctx, store.Filter{Languages: []string{"en"}, Versions: []int{2000}}, baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []store.GroupCount{
		{SetKey: model.SetKey{Component: "moodle", Language: "en", Version: 2000}, Count: 1},
	}, counts)

	counts, err = l.CountGrouped(ctx, store.Filter{Components: []string{"nope"}}, baseTime)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func testCommits(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	c := model.Commit{
		ID:        "c1",
		Message:   "MDL-1234 initial import",
		Source:    "git",
		Meta:      map[string]string{"userinfo": "David Mudrak <david@moodle.com>"},
		Committed: baseTime,
	}
	require.NoError(t, l.Append(ctx, c, []model.Record{rec("moodle", "en", 2000, "a", "A", baseTime)}))

	actual, err := l.GetCommit(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, c.Message, actual.Message)
	assert.Equal(t, c.Source, actual.Source)
	assert.Equal(t, c.Meta, actual.Meta)
	assert.True(t, c.Committed.Equal(actual.Committed))

	_, err = l.GetCommit(ctx, "c2")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	err = l.Append(ctx, c, nil)
	assert.True(t, errors.Is(err, status.ErrCommitExists))

	err = l.Append(ctx, model.Commit{}, nil)
	assert.True(t, errors.Is(err, status.ErrCommitIDRequired))
}

func testAtomicAppend(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	err := l.Append(ctx, model.Commit{ID: "bad", Committed: baseTime}, []model.Record{
		rec("moodle", "en", 2000, "a", "A", baseTime),
		rec("moodle", "en", 2000, "", "no id", baseTime),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrInvalidRecord))

	records, err := l.Records(ctx, model.SetKey{Component: "moodle", Language: "en", Version: 2000}, baseTime)
	require.NoError(t, err)
	assert.Empty(t, records, "no record of a failed batch is visible")

	_, err = l.GetCommit(ctx, "bad")
	assert.True(t, errors.Is(err, status.ErrNotFound))
}

func testConcurrentAppends(t *testing.T, l store.Log) {
	ctx := context.Background()
	defer func() { _ = l.Close() }()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%02d", i)
			errs <- l.Append(ctx, model.Commit{ID: "c" + id, Committed: baseTime}, []model.Record{
				rec("moodle", "en", 2000, id, "A", baseTime),
				rec("moodle", "cs", 2000, id, "A", baseTime),
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := l.Records(ctx, model.SetKey{Component: "moodle", Language: "en", Version: 2000}, baseTime)
	require.NoError(t, err)
	assert.Len(t, records, workers)

	seen := make(map[uint64]struct{})
	for _, lang := range []string{"en", "cs"} {
		records, err := l.Records(ctx, model.SetKey{Component: "moodle", Language: lang, Version: 2000}, baseTime)
		require.NoError(t, err)
		for _, r := range records {
			_, dup := seen[r.Seq]
			require.Falsef(t, dup, "sequence %d assigned twice", r.Seq)
			seen[r.Seq] = struct{}{}
		}
	}
}
