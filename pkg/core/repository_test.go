package core

import (
	"context"
	"testing"
	"time"

	"github.com/oneconcern/amos/pkg/core/status"
	"github.com/oneconcern/amos/pkg/errors"
	"github.com/oneconcern/amos/pkg/model"
	"github.com/oneconcern/amos/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNewRequiresLog(t *testing.T) {
	_, err := New(nil)
	assert.True(t, errors.Is(err, status.ErrLogRequired))
}

func TestSnapshotAsOf(t *testing.T) {
	repo, clock, _ := testRepository(t)
	ctx := context.Background()
	then := clock.Now()

	commitSets(t, repo, "First", nil, set("admin", "cs", v20, model.NewString("foo", "First")))
	now := clock.Advance(time.Minute)
	commitSets(t, repo, "Second", nil, set("admin", "cs", v20, model.NewString("foo", "Second"), model.NewString("bar", "Bar")))

	past, err := repo.Snapshot(ctx, "admin", "cs", v20, then)
	require.NoError(t, err)
	str, _ := past.Get("foo")
	assert.Equal(t, "First", str.Text)
	assert.False(t, past.Has("bar"))

	current, err := repo.Snapshot(ctx, "admin", "cs", v20, time.Time{})
	require.NoError(t, err)
	str, _ = current.Get("foo")
	assert.Equal(t, "Second", str.Text)
	assert.Equal(t, now, str.Modified)
	assert.Equal(t, now, current.MostRecent())

	unknown, err := repo.Snapshot(ctx, "nothing", "cs", v20, time.Time{})
	require.NoError(t, err)
	assert.True(t, unknown.IsEmpty())
}

func TestListLanguages(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo, _, _ := testRepository(t)
	ctx := context.Background()

	commitSets(t, repo, "Registering two languages", nil,
		set("langconfig", "en", v19, model.NewString("thislanguageint", "English")),
		set("langconfig", "cs", v20, model.NewString("thislanguageint", "Czech")),
		set("langconfig", "cs", v19, model.NewString("thislanguageint", "CS")),
	)

	langs, err := repo.ListLanguages(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "English", "cs": "Czech"}, langs)

	langs, err = repo.ListLanguages(ctx, WithAuthoring(false), ShowCode(true))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cs": "Czech (cs)"}, langs)

	t.Run("cache is refreshed by commits", func(t *testing.T) {
		commitSets(t, repo, "Registering a third language", nil,
			set("moodle", "de", v20, model.NewString("yes", "Ja")))

		langs, err := repo.ListLanguages(ctx)
		require.NoError(t, err)
		assert.Equal(t, "de", langs["de"])

		commitSets(t, repo, "Naming it", nil,
			set("langconfig", "de", v20, model.NewString("thislanguageint", "Deutsch")))
		langs, err = repo.ListLanguages(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Deutsch", langs["de"])
	})

	t.Run("changes bypassing the repository need NoCache", func(t *testing.T) {
		require.NoError(t, repo.Log().Append(ctx, model.Commit{ID: "external"}, []model.Record{
			{Component: "moodle", Language: "fr", Version: v20.Code, StringID: "yes", Text: "Oui", Modified: repo.Now()},
		}))

		langs, err := repo.ListLanguages(ctx)
		require.NoError(t, err)
		assert.NotContains(t, langs, "fr")

		langs, err = repo.ListLanguages(ctx, NoCache())
		require.NoError(t, err)
		assert.Contains(t, langs, "fr")
	})
}

func TestListComponents(t *testing.T) {
	repo, _, _ := testRepository(t)
	ctx := context.Background()

	commitSets(t, repo, "Registering two English components", nil,
		set("workshop", "en", v19, model.NewString("modulename", "Workshop")),
		set("auth", "en", v20, model.NewString("foo", "Bar")),
		set("langconfig", "cs", v19, model.NewString("thislanguage", "CS")),
	)

	comps, err := repo.ListComponents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "workshop"}, comps)

	commitSets(t, repo, "A translation only", nil, set("forum", "cs", v20, model.NewString("foo", "Bar")))
	commitSets(t, repo, "A new component", nil, set("book", "en", v20, model.NewString("foo", "Bar")))

	comps, err = repo.ListComponents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "book", "workshop"}, comps)
}

func TestComponentsTree(t *testing.T) {
	repo, _, _ := testRepository(t)
	ctx := context.Background()

	var sets []*model.StringSet
	for _, v := range []model.Version{v19, v20, v21} {
		for _, lang := range []string{"en", "cs", "es"} {
			for _, component := range []string{"moodle", "auth_mnet", "workshop"} {
				sets = append(sets, set(component, lang, v, model.NewString("foo", "Bar")))
			}
		}
	}
	commitSets(t, repo, "Committing test strings", nil, sets...)

	t.Run("full tree", func(t *testing.T) {
		tree, err := repo.ComponentsTree(ctx, store.Filter{})
		require.NoError(t, err)
		require.Len(t, tree, 3)
		assert.Len(t, tree[1900], 3)
		assert.Len(t, tree[2000], 3)
		assert.Len(t, tree[2100], 3)
		assert.Len(t, tree[1900]["cs"], 3)
		assert.Len(t, tree[2000]["en"], 3)
		assert.Len(t, tree[2100]["es"], 3)
		assert.Equal(t, 1, tree[2100]["es"]["moodle"])
	})

	t.Run("empty trees", func(t *testing.T) {
		tree, err := repo.ComponentsTree(ctx, store.Filter{Versions: []int{1800}})
		require.NoError(t, err)
		assert.Empty(t, tree)

		tree, err = repo.ComponentsTree(ctx, store.Filter{Components: []string{"book"}})
		require.NoError(t, err)
		assert.Empty(t, tree)
	})

	t.Run("single value filters", func(t *testing.T) {
		tree, err := repo.ComponentsTree(ctx, store.Filter{Versions: []int{2000}, Languages: []string{"cs"}})
		require.NoError(t, err)
		require.Len(t, tree, 1)
		require.Len(t, tree[2000], 1)
		assert.Len(t, tree[2000]["cs"], 3)
		assert.Equal(t, 1, tree[2000]["cs"]["workshop"])

		tree, err = repo.ComponentsTree(ctx, store.Filter{Components: []string{"auth_mnet"}})
		require.NoError(t, err)
		require.Len(t, tree, 3)
		assert.Len(t, tree[1900], 3)
		assert.Len(t, tree[1900]["cs"], 1)
		assert.Len(t, tree[2000]["en"], 1)
		assert.Len(t, tree[2100]["es"], 1)
		assert.Equal(t, 1, tree[2100]["en"]["auth_mnet"])
	})

	t.Run("multi values filter", func(t *testing.T) {
		tree, err := repo.ComponentsTree(ctx, store.Filter{
			Versions:   []int{2000, 2100},
			Languages:  []string{"en"},
			Components: []string{"moodle", "workshop"},
		})
		require.NoError(t, err)
		require.Len(t, tree, 2)
		assert.Len(t, tree[2000], 1)
		assert.Len(t, tree[2100], 1)
		assert.Equal(t, map[string]int{"moodle": 1, "workshop": 1}, tree[2000]["en"])
		assert.Equal(t, map[string]int{"moodle": 1, "workshop": 1}, tree[2100]["en"])
	})

	t.Run("deleted strings are not counted", func(t *testing.T) {
		commitSets(t, repo, "Deleting", nil,
			set("moodle", "es", v21, model.NewString("foo", "Bar", model.AsDeleted())))
		tree, err := repo.ComponentsTree(ctx, store.Filter{Versions: []int{2100}, Languages: []string{"es"}})
		require.NoError(t, err)
		assert.NotContains(t, tree[2100]["es"], "moodle")
		assert.Len(t, tree[2100]["es"], 2)
	})
}
